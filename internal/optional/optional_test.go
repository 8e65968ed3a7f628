package optional

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestString_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  String
	}{
		{"string", `"4"`, Some("4")},
		{"empty string is present", `""`, Some("")},
		{"integer keeps literal", `4`, Some("4")},
		{"decimal keeps literal", `4.0`, Some("4.0")},
		{"null is absent", `null`, None()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got String
			require.NoError(t, json.Unmarshal([]byte(tt.input), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestString_UnmarshalJSON_Missing(t *testing.T) {
	var issue struct {
		Volume String `json:"volume"`
		Number String `json:"number"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"volume": "12"}`), &issue))
	assert.True(t, issue.Volume.Valid)
	assert.False(t, issue.Number.Valid)
}

func TestString_UnmarshalJSON_Invalid(t *testing.T) {
	var got String
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &got))
}

func TestString_Equal(t *testing.T) {
	assert.True(t, Some("4").Equal(Some("4")))
	assert.False(t, Some("4").Equal(Some("4.0")))
	assert.False(t, None().Equal(None()))
	assert.False(t, Some("").Equal(None()))
}

func TestString_Or(t *testing.T) {
	assert.Equal(t, "x", Some("x").Or("y"))
	assert.Equal(t, "y", None().Or("y"))
}

func TestInt_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Int
		wantErr bool
	}{
		{"number", `2014`, SomeInt(2014), false},
		{"numeric string", `"2014"`, SomeInt(2014), false},
		{"empty string", `""`, Int{}, false},
		{"null", `null`, Int{}, false},
		{"text", `"twenty"`, Int{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Int
			err := json.Unmarshal([]byte(tt.input), &got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
