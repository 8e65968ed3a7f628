// Package optional provides present-or-absent value types for fields that
// the OJS API and the PN manifest may leave empty.
package optional

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// String is a string that may be absent. The zero value is absent.
// An absent String never equals a present empty string.
type String struct {
	Value string
	Valid bool
}

// Some returns a present String.
func Some(s string) String {
	return String{Value: s, Valid: true}
}

// None returns an absent String.
func None() String {
	return String{}
}

// Equal reports whether both values are present and hold the same text.
func (s String) Equal(other String) bool {
	return s.Valid && other.Valid && s.Value == other.Value
}

// Or returns the value, or def when absent.
func (s String) Or(def string) string {
	if !s.Valid {
		return def
	}
	return s.Value
}

func (s String) String() string {
	if !s.Valid {
		return "None"
	}
	return s.Value
}

// UnmarshalJSON accepts a JSON string, a number (kept in its literal decimal
// form, never reformatted), or null.
func (s *String) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		*s = String{}
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = Some(str)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*s = Some(n.String())
		return nil
	}

	return fmt.Errorf("cannot unmarshal %s into optional.String", string(data))
}

// Int is an integer that may be absent.
type Int struct {
	Value int
	Valid bool
}

// SomeInt returns a present Int.
func SomeInt(n int) Int {
	return Int{Value: n, Valid: true}
}

func (i Int) String() string {
	if !i.Valid {
		return "None"
	}
	return strconv.Itoa(i.Value)
}

// UnmarshalJSON accepts a JSON number, a numeric string, an empty string
// (absent) or null.
func (i *Int) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		*i = Int{}
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*i = SomeInt(n)
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		if str == "" {
			*i = Int{}
			return nil
		}
		n, err := strconv.Atoi(str)
		if err != nil {
			return fmt.Errorf("cannot unmarshal %q into optional.Int: %w", str, err)
		}
		*i = SomeInt(n)
		return nil
	}

	return fmt.Errorf("cannot unmarshal %s into optional.Int", string(data))
}
