package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ojs-tools/pnaudit/internal/audit"
	"github.com/ojs-tools/pnaudit/internal/ojs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishedSession(t *testing.T) {
	var filters []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		filters = append(filters, r.URL.Query().Get("isPublished"))
		_ = json.NewEncoder(w).Encode(map[string]any{"itemsMax": 1, "items": []map[string]any{{"id": 7}}})
	}))
	defer server.Close()

	c := ojs.NewClient(server.URL, ojs.WithRateLimit(0))
	defer c.Close()

	var s audit.Session = publishedSession{c}
	var ids []int
	for page, err := range s.Issues(context.Background()) {
		require.NoError(t, err)
		for _, issue := range page.Items {
			ids = append(ids, issue.ID)
		}
	}

	assert.Equal(t, []int{7}, ids)
	assert.Equal(t, []string{"true"}, filters)
}
