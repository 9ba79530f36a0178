package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRecommend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/recommend", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		meta := payload["meta"].(map[string]any)
		assert.Equal(t, "low", meta["sunlight"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"recommendations":[],"explanation":"x"}`))
	}))
	defer srv.Close()

	status, body, err := postRecommend(context.Background(), srv.URL+"/recommend", samplePayload())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"ok":true,"recommendations":[],"explanation":"x"}`, string(body))
}

func TestPrettyJSON(t *testing.T) {
	assert.Equal(t, "{\n  \"ok\": true\n}", prettyJSON([]byte(`{"ok":true}`)))
	assert.Equal(t, "not json", prettyJSON([]byte("not json")))
}
