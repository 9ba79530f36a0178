package middleware

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requestIDRouter(seen *string) *gin.Engine {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) {
		*seen = c.GetString(RequestIDKey)
		c.Status(http.StatusNoContent)
	})
	return router
}

func TestRequestIDGenerated(t *testing.T) {
	var seen string
	w := serve(requestIDRouter(&seen), http.MethodGet, "/", nil)

	id := w.Header().Get(RequestIDHeader)
	require.NotEmpty(t, id)
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.Equal(t, id, seen)
}

func TestRequestIDPropagated(t *testing.T) {
	var seen string
	w := serve(requestIDRouter(&seen), http.MethodGet, "/", http.Header{RequestIDHeader: {"abc-123"}})

	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "abc-123", seen)
}

func TestRequestIDTooLongIsReplaced(t *testing.T) {
	var seen string
	long := strings.Repeat("x", maxRequestIDLength+1)
	w := serve(requestIDRouter(&seen), http.MethodGet, "/", http.Header{RequestIDHeader: {long}})

	assert.NotEqual(t, long, w.Header().Get(RequestIDHeader))
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
}
