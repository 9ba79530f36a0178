package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(router *gin.Engine, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		handler    gin.HandlerFunc
		wantStatus int
		wantBody   string
	}{
		{
			name: "private error is hidden",
			handler: func(c *gin.Context) {
				_ = c.Error(errors.New("session run failed"))
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"Internal Server Error"}`,
		},
		{
			name: "public error keeps its message and status",
			handler: func(c *gin.Context) {
				c.Status(http.StatusBadRequest)
				_ = c.Error(errors.New("bad input")).SetType(gin.ErrorTypePublic)
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"bad input"}`,
		},
		{
			name: "panic is recovered",
			handler: func(c *gin.Context) {
				panic("boom")
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"Internal Server Error"}`,
		},
		{
			name: "written response is left alone",
			handler: func(c *gin.Context) {
				_ = c.Error(errors.New("logged only"))
				c.JSON(http.StatusOK, gin.H{"ok": true})
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"ok":true}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(ErrorHandler())
			router.GET("/", tt.handler)

			w := serve(router, http.MethodGet, "/", nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}
