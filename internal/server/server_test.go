package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/planthelper/backend/config"
	"github.com/planthelper/backend/internal/api"
	"github.com/planthelper/backend/internal/middleware"
	"github.com/planthelper/backend/internal/service"
	"github.com/planthelper/backend/internal/testhelpers"
)

func testConfig() *config.Config {
	return &config.Config{
		ServerHost:         "127.0.0.1",
		ServerPort:         "0",
		AllowedOrigins:     []string{"*"},
		MaxUploadBytes:     1 << 20,
		RateLimitPerMinute: 60,
	}
}

func testDeps() (Deps, *testhelpers.MockRecommendationService) {
	rec := new(testhelpers.MockRecommendationService)
	return Deps{
		API: api.Dependencies{
			Prediction:     new(testhelpers.MockPredictionService),
			Recommendation: rec,
			ModelLabels:    map[string][]string{"soil": {"clay"}, "leaf": {"healthy"}},
			LLMProvider:    "openai",
		},
	}, rec
}

func TestNew(t *testing.T) {
	gin.SetMode(gin.TestMode)
	deps, _ := testDeps()
	server := New(testConfig(), deps)
	require.NotNil(t, server)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	server.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Body.String(), `"llm":"openai"`)
}

func TestRoutesRegistered(t *testing.T) {
	gin.SetMode(gin.TestMode)
	deps, rec := testDeps()
	rec.On("Recommend", mock.Anything, mock.Anything, mock.Anything).
		Return(service.FallbackRecommendation(nil, nil)).Once()
	server := New(testConfig(), deps)

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/recommend", strings.NewReader("{}")))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/predict", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	rec.AssertExpectations(t)
}

func TestStartAndShutdown(t *testing.T) {
	gin.SetMode(gin.TestMode)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	_, port, err := net.SplitHostPort(listener.Addr().String())
	require.NoError(t, err)
	require.NoError(t, listener.Close())

	cfg := testConfig()
	cfg.ServerPort = port
	deps, _ := testDeps()
	server := New(cfg, deps)

	errChan := make(chan error, 1)
	go func() { errChan <- server.Start() }()

	url := "http://127.0.0.1:" + port + "/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, server.Shutdown(ctx))

	select {
	case err := <-errChan:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
