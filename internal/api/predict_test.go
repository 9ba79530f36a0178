package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"image/color"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/planthelper/backend/internal/classifier"
	"github.com/planthelper/backend/internal/middleware"
	"github.com/planthelper/backend/internal/service"
	"github.com/planthelper/backend/internal/testhelpers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupPredictRouter(svc service.IPredictionService, maxUploadBytes int64) *gin.Engine {
	router := gin.New()
	router.Use(middleware.ErrorHandler())
	NewPredictHandler(svc, maxUploadBytes).RegisterRoutes(router.Group("/"))
	return router
}

func postMultipart(router *gin.Engine, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/predict", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

// realPredictionService runs the real decode path against mocked models
func realPredictionService() (*service.PredictionService, *testhelpers.MockClassifier, *testhelpers.MockClassifier) {
	soil := testhelpers.NewMockClassifier(classifier.Soil, "clay", "loam")
	leaf := testhelpers.NewMockClassifier(classifier.Leaf, "healthy", "blight")
	return service.NewPredictionService(&classifier.Set{Soil: soil, Leaf: leaf}, 0), soil, leaf
}

func TestPredictNoFiles(t *testing.T) {
	svc := new(testhelpers.MockPredictionService)
	router := setupPredictRouter(svc, 1<<20)

	body, contentType := testhelpers.MultipartBody(t, map[string]string{"meta": "{}"})
	w := postMultipart(router, body, contentType)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No files uploaded", errorMessage(t, w))
	svc.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything)
}

func TestPredictNotMultipart(t *testing.T) {
	svc := new(testhelpers.MockPredictionService)
	router := setupPredictRouter(svc, 1<<20)

	w := postMultipart(router, bytes.NewBufferString(`{"files":[]}`), "application/json")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Expected a multipart/form-data body", errorMessage(t, w))
}

func TestPredictTooLarge(t *testing.T) {
	svc := new(testhelpers.MockPredictionService)
	router := setupPredictRouter(svc, 1024)

	body, contentType := testhelpers.MultipartBody(t, nil, testhelpers.FormFile{
		Field: "files", Filename: "big.png", Content: bytes.Repeat([]byte{0x42}, 4096),
	})
	w := postMultipart(router, body, contentType)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything)
}

func TestPredictInvalidImage(t *testing.T) {
	svc, soil, _ := realPredictionService()
	router := setupPredictRouter(svc, 1<<20)

	body, contentType := testhelpers.MultipartBody(t, nil, testhelpers.FormFile{
		Field: "files", Filename: "readme.txt", Content: []byte("plain text, not pixels"),
	})
	w := postMultipart(router, body, contentType)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid image: readme.txt", errorMessage(t, w))
	soil.AssertNotCalled(t, "Classify", mock.Anything, mock.Anything)
}

func TestPredictOversizedImage(t *testing.T) {
	svc, soil, _ := realPredictionService()
	router := setupPredictRouter(svc, 1<<20)

	body, contentType := testhelpers.MultipartBody(t, nil, testhelpers.FormFile{
		Field: "files", Filename: "bomb.png", Content: testhelpers.PNGHeader(30000, 30000),
	})
	w := postMultipart(router, body, contentType)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid image: bomb.png", errorMessage(t, w))
	soil.AssertNotCalled(t, "Classify", mock.Anything, mock.Anything)
}

func TestPredictTooManyFiles(t *testing.T) {
	svc, _, _ := realPredictionService()
	router := setupPredictRouter(svc, 1<<20)

	img := testhelpers.PNG(t, 4, 4, color.White)
	body, contentType := testhelpers.MultipartBody(t, nil,
		testhelpers.FormFile{Field: "files", Filename: "1.png", Content: img},
		testhelpers.FormFile{Field: "files", Filename: "2.png", Content: img},
		testhelpers.FormFile{Field: "files", Filename: "3.png", Content: img},
	)
	w := postMultipart(router, body, contentType)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "At most 2 files may be uploaded", errorMessage(t, w))
}

func TestPredictSuccessWithMeta(t *testing.T) {
	svc, soil, leaf := realPredictionService()
	router := setupPredictRouter(svc, 1<<20)

	soil.On("Classify", mock.Anything, mock.Anything).
		Return(&classifier.Prediction{Label: "loam", Confidence: 0.75}, nil).Once()
	leaf.On("Classify", mock.Anything, mock.Anything).
		Return(&classifier.Prediction{Label: "healthy", Confidence: 0.5}, nil).Once()

	body, contentType := testhelpers.MultipartBody(t,
		map[string]string{"meta": `{"sunlight":"low"}`},
		testhelpers.FormFile{Field: "files", Filename: "soil.png", Content: testhelpers.PNG(t, 10, 6, color.RGBA{R: 90, G: 60, B: 30, A: 255})},
		testhelpers.FormFile{Field: "files", Filename: "leaf.jpg", Content: testhelpers.JPEG(t, 8, 8, color.RGBA{G: 160, A: 255})},
	)
	w := postMultipart(router, body, contentType)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["ok"])
	assert.Equal(t, float64(2), resp["count"])
	assert.Equal(t, map[string]any{"sunlight": "low"}, resp["meta"])
	assert.NotContains(t, resp, "meta_raw")

	results := resp["results"].([]any)
	require.Len(t, results, 2)
	first := results[0].(map[string]any)
	assert.Equal(t, "soil.png", first["filename"])
	assert.Equal(t, "soil", first["model"])
	assert.Equal(t, "loam", first["label"])
	assert.Equal(t, float64(10), first["width"])
	second := results[1].(map[string]any)
	assert.Equal(t, "leaf", second["model"])
	assert.Equal(t, "healthy", second["label"])

	soil.AssertExpectations(t)
	leaf.AssertExpectations(t)
}

func TestPredictRawMeta(t *testing.T) {
	svc := new(testhelpers.MockPredictionService)
	router := setupPredictRouter(svc, 1<<20)

	svc.On("Predict", mock.Anything, mock.MatchedBy(func(uploads []service.Upload) bool {
		return len(uploads) == 1 && uploads[0].Filename == "soil.png"
	})).Return(&service.PredictionResult{
		OK:      true,
		Count:   1,
		Results: []service.ClassificationResult{{Filename: "soil.png", Model: "soil", Label: "clay"}},
	}, nil).Once()

	body, contentType := testhelpers.MultipartBody(t,
		map[string]string{"meta": "south facing window"},
		testhelpers.FormFile{Field: "files", Filename: "soil.png", Content: testhelpers.PNG(t, 2, 2, color.Black)},
	)
	w := postMultipart(router, body, contentType)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "south facing window", resp["meta_raw"])
	assert.NotContains(t, resp, "meta")
	svc.AssertExpectations(t)
}

func TestPredictInternalError(t *testing.T) {
	svc := new(testhelpers.MockPredictionService)
	router := setupPredictRouter(svc, 1<<20)

	svc.On("Predict", mock.Anything, mock.Anything).Return(nil, errors.New("onnx session failed")).Once()

	body, contentType := testhelpers.MultipartBody(t, nil,
		testhelpers.FormFile{Field: "files", Filename: "soil.png", Content: testhelpers.PNG(t, 2, 2, color.Black)},
	)
	w := postMultipart(router, body, contentType)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	msg := errorMessage(t, w)
	assert.Equal(t, "Internal Server Error", msg)
	assert.False(t, strings.Contains(msg, "onnx"))
}
