package api

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/planthelper/backend/internal/service"
)

const (
	filesField = "files"
	metaField  = "meta"
)

type PredictHandler struct {
	predictionService service.IPredictionService
	maxUploadBytes    int64
}

func NewPredictHandler(predictionService service.IPredictionService, maxUploadBytes int64) *PredictHandler {
	return &PredictHandler{
		predictionService: predictionService,
		maxUploadBytes:    maxUploadBytes,
	}
}

func (h *PredictHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/predict", h.Predict)
}

// Predict classifies the uploaded soil and plant photos
func (h *PredictHandler) Predict(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": h.formError(err)})
		return
	}
	defer func() { _ = form.RemoveAll() }()

	files := form.File[filesField]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No files uploaded"})
		return
	}

	uploads := make([]service.Upload, 0, len(files))
	for _, fh := range files {
		uploads = append(uploads, toUpload(fh))
	}

	result, err := h.predictionService.Predict(c.Request.Context(), uploads)
	if err != nil {
		var invalid *service.InvalidImageError
		switch {
		case errors.Is(err, service.ErrNoFiles):
			c.JSON(http.StatusBadRequest, gin.H{"error": "No files uploaded"})
		case errors.Is(err, service.ErrTooManyFiles):
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("At most %d files may be uploaded", service.MaxUploads)})
		case errors.As(err, &invalid):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image: " + invalid.Filename})
		default:
			log.Printf("[PredictHandler] Prediction failed: %v", err)
			_ = c.Error(err)
		}
		return
	}

	if values := form.Value[metaField]; len(values) > 0 {
		result.Meta, result.MetaRaw = service.MergeMeta(values[0])
	}

	c.JSON(http.StatusOK, result)
}

func (h *PredictHandler) formError(err error) string {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return fmt.Sprintf("Upload exceeds the %d MB limit", h.maxUploadBytes>>20)
	case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary):
		return "Expected a multipart/form-data body"
	default:
		return "Malformed multipart body"
	}
}

func toUpload(fh *multipart.FileHeader) service.Upload {
	return service.Upload{
		Filename: fh.Filename,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}
