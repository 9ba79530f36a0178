package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/planthelper/backend/internal/classifier"
)

// MaxUploads is the number of images a single prediction accepts: a soil
// photo and an optional plant photo.
const MaxUploads = 2

// DefaultMaxImagePixels is used when no pixel cap is configured
const DefaultMaxImagePixels = 89_478_485

var (
	// ErrNoFiles is returned when a prediction is requested without images
	ErrNoFiles = errors.New("no files uploaded")
	// ErrTooManyFiles is returned for more than MaxUploads images
	ErrTooManyFiles = fmt.Errorf("at most %d files may be uploaded", MaxUploads)
)

// InvalidImageError reports an upload that could not be decoded as an image
type InvalidImageError struct {
	Filename string
	Err      error
}

func (e *InvalidImageError) Error() string {
	return fmt.Sprintf("invalid image: %s", e.Filename)
}

func (e *InvalidImageError) Unwrap() error { return e.Err }

// Upload is a single uploaded file
type Upload struct {
	Filename string
	Open     func() (io.ReadCloser, error)
}

// ClassificationResult is the per-image prediction output
type ClassificationResult struct {
	Filename   string  `json:"filename"`
	Model      string  `json:"model"`
	Label      string  `json:"label"`
	Confidence float32 `json:"confidence"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
}

// PredictionResult is the body returned by the predict endpoint
type PredictionResult struct {
	OK      bool                   `json:"ok"`
	Count   int                    `json:"count"`
	Results []ClassificationResult `json:"results"`
	Meta    any                    `json:"meta,omitempty"`
	MetaRaw string                 `json:"meta_raw,omitempty"`
}

// PredictionService decodes uploads and runs them through the classifiers
type PredictionService struct {
	classifiers    *classifier.Set
	maxImagePixels int
}

// NewPredictionService creates a new PredictionService instance. Images whose
// header declares more than maxImagePixels pixels are rejected before decoding;
// a non-positive value selects DefaultMaxImagePixels.
func NewPredictionService(classifiers *classifier.Set, maxImagePixels int) *PredictionService {
	if maxImagePixels <= 0 {
		maxImagePixels = DefaultMaxImagePixels
	}
	return &PredictionService{
		classifiers:    classifiers,
		maxImagePixels: maxImagePixels,
	}
}

// Predict classifies each upload: the first with the soil model, the second
// with the leaf model. All uploads are decoded before any model runs, so an
// undecodable file fails the request without inference cost.
func (s *PredictionService) Predict(ctx context.Context, uploads []Upload) (*PredictionResult, error) {
	if len(uploads) == 0 {
		return nil, ErrNoFiles
	}
	if len(uploads) > MaxUploads {
		return nil, ErrTooManyFiles
	}

	images := make([]image.Image, len(uploads))
	for i, upload := range uploads {
		img, err := s.decodeUpload(upload)
		if err != nil {
			log.Printf("[PredictionService] Failed to decode %q: %v", upload.Filename, err)
			return nil, &InvalidImageError{Filename: upload.Filename, Err: err}
		}
		images[i] = img
	}

	results := make([]ClassificationResult, 0, len(uploads))
	for i, img := range images {
		model, err := s.classifiers.ForIndex(i)
		if err != nil {
			return nil, err
		}

		prediction, err := model.Classify(ctx, img)
		if err != nil {
			return nil, fmt.Errorf("failed to classify %s: %w", uploads[i].Filename, err)
		}

		bounds := img.Bounds()
		log.Printf("[PredictionService] %s: %s -> %s (%.3f)", model.Name(), uploads[i].Filename, prediction.Label, prediction.Confidence)

		results = append(results, ClassificationResult{
			Filename:   uploads[i].Filename,
			Model:      model.Name(),
			Label:      prediction.Label,
			Confidence: prediction.Confidence,
			Width:      bounds.Dx(),
			Height:     bounds.Dy(),
		})
	}

	return &PredictionResult{
		OK:      true,
		Count:   len(results),
		Results: results,
	}, nil
}

// decodeUpload decodes an upload to an opaque RGB image, applying EXIF
// orientation. Alpha is discarded rather than composited. The header is read
// first so oversized images are refused without allocating their pixels.
func (s *PredictionService) decodeUpload(upload Upload) (image.Image, error) {
	if err := s.checkDimensions(upload); err != nil {
		return nil, err
	}

	file, err := upload.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, err := imaging.Decode(file, imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}

	rgb := imaging.Clone(img)
	for i := 3; i < len(rgb.Pix); i += 4 {
		rgb.Pix[i] = 0xff
	}
	return rgb, nil
}

func (s *PredictionService) checkDimensions(upload Upload) error {
	file, err := upload.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("image has no pixels (%dx%d)", cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(s.maxImagePixels) {
		return fmt.Errorf("image is %dx%d, exceeding the %d pixel limit", cfg.Width, cfg.Height, s.maxImagePixels)
	}
	return nil
}

// MergeMeta interprets the caller-supplied meta string. Valid JSON is
// returned parsed, anything else is returned verbatim as raw.
func MergeMeta(raw string) (meta any, metaRaw string) {
	if strings.TrimSpace(raw) == "" {
		return nil, ""
	}

	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, raw
	}
	if parsed == nil {
		return nil, raw
	}
	return parsed, ""
}
