// Package classifier runs pretrained image classification models against
// uploaded photos and maps the highest scoring output onto a label.
package classifier

import (
	"context"
	"fmt"
	"image"
)

// Model names, also used as keys in API responses
const (
	Soil = "soil"
	Leaf = "leaf"
)

// Prediction is the arg-max result of a single classification
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float32 `json:"confidence"`
}

// Classifier maps an image onto one label out of a fixed label set
type Classifier interface {
	Name() string
	Labels() []string
	Classify(ctx context.Context, img image.Image) (*Prediction, error)
}

// Set holds the soil and leaf classifiers
type Set struct {
	Soil Classifier
	Leaf Classifier
}

// ForIndex picks the classifier for the i-th uploaded file: the first upload is
// the soil photo, the second the plant photo.
func (s *Set) ForIndex(i int) (Classifier, error) {
	switch i {
	case 0:
		return s.Soil, nil
	case 1:
		return s.Leaf, nil
	default:
		return nil, fmt.Errorf("no classifier for upload %d", i)
	}
}

// Labels returns the label lists keyed by model name
func (s *Set) Labels() map[string][]string {
	out := make(map[string][]string, 2)
	if s.Soil != nil {
		out[s.Soil.Name()] = s.Soil.Labels()
	}
	if s.Leaf != nil {
		out[s.Leaf.Name()] = s.Leaf.Labels()
	}
	return out
}

// ArgMax returns the label with the highest score. Scores past the end of the
// label list are ignored.
func ArgMax(scores []float32, labels []string) (*Prediction, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("empty label list")
	}
	if len(scores) < len(labels) {
		return nil, fmt.Errorf("model produced %d scores for %d labels", len(scores), len(labels))
	}

	maxIdx := 0
	maxVal := scores[0]
	for i := 1; i < len(labels); i++ {
		if scores[i] > maxVal {
			maxVal = scores[i]
			maxIdx = i
		}
	}

	return &Prediction{
		Label:      labels[maxIdx],
		Confidence: maxVal,
	}, nil
}
