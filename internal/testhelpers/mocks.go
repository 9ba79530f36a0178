package testhelpers

import (
	"context"
	"image"

	"github.com/stretchr/testify/mock"

	"github.com/planthelper/backend/internal/classifier"
	"github.com/planthelper/backend/internal/llm"
)

// MockClassifier is a mock implementation of the classifier.Classifier interface
type MockClassifier struct {
	mock.Mock
	ModelName   string
	ModelLabels []string
}

// NewMockClassifier returns a classifier that reports name and labels
func NewMockClassifier(name string, labels ...string) *MockClassifier {
	return &MockClassifier{ModelName: name, ModelLabels: labels}
}

func (m *MockClassifier) Name() string { return m.ModelName }

func (m *MockClassifier) Labels() []string { return m.ModelLabels }

func (m *MockClassifier) Classify(ctx context.Context, img image.Image) (*classifier.Prediction, error) {
	args := m.Called(ctx, img)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*classifier.Prediction), args.Error(1)
}

// MockLLMClient is a mock implementation of the llm.Client interface
type MockLLMClient struct {
	mock.Mock
}

func (m *MockLLMClient) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockLLMClient) Provider() string { return "mock" }
