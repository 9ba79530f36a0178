package testhelpers

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/planthelper/backend/internal/service"
)

// MockPredictionService is a mock implementation of service.IPredictionService
type MockPredictionService struct {
	mock.Mock
}

func (m *MockPredictionService) Predict(ctx context.Context, uploads []service.Upload) (*service.PredictionResult, error) {
	args := m.Called(ctx, uploads)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PredictionResult), args.Error(1)
}

// MockRecommendationService is a mock implementation of service.IRecommendationService
type MockRecommendationService struct {
	mock.Mock
}

func (m *MockRecommendationService) Recommend(ctx context.Context, identification, meta map[string]any) *service.RecommendationResult {
	args := m.Called(ctx, identification, meta)
	return args.Get(0).(*service.RecommendationResult)
}
