package service

import (
	"context"
)

// IPredictionService defines the interface for image classification
type IPredictionService interface {
	Predict(ctx context.Context, uploads []Upload) (*PredictionResult, error)
}

// IRecommendationService defines the interface for plant recommendations
type IRecommendationService interface {
	Recommend(ctx context.Context, identification, meta map[string]any) *RecommendationResult
}

var (
	_ IPredictionService     = (*PredictionService)(nil)
	_ IRecommendationService = (*RecommendationService)(nil)
)
