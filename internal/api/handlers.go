// Package api exposes the prediction and recommendation services over HTTP.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/planthelper/backend/internal/service"
)

// Dependencies are the services the HTTP handlers are built from
type Dependencies struct {
	Prediction     service.IPredictionService
	Recommendation service.IRecommendationService
	ModelLabels    map[string][]string
	LLMProvider    string
	MaxUploadBytes int64
}

// RegisterRoutes registers all API routes
func RegisterRoutes(router *gin.RouterGroup, deps Dependencies) {
	NewHealthHandler(deps.ModelLabels, deps.LLMProvider).RegisterRoutes(router)
	NewPredictHandler(deps.Prediction, deps.MaxUploadBytes).RegisterRoutes(router)
	NewRecommendHandler(deps.Recommendation).RegisterRoutes(router)
}
