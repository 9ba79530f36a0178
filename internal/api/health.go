package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status string              `json:"status"`
	Models map[string][]string `json:"models"`
	LLM    string              `json:"llm"`
}

type HealthHandler struct {
	labels   map[string][]string
	provider string
}

func NewHealthHandler(labels map[string][]string, provider string) *HealthHandler {
	if labels == nil {
		labels = map[string][]string{}
	}
	return &HealthHandler{labels: labels, provider: provider}
}

func (h *HealthHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/health", h.Health)
}

// Health reports the loaded label sets and the configured text provider
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "ok",
		Models: h.labels,
		LLM:    h.provider,
	})
}
