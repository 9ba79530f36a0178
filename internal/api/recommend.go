package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/planthelper/backend/internal/service"
)

// maxRecommendBodyBytes bounds the JSON accepted by POST /recommend
const maxRecommendBodyBytes = 1 << 20

// RecommendRequest is the body accepted by POST /recommend. Each field is
// decoded on its own so one malformed field does not discard the other.
type RecommendRequest struct {
	Identification json.RawMessage `json:"identification"`
	Meta           json.RawMessage `json:"meta"`
}

type RecommendHandler struct {
	recommendationService service.IRecommendationService
}

func NewRecommendHandler(recommendationService service.IRecommendationService) *RecommendHandler {
	return &RecommendHandler{recommendationService: recommendationService}
}

func (h *RecommendHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/recommend", h.Recommend)
}

// Recommend always answers 200; upstream failures are folded into a
// fallback explanation by the service.
func (h *RecommendHandler) Recommend(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRecommendBodyBytes)

	var req RecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[RecommendHandler] Ignoring unreadable body: %v", err)
		req = RecommendRequest{}
	}

	identification := decodeObject("identification", req.Identification)
	meta := decodeObject("meta", req.Meta)

	result := h.recommendationService.Recommend(c.Request.Context(), identification, meta)
	c.JSON(http.StatusOK, result)
}

// decodeObject returns raw as a JSON object, or an empty one when raw is
// missing or not an object
func decodeObject(field string, raw json.RawMessage) map[string]any {
	obj := map[string]any{}
	if len(raw) == 0 {
		return obj
	}
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		log.Printf("[RecommendHandler] Ignoring %s, not a JSON object: %v", field, err)
		return map[string]any{}
	}
	return obj
}
