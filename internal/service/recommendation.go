package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/planthelper/backend/internal/llm"
)

const recommendationSystemPrompt = `You are a friendly, concise plant recommendation assistant. Write natural, conversational sentences for reasons (1-2 sentences each). Avoid awkward concatenations of unrelated attributes (for example, do NOT produce phrases like "busy lifestyle with daily watering needs"). Prioritize one clear reason per plant tied to the user answers (sunlight, watering, space, busyLevel, or climate). Ensure variety across categories (herb, succulent, flowering, foliage, trailing, large/outdoor) and avoid repeating the same plants across different requests.`

const recommendationPromptTemplate = `You are a friendly plant recommendation assistant. Identification result: %s. User answers: %s. Suggest up to 5 common plants (common names, include garden herbs/ornamentals when appropriate). For each plant provide a short, natural reason (1-2 short sentences) that ties the plant to user answers (sunlight, watering cadence, space, busy level, climate). Do NOT use awkward combined phrases like "busy lifestyle with daily watering needs"; instead pick a single matching attribute to emphasize per plant. Output ONLY a single valid JSON object with keys: recommendations (array of {name, reason}) and explanation (one short sentence). Example output:

{
  "recommendations": [
    {"name": "Spider Plant", "reason": "Tolerates bright, indirect light and copes well with occasional missed waterings, great for a busy apartment."},
    {"name": "Basil", "reason": "A compact culinary herb that thrives in sunny spots and weekly watering, perfect if you want an edible plant."}
  ],
  "explanation": "These picks match your sunlight and watering preferences."
}`

// Recommendation is a single suggested plant
type Recommendation struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// UnmarshalJSON accepts either {"name","reason"} or a bare plant name
func (r *Recommendation) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		r.Name = name
		r.Reason = ""
		return nil
	}

	var obj struct {
		Name   string `json:"name"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid recommendation format")
	}
	r.Name = obj.Name
	r.Reason = obj.Reason
	return nil
}

// RecommendationResult is the body returned by the recommend endpoint
type RecommendationResult struct {
	OK              bool             `json:"ok"`
	Recommendations []Recommendation `json:"recommendations"`
	Explanation     string           `json:"explanation"`
}

// RecommendationService turns classification output and questionnaire
// answers into plant suggestions via a generative text API
type RecommendationService struct {
	client  llm.Client
	timeout time.Duration
}

// NewRecommendationService creates a new RecommendationService instance
func NewRecommendationService(client llm.Client, timeout time.Duration) *RecommendationService {
	return &RecommendationService{
		client:  client,
		timeout: timeout,
	}
}

// Recommend never fails: every error path degrades to a fallback result
func (s *RecommendationService) Recommend(ctx context.Context, identification, meta map[string]any) *RecommendationResult {
	text, err := s.complete(ctx, identification, meta)
	if err != nil {
		log.Printf("[RecommendationService] %s call failed, using fallback: %v", s.client.Provider(), err)
		return FallbackRecommendation(identification, err)
	}

	result, err := ParseRecommendations(text)
	if err != nil {
		log.Printf("[RecommendationService] Unparseable response, using fallback: %v", err)
		return FallbackRecommendation(identification, err)
	}

	return result
}

func (s *RecommendationService) complete(ctx context.Context, identification, meta map[string]any) (string, error) {
	prompt, err := BuildRecommendationPrompt(identification, meta)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.client.Complete(ctx, llm.CompletionRequest{
		System:           recommendationSystemPrompt,
		Prompt:           prompt,
		MaxTokens:        700,
		Temperature:      0.9,
		TopP:             0.95,
		FrequencyPenalty: 1.0,
		PresencePenalty:  0.6,
	})
}

// BuildRecommendationPrompt embeds both payloads as JSON in the user prompt
func BuildRecommendationPrompt(identification, meta map[string]any) (string, error) {
	if identification == nil {
		identification = map[string]any{}
	}
	if meta == nil {
		meta = map[string]any{}
	}

	idJSON, err := json.Marshal(identification)
	if err != nil {
		return "", fmt.Errorf("failed to marshal identification: %w", err)
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("failed to marshal meta: %w", err)
	}

	return fmt.Sprintf(recommendationPromptTemplate, idJSON, metaJSON), nil
}

// ParseRecommendations parses model output as JSON. When the whole text is
// not JSON, the outermost {...} block inside it is tried instead.
func ParseRecommendations(text string) (*RecommendationResult, error) {
	var payload struct {
		Recommendations []Recommendation `json:"recommendations"`
		Explanation     *string          `json:"explanation"`
	}

	err := json.Unmarshal([]byte(strings.TrimSpace(text)), &payload)
	if err != nil {
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("invalid JSON returned from model: %w", err)
		}
		if err := json.Unmarshal([]byte(text[start:end+1]), &payload); err != nil {
			return nil, fmt.Errorf("invalid JSON returned from model: %w", err)
		}
	}

	if payload.Recommendations == nil && payload.Explanation == nil {
		return nil, errors.New("model response has neither recommendations nor explanation")
	}

	result := &RecommendationResult{
		OK:              true,
		Recommendations: payload.Recommendations,
	}
	if result.Recommendations == nil {
		result.Recommendations = []Recommendation{}
	}
	if payload.Explanation != nil {
		result.Explanation = *payload.Explanation
	}
	return result, nil
}

// FallbackRecommendation synthesises a result from whatever tags the
// identification payload carries. The explanation is never empty.
func FallbackRecommendation(identification map[string]any, cause error) *RecommendationResult {
	tags := ExtractTags(identification)

	var explanation string
	if len(tags) > 0 {
		explanation = fmt.Sprintf("Live recommendations are unavailable right now. Your photos were identified as: %s. Look for plants suited to these conditions and your light and watering answers.", strings.Join(tags, ", "))
	} else {
		explanation = "Live recommendations are unavailable right now. Please try again in a moment."
	}
	if cause != nil {
		explanation += " (" + fallbackReason(cause) + ")"
	}

	return &RecommendationResult{
		OK:              false,
		Recommendations: []Recommendation{},
		Explanation:     explanation,
	}
}

func fallbackReason(err error) string {
	var apiErr *llm.APIError
	switch {
	case errors.Is(err, llm.ErrMissingAPIKey):
		return "recommendation service is not configured"
	case errors.Is(err, context.DeadlineExceeded):
		return "recommendation service timed out"
	case errors.As(err, &apiErr):
		return fmt.Sprintf("recommendation service returned status %d", apiErr.StatusCode)
	default:
		return "recommendation service response could not be used"
	}
}

// tagKeys are identification fields that carry a label worth repeating
var tagKeys = map[string]bool{
	"label":      true,
	"tags":       true,
	"soil":       true,
	"plant":      true,
	"soil_type":  true,
	"plant_type": true,
	"leaf":       true,
	"disease":    true,
}

// ExtractTags collects label-like strings from an identification payload,
// looking through nested objects and arrays (e.g. results[].label). The
// result is de-duplicated and sorted.
func ExtractTags(identification map[string]any) []string {
	seen := make(map[string]bool)
	var walk func(v any, tagged bool)
	walk = func(v any, tagged bool) {
		switch val := v.(type) {
		case string:
			if tagged {
				if s := strings.TrimSpace(val); s != "" {
					seen[s] = true
				}
			}
		case []any:
			for _, item := range val {
				walk(item, tagged)
			}
		case map[string]any:
			for k, item := range val {
				walk(item, tagKeys[strings.ToLower(k)])
			}
		}
	}
	walk(identification, false)

	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
