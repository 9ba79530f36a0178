package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks if the configuration meets the requirements for the current environment
func ValidateConfig(cfg *Config) error {
	env := GetEnvironment()

	var errors []ValidationError

	if port, err := strconv.Atoi(cfg.ServerPort); err != nil || port <= 0 || port > 65535 {
		errors = append(errors, ValidationError{Field: "SERVER_PORT", Message: fmt.Sprintf("invalid port %q", cfg.ServerPort)})
	}

	switch cfg.LLMProvider {
	case ProviderOpenAI, ProviderGemini:
	default:
		errors = append(errors, ValidationError{Field: "LLM_PROVIDER", Message: fmt.Sprintf("unknown provider %q", cfg.LLMProvider)})
	}

	if cfg.LLMTimeout <= 0 {
		errors = append(errors, ValidationError{Field: "LLM_TIMEOUT_SECONDS", Message: "must be positive"})
	}

	switch cfg.ModelInputLayout {
	case LayoutNHWC, LayoutNCHW:
	default:
		errors = append(errors, ValidationError{Field: "MODEL_INPUT_LAYOUT", Message: fmt.Sprintf("unknown layout %q", cfg.ModelInputLayout)})
	}

	if cfg.ModelImageSize <= 0 {
		errors = append(errors, ValidationError{Field: "MODEL_IMAGE_SIZE", Message: "must be positive"})
	}

	if cfg.MaxUploadBytes <= 0 {
		errors = append(errors, ValidationError{Field: "MAX_UPLOAD_MB", Message: "must be positive"})
	}

	if cfg.MaxImagePixels <= 0 {
		errors = append(errors, ValidationError{Field: "MAX_IMAGE_PIXELS", Message: "must be positive"})
	}

	paths := map[string]string{
		"SOIL_MODEL_PATH":  cfg.SoilModelPath,
		"SOIL_LABELS_PATH": cfg.SoilLabelsPath,
		"LEAF_MODEL_PATH":  cfg.LeafModelPath,
		"LEAF_LABELS_PATH": cfg.LeafLabelsPath,
	}
	for _, field := range []string{"SOIL_MODEL_PATH", "SOIL_LABELS_PATH", "LEAF_MODEL_PATH", "LEAF_LABELS_PATH"} {
		path := paths[field]
		if path == "" {
			errors = append(errors, ValidationError{Field: field, Message: "is required"})
			continue
		}
		// Model artifacts must be present before a production process starts
		if env == Production {
			if _, err := os.Stat(path); err != nil {
				errors = append(errors, ValidationError{Field: field, Message: fmt.Sprintf("file not accessible: %v", err)})
			}
		}
	}

	if cfg.RedisURL != "" && cfg.RateLimitPerMinute <= 0 {
		errors = append(errors, ValidationError{Field: "RATE_LIMIT_PER_MINUTE", Message: "must be positive when REDIS_URL is set"})
	}

	if len(errors) > 0 {
		messages := make([]string, len(errors))
		for i, e := range errors {
			messages[i] = e.Error()
		}
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(messages, "\n"))
	}

	return nil
}
