package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort string
	ServerHost string

	// Generative text API configuration
	LLMProvider  string
	LLMTimeout   time.Duration
	OpenAIAPIKey string
	OpenAIModel  string
	OpenAIAPIURL string
	GeminiAPIKey string
	GeminiModel  string
	GeminiAPIURL string

	// Classifier configuration
	SoilModelPath    string
	SoilLabelsPath   string
	LeafModelPath    string
	LeafLabelsPath   string
	ModelImageSize   int
	ModelInputLayout string
	ModelInputName   string
	ModelOutputName  string
	ONNXRuntimePath  string

	// Upload limits
	MaxUploadBytes int64
	MaxImagePixels int

	// CORS
	AllowedOrigins []string

	// Redis configuration, only used for rate limiting
	RedisURL           string
	RateLimitPerMinute int
}

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	LayoutNHWC = "nhwc"
	LayoutNCHW = "nchw"

	// DefaultMaxImagePixels caps decoded image size (width*height)
	DefaultMaxImagePixels = 89_478_485
)

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	env := GetEnvironment()
	cfg := &Config{}

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load %s configuration: %w", env, err)
	}

	// Validate the configuration
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadFromEnv(cfg *Config) error {
	cfg.ServerHost = os.Getenv("SERVER_HOST")
	cfg.ServerPort = getEnvOrDefault("SERVER_PORT", "8000")

	cfg.LLMProvider = strings.ToLower(getEnvOrDefault("LLM_PROVIDER", ProviderOpenAI))
	timeoutSeconds, err := getIntOrDefault("LLM_TIMEOUT_SECONDS", 15)
	if err != nil {
		return err
	}
	cfg.LLMTimeout = time.Duration(timeoutSeconds) * time.Second

	cfg.OpenAIAPIKey, err = readAPIKey("OPENAI_API_KEY", "openai_api_key")
	if err != nil {
		return err
	}
	cfg.OpenAIModel = getEnvOrDefault("OPENAI_MODEL", "gpt-3.5-turbo")
	cfg.OpenAIAPIURL = strings.TrimRight(getEnvOrDefault("OPENAI_API_URL", "https://api.openai.com/v1"), "/")

	cfg.GeminiAPIKey, err = readAPIKey("GEMINI_API_KEY", "gemini_api_key")
	if err != nil {
		return err
	}
	cfg.GeminiModel = getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash")
	cfg.GeminiAPIURL = strings.TrimRight(os.Getenv("GEMINI_API_URL"), "/")

	cfg.SoilModelPath = getEnvOrDefault("SOIL_MODEL_PATH", filepath.Join("models", "soil_model.onnx"))
	cfg.SoilLabelsPath = getEnvOrDefault("SOIL_LABELS_PATH", filepath.Join("models", "soil_labels.txt"))
	cfg.LeafModelPath = getEnvOrDefault("LEAF_MODEL_PATH", filepath.Join("models", "leaf_model.onnx"))
	cfg.LeafLabelsPath = getEnvOrDefault("LEAF_LABELS_PATH", filepath.Join("models", "leaf_labels.txt"))
	cfg.ModelImageSize, err = getIntOrDefault("MODEL_IMAGE_SIZE", 224)
	if err != nil {
		return err
	}
	cfg.ModelInputLayout = strings.ToLower(getEnvOrDefault("MODEL_INPUT_LAYOUT", LayoutNHWC))
	cfg.ModelInputName = getEnvOrDefault("MODEL_INPUT_NAME", "input")
	cfg.ModelOutputName = getEnvOrDefault("MODEL_OUTPUT_NAME", "output")
	cfg.ONNXRuntimePath = os.Getenv("ONNXRUNTIME_LIB_PATH")

	maxUploadMB, err := getIntOrDefault("MAX_UPLOAD_MB", 10)
	if err != nil {
		return err
	}
	cfg.MaxUploadBytes = int64(maxUploadMB) << 20
	cfg.MaxImagePixels, err = getIntOrDefault("MAX_IMAGE_PIXELS", DefaultMaxImagePixels)
	if err != nil {
		return err
	}

	cfg.AllowedOrigins = splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*"))

	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.RateLimitPerMinute, err = getIntOrDefault("RATE_LIMIT_PER_MINUTE", 60)
	if err != nil {
		return err
	}

	return nil
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

// readAPIKey resolves a credential from NAME, NAME_FILE or a Docker secret.
// A missing key is not an error.
func readAPIKey(envName, secretName string) (string, error) {
	if key := strings.TrimSpace(os.Getenv(envName)); key != "" {
		return key, nil
	}

	if keyFile := os.Getenv(envName + "_FILE"); keyFile != "" {
		data, err := os.ReadFile(keyFile)
		if err != nil {
			return "", fmt.Errorf("failed to read %s_FILE: %w", envName, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	return readSecret(secretName), nil
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func getEnvOrDefault(name, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(name)); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(name string, defaultValue int) (int, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, ValidationError{Field: name, Message: fmt.Sprintf("must be an integer, got %q", value)}
	}
	return n, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
