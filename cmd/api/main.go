package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/planthelper/backend/config"
	"github.com/planthelper/backend/internal/api"
	"github.com/planthelper/backend/internal/classifier"
	"github.com/planthelper/backend/internal/database"
	"github.com/planthelper/backend/internal/llm"
	"github.com/planthelper/backend/internal/server"
	"github.com/planthelper/backend/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: failed to load .env file: %v", err)
	}

	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	gin.SetMode(config.GetEnvironment().GinMode())

	// Load models
	if err := classifier.InitRuntime(cfg.ONNXRuntimePath); err != nil {
		log.Fatalf("Failed to initialize ONNX runtime: %v", err)
	}
	defer classifier.DestroyRuntime()

	soil, err := classifier.NewONNXClassifier(modelConfig(cfg, classifier.Soil, cfg.SoilModelPath, cfg.SoilLabelsPath))
	if err != nil {
		log.Fatalf("Failed to load soil model: %v", err)
	}
	defer soil.Close()

	leaf, err := classifier.NewONNXClassifier(modelConfig(cfg, classifier.Leaf, cfg.LeafModelPath, cfg.LeafLabelsPath))
	if err != nil {
		log.Fatalf("Failed to load leaf model: %v", err)
	}
	defer leaf.Close()

	classifiers := &classifier.Set{Soil: soil, Leaf: leaf}
	log.Printf("Loaded models: soil (%d labels), leaf (%d labels)", len(soil.Labels()), len(leaf.Labels()))

	// Generative text client
	llmClient, err := llm.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to create %s client: %v", cfg.LLMProvider, err)
	}

	// Redis is optional and only backs rate limiting
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClient(cfg)
		if err != nil {
			log.Printf("Warning: Failed to connect to Redis, rate limiting disabled: %v", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	srv := server.New(cfg, server.Deps{
		API: api.Dependencies{
			Prediction:     service.NewPredictionService(classifiers, cfg.MaxImagePixels),
			Recommendation: service.NewRecommendationService(llmClient, cfg.LLMTimeout),
			ModelLabels:    classifiers.Labels(),
			LLMProvider:    llmClient.Provider(),
			MaxUploadBytes: cfg.MaxUploadBytes,
		},
		Redis: redisClient,
	})

	// Channel to listen for errors coming from the server
	errChan := make(chan error, 1)

	go func() {
		log.Println("Starting server...")
		errChan <- srv.Start()
	}()

	// Channel to listen for an interrupt or terminate signal from the OS
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
		return
	case sig := <-quit:
		log.Printf("Received signal: %v", sig)
	}

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}

func modelConfig(cfg *config.Config, name, modelPath, labelsPath string) classifier.ModelConfig {
	return classifier.ModelConfig{
		Name:       name,
		ModelPath:  modelPath,
		LabelsPath: labelsPath,
		ImageSize:  cfg.ModelImageSize,
		Layout:     cfg.ModelInputLayout,
		InputName:  cfg.ModelInputName,
		OutputName: cfg.ModelOutputName,
	}
}
