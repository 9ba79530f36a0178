// Command checkkey reports whether an OpenAI-compatible API key is configured
// and whether the provider accepts it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/planthelper/backend/config"
	"github.com/planthelper/backend/internal/llm"
)

func main() {
	timeout := flag.Duration("timeout", 15*time.Second, "request timeout")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: failed to load .env file: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.OpenAIAPIKey == "" {
		fmt.Println("OPENAI_API_KEY present: false")
		os.Exit(1)
	}
	fmt.Println("OPENAI_API_KEY present: true")

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIAPIURL, cfg.OpenAIModel)
	status, body, err := client.ListModels(ctx)
	if err != nil {
		log.Fatalf("Request to %s/models failed: %v", cfg.OpenAIAPIURL, err)
	}

	fmt.Println("Status:", status)
	fmt.Println("Body:", body)
	if status >= 300 {
		os.Exit(1)
	}
}
