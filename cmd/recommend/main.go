// Command recommend sends a sample questionnaire to a running server's
// /recommend endpoint and prints the reply.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

func samplePayload() map[string]any {
	return map[string]any{
		"identification": map[string]any{},
		"meta": map[string]any{
			"busyLevel": "very",
			"sunlight":  "low",
			"space":     "small",
			"watering":  "rare",
			"climate":   "temperate",
		},
	}
}

func main() {
	baseURL := flag.String("url", "http://localhost:8000", "server base URL")
	timeout := flag.Duration("timeout", 30*time.Second, "request timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	status, body, err := postRecommend(ctx, strings.TrimRight(*baseURL, "/")+"/recommend", samplePayload())
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}

	fmt.Println("Status:", status)
	fmt.Println(prettyJSON(body))
}

func postRecommend(ctx context.Context, url string, payload any) (int, []byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// prettyJSON indents body, falling back to the raw text
func prettyJSON(body []byte) string {
	var out bytes.Buffer
	if err := json.Indent(&out, body, "", "  "); err != nil {
		return string(body)
	}
	return out.String()
}
