package classifier

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// labelMetadata mirrors the metadata files exported next to ONNX models
type labelMetadata struct {
	Classes []string `json:"classes"`
}

// LoadLabels reads an ordered label list. Accepted formats are a JSON array of
// strings, a JSON object with a "classes" array, or one label per line.
func LoadLabels(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}

	labels, err := ParseLabels(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse labels %s: %w", path, err)
	}
	return labels, nil
}

// ParseLabels parses label file contents, see LoadLabels
func ParseLabels(data []byte) ([]string, error) {
	trimmed := bytes.TrimSpace(data)

	var labels []string
	switch {
	case bytes.HasPrefix(trimmed, []byte("[")):
		if err := json.Unmarshal(trimmed, &labels); err != nil {
			return nil, err
		}
	case bytes.HasPrefix(trimmed, []byte("{")):
		var meta labelMetadata
		if err := json.Unmarshal(trimmed, &meta); err != nil {
			return nil, err
		}
		labels = meta.Classes
	default:
		scanner := bufio.NewScanner(bytes.NewReader(trimmed))
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				labels = append(labels, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}

	if len(labels) == 0 {
		return nil, fmt.Errorf("no labels found")
	}
	return labels, nil
}
