// Package narrative hosts the collaborators around text generation: the
// Ollama client, prompt assembly, structural validation, and template
// retrieval with built-in fallbacks.
package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yash-7575/luminasar/internal/domain"
)

const defaultGenerateTimeout = 120 * time.Second

// OllamaClient implements domain.NarrativeGenerator against an Ollama
// server. A timeout or transport failure surfaces as an error, which the
// workflow treats as fatal for that run; retry policy belongs to the
// caller, not here.
type OllamaClient struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaClient creates a client for the configured generator backend.
func NewOllamaClient(cfg domain.GeneratorConfig) *OllamaClient {
	timeout := defaultGenerateTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	host := cfg.Host
	if host == "" {
		host = "http://localhost:11434"
	}
	return &OllamaClient{
		baseURL: strings.TrimRight(host, "/"),
		model:   cfg.Model,
		client:  &http.Client{Timeout: timeout},
	}
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

// ollamaOptions keeps generation deterministic-ish and bounded. A low
// temperature matters for a report that must stick to the supplied
// figures; num_predict caps runaway generations that would blow the
// request timeout.
type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
	TopP        float64 `json:"top_p"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// Generate sends the evidence-bearing prompt and returns the generated
// narrative text. The jurisdiction tag travels inside the prompt; it is
// accepted here to keep the collaborator contract explicit.
func (c *OllamaClient) Generate(ctx context.Context, prompt string, jurisdiction string) (string, error) {
	body, err := json.Marshal(ollamaRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Options: ollamaOptions{
			Temperature: 0.2,
			NumPredict:  800,
			TopP:        0.9,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode generation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("narrative generation failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read generation response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("narrative generation failed: status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var parsed ollamaResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode generation response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("narrative generation failed: %s", parsed.Error)
	}

	text := strings.TrimSpace(parsed.Response)
	if text == "" {
		return "", fmt.Errorf("narrative generation returned empty text")
	}

	return text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
