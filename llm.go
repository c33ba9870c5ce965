package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const llmTimeout = 30 * time.Second

/* ─── OpenAI-compatible chat client ──────────────────────────────────── */

// chatMessage is a single message in a chat completions request.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the request body for the chat completions API.
type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
}

// llmClient talks to an OpenAI-compatible chat completions endpoint: one
// request per call, no retry, no streaming.
type llmClient struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
	metrics *apiMetrics
}

func newLLMClient(baseURL, apiKey, model string, m *apiMetrics) *llmClient {
	return &llmClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		http:    &http.Client{Timeout: llmTimeout},
		metrics: m,
	}
}

// complete sends messages and returns choices[0].message.content. kind labels
// the call in metrics. jsonMode asks the model for a JSON object. Transport
// and non-2xx failures wrap errUpstream.
func (l *llmClient) complete(ctx context.Context, kind string, messages []chatMessage, jsonMode bool) (string, error) {
	content, err := l.do(ctx, messages, jsonMode)
	l.metrics.observeLLM(kind, err)
	return content, err
}

func (l *llmClient) do(ctx context.Context, messages []chatMessage, jsonMode bool) (string, error) {
	reqBody := chatRequest{
		Model:       l.model,
		Messages:    messages,
		Temperature: 0.7,
	}
	if jsonMode {
		reqBody.Temperature = 0
		reqBody.ResponseFormat = map[string]any{"type": "json_object"}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/v1/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+l.apiKey)

	resp, err := l.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: http request: %v", errUpstream, err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", errUpstream, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: llm returned status %d: %s", errUpstream, resp.StatusCode, truncate(string(respBytes), 512))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBytes, &result); err != nil {
		return "", fmt.Errorf("%w: unmarshal response: %v", errUpstream, err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", errUpstream)
	}
	return result.Choices[0].Message.Content, nil
}

// extractJSONObject decodes the text between the first '{' and the last '}'
// of raw into v. Anything else is an errLLMParse.
func extractJSONObject(raw string, v any) error {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return fmt.Errorf("%w: no JSON object in response", errLLMParse)
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), v); err != nil {
		return fmt.Errorf("%w: %v", errLLMParse, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
