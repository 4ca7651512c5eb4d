// ABOUTME: HTTP completer for the journal's insight proxy endpoint.
// ABOUTME: Posts the prompt as JSON and accepts several response envelope shapes.
package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// Proxy endpoint paths.
const (
	GeneratePath = "/api/generate"
	HealthPath   = "/api/health"
)

const maxResponseBytes = 1 << 20

// ProxyCompleter posts prompts to an insight proxy.
type ProxyCompleter struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewProxyCompleter creates a completer for the proxy at baseURL. Deadlines
// come from the request context.
func NewProxyCompleter(baseURL, apiKey string) *ProxyCompleter {
	return &ProxyCompleter{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{},
	}
}

// generatePayload is the JSON body sent to the proxy.
type generatePayload struct {
	Prompt    string `json:"prompt"`
	Model     string `json:"model,omitempty"`
	MaxTokens int    `json:"max_tokens,omitempty"`
}

type contentBlock struct {
	Text string `json:"text"`
}

// generateResponse covers every envelope the proxy has been seen to return.
type generateResponse struct {
	Result *struct {
		Content []contentBlock `json:"content"`
	} `json:"result"`
	Content []contentBlock  `json:"content"`
	Data    json.RawMessage `json:"data"`
	Text    string          `json:"text"`
}

// Complete implements Completer.
func (p *ProxyCompleter) Complete(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(generatePayload{
		Prompt:    req.Prompt,
		Model:     req.Model,
		MaxTokens: req.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal insight request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+GeneratePath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if p.apiKey != "" {
		httpReq.Header.Set("x-api-key", p.apiKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("insight API request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read insight response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return "", &Error{
			Kind:   KindUpstream,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("%s", strings.TrimSpace(string(respBody))),
		}
	}

	return extractText(respBody), nil
}

// extractText pulls the completion out of a proxy response body. Bodies that
// are not JSON objects are returned as plain text.
func extractText(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return string(trimmed)
	}

	var resp generateResponse
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return string(trimmed)
	}
	switch {
	case resp.Result != nil && len(resp.Result.Content) > 0:
		return resp.Result.Content[0].Text
	case len(resp.Content) > 0:
		return resp.Content[0].Text
	case len(resp.Data) > 0 && resp.Data[0] == '{':
		return string(resp.Data)
	case resp.Text != "":
		return resp.Text
	default:
		return string(trimmed)
	}
}
