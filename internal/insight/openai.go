// ABOUTME: Completer backed by any OpenAI-compatible chat completions API.
// ABOUTME: SDK retries are disabled so the insight client owns the retry policy.
package insight

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAICompleter sends prompts as a single user message.
type OpenAICompleter struct {
	client openai.Client
}

// NewOpenAICompleter creates a completer. An empty baseURL uses the SDK default.
func NewOpenAICompleter(baseURL, apiKey string) *OpenAICompleter {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAICompleter{client: openai.NewClient(opts...)}
}

// Complete implements Completer.
func (o *OpenAICompleter) Complete(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt),
		},
		Model: openai.ChatModel(model),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &Error{Kind: KindUpstream, Status: apiErr.StatusCode, Err: err}
		}
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// Ping lists models to confirm the endpoint accepts the key.
func (o *OpenAICompleter) Ping(ctx context.Context) error {
	if _, err := o.client.Models.List(ctx); err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return &Error{Kind: KindUpstream, Status: apiErr.StatusCode, Err: err}
		}
		return fmt.Errorf("model listing failed: %w", err)
	}
	return nil
}
