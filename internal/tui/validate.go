// ABOUTME: Connection checks run by the setup wizard before saving an endpoint.
// ABOUTME: Checks the proxy health endpoint or lists models on an OpenAI-compatible API.
package tui

import (
	"context"

	"github.com/2389-research/jotter/internal/insight"
)

// ValidateEndpoint checks that the insight proxy at apiURL reports healthy.
// The context allows cancellation when the user quits during validation.
func ValidateEndpoint(ctx context.Context, apiURL, _ string) error {
	return insight.CheckHealth(ctx, apiURL)
}

// ValidateOpenAI checks that an OpenAI-compatible API at apiURL accepts apiKey.
func ValidateOpenAI(ctx context.Context, apiURL, apiKey string) error {
	ctx, cancel := context.WithTimeout(ctx, insight.HealthTimeout)
	defer cancel()
	return insight.NewOpenAICompleter(apiURL, apiKey).Ping(ctx)
}
