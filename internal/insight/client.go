// ABOUTME: Insight client that sends recent entries to a completion backend.
// ABOUTME: Applies a per-attempt timeout and retries transient failures with exponential backoff.
package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/2389-research/jotter/internal/logging"
	"github.com/2389-research/jotter/internal/models"
)

// Defaults for Client.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 2
	DefaultMaxTokens  = 1000
	DefaultBackoff    = time.Second
)

// FallbackText is shown when the backend answers with nothing usable.
const FallbackText = "I couldn't generate an insight this time."

// Request is a single completion call.
type Request struct {
	Prompt    string
	Model     string
	MaxTokens int
}

// Completer turns a prompt into text. Implementations return *Error with
// KindUpstream for HTTP error responses and plain errors for transport
// failures.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Insight is the result of a successful request.
type Insight struct {
	Text       string   `json:"text"`
	Mood       string   `json:"mood,omitempty"`
	Insights   []string `json:"insights,omitempty"`
	Reflection string   `json:"reflection,omitempty"`
	Structured bool     `json:"structured"`
}

// Client generates insights over a Completer.
type Client struct {
	completer  Completer
	model      string
	maxTokens  int
	timeout    time.Duration
	maxRetries int
	backoff    time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithModel sets the model name passed to the completer.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithMaxTokens sets the response token limit.
func WithMaxTokens(n int) Option {
	return func(c *Client) { c.maxTokens = n }
}

// WithTimeout sets the deadline for each attempt.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithMaxRetries sets how many times a transient failure is retried.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithBackoff sets the first retry delay. Each further retry doubles it.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

// WithSleep replaces the timer used between retries with a context-aware
// sleep function.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = sleep }
}

// WithLogger sets the client's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = logging.OrDiscard(l) }
}

// NewClient creates a client over completer.
func NewClient(completer Completer, opts ...Option) *Client {
	c := &Client{
		completer:  completer,
		maxTokens:  DefaultMaxTokens,
		timeout:    DefaultTimeout,
		maxRetries: DefaultMaxRetries,
		backoff:    DefaultBackoff,
		logger:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate asks the backend for an insight over the most recent entries.
func (c *Client) Generate(ctx context.Context, entries []models.Entry) (*Insight, error) {
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}
	req := Request{
		Prompt:    BuildPrompt(entries),
		Model:     c.model,
		MaxTokens: c.maxTokens,
	}

	var text string
	tries := 0
	operation := func() error {
		tries++
		out, err := c.attempt(ctx, req)
		if err != nil {
			var ie *Error
			if !errors.As(err, &ie) || !ie.Retryable() {
				return backoff.Permanent(err)
			}
			return err
		}
		text = out
		return nil
	}
	notify := func(err error, delay time.Duration) {
		var ie *Error
		errors.As(err, &ie)
		c.logger.Warn("insight: attempt failed, retrying",
			"attempt", tries, "kind", ie.Kind, "status", ie.Status, "delay", delay)
	}

	var timer backoff.Timer
	if c.sleep != nil {
		timer = &sleepTimer{ctx: ctx, sleep: c.sleep, c: make(chan time.Time, 1)}
	}
	if err := backoff.RetryNotifyWithTimer(operation, c.retryPolicy(ctx), notify, timer); err != nil {
		if cerr := ctx.Err(); cerr != nil && err == cerr {
			return nil, fmt.Errorf("insight request cancelled: %w", err)
		}
		return nil, err
	}
	return ParseResponse(text), nil
}

// retryPolicy doubles the delay from the configured backoff with no jitter
// and stops after maxRetries retries or when ctx is done.
func (c *Client) retryPolicy(ctx context.Context) backoff.BackOffContext {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.backoff
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxElapsedTime = 0

	retries := c.maxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(retries)), ctx)
}

func (c *Client) attempt(ctx context.Context, req Request) (string, error) {
	actx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	text, err := c.completer.Complete(actx, req)
	if err == nil {
		return text, nil
	}

	var ie *Error
	switch {
	case errors.As(err, &ie):
		return "", err
	case ctx.Err() != nil:
		return "", fmt.Errorf("insight request cancelled: %w", ctx.Err())
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(actx.Err(), context.DeadlineExceeded):
		return "", &Error{Kind: KindTimeout, Err: err}
	default:
		return "", &Error{Kind: KindNetwork, Err: err}
	}
}

// ParseResponse turns completion text into an Insight. A JSON object with
// mood, insights, or reflection fields fills the structured fields; anything
// else is kept as plain text.
func ParseResponse(text string) *Insight {
	text = strings.TrimSpace(text)
	if text == "" {
		return &Insight{Text: FallbackText}
	}

	out := &Insight{Text: text}
	if !strings.HasPrefix(text, "{") {
		return out
	}

	var structured struct {
		Mood       string   `json:"mood"`
		Insights   []string `json:"insights"`
		Reflection string   `json:"reflection"`
	}
	if err := json.Unmarshal([]byte(text), &structured); err != nil {
		return out
	}
	if structured.Mood == "" && len(structured.Insights) == 0 && structured.Reflection == "" {
		return out
	}
	out.Mood = structured.Mood
	out.Insights = structured.Insights
	out.Reflection = structured.Reflection
	out.Structured = true
	return out
}

// sleepTimer adapts a sleep function to backoff.Timer.
type sleepTimer struct {
	ctx   context.Context
	sleep func(ctx context.Context, d time.Duration) error
	c     chan time.Time
}

func (t *sleepTimer) Start(d time.Duration) {
	go func() {
		if t.sleep(t.ctx, d) == nil {
			t.c <- time.Now()
		}
	}()
}

func (t *sleepTimer) Stop() {}

func (t *sleepTimer) C() <-chan time.Time {
	return t.c
}

// Provider names accepted by NewCompleter.
const (
	ProviderProxy  = "proxy"
	ProviderOpenAI = "openai"
)

// NewCompleter builds the completer for a configured provider.
func NewCompleter(provider, baseURL, apiKey string) (Completer, error) {
	switch strings.ToLower(provider) {
	case "", ProviderProxy:
		if baseURL == "" {
			return nil, errors.New("insight proxy URL is not configured")
		}
		return NewProxyCompleter(baseURL, apiKey), nil
	case ProviderOpenAI:
		return NewOpenAICompleter(baseURL, apiKey), nil
	default:
		return nil, fmt.Errorf("unknown insight provider %q (want proxy or openai)", provider)
	}
}
