package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"mediatag/internal/config"
	"mediatag/internal/logging"
	"mediatag/internal/model"
)

// ErrAPIKeyRequired is returned by New when no API key is configured.
var ErrAPIKeyRequired = errors.New("llm api key is required")

const (
	defaultBreakerMaxFailures = 5
	defaultBreakerOpenTimeout = 30 * time.Second
)

// Client asks a chat-completion API to tag media documents.
// It is safe for concurrent use by multiple goroutines.
type Client struct {
	url        string
	apiKey     string
	model      string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[string]
	metrics    *Metrics
	logger     *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithTimeout overrides the per-call deadline taken from the config.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New builds a Client from cfg. It fails when cfg carries no API key.
func New(cfg config.LLMConfig, opts ...Option) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrAPIKeyRequired
	}
	url := cfg.URL
	if url == "" {
		url = config.DefaultLLMURL
	}

	c := &Client{
		url:     url,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		timeout: cfg.Timeout(),
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter: newLimiter(cfg.RateLimitPerSec, cfg.RateBurst),
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = c.newBreaker(cfg.BreakerMaxFailures, time.Duration(cfg.BreakerOpenTimeoutSec)*time.Second)
	return c, nil
}

// ExtractTags returns the tags the model suggests for payload. It never fails:
// any error talking to the API yields DefaultTags(t). A successful answer with
// no usable tag is returned as an empty slice.
func (c *Client) ExtractTags(ctx context.Context, payload string, t model.DocumentType) []string {
	start := time.Now()

	content, err := c.complete(ctx, payload, t)
	if err != nil {
		c.logger.WarnContext(ctx, "llm_tagging_failed",
			"component", "llm",
			"document_type", t.String(),
			"error", err.Error(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		c.metrics.observe(t, outcomeFallback, time.Since(start))
		return DefaultTags(t)
	}

	tags := ParseTags(content)
	outcome := outcomeSuccess
	if len(tags) == 0 {
		outcome = outcomeEmpty
	}
	c.logger.DebugContext(ctx, "llm_tagging_done",
		"component", "llm",
		"document_type", t.String(),
		"tag_count", len(tags),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	c.metrics.observe(t, outcome, time.Since(start))
	return tags
}

func (c *Client) complete(ctx context.Context, payload string, t model.DocumentType) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("llm rate limit: %w", err)
	}

	req := NewTagRequest(c.model, BuildPrompt(t), payload)
	return c.breaker.Execute(func() (string, error) {
		return c.chatCompletion(ctx, req)
	})
}

func (c *Client) newBreaker(maxFailures int, openTimeout time.Duration) *gobreaker.CircuitBreaker[string] {
	if maxFailures <= 0 {
		maxFailures = defaultBreakerMaxFailures
	}
	if openTimeout <= 0 {
		openTimeout = defaultBreakerOpenTimeout
	}
	return gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:    "llm",
		Timeout: openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(maxFailures)
		},
		// The caller going away says nothing about the API's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit_breaker_state_change", "operation", name, "from", from.String(), "to", to.String())
		},
	})
}

func newLimiter(perSec float64, burst int) *rate.Limiter {
	if perSec <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSec), burst)
}
