// Package collections is a client for triggering, inspecting and polling
// brand-visibility collection runs.
package collections

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/citewatch/citewatch/pkg/backoff"
	"github.com/citewatch/citewatch/pkg/logger"
	"github.com/citewatch/citewatch/pkg/version"
)

const (
	headerRequestID = "X-Request-ID"

	opTriggerOnboarding = "trigger_onboarding"
	opTriggerManual     = "trigger_manual"
	opStatus            = "status"
	opLatest            = "latest"
	opHistory           = "history"
	opOnboarding        = "onboarding_progress"
)

// Client talks to the collection endpoints of the analytics backend.
// It is safe for concurrent use.
type Client struct {
	http         *resty.Client
	tokens       TokenProvider
	retry        backoff.Policy
	clock        backoff.Clock
	pollInterval time.Duration
	pollTimeout  time.Duration
	limiter      *rate.Limiter
	metrics      *Metrics
}

// New validates cfg and builds a Client.
func New(cfg Config) (*Client, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	metrics, err := NewMetrics(cfg.Meter)
	if err != nil {
		return nil, err
	}
	c := &Client{
		tokens:       cfg.Tokens,
		retry:        cfg.Retry,
		clock:        cfg.Clock,
		pollInterval: cfg.PollInterval,
		pollTimeout:  cfg.PollTimeout,
		metrics:      metrics,
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	}
	c.http = c.buildHTTPClient(&cfg)
	return c, nil
}

func (c *Client) buildHTTPClient(cfg *Config) *resty.Client {
	var client *resty.Client
	if cfg.HTTPClient != nil {
		client = resty.NewWithClient(cfg.HTTPClient)
	} else {
		client = resty.New()
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = version.UserAgent()
	}
	client.
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent)
	client.SetLogger(restyLogger{})
	if c.limiter != nil {
		client.OnBeforeRequest(rateLimitMiddleware(c.limiter))
	}
	client.OnBeforeRequest(c.authMiddleware)
	client.OnBeforeRequest(requestIDMiddleware)
	return client
}

func rateLimitMiddleware(limiter *rate.Limiter) resty.RequestMiddleware {
	return func(_ *resty.Client, req *resty.Request) error {
		if err := limiter.Wait(req.Context()); err != nil {
			return fmt.Errorf("%w: rate limit wait: %w", ErrRequestNotSent, err)
		}
		return nil
	}
}

func (c *Client) authMiddleware(_ *resty.Client, req *resty.Request) error {
	if c.tokens == nil {
		return nil
	}
	token, err := c.tokens.Token(req.Context())
	if err != nil {
		return fmt.Errorf("%w: failed to resolve auth token: %w", ErrRequestNotSent, err)
	}
	if token != "" {
		req.SetAuthToken(token)
	}
	return nil
}

func requestIDMiddleware(_ *resty.Client, req *resty.Request) error {
	if req.Header.Get(headerRequestID) == "" {
		req.SetHeader(headerRequestID, uuid.NewString())
	}
	return nil
}

// send executes one HTTP request. Non-2xx responses are returned without
// error so callers decide between retrying and normalizing.
func (c *Client) send(
	ctx context.Context,
	operation, method, path string,
	configure func(*resty.Request),
) (*resty.Response, error) {
	log := logger.FromContext(ctx)
	req := c.http.R().SetContext(ctx)
	if configure != nil {
		configure(req)
	}
	start := time.Now()
	resp, err := req.Execute(method, path)
	if err != nil {
		c.metrics.recordRequest(ctx, operation, 0, time.Since(start))
		return resp, fmt.Errorf("%s request failed: %w", operation, err)
	}
	c.metrics.recordRequest(ctx, operation, resp.StatusCode(), time.Since(start))
	if resp.StatusCode() == http.StatusUnauthorized {
		if invalidator, ok := c.tokens.(TokenInvalidator); ok {
			invalidator.Invalidate(ctx)
		}
	}
	log.Debug(
		"Collection API request completed",
		"operation", operation,
		"method", method,
		"url", resp.Request.URL,
		"status", resp.StatusCode(),
		"duration", resp.Time(),
	)
	return resp, nil
}

// call sends a request and decodes the response into T.
func call[T any](
	ctx context.Context,
	c *Client,
	operation, method, path string,
	configure func(*resty.Request),
) (*T, error) {
	resp, err := c.send(ctx, operation, method, path, configure)
	if err != nil {
		return nil, err
	}
	return decodeResponse[T](resp)
}

func requireID(id string, missing error) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", missing
	}
	return id, nil
}

// restyLogger routes resty's internal warnings through the default logger.
type restyLogger struct{}

func (restyLogger) Errorf(format string, v ...any) {
	logger.GetDefault().Error(fmt.Sprintf(format, v...))
}

func (restyLogger) Warnf(format string, v ...any) {
	logger.GetDefault().Warn(fmt.Sprintf(format, v...))
}

func (restyLogger) Debugf(format string, v ...any) {
	logger.GetDefault().Debug(fmt.Sprintf(format, v...))
}
