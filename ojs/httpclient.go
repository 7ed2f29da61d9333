package ojs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// HTTPClient wraps http.Client with rate limiting and retries.
// It is safe for concurrent use.
type HTTPClient struct {
	client  *http.Client
	limiter *rate.Limiter
	config  Config
	logger  zerolog.Logger
}

// NewHTTPClient creates a rate-limited HTTP client from cfg.
func NewHTTPClient(cfg Config, logger zerolog.Logger) *HTTPClient {
	cfg.applyDefaults()
	return &HTTPClient{
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.BurstSize),
		config:  cfg,
		logger:  logger,
	}
}

// Get issues a GET request, waiting for the rate limiter before every attempt.
// Network errors, 429 and 5xx responses are retried with exponential backoff,
// honouring Retry-After. The caller owns the returned body.
func (c *HTTPClient) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("User-Agent", c.config.UserAgent)

		resp, err := c.client.Do(req)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, ctxErr
				}
			}
			lastErr = fmt.Errorf("request failed: %w", err)
			if attempt < c.config.MaxRetries {
				delay := c.backoff(attempt)
				c.logRetry(rawURL, attempt, delay, lastErr)
				if err := waitForRetry(ctx, delay); err != nil {
					return nil, err
				}
				continue
			}
			return nil, lastErr
		}

		if !shouldRetry(resp.StatusCode) {
			return resp, nil
		}

		delay := c.retryDelay(resp, attempt)
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		lastErr = fmt.Errorf("server returned status %d", resp.StatusCode)
		if attempt < c.config.MaxRetries {
			c.logRetry(rawURL, attempt, delay, lastErr)
			if err := waitForRetry(ctx, delay); err != nil {
				return nil, err
			}
			continue
		}
		return nil, &statusError{code: resp.StatusCode, attempts: attempt + 1}
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, errors.New("unexpected error: no response received")
}

// statusError reports a retryable status that persisted through every attempt.
type statusError struct {
	code     int
	attempts int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("max retries exhausted after %d attempts, last status: %d", e.attempts, e.code)
}

func shouldRetry(statusCode int) bool {
	if statusCode == http.StatusTooManyRequests {
		return true
	}
	return statusCode >= 500 && statusCode < 600
}

// backoff returns RetryDelay doubled per attempt, capped at MaxRetryDelay.
func (c *HTTPClient) backoff(attempt int) time.Duration {
	delay := c.config.RetryDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= c.config.MaxRetryDelay {
			return c.config.MaxRetryDelay
		}
	}
	return delay
}

// retryDelay prefers the server's Retry-After header over the computed backoff.
func (c *HTTPClient) retryDelay(resp *http.Response, attempt int) time.Duration {
	retryAfter := resp.Header.Get("Retry-After")
	if retryAfter == "" {
		return c.backoff(attempt)
	}

	if seconds, err := strconv.ParseInt(retryAfter, 10, 64); err == nil {
		if seconds > 0 {
			return min(time.Duration(seconds)*time.Second, c.config.MaxRetryDelay)
		}
		return c.backoff(attempt)
	}

	if t, err := http.ParseTime(retryAfter); err == nil {
		if delay := time.Until(t); delay > 0 {
			return min(delay, c.config.MaxRetryDelay)
		}
	}

	return c.backoff(attempt)
}

func (c *HTTPClient) logRetry(rawURL string, attempt int, delay time.Duration, err error) {
	c.logger.Warn().
		Err(err).
		Str("url", redactURL(rawURL)).
		Int("attempt", attempt+1).
		Dur("delay", delay).
		Msg("retrying request")
}

func waitForRetry(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
