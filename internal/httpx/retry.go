package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"fuelfeed/internal/logger"
	"fuelfeed/internal/provider"
)

// StatusError is a non-2xx response that is not worth retrying.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// Retrier performs one logical GET with bounded retries. Transport errors,
// timeouts and 429s are retried under the backoff policy; any other 4xx
// fails immediately. The sleep between attempts is context-cancellable.
type Retrier struct {
	Client      *Client
	Policy      BackoffPolicy
	MaxAttempts int
	Provider    string
	Log         *logger.Log
}

func NewRetrier(client *Client, policy BackoffPolicy, maxAttempts int, providerName string) *Retrier {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Retrier{
		Client:      client,
		Policy:      policy,
		MaxAttempts: maxAttempts,
		Provider:    providerName,
		Log:         logger.GetLogger(),
	}
}

// Get fetches url with the given headers, retrying up to MaxAttempts.
func (r *Retrier) Get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	log := r.Log.WithComponent("httpx").WithFields(logger.Fields{
		"provider": r.Provider,
		"url":      url,
	})

	var lastErr error
	var waited time.Duration

	for attempt := 0; attempt < r.MaxAttempts; attempt++ {
		if attempt > 0 {
			hint := retryAfterHint(lastErr)
			delay := r.Policy.Delay(attempt-1, hint)
			log.WithFields(logger.Fields{
				"attempt":    attempt,
				"wait_ms":    delay.Milliseconds(),
				"elapsed_ms": waited.Milliseconds(),
			}).WithError(lastErr).Warn("retrying request")
			if err := sleep(ctx, delay); err != nil {
				return nil, err
			}
			waited += delay
		}

		body, err := r.once(ctx, url, headers)
		if err == nil {
			log.WithFields(logger.Fields{
				"attempt":    attempt,
				"elapsed_ms": waited.Milliseconds(),
			}).Debug("request succeeded")
			return body, nil
		}

		var se *StatusError
		if errors.As(err, &se) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}

	return nil, &provider.TransientError{Provider: r.Provider, Attempts: r.MaxAttempts, Cause: lastErr}
}

func (r *Retrier) once(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := r.Client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<10))
		return nil, &provider.RateLimitError{
			Provider: r.Provider,
			ResetIn:  parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<10))
		if resp.StatusCode >= 500 {
			// Server-side failure; retryable.
			return nil, fmt.Errorf("upstream failure: status %d: %s", resp.StatusCode, string(b))
		}
		return nil, &StatusError{Code: resp.StatusCode, Body: string(b)}
	}

	return io.ReadAll(resp.Body)
}

func retryAfterHint(err error) time.Duration {
	var rl *provider.RateLimitError
	if errors.As(err, &rl) {
		return rl.ResetIn
	}
	return 0
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if sec, err := strconv.Atoi(v); err == nil && sec > 0 {
		return time.Duration(sec) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
