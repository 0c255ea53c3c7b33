package directions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pharmacy-route-service/internal/domain"

	"github.com/goccy/go-json"
)

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Body)
}

// getJSON sends a keyed GET to a Maps web service path and decodes the
// body into out. Every failure is an *domain.OptimizationError.
func (c *GoogleClient) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("key", c.apiKey)

	endpoint := c.baseURL + path + "?" + params.Encode()

	resp, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.OptimizationError{
			Status:  "INVALID_RESPONSE",
			Message: fmt.Sprintf("decode %s response", path),
			Err:     err,
		}
	}
	return nil
}

func (c *GoogleClient) do(req *http.Request) (*http.Response, error) {
	resp, err := c.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &httpStatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
	}
	return resp, nil
}

// retryable reports whether a failed attempt may succeed when repeated:
// network errors, 429 and 5xx responses.
func retryable(ctx context.Context, err error) bool {
	var he *httpStatusError
	if errors.As(err, &he) {
		return he.Code == http.StatusTooManyRequests || he.Code >= 500
	}

	var ne net.Error
	return errors.As(err, &ne) && ctx.Err() == nil
}

// doWithRetry repeats transient failures with doubling backoff until
// maxAttempts or the context ends.
func (c *GoogleClient) doWithRetry(
	ctx context.Context,
	makeReq func() (*http.Request, error),
) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(c.backoff << (attempt - 1))
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := makeReq()
		if err != nil {
			return nil, err
		}

		resp, err := c.do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !retryable(ctx, err) {
			return nil, err
		}
	}

	return nil, lastErr
}

// transportError converts a failed HTTP exchange into an OptimizationError.
func transportError(err error) *domain.OptimizationError {
	var he *httpStatusError
	var ne net.Error
	switch {
	case errors.As(err, &he):
		return &domain.OptimizationError{
			Status:  fmt.Sprintf("HTTP_%d", he.Code),
			Message: he.Body,
		}
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &ne) && ne.Timeout():
		return &domain.OptimizationError{Status: "TIMEOUT", Message: "request timed out", Err: err}
	case errors.Is(err, context.Canceled):
		return &domain.OptimizationError{Status: "CANCELLED", Message: "request cancelled", Err: err}
	default:
		return &domain.OptimizationError{Status: "NETWORK_ERROR", Err: err}
	}
}
