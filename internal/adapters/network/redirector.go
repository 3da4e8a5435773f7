package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

// ErrTooManyRedirects is returned when a chain is longer than the hop limit
var ErrTooManyRedirects = errors.New("too many redirects")

// HTTPRedirector walks a redirect chain one hop at a time
type HTTPRedirector struct {
	client    *http.Client
	userAgent string
	logger    *zap.Logger
}

// NewHTTPRedirector creates a redirector. The client must not follow redirects itself.
func NewHTTPRedirector(client *http.Client, userAgent string, logger *zap.Logger) *HTTPRedirector {
	return &HTTPRedirector{
		client:    client,
		userAgent: userAgent,
		logger:    logger,
	}
}

// Resolve follows at most maxHops redirects and returns the last URL reached
func (r *HTTPRedirector) Resolve(ctx context.Context, rawURL string, maxHops int) (string, error) {
	current, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", rawURL, err)
	}

	for hop := 0; ; hop++ {
		next, err := r.step(ctx, current)
		if err != nil {
			return "", err
		}
		if next == nil {
			return current.String(), nil
		}
		if hop >= maxHops {
			return "", fmt.Errorf("%w: more than %d hops from %s", ErrTooManyRedirects, maxHops, rawURL)
		}

		r.logger.Debug("Following redirect",
			zap.String("from", current.String()),
			zap.String("to", next.String()))
		current = next
	}
}

// step issues one request and returns the Location target, or nil when the response
// is not a redirect
func (r *HTTPRedirector) step(ctx context.Context, target *url.URL) (*url.URL, error) {
	resp, err := r.do(ctx, http.MethodHead, target)
	if err == nil && resp.StatusCode == http.StatusMethodNotAllowed {
		resp.Body.Close()
		resp, err = r.do(ctx, http.MethodGet, target)
	}
	if err != nil {
		return nil, fmt.Errorf("request failed for %s: %w", target, err)
	}
	defer resp.Body.Close()
	// Drain a little so the connection can be reused
	_, _ = io.CopyN(io.Discard, resp.Body, 4096)

	if resp.StatusCode < 300 || resp.StatusCode >= 400 {
		return nil, nil
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return nil, nil
	}
	next, err := target.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect location %q: %w", location, err)
	}
	return next, nil
}

func (r *HTTPRedirector) do(ctx context.Context, method string, target *url.URL) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target.String(), nil)
	if err != nil {
		return nil, err
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*;q=0.8")
	return r.client.Do(req)
}
