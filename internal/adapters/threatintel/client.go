package threatintel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var (
	// ErrNoCredential is returned when a provider that needs an API key has none
	ErrNoCredential = errors.New("threat intel provider requires an API key")
	// ErrUnexpectedStatus wraps non-success HTTP responses
	ErrUnexpectedStatus = errors.New("unexpected status from threat intel provider")
)

const maxResponseBytes = 1 << 20

// doJSON sends the request and decodes a JSON response into out. A 404 reports
// found=false without an error.
func doJSON(ctx context.Context, client *http.Client, req *http.Request, out interface{}) (found bool, err error) {
	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return false, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return false, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	if len(body) == 0 {
		return true, nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}
	return true, nil
}
