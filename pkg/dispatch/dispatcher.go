// Package dispatch issues reaction calls to the owning third-party
// service's /execute endpoint and normalizes the response into a node
// output.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single reaction call. A timeout is treated like
// any other dispatch failure; the dispatcher never retries.
const DefaultTimeout = 10 * time.Second

// ErrDispatchFailed marks every dispatch failure mode: transport errors,
// timeouts, non-2xx responses and success:false payloads.
var ErrDispatchFailed = errors.New("reaction dispatch failed")

// Request is the wire payload sent to a service's /execute endpoint.
type Request struct {
	Type   string         `json:"type"`
	Name   string         `json:"name"`
	UserID int64          `json:"userId"`
	Config map[string]any `json:"config"`
	Input  map[string]any `json:"input"`
}

type executeResponse struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Dispatcher sends a reaction execution request to a service.
type Dispatcher interface {
	Dispatch(ctx context.Context, baseURL string, req Request) (map[string]any, error)
}

// HTTPDispatcher implements Dispatcher over plain HTTP with a bounded
// request timeout.
type HTTPDispatcher struct {
	client *http.Client
	logger *slog.Logger
}

// NewHTTPDispatcher creates a dispatcher with the given request timeout;
// zero means DefaultTimeout.
func NewHTTPDispatcher(timeout time.Duration, logger *slog.Logger) *HTTPDispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &HTTPDispatcher{
		client: &http.Client{Timeout: timeout},
		logger: logger.With("module", "dispatcher"),
	}
}

// Dispatch POSTs the request to <baseURL>/execute and returns the service's
// result payload. Any failure mode wraps ErrDispatchFailed with the
// service's message preserved.
func (d *HTTPDispatcher) Dispatch(ctx context.Context, baseURL string, req Request) (map[string]any, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %w", ErrDispatchFailed, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/execute", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrDispatchFailed, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	d.logger.DebugContext(ctx, "Dispatching reaction",
		"reaction", req.Name,
		"service_url", baseURL,
	)

	resp, err := d.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDispatchFailed, err)
	}

	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			d.logger.WarnContext(ctx, "Failed to close response body", "error", closeErr)
		}
	}()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrDispatchFailed, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: service returned status %d", ErrDispatchFailed, resp.StatusCode)
	}

	var executeResp executeResponse
	if err := json.Unmarshal(payload, &executeResp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrDispatchFailed, err)
	}

	if !executeResp.Success {
		message := executeResp.Error
		if message == "" {
			message = "reaction execution failed"
		}

		return nil, fmt.Errorf("%w: %s", ErrDispatchFailed, message)
	}

	return normalizeResult(executeResp.Result)
}

// normalizeResult converts the service result into a node output map.
// Non-object results are wrapped so downstream nodes always receive an
// object payload.
func normalizeResult(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}

	var asMap map[string]any
	if err := json.Unmarshal(raw, &asMap); err == nil {
		return asMap, nil
	}

	var asAny any
	if err := json.Unmarshal(raw, &asAny); err != nil {
		return nil, fmt.Errorf("%w: decode result: %w", ErrDispatchFailed, err)
	}

	return map[string]any{"result": asAny}, nil
}
