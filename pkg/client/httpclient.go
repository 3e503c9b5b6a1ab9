package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"haul-bidding/internal/biddingerrors"
	"haul-bidding/services/bidding/helpers"
	"haul-bidding/utils"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultMaxAttempts = 4
	defaultBaseBackoff = 200 * time.Millisecond
	maxBackoff         = 2 * time.Second
)

// APIError is a non-2xx answer from the API. It unwraps to the matching
// biddingerrors sentinel, so callers can use errors.Is on it.
type APIError struct {
	Status  int
	Message string
	Detail  string
	Details []FieldError

	sentinel error
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Detail != "" && e.Detail != e.Message {
		return fmt.Sprintf("api: %d %s: %s", e.Status, e.Message, e.Detail)
	}
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error { return e.sentinel }

type errorKey struct {
	status  int
	message string
}

// sentinelFor inverts helpers.MapErrorToHTTP.
var sentinelFor = func() map[errorKey]error {
	m := make(map[errorKey]error)
	for _, err := range []error{
		biddingerrors.ErrValidation,
		biddingerrors.ErrDuplicateBid,
		biddingerrors.ErrWindowClosed,
		biddingerrors.ErrConflict,
		biddingerrors.ErrForbidden,
		biddingerrors.ErrBookingNotFound,
		biddingerrors.ErrBidNotFound,
		biddingerrors.ErrInvalidTransition,
		biddingerrors.ErrTransient,
	} {
		status, message := helpers.MapErrorToHTTP(err)
		m[errorKey{status, message}] = err
	}
	return m
}()

func classify(status int, message string) error {
	if err, ok := sentinelFor[errorKey{status, message}]; ok {
		return err
	}
	switch {
	case status == http.StatusBadRequest:
		return biddingerrors.ErrValidation
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return biddingerrors.ErrForbidden
	case status == http.StatusServiceUnavailable:
		return biddingerrors.ErrTransient
	}
	return nil
}

// HttpClient sends JSON requests with the caller's identity headers and
// retries transient failures with exponential backoff.
type HttpClient struct {
	BaseURL     string
	HTTPClient  *http.Client
	UserID      string
	Role        helpers.Role
	MaxAttempts int
	BaseBackoff time.Duration
}

func NewHttpClient(baseURL, userID string, role helpers.Role) *HttpClient {
	return &HttpClient{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		HTTPClient:  &http.Client{Timeout: defaultTimeout},
		UserID:      userID,
		Role:        role,
		MaxAttempts: defaultMaxAttempts,
		BaseBackoff: defaultBaseBackoff,
	}
}

type envelope struct {
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
	Details []FieldError    `json:"details"`
}

// Do sends the request and decodes the envelope's data into out, which may
// be nil. Only transient failures are retried, and a POST is retried only
// when the server answered 503.
func (c *HttpClient) Do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: failed to marshal request body: %w", err)
		}
		payload = raw
	}

	attempts := max(c.MaxAttempts, 1)
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := c.wait(ctx, attempt); err != nil {
				return err
			}
		}

		lastErr = c.once(ctx, method, path, payload, out)
		if lastErr == nil || !biddingerrors.IsRetryable(lastErr) {
			return lastErr
		}
		// A dropped connection may follow a committed write, so only an
		// explicit 503 is safe to repeat for non-idempotent methods.
		var apiErr *APIError
		if !idempotent(method) && !errors.As(lastErr, &apiErr) {
			return lastErr
		}
		utils.Warn("client: transient failure, retrying", map[string]any{
			"method":  method,
			"path":    path,
			"attempt": attempt + 1,
			"error":   lastErr.Error(),
		})
	}
	return lastErr
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

func (c *HttpClient) wait(ctx context.Context, attempt int) error {
	backoff := min(c.BaseBackoff<<(attempt-1), maxBackoff)
	timer := time.NewTimer(backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *HttpClient) once(ctx context.Context, method, path string, payload []byte, out any) error {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("client: failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.UserID != "" {
		req.Header.Set(helpers.HeaderUserID, c.UserID)
	}
	if c.Role != "" {
		req.Header.Set(helpers.HeaderUserRole, string(c.Role))
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("client: %w - %s %s: %v", biddingerrors.ErrTransient, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("client: %w - reading response: %v", biddingerrors.ErrTransient, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode, Message: env.Message, Detail: env.Error, Details: env.Details}
		if decodeErr != nil {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		apiErr.sentinel = classify(apiErr.Status, apiErr.Message)
		return apiErr
	}
	if decodeErr != nil {
		return fmt.Errorf("client: failed to decode response: %w", decodeErr)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("client: failed to decode data: %w", err)
	}
	return nil
}

// WaitForHealthy polls /health until it answers 200 or maxWait passes.
func (c *HttpClient) WaitForHealthy(ctx context.Context, maxWait time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, maxWait)
	defer cancel()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if err := c.once(ctx, http.MethodGet, "/health", nil, nil); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.New("client: service did not become healthy within " + maxWait.String())
		case <-ticker.C:
		}
	}
}
