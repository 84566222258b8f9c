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

	"github.com/sakashimaa/storefront/pkg/mylogger"
	"github.com/sakashimaa/storefront/pkg/utils"
	"github.com/sakashimaa/storefront/services/storefront/internal/domain"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const maxErrorBody = 512

// StatusError is returned for every non-2xx answer of the backend.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return domain.ErrNetwork
}

func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == code
}

// Client talks JSON to the storefront REST backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker
	logger     *zap.Logger
}

func New(baseURL string, timeout time.Duration, name string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		cb:     utils.NewBreaker(name, logger, countsAsSuccess),
		logger: logger,
	}
}

// 4xx answers are the caller's problem and must not open the breaker.
func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode < http.StatusInternalServerError
	}

	return false
}

func (c *Client) Do(ctx context.Context, method, path, token string, body, out any) error {
	_, err := utils.ExecuteWithBreaker[struct{}](c.cb, func() (struct{}, error) {
		return struct{}{}, c.roundTrip(ctx, method, path, token, body, out)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			mylogger.Warn(ctx, c.logger, "Circuit breaker open", zap.String("path", path))

			return fmt.Errorf("%w: %w", domain.ErrNetwork, err)
		}

		return err
	}

	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		mylogger.Warn(
			ctx,
			c.logger,
			"backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)

		return fmt.Errorf("%w: %s %s: %w", domain.ErrNetwork, method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: failed to decode %s %s response: %w", domain.ErrNetwork, method, path, err)
	}

	return nil
}
