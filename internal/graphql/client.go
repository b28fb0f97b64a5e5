package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Request is a single GraphQL operation.
type Request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// Error is one entry of the GraphQL errors array.
type Error struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Errors is the full errors array; it implements error with all messages
// joined so callers can surface it directly.
type Errors []Error

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Message
	}
	return "graphql: " + strings.Join(msgs, "; ")
}

// HTTPError is returned for non-2xx transport responses.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("graphql endpoint returned HTTP %d", e.Status)
}

// UserError is the mutation-level error shape the commerce API nests in
// mutation payloads instead of the top-level errors array.
type UserError struct {
	Field   []string `json:"field,omitempty"`
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
}

// UserErrorsToError folds a userErrors slice into a single error, or nil.
func UserErrorsToError(errs []UserError) error {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, ue := range errs {
		if len(ue.Field) > 0 {
			msgs[i] = fmt.Sprintf("%s: %s", strings.Join(ue.Field, "."), ue.Message)
		} else {
			msgs[i] = ue.Message
		}
	}
	return fmt.Errorf("api rejected the request: %s", strings.Join(msgs, "; "))
}

// Client executes GraphQL operations against one endpoint.
type Client struct {
	endpoint string
	headers  map[string]string
	http     *http.Client
	logger   *zap.Logger
}

// NewClient creates a client for endpoint. The headers are attached to
// every request (access tokens, content negotiation).
func NewClient(endpoint string, headers map[string]string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		endpoint: endpoint,
		headers:  headers,
		http:     &http.Client{Timeout: 15 * time.Second},
		logger:   logger,
	}
}

type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors Errors          `json:"errors"`
}

// Execute posts the operation and decodes the data payload into out.
// out is only written on a fully successful response.
func (c *Client) Execute(ctx context.Context, req Request, out any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal graphql request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build graphql request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("graphql request failed: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("graphql request",
		zap.String("endpoint", c.endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &HTTPError{Status: resp.StatusCode, Body: string(snippet)}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode graphql response: %w", err)
	}
	if len(env.Errors) > 0 {
		return env.Errors
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode graphql data: %w", err)
	}
	return nil
}
