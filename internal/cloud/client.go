// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/cenkalti/backoff.v1"
)

// Configuration constants for the completions API.
const (
	// DefaultBaseURL is the base URL for the OpenAI API.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultModel is the completions model used when none is configured.
	DefaultModel = "gpt-3.5-turbo-instruct"

	// DefaultMaxTokens caps the completion length.
	DefaultMaxTokens = 1000

	// DefaultTemperature is the sampling temperature.
	DefaultTemperature = 0.7

	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxRetries is the default number of retries for transient errors.
	DefaultMaxRetries = 3

	// retryBaseDelay is the first backoff interval.
	retryBaseDelay = 500 * time.Millisecond

	// retryMaxDelay is the largest backoff interval.
	retryMaxDelay = 10 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion attacks.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit
)

// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
// SECURITY: TLS verification required for production
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		Timeout: timeout,
	}
}

// Error variables for common API errors.
var (
	// ErrNotConfigured indicates the API key is not set.
	ErrNotConfigured = errors.New("API key not configured")

	// ErrAuthFailed indicates authentication failed (invalid or expired API key).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limited")

	// ErrModelNotFound indicates the requested model does not exist.
	ErrModelNotFound = errors.New("model not found")

	// ErrEmptyCompletion indicates the response carried no usable text.
	ErrEmptyCompletion = errors.New("empty completion")

	// ErrRequestFailed wraps transport failures (connection refused, reset, timeout).
	ErrRequestFailed = errors.New("request failed")
)

// APIError represents an error reported by the completions service.
type APIError struct {
	Type    string
	Code    string
	Message string
	Status  int
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("API error (HTTP %d): %s", e.Status, e.Message)
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// CompletionRequest is the body sent to the completions endpoint.
type CompletionRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

// CompletionResponse is the body returned by the completions endpoint.
// A service-side failure arrives as an error object instead of choices.
type CompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Text         string `json:"text"`
		Index        int    `json:"index"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *apiErrorBody `json:"error,omitempty"`
}

// GetText returns the text of the first choice, or empty string if none.
func (r *CompletionResponse) GetText() string {
	if len(r.Choices) > 0 {
		return r.Choices[0].Text
	}
	return ""
}

type apiErrorBody struct {
	Message string          `json:"message"`
	Type    string          `json:"type"`
	Code    json.RawMessage `json:"code"`
}

// code flattens the error code, which the service sends as a string or null.
func (b *apiErrorBody) code() string {
	var s string
	if err := json.Unmarshal(b.Code, &s); err == nil {
		return s
	}
	return ""
}

// apiErrorResponse represents an error response from the API.
type apiErrorResponse struct {
	Error *apiErrorBody `json:"error"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client sends prompts to an OpenAI-compatible completions endpoint.
//
// The Client is safe for concurrent use. The API key is passed per call so a
// reloaded credential takes effect on the next request.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	model       string
	maxTokens   int
	temperature float64
	maxRetries  int
	retryDelay  time.Duration
	userAgent   string
	logger      *zap.Logger
}

// NewClient creates a client with default settings.
func NewClient() *Client {
	return &Client{
		baseURL:     DefaultBaseURL,
		httpClient:  newHTTPClient(DefaultTimeout),
		model:       DefaultModel,
		maxTokens:   DefaultMaxTokens,
		temperature: DefaultTemperature,
		maxRetries:  DefaultMaxRetries,
		retryDelay:  retryBaseDelay,
		userAgent:   "slashwrite/0.1.0",
		logger:      zap.NewNop(),
	}
}

// WithBaseURL sets a custom base URL for the API.
func (c *Client) WithBaseURL(url string) *Client {
	if url != "" {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
	return c
}

// WithTimeout sets the request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	if timeout > 0 {
		c.httpClient.Timeout = timeout
	}
	return c
}

// WithMaxRetries sets the number of retries after the first attempt.
func (c *Client) WithMaxRetries(maxRetries int) *Client {
	if maxRetries >= 0 {
		c.maxRetries = maxRetries
	}
	return c
}

// WithRetryDelay sets the first backoff interval.
func (c *Client) WithRetryDelay(d time.Duration) *Client {
	if d > 0 {
		c.retryDelay = d
	}
	return c
}

// WithModel sets the completions model.
func (c *Client) WithModel(model string) *Client {
	if model != "" {
		c.model = model
	}
	return c
}

// WithMaxTokens sets the completion length cap.
func (c *Client) WithMaxTokens(n int) *Client {
	if n > 0 {
		c.maxTokens = n
	}
	return c
}

// WithTemperature sets the sampling temperature.
func (c *Client) WithTemperature(t float64) *Client {
	c.temperature = t
	return c
}

// WithLogger sets the logger used for request tracing.
func (c *Client) WithLogger(logger *zap.Logger) *Client {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// Model returns the configured model.
func (c *Client) Model() string {
	return c.model
}

// Complete sends prompt and returns the first choice's text.
//
// Network errors, HTTP 429 and 5xx responses are retried with exponential
// backoff. Other 4xx responses and service-reported errors fail at once.
func (c *Client) Complete(ctx context.Context, apiKey, prompt string) (string, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return "", ErrNotConfigured
	}

	reqBody := CompletionRequest{
		Model:       c.model,
		Prompt:      prompt,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var text string
	op := func() error {
		resp, err := c.doRequest(ctx, apiKey, bodyBytes)
		if err != nil {
			if !isRetryable(ctx, err) {
				return backoff.Permanent(err)
			}
			return err
		}
		text = resp.GetText()
		return nil
	}

	notify := func(err error, next time.Duration) {
		c.logger.Debug("retrying completion request",
			zap.Error(err),
			zap.Duration("backoff", next),
		)
	}

	if err := backoff.RetryNotify(op, c.newBackOff(ctx), notify); err != nil {
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

func (c *Client) newBackOff(ctx context.Context) backoff.BackOff {
	if c.maxRetries == 0 {
		// WithMaxTries treats zero as unlimited.
		return backoff.WithContext(&backoff.StopBackOff{}, ctx)
	}
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.retryDelay
	exp.MaxInterval = retryMaxDelay
	exp.MaxElapsedTime = 0
	exp.Reset()
	// WithMaxTries counts NextBackOff calls, which only follow a failed attempt.
	return backoff.WithContext(backoff.WithMaxTries(exp, uint64(c.maxRetries)), ctx)
}

// doRequest performs a single HTTP request to the completions endpoint.
// SECURITY: Clears Authorization header after request to prevent logging.
func (c *Client) doRequest(ctx context.Context, apiKey string, body []byte) (*CompletionResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req, apiKey)
	c.logRequest(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	req.Header.Del("Authorization")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	c.logResponse(resp, time.Since(start))

	data, err := readResponse(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, handleErrorResponse(resp.StatusCode, data)
	}

	var out CompletionResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if out.Error != nil {
		return nil, &APIError{
			Type:    out.Error.Type,
			Code:    out.Error.code(),
			Message: out.Error.Message,
			Status:  resp.StatusCode,
		}
	}
	return &out, nil
}

// setHeaders sets the required headers for API requests.
func (c *Client) setHeaders(req *http.Request, apiKey string) {
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
}

// readResponse reads the response body with size limits.
// SECURITY: Response size limit prevents memory exhaustion attacks.
func readResponse(resp *http.Response) ([]byte, error) {
	limitedReader := io.LimitReader(resp.Body, MaxResponseSize)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// handleErrorResponse converts HTTP error responses to appropriate Go errors.
func handleErrorResponse(statusCode int, body []byte) error {
	var parsed apiErrorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != nil && parsed.Error.Message != "" {
		apiErr := &APIError{
			Type:    parsed.Error.Type,
			Code:    parsed.Error.code(),
			Message: parsed.Error.Message,
			Status:  statusCode,
		}
		switch statusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", ErrAuthFailed, apiErr.Message)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrModelNotFound, apiErr.Message)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", ErrRateLimited, apiErr.Message)
		default:
			return apiErr
		}
	}

	// Fallback for unparseable error responses
	switch statusCode {
	case http.StatusUnauthorized:
		return ErrAuthFailed
	case http.StatusNotFound:
		return ErrModelNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return &APIError{
			Message: strings.TrimSpace(string(body)),
			Status:  statusCode,
		}
	}
}

// isRetryable determines if an error should trigger a retry.
func isRetryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		// A service error inside a 200 body is not transient.
		return apiErr.Status >= 500 && apiErr.Status < 600
	}
	if errors.Is(err, ErrAuthFailed) || errors.Is(err, ErrModelNotFound) {
		return false
	}

	return errors.Is(err, ErrRequestFailed)
}

// =============================================================================
// LOGGING (without sensitive data)
// =============================================================================

// logRequest never logs headers or body; both may carry the key or user text.
func (c *Client) logRequest(req *http.Request) {
	c.logger.Debug("completion request",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.String("model", c.model),
	)
}

func (c *Client) logResponse(resp *http.Response, duration time.Duration) {
	c.logger.Debug("completion response",
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", duration),
	)
}

// =============================================================================
// KEY HELPERS
// =============================================================================

// MaskKey returns a display form of an API key.
// SECURITY: Never exposes key fragments, only length and a fingerprint.
func MaskKey(apiKey string) string {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return "[not set]"
	}
	return fmt.Sprintf("[REDACTED, length=%d, fingerprint=%s]", len(apiKey), Fingerprint(apiKey))
}

// Fingerprint returns the first 8 hex characters of the key's SHA-256.
func Fingerprint(apiKey string) string {
	if apiKey == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(h[:4])
}

// ValidateAPIKey checks if the API key format appears valid.
// Note: This doesn't verify the key with the service, just checks the format.
func ValidateAPIKey(apiKey string) bool {
	apiKey = strings.TrimSpace(apiKey)
	if !strings.HasPrefix(apiKey, "sk-") || len(apiKey) < 20 {
		return false
	}
	if strings.ContainsFunc(apiKey, func(r rune) bool { return r <= ' ' }) {
		return false
	}

	// Count unique characters to reject obvious placeholders like "sk-aaaaaaaa"
	uniqueChars := make(map[rune]bool)
	for _, char := range apiKey[3:] {
		uniqueChars[char] = true
	}
	return len(uniqueChars) >= 10
}
