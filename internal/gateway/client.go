package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Request policy constants for the single-turn chat proxy. These are not
// client-tunable.
const (
	systemInstruction = "You are an AI assistant."
	chatTemperature   = 0.7
	chatMaxTokens     = 4096
)

// Client issues validation probes and chat completion requests against the
// upstream configured in the Store.
type Client struct {
	store *Store
	http  *http.Client
	log   *zap.SugaredLogger
}

// Option is a functional option for configuring a Client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client, mainly for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Client) {
		g.http = c
	}
}

// NewClient creates a gateway client bound to the given store.
func NewClient(store *Store, logger *zap.SugaredLogger, opts ...Option) *Client {
	c := &Client{
		store: store,
		http: &http.Client{
			Timeout: store.Policy().Timeout,
		},
		log: logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

// Validate confirms that the configured endpoint and key are usable by
// listing the upstream models. It fails fast with no retry so the raw
// upstream status reaches the user.
func (c *Client) Validate(ctx context.Context) ([]string, error) {
	endpoint, apiKey, _ := c.store.credentials()
	if apiKey == "" {
		return nil, ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build validation request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Attempts: 1, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Attempts: 1, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	models := []string{}
	for _, id := range gjson.GetBytes(body, "data.#.id").Array() {
		models = append(models, id.String())
	}

	c.log.Infow("upstream validation succeeded", "models", len(models))
	return models, nil
}

// SendChat forwards a single user message to the upstream chat completion
// endpoint and returns the assistant reply. Transport failures are retried
// with exponential backoff up to the configured attempt budget; HTTP-level
// rejections are surfaced immediately.
func (c *Client) SendChat(ctx context.Context, message, model string) (string, error) {
	if message == "" {
		return "", ErrEmptyMessage
	}

	endpoint, apiKey, defaultModel := c.store.credentials()
	if apiKey == "" {
		return "", ErrNotConfigured
	}
	if model == "" {
		model = defaultModel
	}

	payload, err := json.Marshal(chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: message},
		},
		Temperature: chatTemperature,
		MaxTokens:   chatMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode chat request: %w", err)
	}

	policy := c.store.Policy()

	var lastErr error
	for attempt := 1; attempt <= policy.MaxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			endpoint+"/chat/completions", bytes.NewReader(payload))
		if err != nil {
			return "", fmt.Errorf("failed to build chat request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			c.log.Warnw("chat request transport failure", "attempt", attempt, "error", err)

			if attempt == policy.MaxRetries {
				break
			}
			if err := c.waitBackoff(ctx, attempt, policy.BackoffFactor); err != nil {
				return "", &TransportError{Attempts: attempt, Err: err}
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			if attempt == policy.MaxRetries {
				break
			}
			if err := c.waitBackoff(ctx, attempt, policy.BackoffFactor); err != nil {
				return "", &TransportError{Attempts: attempt, Err: err}
			}
			continue
		}

		// 4xx/5xx are not retried: repeating a bad request or bad
		// credential wastes quota without changing the outcome.
		if resp.StatusCode != http.StatusOK {
			return "", &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
		}

		content := gjson.GetBytes(body, "choices.0.message.content")
		if !content.Exists() {
			return "", ErrMalformedResponse
		}

		return content.String(), nil
	}

	return "", &TransportError{Attempts: policy.MaxRetries, Err: lastErr}
}

// waitBackoff sleeps backoffFactor * 2^(attempt-1) seconds, or returns early
// if the context is cancelled.
func (c *Client) waitBackoff(ctx context.Context, attempt int, factor float64) error {
	wait := time.Duration(factor * math.Pow(2, float64(attempt-1)) * float64(time.Second))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}
