// Package ai is the HTTP client for the generation backend shared by the
// provider handlers. Transient failures are retried with linear backoff;
// permanent failures surface with the classified domain kind so handlers
// can decide whether a refund is due.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"aibot/core/config"
	"aibot/core/fault"
	"aibot/core/logger"
	"aibot/core/netutil"
	"log/slog"
)

// Generator produces content for a provider from a prompt.
type Generator interface {
	Generate(ctx context.Context, provider, prompt string) (string, error)
}

// Client calls the generation backend over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	retry   netutil.RetryConfig
}

// New builds a generation client from configuration.
func New(cfg config.AIConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout()},
		retry: netutil.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   time.Second,
			RetryIf:     fault.IsRetryable,
		},
	}
}

type generateRequest struct {
	Provider string `json:"provider"`
	Prompt   string `json:"prompt"`
}

type generateResponse struct {
	Result string `json:"result"`
}

// Generate submits the prompt and returns the produced content. For image
// and video providers the result is a URL.
func (c *Client) Generate(ctx context.Context, provider, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{Provider: provider, Prompt: prompt})
	if err != nil {
		return "", fault.Wrap(fault.KindValidationError, "encode generation request", err)
	}

	started := time.Now()
	out, err := netutil.RetryValue(ctx, c.retry, func(ctx context.Context) (string, error) {
		return c.generate(ctx, body)
	})
	logger.Info(ctx, "ai", "ai.generate",
		slog.String("provider", provider),
		slog.String("status", logger.Status(err)),
		slog.Duration("duration", logger.Took(started)),
	)
	return out, err
}

func (c *Client) generate(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/generate", bytes.NewReader(body))
	if err != nil {
		return "", fault.Wrap(fault.KindValidationError, "build generation request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fault.Wrap(fault.Classify(err), "generation request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fault.Wrap(fault.KindNetworkError, "read generation response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fault.FromHTTP(resp.StatusCode, string(raw), "generation backend")
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		gerr := fault.FromHTTP(resp.StatusCode, string(raw), "generation backend: malformed response")
		gerr.Err = err
		return "", gerr
	}
	if out.Result == "" {
		return "", fmt.Errorf("generation backend returned empty result")
	}
	return out.Result, nil
}
