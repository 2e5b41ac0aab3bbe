// Package gateway implements the signed client for the recurring-billing
// provider. Every operation is a POST whose JSON body is signed with
// HMAC-SHA256 over the exact byte sequence; all operations are idempotent
// on the provider side, keyed by orderId or an existing resource id, so
// transient failures are retried with linear backoff.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"aibot/core/config"
	"aibot/core/fault"
	"aibot/core/logger"
	"aibot/core/netutil"
)

// SignatureHeader carries the hex HMAC of the request body.
const SignatureHeader = "Signature"

const maxResponseBytes = 1 << 20

// Client talks to the billing provider on behalf of one shop.
type Client struct {
	baseURL string
	shopID  string
	secret  string
	http    *http.Client
	retry   netutil.RetryConfig
}

// New builds a gateway client from configuration.
func New(cfg config.GatewayConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		shopID:  cfg.ShopID,
		secret:  cfg.Secret,
		http:    &http.Client{Timeout: cfg.Timeout()},
		retry: netutil.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   cfg.RetryBackoff(),
			RetryIf:     fault.IsRetryable,
		},
	}
}

// ListProducts fetches the plans offered for the shop.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	body := newPayload().
		Str("shopId", c.shopID).
		Bytes()

	var out []Product
	if err := c.post(ctx, "/products/list", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateConsumer registers a payer identity. Phone is optional and
// omitted from the signed body when empty.
func (c *Client) CreateConsumer(ctx context.Context, consumerID, email, phone string) (*Consumer, error) {
	if consumerID == "" || email == "" {
		return nil, fault.New(fault.KindValidationError, "consumerId and email are required")
	}
	body := newPayload().
		Str("shopId", c.shopID).
		Str("consumerId", consumerID).
		Str("email", email).
		StrOpt("phone", phone).
		Bytes()

	var out Consumer
	if err := c.post(ctx, "/consumers/create", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateSubscription starts a recurring charge for the consumer. The
// caller-generated orderId is the idempotency key: retrying with the
// same orderId never creates a second subscription.
func (c *Client) CreateSubscription(ctx context.Context, productID, consumerID, orderID string) (*Subscription, error) {
	if productID == "" || consumerID == "" || orderID == "" {
		return nil, fault.New(fault.KindValidationError, "productId, consumerId and orderId are required")
	}
	body := newPayload().
		Str("shopId", c.shopID).
		Str("productId", productID).
		Str("consumerId", consumerID).
		Str("orderId", orderID).
		Bytes()

	var out Subscription
	if err := c.post(ctx, "/subscriptions/create", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Status fetches the current state of a subscription.
func (c *Client) Status(ctx context.Context, ref Ref) (*Subscription, error) {
	if err := ref.validate(); err != nil {
		return nil, err
	}
	p := newPayload().Str("shopId", c.shopID)
	ref.apply(p)

	var out Subscription
	if err := c.post(ctx, "/subscriptions/status", p.Bytes(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// OffsetChargeDate shifts the next charge date by days. The provider's
// wire format takes the day count as a decimal string.
func (c *Client) OffsetChargeDate(ctx context.Context, ref Ref, days int) error {
	if err := ref.validate(); err != nil {
		return err
	}
	if days == 0 {
		return fault.New(fault.KindValidationError, "days must be non-zero")
	}
	p := newPayload().
		Str("shopId", c.shopID).
		Str("days", strconv.Itoa(days))
	ref.apply(p)
	return c.post(ctx, "/subscriptions/offset", p.Bytes(), nil)
}

// Unsubscribe cancels the subscription. Cancelling an already-cancelled
// subscription is a no-op on the provider side.
func (c *Client) Unsubscribe(ctx context.Context, ref Ref) error {
	if err := ref.validate(); err != nil {
		return err
	}
	p := newPayload().Str("shopId", c.shopID)
	ref.apply(p)
	return c.post(ctx, "/subscriptions/unsubscribe", p.Bytes(), nil)
}

func (c *Client) post(ctx context.Context, path string, body []byte, out interface{}) error {
	started := time.Now()
	err := netutil.Retry(ctx, c.retry, func(ctx context.Context) error {
		return c.do(ctx, path, body, out)
	})
	logger.Debug(ctx, "gateway", "gateway.post",
		slog.String("operation", path),
		slog.String("status", logger.Status(err)),
		slog.Duration("duration_ms", logger.Took(started)),
	)
	return err
}

func (c *Client) do(ctx context.Context, path string, body []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fault.Wrap(fault.KindValidationError, "build gateway request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, Sign(c.secret, body))

	resp, err := c.http.Do(req)
	if err != nil {
		return fault.Wrap(fault.Classify(err), "gateway request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fault.Wrap(fault.KindNetworkError, "read gateway response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		gerr := fault.FromHTTP(resp.StatusCode, string(raw), fmt.Sprintf("gateway %s", path))
		logger.Warn(ctx, "gateway", "gateway.error",
			slog.String("operation", path),
			slog.Int("http_code", resp.StatusCode),
			slog.String("payload", logger.Sanitize(string(raw))),
		)
		return gerr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		gerr := fault.FromHTTP(resp.StatusCode, string(raw), fmt.Sprintf("gateway %s: malformed response", path))
		gerr.Err = err
		return gerr
	}
	return nil
}
