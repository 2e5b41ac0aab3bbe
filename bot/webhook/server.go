// Package webhook runs the HTTP listener for payment-gateway status
// callbacks. Every request body is verified against its HMAC signature
// before it can touch the billing state.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"log/slog"

	"aibot/bot/service"
	"aibot/core/fault"
	"aibot/core/gateway"
	"aibot/core/logger"
)

const component = "webhook"

// maxBodyBytes caps callback bodies; gateway notifications are tiny.
const maxBodyBytes = 64 << 10

// Notification is the gateway's status callback payload.
type Notification struct {
	OrderID        string `json:"orderId"`
	SubscriptionID string `json:"subscriptionId"`
	Status         string `json:"status"`
}

// Server listens for gateway callbacks and applies them to billing.
type Server struct {
	billing *service.Billing
	secret  string
	http    *http.Server
}

// New builds the callback server bound to addr.
func New(addr, secret string, billing *service.Billing) *Server {
	s := &Server{
		billing: billing,
		secret:  secret,
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Post("/gateway/callback", s.handleCallback)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	s.http = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start serves until the listener fails or Shutdown is called.
// ErrServerClosed is swallowed; any other listen failure is returned.
func (s *Server) Start() error {
	logger.Info(logger.Background(), component, "webhook.listen",
		slog.String("addr", s.http.Addr),
	)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, fault.Fail(fault.New(fault.KindValidationError, "unreadable body")))
		return
	}

	sig := r.Header.Get(gateway.SignatureHeader)
	if !gateway.VerifySignature(s.secret, body, sig) {
		logger.Warn(ctx, component, "webhook.signature.rejected",
			slog.Int("body_len", len(body)),
		)
		writeJSON(w, http.StatusUnauthorized, fault.Fail(fault.New(fault.KindUnauthorized, "signature mismatch")))
		return
	}

	var n Notification
	if err := json.Unmarshal(body, &n); err != nil || n.OrderID == "" {
		writeJSON(w, http.StatusBadRequest, fault.Fail(fault.New(fault.KindValidationError, "malformed notification")))
		return
	}

	logger.Info(ctx, component, "webhook.notification",
		slog.String("order_id", n.OrderID),
		slog.String("subscription_id", n.SubscriptionID),
		slog.String("status", n.Status),
	)

	if err := s.billing.Apply(ctx, n.OrderID, n.Status, n.SubscriptionID); err != nil {
		if fault.IsKind(err, fault.KindNotFound) {
			writeJSON(w, http.StatusNotFound, fault.Fail(err))
			return
		}
		logger.Error(ctx, component, "webhook.apply.failed",
			slog.String("order_id", n.OrderID),
			slog.String("err", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, fault.Fail(err))
		return
	}

	writeJSON(w, http.StatusOK, fault.OK(nil))
}

func writeJSON(w http.ResponseWriter, status int, resp fault.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
