package router

import (
	"time"

	tg "aibot/core/telegram"
	"aibot/core/telegram/callbacks"
	"aibot/core/telegram/middleware"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
}

// CallbackRoute returns a handler that routes callbacks through the
// registry's dispatch table: exact event id first, then prefix match.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil {
			return nil
		}

		eventID := callbacks.EventID(c)
		name := "callback." + normalizeHandlerName(eventID)
		extras := []slog.Attr{slog.String("cb_key", eventID)}

		_ = c.Respond()

		pattern, cbHandler, ok := reg.ResolveCallback(eventID)
		if !ok || cbHandler == nil {
			fallback := reg.CallbackNotFound()
			if fallback == nil {
				fallback = opts.NotFound
			}
			extras = append(extras, slog.String("reason", "not_found"))
			return handleWithSummary(c, name, start, "", "", func() error {
				if fallback != nil {
					return fallback(c)
				}
				return nil
			}, extras...)
		}

		if pattern != eventID {
			extras = append(extras, slog.String("pattern", pattern))
		}
		return handleWithSummary(c, name, start, "", "", func() error {
			return cbHandler(c)
		}, extras...)
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
