package telegram

import (
	"strings"
	"sync"

	"aibot/core/logger"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// Dispatch maps event identifiers to handlers. Resolution tries an exact
// match first, then falls back to prefix matching: a pattern matches when
// the event id starts with pattern + "_". Prefix candidates are tried in
// registration order, so the first-registered pattern wins ambiguous
// prefixes. That tie-break is kept for compatibility with existing event
// id strings rather than as a deliberate ranking.
//
// A Dispatch is built once at startup and read-only afterwards; the
// mutex only guards against misuse, not a concurrent-registration design.
type Dispatch struct {
	mu       sync.RWMutex
	order    []string
	handlers map[string]tele.HandlerFunc
}

// NewDispatch creates an empty dispatch table.
func NewDispatch() *Dispatch {
	return &Dispatch{
		handlers: make(map[string]tele.HandlerFunc),
	}
}

// Register binds a handler to a pattern. Re-registering a pattern
// replaces its handler but keeps its original position in the prefix
// scan order.
func (d *Dispatch) Register(pattern string, h tele.HandlerFunc) {
	if d == nil || pattern == "" || h == nil {
		logger.Warn(logger.Background(), "tg.wire", "register.dispatch.skip",
			slog.String("pattern", pattern),
			slog.Bool("handler_nil", h == nil),
		)
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.handlers[pattern]; !exists {
		d.order = append(d.order, pattern)
	} else {
		logger.Warn(logger.Background(), "tg.wire", "register.dispatch.replace",
			slog.String("pattern", pattern),
		)
	}
	d.handlers[pattern] = h
}

// Resolve finds the handler for an event id. The returned pattern tells
// the caller which registration matched. ok is false when nothing
// matches; an unmatched event is not an error.
func (d *Dispatch) Resolve(eventID string) (pattern string, h tele.HandlerFunc, ok bool) {
	if d == nil || eventID == "" {
		return "", nil, false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	if h, ok := d.handlers[eventID]; ok {
		return eventID, h, true
	}
	for _, p := range d.order {
		if strings.HasPrefix(eventID, p+"_") {
			return p, d.handlers[p], true
		}
	}
	return "", nil, false
}

// Patterns returns the registered patterns in scan order, for diagnostics.
func (d *Dispatch) Patterns() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// Len reports the number of registered patterns.
func (d *Dispatch) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.order)
}
