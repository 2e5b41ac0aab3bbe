// Package handlers contains the Telegram-facing flows: provider menus,
// prompt collection, generation with token debits, and billing screens.
package handlers

import (
	tele "gopkg.in/telebot.v4"

	"aibot/bot/ai"
	"aibot/bot/service"
	"aibot/core/ledger"
	"aibot/core/session"
)

// ProviderHandler is the capability surface each AI provider variant
// implements. Dispatch over variants is interface dispatch, not a class
// hierarchy with optional hooks.
type ProviderHandler interface {
	Provider() session.Provider
	// ShowMainMenu renders the provider's entry screen.
	ShowMainMenu(c tele.Context) error
	// HandleCallback reacts to the provider's start event: it activates a
	// session and asks for input.
	HandleCallback(c tele.Context) error
}

// Deps bundles the services the handlers operate on.
type Deps struct {
	Sessions    session.Manager
	Ledger      *ledger.Ledger
	Billing     *service.Billing
	Users       *service.Users
	Gen         ai.Generator
	Costs       map[string]int64
	LastEntries int
}

func (d Deps) cost(p session.Provider) int64 {
	if c, ok := d.Costs[string(p)]; ok && c > 0 {
		return c
	}
	return 1
}
