package handlers

import (
	"aibot/core/session"
	"aibot/core/telegram"
	"aibot/core/telegram/commands"
)

// Set aggregates every handler of the bot and knows how to wire them into
// a command/callback registry.
type Set struct {
	deps      Deps
	providers []*generation
	billing   *BillingHandler
}

// NewSet builds the full handler set over the shared deps.
func NewSet(deps Deps) *Set {
	return &Set{
		deps: deps,
		providers: []*generation{
			NewChatText(deps),
			NewChatImage(deps),
			NewImageGen(deps),
			NewVideoGen(deps),
		},
		billing: NewBillingHandler(deps),
	}
}

// Register wires commands, callback patterns, and session input handlers.
// Callback patterns are registered most-specific first so prefix matching
// cannot shadow a longer event id.
func (s *Set) Register(reg *telegram.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     s.Start,
		Description: "Main menu",
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     s.Help,
		Description: "How the bot works",
	})
	reg.RegisterCommand("/plans", commands.Command{
		Handler:     s.billing.ShowPlans,
		Description: "Subscription plans",
	})
	reg.RegisterCommand("/balance", commands.Command{
		Handler:     s.billing.ShowBalance,
		Description: "Token balance",
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     s.CancelSession,
		Description: "End the current session",
	})
	reg.RegisterCommand("/offset", commands.Command{
		Handler:     s.OffsetCharge,
		Description: "Shift next charge date",
		AdminOnly:   true,
		Hidden:      true,
	})

	for _, p := range s.providers {
		reg.RegisterCallback(p.startKey, p.HandleCallback)
		reg.RegisterCallback(p.menuKey, p.ShowMainMenu)
		session.RegisterInputHandler(p.provider, p.HandleInput)
	}

	reg.RegisterCallback(EventPaySubscribe, s.billing.Subscribe)
	reg.RegisterCallback(EventPayStatus, s.billing.Status)
	reg.RegisterCallback(EventPayCancel, s.billing.Cancel)
	reg.RegisterCallback(EventPlansMenu, s.billing.ShowPlans)
	reg.RegisterCallback(EventBalance, s.billing.ShowBalance)

	reg.SetTextFallback(s.Start)
}
