package handlers

import (
	"log/slog"
	"strings"

	tele "gopkg.in/telebot.v4"

	tghelpers "aibot/core/telegram/helpers"

	"aibot/core/fault"
	"aibot/core/ledger"
	"aibot/core/logger"
	"aibot/core/session"
)

// generation is the shared flow behind every generating provider: menu,
// session start, prompt collection, debit, generate, deliver.
type generation struct {
	deps     Deps
	provider session.Provider

	menuKey  string
	startKey string

	title     string
	askPrompt string
}

func (g *generation) Provider() session.Provider { return g.provider }

// ShowMainMenu renders the provider screen with a start button.
func (g *generation) ShowMainMenu(c tele.Context) error {
	markup := &tele.ReplyMarkup{}
	start := markup.Data("Start", g.startKey)
	markup.Inline(markup.Row(start))
	return tghelpers.SendMD(c, g.title, markup)
}

// HandleCallback activates the provider session and asks for a prompt.
// Starting here supersedes any other provider's active session.
func (g *generation) HandleCallback(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	if _, err := g.deps.Users.Ensure(ctx, c.Sender()); err != nil {
		return err
	}
	userID := c.Sender().ID
	g.deps.Sessions.Start(userID, g.provider)
	g.deps.Sessions.SetState(userID, session.StateAwaitingInput)
	return tghelpers.SendMD(c, g.askPrompt)
}

// HandleInput consumes the prompt for the active session. Tokens are
// debited before generation; a terminal generation failure is compensated
// with an explicit refund credit rather than a rollback.
func (g *generation) HandleInput(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	userID := c.Sender().ID

	prompt := strings.TrimSpace(c.Text())
	if prompt == "" {
		return tghelpers.SendText(c, "Send a text prompt to continue.")
	}

	g.deps.Sessions.SetState(userID, session.StateProcessing)
	cost := g.deps.cost(g.provider)

	if _, err := g.deps.Ledger.Debit(ctx, userID, cost, ledger.SpendKind(string(g.provider))); err != nil {
		g.deps.Sessions.End(userID)
		if fault.IsKind(err, fault.KindInsufficientTokens) {
			_ = tghelpers.SendMD(c, "Not enough tokens. Use /plans to top up.")
			return err
		}
		return err
	}

	result, err := g.deps.Gen.Generate(ctx, string(g.provider), prompt)
	if err != nil {
		if _, cerr := g.deps.Ledger.Credit(ctx, userID, cost, ledger.KindRefund); cerr != nil {
			logger.Error(ctx, "handlers", "generation.refund.failed",
				slog.Int64("user_id", userID),
				slog.Int64("amount", cost),
				slog.String("err", cerr.Error()),
			)
		}
		g.deps.Sessions.End(userID)
		_ = tghelpers.SendText(c, fault.HumanMessage(err))
		return err
	}

	g.deps.Sessions.End(userID)
	return tghelpers.SendText(c, result)
}
