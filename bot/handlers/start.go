package handlers

import (
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"aibot/core/fault"
	tghelpers "aibot/core/telegram/helpers"
)

const welcomeText = `*AI assistant*

Pick a mode below. Generations are paid with tokens; see /plans and /balance.`

const helpText = `*Commands*
/start - main menu
/plans - subscription plans
/balance - token balance and recent activity
/cancel - end the current session`

// Start registers the user and shows the main menu.
func (s *Set) Start(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	if _, err := s.deps.Users.Ensure(ctx, c.Sender()); err != nil {
		return err
	}
	return tghelpers.SendMD(c, welcomeText, s.mainMenu())
}

func (s *Set) mainMenu() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(
			markup.Data("Chat", EventChatTextMenu),
			markup.Data("Vision chat", EventChatImageMenu),
		),
		markup.Row(
			markup.Data("Image", EventImageGenMenu),
			markup.Data("Video", EventVideoGenMenu),
		),
		markup.Row(
			markup.Data("Plans", EventPlansMenu),
			markup.Data("Balance", EventBalance),
		),
	)
	return markup
}

// Help prints the command reference.
func (s *Set) Help(c tele.Context) error {
	return tghelpers.SendMD(c, helpText)
}

// CancelSession ends the user's active session, if any.
func (s *Set) CancelSession(c tele.Context) error {
	userID := c.Sender().ID
	if !s.deps.Sessions.HasActive(userID) {
		return tghelpers.SendText(c, "No active session.")
	}
	s.deps.Sessions.End(userID)
	return tghelpers.SendText(c, "Session ended. Pick a mode with /start.")
}

// OffsetCharge shifts the next charge date of an order. Admin only:
// "/offset <order-id> <days>".
func (s *Set) OffsetCharge(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	args := c.Args()
	if len(args) != 2 {
		return tghelpers.SendText(c, "Usage: /offset <order-id> <days>")
	}
	days, err := strconv.Atoi(strings.TrimSpace(args[1]))
	if err != nil || days == 0 {
		return fault.New(fault.KindValidationError, "days must be a non-zero integer")
	}
	if err := s.deps.Billing.OffsetChargeDate(ctx, args[0], days); err != nil {
		_ = tghelpers.SendText(c, fault.HumanMessage(err))
		return err
	}
	return tghelpers.SendText(c, fmt.Sprintf("Next charge for %s shifted by %d days.", args[0], days))
}
