package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	tele "gopkg.in/telebot.v4"

	"aibot/bot/store"
	"aibot/core/fault"
	"aibot/core/telegram/callbacks"
	"aibot/core/telegram/format"
	tghelpers "aibot/core/telegram/helpers"
)

// Event ids for the billing screens. EventPaySubscribe carries the plan id
// as callback payload.
const (
	EventPlansMenu    = "pay"
	EventPaySubscribe = "pay_sub"
	EventPayStatus    = "pay_status"
	EventPayCancel    = "pay_cancel"
	EventBalance      = "balance"
)

// BillingHandler renders the plan catalog and drives subscribe, status,
// and cancel from inline buttons.
type BillingHandler struct {
	deps Deps
}

// NewBillingHandler builds the billing screens over the shared deps.
func NewBillingHandler(deps Deps) *BillingHandler {
	return &BillingHandler{deps: deps}
}

func planPrice(p store.Plan) string {
	amount := decimal.NewFromInt(p.PriceMinor).Div(decimal.NewFromInt(100))
	return amount.StringFixed(2) + " " + p.Currency
}

// ShowPlans lists active plans with one subscribe button per plan.
func (h *BillingHandler) ShowPlans(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	plans, err := h.deps.Billing.Plans(ctx)
	if err != nil {
		return err
	}
	if len(plans) == 0 {
		return tghelpers.SendText(c, "No plans are available right now.")
	}

	var b strings.Builder
	b.WriteString("*Plans*\n")
	markup := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(plans)+1)
	for _, p := range plans {
		fmt.Fprintf(&b, "\n*%s* | %s | %d tokens / %d days\n%s\n",
			format.EscapeMD(p.Name), planPrice(p), p.TokensGranted, p.PeriodDays, format.EscapeMD(p.Description))
		btn := markup.Data(fmt.Sprintf("%s (%s)", p.Name, planPrice(p)),
			EventPaySubscribe, strconv.FormatInt(p.ID, 10))
		rows = append(rows, markup.Row(btn))
	}
	rows = append(rows, markup.Row(
		markup.Data("My subscription", EventPayStatus),
	))
	markup.Inline(rows...)
	return tghelpers.SendMD(c, b.String(), markup)
}

// Subscribe starts checkout for the plan named in the callback payload and
// replies with the payment link.
func (h *BillingHandler) Subscribe(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	planID, err := callbacks.PayloadInt64(c)
	if err != nil {
		return fault.Wrap(fault.KindValidationError, "bad plan id in callback payload", err)
	}
	user, err := h.deps.Users.Ensure(ctx, c.Sender())
	if err != nil {
		return err
	}

	req, payURL, err := h.deps.Billing.Subscribe(ctx, user.ID, planID, payerEmail(user))
	if err != nil {
		_ = tghelpers.SendText(c, fault.HumanMessage(err))
		return err
	}
	if payURL == "" {
		return tghelpers.SendText(c, "Order "+req.OrderID+" created. You will be notified once payment confirms.")
	}
	return tghelpers.SendMD(c, fmt.Sprintf("Pay here: %s\n\nTokens are credited once the payment confirms.", payURL))
}

// Status shows the user's latest payment request and its gateway status.
func (h *BillingHandler) Status(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	userID := c.Sender().ID

	req, err := h.deps.Billing.Latest(ctx, userID)
	if err != nil {
		if fault.IsKind(err, fault.KindNotFound) {
			return tghelpers.SendText(c, "You have no subscription yet. Use /plans to pick one.")
		}
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*Subscription*\nOrder: `%s`\nStatus: %s\n", req.OrderID, req.Status)
	markup := &tele.ReplyMarkup{}
	if req.Status == store.PaymentActive || req.Status == store.PaymentPastDue {
		markup.Inline(markup.Row(
			markup.Data("Cancel subscription", EventPayCancel, req.OrderID),
		))
		return tghelpers.SendMD(c, b.String(), markup)
	}
	return tghelpers.SendMD(c, b.String())
}

// Cancel unsubscribes the order named in the callback payload. Ownership is
// verified downstream; a foreign order id is rejected.
func (h *BillingHandler) Cancel(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	orderID := callbacks.CallbackPayload(c)
	if orderID == "" {
		return fault.New(fault.KindValidationError, "cancel callback carries no order id")
	}

	if err := h.deps.Billing.Cancel(ctx, c.Sender().ID, orderID); err != nil {
		_ = tghelpers.SendText(c, fault.HumanMessage(err))
		return err
	}
	return tghelpers.SendText(c, "Subscription canceled. Remaining tokens stay on your balance.")
}

// ShowBalance prints the token balance with the most recent ledger entries.
func (h *BillingHandler) ShowBalance(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	userID := c.Sender().ID

	view, err := h.deps.Billing.Balance(ctx, userID, h.deps.LastEntries)
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*Balance*: %d tokens\n", view.TokenBalance)
	if len(view.LastEntries) > 0 {
		b.WriteString("\nRecent activity:\n")
		for _, e := range view.LastEntries {
			sign := "+"
			if e.Delta < 0 {
				sign = ""
			}
			fmt.Fprintf(&b, "`%s%d` %s\n", sign, e.Delta, e.Kind)
		}
	}
	return tghelpers.SendMD(c, b.String())
}

func payerEmail(u *store.User) string {
	return fmt.Sprintf("%d@users.telegram.invalid", u.ID)
}
