package service

import (
	"context"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"aibot/bot/store"
	"aibot/core/logger"
)

// Users registers Telegram users on first contact and tracks role/tier.
type Users struct {
	store store.Users
}

// NewUsers builds the user service.
func NewUsers(s store.Users) *Users {
	return &Users{store: s}
}

// Ensure upserts the sender's record and returns the current state.
func (s *Users) Ensure(ctx context.Context, sender *tele.User) (*store.User, error) {
	u := &store.User{
		ID:        sender.ID,
		Username:  sender.Username,
		FirstName: sender.FirstName,
	}
	if err := s.store.Upsert(ctx, u); err != nil {
		return nil, err
	}
	logger.Debug(ctx, "service.users", "user.ensured",
		slog.Int64("user_id", u.ID),
		slog.String("username", logger.SanitizeLimit(u.Username, 64)),
	)
	return u, nil
}

// Get returns a user by Telegram id.
func (s *Users) Get(ctx context.Context, id int64) (*store.User, error) {
	return s.store.Get(ctx, id)
}

// Promote grants the premium tier after a subscription activates.
func (s *Users) Promote(ctx context.Context, id int64) error {
	return s.store.SetTier(ctx, id, store.TierPremium)
}

// Demote returns the user to the free tier after cancellation.
func (s *Users) Demote(ctx context.Context, id int64) error {
	return s.store.SetTier(ctx, id, store.TierFree)
}
