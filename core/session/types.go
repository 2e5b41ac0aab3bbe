package session

import (
	"time"

	tele "gopkg.in/telebot.v4"
)

// Provider identifies the AI tool a session belongs to.
type Provider string

const (
	ProviderChatText  Provider = "chat-text"
	ProviderChatImage Provider = "chat-image"
	ProviderImageGen  Provider = "image-gen"
	ProviderVideoGen  Provider = "video-gen"
)

// State identifies a step inside a provider conversation.
type State string

const (
	// StateIdle indicates the session exists but no input is expected.
	StateIdle State = "idle"
	// StateAwaitingInput indicates the next text message belongs to the session.
	StateAwaitingInput State = "awaiting-input"
	// StateProcessing indicates a generation call is in flight.
	StateProcessing State = "processing"
)

// Session stores conversation state and temporary data for a user.
type Session struct {
	UserID         int64
	Provider       Provider
	State          State
	Active         bool
	LastActivityAt time.Time
	TempData       map[string]interface{}
}

// Manager orchestrates user sessions and state transitions.
type Manager interface {
	// Get returns the user's session record, active or ended.
	Get(userID int64) (Session, bool)
	// Start activates a session for the provider, superseding an active
	// session for a different provider. Starting the same provider again
	// returns the existing session unchanged.
	Start(userID int64, provider Provider) Session
	// End deactivates the user's session.
	End(userID int64)
	// HasActive reports whether the user has an active session.
	HasActive(userID int64) bool

	SetState(userID int64, st State)
	GetState(userID int64) State

	SetTemp(userID int64, key string, value interface{})
	GetTemp(userID int64, key string) (interface{}, bool)
	GetTempInt64(userID int64, key string) (int64, bool)
	ClearTemp(userID int64, key string)

	// InProgress reports whether incoming text should be routed to the
	// active session instead of command lookup.
	InProgress(userID int64) bool
	// ManagerHandler executes the input handler registered for the active
	// session's provider, if any.
	ManagerHandler(c tele.Context) error
}
