package events

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLoginSucceeded EventType = "auth.login.succeeded"
	EventLoginFailed    EventType = "auth.login.failed"
	EventTokenRefreshed EventType = "auth.token.refreshed"
	EventLogout         EventType = "auth.logout"
	EventUserDeleted    EventType = "auth.user.deleted"
)

// AllEventTypes lists every event the auth core emits.
var AllEventTypes = []EventType{
	EventLoginSucceeded,
	EventLoginFailed,
	EventTokenRefreshed,
	EventLogout,
	EventUserDeleted,
}

// Event represents a security-relevant occurrence emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// LoginSucceededPayload payload.
type LoginSucceededPayload struct {
	Email          string `json:"email"`
	RoleTag        string `json:"role_tag"`
	AccessTokenID  string `json:"access_token_id"`
	RefreshTokenID string `json:"refresh_token_id"`
}

// LoginFailedPayload payload. Reason is internal and never returned to callers.
type LoginFailedPayload struct {
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

// TokenRefreshedPayload payload.
type TokenRefreshedPayload struct {
	RefreshTokenID string `json:"refresh_token_id"`
	AccessTokenID  string `json:"access_token_id"`
	RoleTag        string `json:"role_tag"`
}

// LogoutPayload payload.
type LogoutPayload struct {
	RevokedTokens int `json:"revoked_tokens"`
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

// NewEvent stamps an event with a sortable id.
func NewEvent(eventType EventType, userID string, at time.Time, payload interface{}) Event {
	entropyMu.Lock()
	id := ulid.MustNew(ulid.Timestamp(at), entropy).String()
	entropyMu.Unlock()

	return Event{
		ID:        id,
		Type:      eventType,
		UserID:    userID,
		Timestamp: at.UTC(),
		Payload:   payload,
	}
}
