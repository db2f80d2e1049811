// Package queue defines message payloads exchanged over the message
// broker.
package queue

// Queue names for auth events. Downstream consumers (welcome emails,
// security alerting) bind to these.
const (
	UserRegisteredQueue = "auth.user_registered"
	AccountLockedQueue  = "auth.account_locked"
)

// UserRegisteredEvent is published when a new account is created,
// whether through local registration or a first OAuth sign-in.
type UserRegisteredEvent struct {
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Method       string `json:"method"` // LOCAL or provider name
	RegisteredAt string `json:"registered_at"`
}

// AccountLockedEvent is published when repeated failed logins trip the
// lockout threshold on an auth method.
type AccountLockedEvent struct {
	UserID         string `json:"user_id"`
	AuthMethodID   string `json:"auth_method_id"`
	FailedAttempts int    `json:"failed_attempts"`
	LockedUntil    string `json:"locked_until"`
}
