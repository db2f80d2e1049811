package model

import "time"

// AuthMethod types stored in auth_methods.type. LOCAL methods carry a
// bcrypt credential; GOOGLE methods carry the provider's refresh token
// instead.
const (
	AuthMethodLocal  = "LOCAL"
	AuthMethodGoogle = "GOOGLE"
)

// AuthMethod represents one way a user can authenticate, as stored in
// the `auth_methods` table. At most one row exists per
// (user_id, type, identifier); the identifier is the email for LOCAL
// methods and the provider subject id for OAuth methods.
//
// Fields:
//  ID                   – primary key (UUID string).
//  UserID               – owning user.
//  Type                 – LOCAL or GOOGLE.
//  Identifier           – email (LOCAL) or provider subject id (GOOGLE).
//  Credential           – bcrypt hash, present iff Type == LOCAL.
//  ProviderRefreshToken – opaque provider refresh token, present iff OAuth.
//  IsVerified           – whether the identifier was verified.
//  LastUsedAt           – last successful authentication (nullable).
//  FailedAttempts       – consecutive failed password verifications.
//  LockedUntil          – lockout expiry after too many failures (nullable).
//  CreatedAt            – timestamp of creation.
//  UpdatedAt            – timestamp of last update.
type AuthMethod struct {
	ID                   string
	UserID               string
	Type                 string
	Identifier           string
	Credential           *string
	ProviderRefreshToken *string
	IsVerified           bool
	LastUsedAt           *time.Time
	FailedAttempts       int
	LockedUntil          *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Locked reports whether the method is still inside its lockout window
// at the given instant.
func (m *AuthMethod) Locked(now time.Time) bool {
	return m.LockedUntil != nil && now.Before(*m.LockedUntil)
}
