package model

import "time"

// Token models a persisted refresh token in the `tokens` table. Access
// tokens are never stored; only refresh tokens get a row so rotation
// and revocation can be enforced. Revoked is monotonic: once true a row
// is never un-revoked, and it stays in place until the expiry sweep
// removes it after expires_at passes.
//
// Fields:
//  ID           – primary key (UUID string).
//  AuthMethodID – auth method the token was minted for.
//  Token        – the signed refresh token string, unique.
//  ExpiresAt    – expiry of the token.
//  Revoked      – set on rotation or logout.
//  CreatedAt    – timestamp of creation.
type Token struct {
	ID           string
	AuthMethodID string
	Token        string
	ExpiresAt    time.Time
	Revoked      bool
	CreatedAt    time.Time
}
