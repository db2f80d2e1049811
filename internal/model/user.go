package model

import "time"

// Role values stored in users.role. ADMIN unlocks the administrative
// lookup endpoints; everyone registers as USER.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User represents a row in the `users` table. A user owns zero or more
// auth methods (one LOCAL plus at most one per OAuth provider). Profile
// fields are optional and may be filled from an OAuth profile on first
// sign-in.
//
// Fields:
//  ID        – primary key (UUID string).
//  Username  – unique handle, chosen at registration or derived from the OAuth profile.
//  Email     – unique address, stored lowercase.
//  FirstName – optional profile field.
//  LastName  – optional profile field.
//  AvatarURL – optional profile picture URL.
//  Role      – USER or ADMIN.
//  CreatedAt – timestamp of creation.
//  UpdatedAt – timestamp of last update.
type User struct {
	ID        string
	Username  string
	Email     string
	FirstName string
	LastName  string
	AvatarURL string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
