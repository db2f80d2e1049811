package service

import (
	"context"
	"time"

	"github.com/lingodex/backend/internal/model"
	"github.com/lingodex/backend/internal/queue"
)

// UserStore is the user persistence the auth services consume,
// implemented by repository.UserRepo.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// AuthMethodStore persists auth methods and the lockout counter,
// implemented by repository.AuthMethodRepo.
type AuthMethodStore interface {
	Create(ctx context.Context, m *model.AuthMethod) error
	GetByID(ctx context.Context, id string) (*model.AuthMethod, error)
	Find(ctx context.Context, userID, typ, identifier string) (*model.AuthMethod, error)
	ListByUser(ctx context.Context, userID string) ([]model.AuthMethod, error)
	RecordFailedAttempt(ctx context.Context, id string, threshold int, lockUntil time.Time) (int, *time.Time, error)
	ResetAttempts(ctx context.Context, id string, usedAt time.Time) error
	UpdateProviderRefresh(ctx context.Context, id, refreshToken string, usedAt time.Time) error
}

// TokenStore persists refresh-token rows, implemented by
// repository.TokenRepo.
type TokenStore interface {
	Store(ctx context.Context, t *model.Token) error
	Consume(ctx context.Context, token string, now time.Time) (*model.Token, error)
	RevokeAllForUser(ctx context.Context, userID string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time, batchSize int) (int64, error)
}

// EventPublisher emits auth domain events to the message broker.
// Publishing is best effort; implementations log failures and never
// block the request flow on broker faults.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, ev queue.UserRegisteredEvent)
	PublishAccountLocked(ctx context.Context, ev queue.AccountLockedEvent)
}
