package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"

	"github.com/lingodex/backend/internal/model"
	"github.com/lingodex/backend/internal/queue"
	"github.com/lingodex/backend/internal/repository"
	"github.com/lingodex/backend/internal/utils"
)

// Lockout policy for local passwords: the attempt crossing the
// threshold arms a fixed lock window, and any successful verification
// resets the counter.
const (
	maxFailedAttempts = 5
	lockDuration      = 15 * time.Minute
)

// AuthResult is returned by the use cases that establish a session.
type AuthResult struct {
	User    *model.User
	Access  utils.SignedToken
	Refresh utils.SignedToken
}

// RegisterInput carries the local registration fields.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// AuthService composes the credential, lockout and token components
// into the public use cases: register, login, refresh and logout.
type AuthService struct {
	users   UserStore
	methods AuthMethodStore
	ledger  *TokenLedger
	events  EventPublisher

	bcryptCost int
	now        func() time.Time
}

func NewAuthService(users UserStore, methods AuthMethodStore, ledger *TokenLedger, events EventPublisher, bcryptCost int) *AuthService {
	if events == nil {
		events = NopPublisher{}
	}
	return &AuthService{
		users:      users,
		methods:    methods,
		ledger:     ledger,
		events:     events,
		bcryptCost: bcryptCost,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a user with a LOCAL auth method and opens a session.
// Duplicate email or username yields ErrConflict with no partial rows
// surviving: the password is hashed before any insert (bcrypt rejects
// passwords over 72 bytes, and a failed hash must not burn the email),
// and the auth-method insert only runs after the user insert succeeded.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:        uuid.NewString(),
		Username:  strings.TrimSpace(in.Username),
		Email:     email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      model.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrConflict
		}
		return nil, err
	}
	method := &model.AuthMethod{
		ID:         uuid.NewString(),
		UserID:     user.ID,
		Type:       model.AuthMethodLocal,
		Identifier: email,
		Credential: &hash,
		IsVerified: true, // no email verification step in scope
	}
	if err := s.methods.Create(ctx, method); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrConflict
		}
		return nil, err
	}

	pair, err := s.ledger.IssuePair(ctx, user, method)
	if err != nil {
		return nil, err
	}

	s.events.PublishUserRegistered(ctx, queue.UserRegisteredEvent{
		UserID:       user.ID,
		Username:     user.Username,
		Email:        user.Email,
		Method:       model.AuthMethodLocal,
		RegisteredAt: s.now().Format(time.RFC3339),
	})

	log.Printf("auth: registered user %s (%s)", user.ID, user.Username)
	return &AuthResult{User: user, Access: pair.Access, Refresh: pair.Refresh}, nil
}

// Login verifies a local password and opens a session. Unknown email,
// missing LOCAL method and wrong password all collapse to
// ErrInvalidCredentials. The lock window is checked before any bcrypt
// work so a locked account costs no hashing and always answers
// ErrAccountLocked, correct password or not.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	method, err := s.methods.Find(ctx, user.ID, model.AuthMethodLocal, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if method.Locked(s.now()) {
		return nil, ErrAccountLocked
	}

	if method.Credential == nil {
		return nil, ErrInvalidCredentials
	}
	ok, err := utils.VerifyPassword(*method.Credential, password)
	if err != nil {
		// A malformed stored hash is an integrity fault, not a wrong
		// password. Log it loudly and answer with the catch-all.
		log.Printf("auth: malformed credential hash on method %s: %v", method.ID, err)
		sentry.CaptureException(fmt.Errorf("malformed credential hash on auth method %s: %w", method.ID, err))
		return nil, ErrAuthenticationFailed
	}
	if !ok {
		attempts, lockedUntil, rferr := s.methods.RecordFailedAttempt(ctx, method.ID, maxFailedAttempts, s.now().Add(lockDuration))
		if rferr != nil {
			return nil, rferr
		}
		if lockedUntil != nil && attempts >= maxFailedAttempts {
			log.Printf("auth: method %s locked until %s after %d failures", method.ID, lockedUntil.Format(time.RFC3339), attempts)
			s.events.PublishAccountLocked(ctx, queue.AccountLockedEvent{
				UserID:         user.ID,
				AuthMethodID:   method.ID,
				FailedAttempts: attempts,
				LockedUntil:    lockedUntil.Format(time.RFC3339),
			})
			return nil, ErrAccountLocked
		}
		return nil, ErrInvalidCredentials
	}

	if err := s.methods.ResetAttempts(ctx, method.ID, s.now()); err != nil {
		return nil, err
	}

	pair, err := s.ledger.IssuePair(ctx, user, method)
	if err != nil {
		return nil, err
	}

	log.Printf("auth: user %s logged in", user.ID)
	return &AuthResult{User: user, Access: pair.Access, Refresh: pair.Refresh}, nil
}

// Refresh rotates a refresh token into a new pair. Every lower-level
// failure surfaces as ErrTokenInvalid or ErrTokenExpired.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	user, pair, err := s.ledger.Rotate(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Access: pair.Access, Refresh: pair.Refresh}, nil
}

// Logout revokes every active refresh token of the user across all
// auth methods. A user without tokens is a successful no-op.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	n, err := s.ledger.RevokeAll(ctx, userID)
	if err != nil {
		return err
	}
	log.Printf("auth: revoked %d tokens for user %s", n, userID)
	return nil
}

// AuthMethodsForUser returns the user's auth methods for the admin
// lookup endpoint. Unknown users yield ErrNotFound.
func (s *AuthService) AuthMethodsForUser(ctx context.Context, userID string) ([]model.AuthMethod, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	methods, err := s.methods.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return methods, nil
}
