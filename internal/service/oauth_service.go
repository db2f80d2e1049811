package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lingodex/backend/internal/model"
	"github.com/lingodex/backend/internal/queue"
	"github.com/lingodex/backend/internal/repository"
	"github.com/lingodex/backend/internal/utils"
)

// OAuthAssertion is the verified identity handed over by an OAuth
// provider after code exchange and userinfo lookup.
type OAuthAssertion struct {
	Provider             string // auth-method type, e.g. GOOGLE
	SubjectID            string // provider's stable user id
	Email                string
	FirstName            string
	LastName             string
	AvatarURL            string
	ProviderRefreshToken string // the provider's own refresh token, stored opaquely
}

// OAuthResult is the outcome of an OAuth sign-in: an access token
// only. No local refresh row is minted for this flow; the provider's
// refresh token is the durable credential.
type OAuthResult struct {
	User   *model.User
	Access utils.SignedToken
}

// OAuthService links external identity assertions to local users and
// auth methods.
type OAuthService struct {
	users   UserStore
	methods AuthMethodStore
	ledger  *TokenLedger
	events  EventPublisher

	now func() time.Time
}

func NewOAuthService(users UserStore, methods AuthMethodStore, ledger *TokenLedger, events EventPublisher) *OAuthService {
	if events == nil {
		events = NopPublisher{}
	}
	return &OAuthService{
		users:   users,
		methods: methods,
		ledger:  ledger,
		events:  events,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Link finds or creates the local user and auth method for the
// assertion and mints an access token bound to that method.
//
// A username collision while creating a new user surfaces as
// ErrConflict; every other failure collapses to
// ErrAuthenticationFailed so a caller cannot distinguish internal
// faults from forged assertions.
func (s *OAuthService) Link(ctx context.Context, a OAuthAssertion) (*OAuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(a.Email))
	if email == "" || a.SubjectID == "" || a.Provider == "" {
		return nil, ErrAuthenticationFailed
	}

	user, err := s.users.GetByEmail(ctx, email)
	created := false
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		user = &model.User{
			ID:        uuid.NewString(),
			Username:  deriveUsername(a.FirstName, a.LastName, email),
			Email:     email,
			FirstName: a.FirstName,
			LastName:  a.LastName,
			AvatarURL: a.AvatarURL,
			Role:      model.RoleUser,
		}
		if cerr := s.users.Create(ctx, user); cerr != nil {
			if errors.Is(cerr, repository.ErrConflict) {
				return nil, ErrConflict
			}
			return nil, ErrAuthenticationFailed
		}
		created = true
	default:
		return nil, ErrAuthenticationFailed
	}

	now := s.now()
	method, err := s.methods.Find(ctx, user.ID, a.Provider, a.SubjectID)
	switch {
	case err == nil:
		if uerr := s.methods.UpdateProviderRefresh(ctx, method.ID, a.ProviderRefreshToken, now); uerr != nil {
			return nil, ErrAuthenticationFailed
		}
	case errors.Is(err, repository.ErrNotFound):
		refresh := a.ProviderRefreshToken
		method = &model.AuthMethod{
			ID:                   uuid.NewString(),
			UserID:               user.ID,
			Type:                 a.Provider,
			Identifier:           a.SubjectID,
			ProviderRefreshToken: &refresh,
			IsVerified:           true, // the provider vouched for the identity
			LastUsedAt:           &now,
		}
		if cerr := s.methods.Create(ctx, method); cerr != nil {
			return nil, ErrAuthenticationFailed
		}
	default:
		return nil, ErrAuthenticationFailed
	}

	access, err := s.ledger.IssueAccess(user, method)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}

	if created {
		s.events.PublishUserRegistered(ctx, queue.UserRegisteredEvent{
			UserID:       user.ID,
			Username:     user.Username,
			Email:        user.Email,
			Method:       a.Provider,
			RegisteredAt: now.Format(time.RFC3339),
		})
		log.Printf("auth: created user %s from %s sign-in", user.ID, a.Provider)
	}

	return &OAuthResult{User: user, Access: access}, nil
}

// deriveUsername builds a username from the profile name, falling back
// to the email local part. Uniqueness is left to the users table; a
// collision surfaces as ErrConflict.
func deriveUsername(first, last, email string) string {
	name := strings.ToLower(strings.TrimSpace(first + last))
	name = strings.ReplaceAll(name, " ", "")
	if name == "" {
		if i := strings.IndexByte(email, '@'); i > 0 {
			name = email[:i]
		} else {
			name = email
		}
	}
	return name
}
