package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/lingodex/backend/internal/model"
	"github.com/lingodex/backend/internal/utils"
)

// TokenPair is a freshly minted access/refresh pair.
type TokenPair struct {
	Access  utils.SignedToken
	Refresh utils.SignedToken
}

// TokenLedger mints signed token pairs and keeps the book of issued
// refresh tokens: every refresh token gets a row, rotation consumes
// exactly one row per token string, and logout revokes a user's rows
// wholesale. Access tokens are never persisted.
type TokenLedger struct {
	tokens  TokenStore
	methods AuthMethodStore
	users   UserStore

	secret     string
	accessTTL  time.Duration
	refreshTTL time.Duration

	now func() time.Time
}

func NewTokenLedger(tokens TokenStore, methods AuthMethodStore, users UserStore, secret string, accessTTL, refreshTTL time.Duration) *TokenLedger {
	return &TokenLedger{
		tokens:     tokens,
		methods:    methods,
		users:      users,
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// IssueAccess mints a short-lived access token for the identity. No
// row is written; access tokens are verified by signature alone.
func (l *TokenLedger) IssueAccess(user *model.User, method *model.AuthMethod) (utils.SignedToken, error) {
	return utils.NewToken(l.secret, user.ID, user.Username, method.Type, method.ID, user.Role, l.accessTTL)
}

// IssuePair mints an access/refresh pair and persists the refresh
// token row for later rotation.
func (l *TokenLedger) IssuePair(ctx context.Context, user *model.User, method *model.AuthMethod) (TokenPair, error) {
	access, err := l.IssueAccess(user, method)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := utils.NewToken(l.secret, user.ID, user.Username, method.Type, method.ID, user.Role, l.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	row := &model.Token{
		ID:           uuid.NewString(),
		AuthMethodID: method.ID,
		Token:        refresh.Token,
		ExpiresAt:    refresh.ExpiresAt,
	}
	if err := l.tokens.Store(ctx, row); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// Rotate exchanges a refresh token for a new pair.
//
// The signature is checked before any storage I/O so forged tokens are
// rejected cheaply. The stored row is then consumed with a conditional
// update: of two concurrent rotations of the same token exactly one
// wins and the loser gets ErrTokenInvalid. Absence of an active row
// covers forged, already-rotated and expired tokens uniformly — the
// claim payload alone is never trusted for refresh because it cannot
// reflect revocation. Once the row is consumed it stays consumed even
// if a later step fails; a client retry then simply gets
// ErrTokenInvalid.
func (l *TokenLedger) Rotate(ctx context.Context, raw string) (*model.User, TokenPair, error) {
	claims, err := utils.ParseToken(l.secret, raw)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return nil, TokenPair{}, ErrTokenExpired
		}
		return nil, TokenPair{}, ErrTokenInvalid
	}

	row, err := l.tokens.Consume(ctx, raw, l.now())
	if err != nil {
		return nil, TokenPair{}, ErrTokenInvalid
	}

	method, err := l.methods.GetByID(ctx, row.AuthMethodID)
	if err != nil {
		return nil, TokenPair{}, ErrTokenInvalid
	}
	if method.ID != claims.AuthMethodID || method.UserID != claims.Subject {
		return nil, TokenPair{}, ErrTokenInvalid
	}

	user, err := l.users.GetByID(ctx, method.UserID)
	if err != nil {
		return nil, TokenPair{}, ErrTokenInvalid
	}

	pair, err := l.IssuePair(ctx, user, method)
	if err != nil {
		return nil, TokenPair{}, ErrTokenInvalid
	}
	return user, pair, nil
}

// RevokeAll revokes every active refresh token belonging to any auth
// method of the user. No-op if the user holds none.
func (l *TokenLedger) RevokeAll(ctx context.Context, userID string) (int64, error) {
	return l.tokens.RevokeAllForUser(ctx, userID)
}
