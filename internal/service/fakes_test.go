package service

import (
	"context"
	"sync"
	"time"

	"github.com/lingodex/backend/internal/model"
	"github.com/lingodex/backend/internal/queue"
	"github.com/lingodex/backend/internal/repository"
)

// memStore is an in-memory implementation of UserStore,
// AuthMethodStore and TokenStore backing the service tests. All
// methods copy values in and out so tests cannot mutate stored rows by
// accident.
type memStore struct {
	mu      sync.Mutex
	users   map[string]*model.User       // by id
	methods map[string]*model.AuthMethod // by id
	tokens  map[string]*model.Token      // by token string
}

func newMemStore() *memStore {
	return &memStore{
		users:   make(map[string]*model.User),
		methods: make(map[string]*model.AuthMethod),
		tokens:  make(map[string]*model.Token),
	}
}

// ----- UserStore -----

func (s *memStore) Create(ctx context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ex := range s.users {
		if ex.Email == u.Email || ex.Username == u.Username {
			return repository.ErrConflict
		}
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *memStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// ----- AuthMethodStore -----

// CreateMethod is wired to AuthMethodStore.Create through methodStore
// below; memStore cannot carry two Create methods itself.

func (s *memStore) createMethod(ctx context.Context, m *model.AuthMethod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ex := range s.methods {
		if ex.UserID == m.UserID && ex.Type == m.Type && ex.Identifier == m.Identifier {
			return repository.ErrConflict
		}
	}
	cp := *m
	s.methods[m.ID] = &cp
	return nil
}

func (s *memStore) GetMethodByID(ctx context.Context, id string) (*model.AuthMethod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.methods[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *memStore) Find(ctx context.Context, userID, typ, identifier string) (*model.AuthMethod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.methods {
		if m.UserID == userID && m.Type == typ && m.Identifier == identifier {
			cp := *m
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) ListByUser(ctx context.Context, userID string) ([]model.AuthMethod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.AuthMethod
	for _, m := range s.methods {
		if m.UserID == userID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (s *memStore) RecordFailedAttempt(ctx context.Context, id string, threshold int, lockUntil time.Time) (int, *time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.methods[id]
	if !ok {
		return 0, nil, repository.ErrNotFound
	}
	if m.FailedAttempts+1 >= threshold {
		lu := lockUntil
		m.LockedUntil = &lu
	}
	m.FailedAttempts++
	var until *time.Time
	if m.LockedUntil != nil {
		t := *m.LockedUntil
		until = &t
	}
	return m.FailedAttempts, until, nil
}

func (s *memStore) ResetAttempts(ctx context.Context, id string, usedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.methods[id]
	if !ok {
		return repository.ErrNotFound
	}
	m.FailedAttempts = 0
	m.LockedUntil = nil
	t := usedAt
	m.LastUsedAt = &t
	return nil
}

func (s *memStore) UpdateProviderRefresh(ctx context.Context, id, refreshToken string, usedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.methods[id]
	if !ok {
		return repository.ErrNotFound
	}
	rt := refreshToken
	m.ProviderRefreshToken = &rt
	t := usedAt
	m.LastUsedAt = &t
	return nil
}

// ----- TokenStore -----

func (s *memStore) Store(ctx context.Context, t *model.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tokens[t.Token]; exists {
		return repository.ErrConflict
	}
	cp := *t
	cp.CreatedAt = time.Now().UTC()
	s.tokens[t.Token] = &cp
	return nil
}

func (s *memStore) Consume(ctx context.Context, token string, now time.Time) (*model.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[token]
	if !ok || t.Revoked || !t.ExpiresAt.After(now) {
		return nil, repository.ErrNotFound
	}
	t.Revoked = true
	cp := *t
	return &cp, nil
}

func (s *memStore) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, t := range s.tokens {
		m, ok := s.methods[t.AuthMethodID]
		if ok && m.UserID == userID && !t.Revoked {
			t.Revoked = true
			n++
		}
	}
	return n, nil
}

func (s *memStore) DeleteExpired(ctx context.Context, now time.Time, batchSize int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, t := range s.tokens {
		if t.ExpiresAt.Before(now) && !t.Revoked {
			delete(s.tokens, k)
			n++
		}
	}
	return n, nil
}

// methodStore adapts memStore to AuthMethodStore. The separate wrapper
// exists because Create and GetByID collide with the UserStore method
// set on memStore itself.
type methodStore struct{ *memStore }

func (s methodStore) Create(ctx context.Context, m *model.AuthMethod) error {
	return s.createMethod(ctx, m)
}

func (s methodStore) GetByID(ctx context.Context, id string) (*model.AuthMethod, error) {
	return s.GetMethodByID(ctx, id)
}

// recordingPublisher captures emitted events for assertions.
type recordingPublisher struct {
	mu         sync.Mutex
	registered []queue.UserRegisteredEvent
	locked     []queue.AccountLockedEvent
}

func (p *recordingPublisher) PublishUserRegistered(ctx context.Context, ev queue.UserRegisteredEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.registered = append(p.registered, ev)
}

func (p *recordingPublisher) PublishAccountLocked(ctx context.Context, ev queue.AccountLockedEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.locked = append(p.locked, ev)
}

// newTestAuth builds the full service stack over a fresh memStore with
// short real TTLs.
func newTestAuth() (*AuthService, *OAuthService, *TokenLedger, *memStore, *recordingPublisher) {
	store := newMemStore()
	events := &recordingPublisher{}
	ledger := NewTokenLedger(store, methodStore{store}, store, "test-secret", 15*time.Minute, 7*24*time.Hour)
	auth := NewAuthService(store, methodStore{store}, ledger, events, 10)
	oauth := NewOAuthService(store, methodStore{store}, ledger, events)
	return auth, oauth, ledger, store, events
}
