package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lingodex/backend/internal/model"
)

// AuthMethodRepo persists rows of the `auth_methods` table, including
// the failed-attempt counter the lockout policy is built on.
type AuthMethodRepo struct{ DB *sql.DB }

func NewAuthMethodRepo(db *sql.DB) *AuthMethodRepo { return &AuthMethodRepo{DB: db} }

const authMethodColumns = `id, user_id, type, identifier, credential, provider_refresh_token,
	is_verified, last_used_at, failed_attempts, locked_until, created_at, updated_at`

// Create inserts the auth method. A second method with the same
// (user, type, identifier) triple yields ErrConflict.
func (r *AuthMethodRepo) Create(ctx context.Context, m *model.AuthMethod) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO auth_methods
			(id, user_id, type, identifier, credential, provider_refresh_token, is_verified, last_used_at)
		 VALUES (?,?,?,?,?,?,?,?)`,
		m.ID, m.UserID, m.Type, m.Identifier, m.Credential, m.ProviderRefreshToken,
		m.IsVerified, m.LastUsedAt)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// GetByID fetches an auth method by primary key.
func (r *AuthMethodRepo) GetByID(ctx context.Context, id string) (*model.AuthMethod, error) {
	return r.getOne(ctx,
		"SELECT "+authMethodColumns+" FROM auth_methods WHERE id=? LIMIT 1", id)
}

// Find fetches the method matching (userID, type, identifier).
func (r *AuthMethodRepo) Find(ctx context.Context, userID, typ, identifier string) (*model.AuthMethod, error) {
	return r.getOne(ctx,
		"SELECT "+authMethodColumns+" FROM auth_methods WHERE user_id=? AND type=? AND identifier=? LIMIT 1",
		userID, typ, identifier)
}

// ListByUser returns every auth method owned by the user.
func (r *AuthMethodRepo) ListByUser(ctx context.Context, userID string) ([]model.AuthMethod, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+authMethodColumns+" FROM auth_methods WHERE user_id=? ORDER BY created_at", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AuthMethod
	for rows.Next() {
		m, err := scanAuthMethod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// RecordFailedAttempt increments failed_attempts and arms locked_until
// in one UPDATE when the incremented counter reaches the threshold.
// The arithmetic runs on the stored value inside the statement, so two
// concurrent failures cannot both observe the same counter and lose an
// increment. It returns the new counter and lock expiry.
func (r *AuthMethodRepo) RecordFailedAttempt(ctx context.Context, id string, threshold int, lockUntil time.Time) (int, *time.Time, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, nil, err
	}
	defer tx.Rollback()

	// locked_until must be decided before failed_attempts changes,
	// because MySQL applies SET clauses left to right.
	res, err := tx.ExecContext(ctx,
		`UPDATE auth_methods
		 SET locked_until = IF(failed_attempts + 1 >= ?, ?, locked_until),
		     failed_attempts = failed_attempts + 1
		 WHERE id = ?`,
		threshold, lockUntil.UTC(), id)
	if err != nil {
		return 0, nil, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return 0, nil, err
	} else if n == 0 {
		return 0, nil, ErrNotFound
	}

	var (
		attempts int
		locked   sql.NullTime
	)
	if err := tx.QueryRowContext(ctx,
		"SELECT failed_attempts, locked_until FROM auth_methods WHERE id=?", id,
	).Scan(&attempts, &locked); err != nil {
		return 0, nil, err
	}
	if err := tx.Commit(); err != nil {
		return 0, nil, err
	}

	var until *time.Time
	if locked.Valid {
		t := locked.Time
		until = &t
	}
	return attempts, until, nil
}

// ResetAttempts clears the failure counter and lock after a successful
// verification and stamps last_used_at.
func (r *AuthMethodRepo) ResetAttempts(ctx context.Context, id string, usedAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE auth_methods SET failed_attempts=0, locked_until=NULL, last_used_at=? WHERE id=?",
		usedAt.UTC(), id)
	return err
}

// UpdateProviderRefresh stores a fresh provider refresh token and
// stamps last_used_at on an OAuth method.
func (r *AuthMethodRepo) UpdateProviderRefresh(ctx context.Context, id, refreshToken string, usedAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE auth_methods SET provider_refresh_token=?, last_used_at=? WHERE id=?",
		refreshToken, usedAt.UTC(), id)
	return err
}

func (r *AuthMethodRepo) getOne(ctx context.Context, query string, args ...any) (*model.AuthMethod, error) {
	m, err := scanAuthMethod(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

type rowScanner interface{ Scan(dest ...any) error }

func scanAuthMethod(row rowScanner) (*model.AuthMethod, error) {
	var (
		m          model.AuthMethod
		credential sql.NullString
		refresh    sql.NullString
		lastUsed   sql.NullTime
		locked     sql.NullTime
	)
	err := row.Scan(&m.ID, &m.UserID, &m.Type, &m.Identifier, &credential, &refresh,
		&m.IsVerified, &lastUsed, &m.FailedAttempts, &locked, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if credential.Valid {
		m.Credential = &credential.String
	}
	if refresh.Valid {
		m.ProviderRefreshToken = &refresh.String
	}
	if lastUsed.Valid {
		t := lastUsed.Time
		m.LastUsedAt = &t
	}
	if locked.Valid {
		t := locked.Time
		m.LockedUntil = &t
	}
	return &m, nil
}
