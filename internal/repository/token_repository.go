package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lingodex/backend/internal/model"
)

// TokenRepo persists refresh-token rows. The rotate-on-use guarantee
// rests on Consume: a single conditional UPDATE that only one caller
// can win.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Store inserts a refresh-token row.
func (r *TokenRepo) Store(ctx context.Context, t *model.Token) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO tokens (id, auth_method_id, token, expires_at, revoked) VALUES (?,?,?,?,0)",
		t.ID, t.AuthMethodID, t.Token, t.ExpiresAt.UTC())
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// Consume atomically revokes the active row holding the exact token
// string. The UPDATE matches only non-revoked, non-expired rows, so of
// two concurrent callers exactly one sees a row flip and the other
// gets ErrNotFound. On success the consumed row is returned so the
// caller can check ownership against the token's claims.
func (r *TokenRepo) Consume(ctx context.Context, token string, now time.Time) (*model.Token, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE tokens SET revoked=1 WHERE token=? AND revoked=0 AND expires_at>?",
		token, now.UTC())
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}

	var t model.Token
	err = r.DB.QueryRowContext(ctx,
		"SELECT id, auth_method_id, token, expires_at, revoked, created_at FROM tokens WHERE token=? LIMIT 1",
		token).Scan(&t.ID, &t.AuthMethodID, &t.Token, &t.ExpiresAt, &t.Revoked, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// RevokeAllForUser revokes every active token across all of the user's
// auth methods. A user without methods or tokens is a no-op.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE tokens t
		 JOIN auth_methods am ON am.id = t.auth_method_id
		 SET t.revoked = 1
		 WHERE am.user_id = ? AND t.revoked = 0`,
		userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteExpired removes expired, never-revoked rows in batches so the
// sweep cannot hold locks long enough to stall concurrent refreshes.
// Revoked rows are kept until their natural expiry.
func (r *TokenRepo) DeleteExpired(ctx context.Context, now time.Time, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 500
	}
	var total int64
	for {
		res, err := r.DB.ExecContext(ctx,
			"DELETE FROM tokens WHERE expires_at < ? AND revoked = 0 LIMIT ?",
			now.UTC(), batchSize)
		if err != nil {
			return total, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, err
		}
		total += n
		if n < int64(batchSize) {
			return total, nil
		}
	}
}
