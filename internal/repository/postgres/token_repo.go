package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// TokenRepo implements TokenRepository using PostgreSQL.
type TokenRepo struct{ db *DB }

// NewTokenRepo constructs a token repository.
func NewTokenRepo(db *DB) *TokenRepo { return &TokenRepo{db: db} }

// Rotate moves the current hash to previous_hash and stores the new one.
func (r *TokenRepo) Rotate(ctx context.Context, principalID int64, tokenHash []byte) (evicted []byte, err error) {
	const sel = `SELECT previous_hash FROM tokens WHERE principal_id=$1 FOR UPDATE`
	const upsert = `
INSERT INTO tokens (principal_id, token_hash, previous_hash, rotated_at)
VALUES ($1, $2, NULL, now())
ON CONFLICT (principal_id) DO UPDATE
SET previous_hash = tokens.token_hash, token_hash = EXCLUDED.token_hash, rotated_at = now()`

	err = r.db.inTx(ctx, func(tx pgx.Tx) error {
		evicted = nil
		if err := tx.QueryRow(ctx, sel, principalID).Scan(&evicted); err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		_, err := tx.Exec(ctx, upsert, principalID, tokenHash)
		return err
	})
	if err != nil {
		return nil, err
	}
	return evicted, nil
}

// Resolve finds the principal whose current token, or previous token still
// inside the grace window, hashes to tokenHash.
func (r *TokenRepo) Resolve(ctx context.Context, tokenHash []byte, grace time.Duration) (int64, error) {
	const q = `
SELECT principal_id FROM tokens
WHERE token_hash = $1
   OR (previous_hash = $1 AND rotated_at > now() - $2::interval)
LIMIT 1`
	var id int64
	if err := r.db.Pool.QueryRow(ctx, q, tokenHash, grace).Scan(&id); err != nil {
		return 0, notFound(err)
	}
	return id, nil
}
