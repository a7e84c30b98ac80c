package repo

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"

	"caseline/internal/domain"
)

// HashAPIKey returns a stable SHA-256 hex digest for the provided key.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func (r Repo) InsertAPIKey(ctx context.Context, k domain.APIKey) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO api_keys(id,pin,key_hash,label,created_at) VALUES (?,?,?,?,?)`,
		k.ID, k.Pin, k.KeyHash, k.Label, k.CreatedAt)
	return err
}

func (r Repo) GetAPIKeyByHash(ctx context.Context, hash string) (domain.APIKey, error) {
	var k domain.APIKey
	err := r.DB.QueryRowContext(ctx, `SELECT id,pin,key_hash,label,created_at FROM api_keys WHERE key_hash=?`, hash).
		Scan(&k.ID, &k.Pin, &k.KeyHash, &k.Label, &k.CreatedAt)
	if err == sql.ErrNoRows {
		return k, ErrNotFound
	}
	return k, err
}

func (r Repo) ListAPIKeys(ctx context.Context, pin string) ([]domain.APIKey, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,pin,key_hash,label,created_at FROM api_keys WHERE pin=? ORDER BY created_at ASC`, pin)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.APIKey
	for rows.Next() {
		var k domain.APIKey
		if err := rows.Scan(&k.ID, &k.Pin, &k.KeyHash, &k.Label, &k.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, k)
	}
	return res, rows.Err()
}

func (r Repo) DeleteAPIKey(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM api_keys WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
