package sqlite

import (
	"context"
	"time"
)

type recoveryKeysRepo struct {
	db dbtx
}

func (r *recoveryKeysRepo) CreateRecoveryKey(ctx context.Context, userID, keyHash string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO recovery_keys (user_id, key_hash, created_at) VALUES (?, ?, ?)`,
		userID, keyHash, time.Now().UTC())
	return mapConflict(err)
}

func (r *recoveryKeysRepo) ConsumeRecoveryKey(ctx context.Context, userID, keyHash string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM recovery_keys WHERE user_id = ? AND key_hash = ?`,
		userID, keyHash)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *recoveryKeysRepo) DeleteAllRecoveryKeys(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM recovery_keys WHERE user_id = ?`, userID)
	return err
}

func (r *recoveryKeysRepo) CountRecoveryKeys(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM recovery_keys WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
