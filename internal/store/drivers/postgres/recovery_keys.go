package postgres

import (
	"context"
	"time"
)

type recoveryKeysRepo struct {
	db dbtx
}

func (r *recoveryKeysRepo) CreateRecoveryKey(ctx context.Context, userID, keyHash string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO recovery_keys (user_id, key_hash, created_at) VALUES ($1, $2, $3)`,
		userID, keyHash, time.Now().UTC())
	return mapConflict(err)
}

func (r *recoveryKeysRepo) ConsumeRecoveryKey(ctx context.Context, userID, keyHash string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM recovery_keys WHERE user_id = $1 AND key_hash = $2`,
		userID, keyHash)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *recoveryKeysRepo) DeleteAllRecoveryKeys(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM recovery_keys WHERE user_id = $1`, userID)
	return err
}

func (r *recoveryKeysRepo) CountRecoveryKeys(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM recovery_keys WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
