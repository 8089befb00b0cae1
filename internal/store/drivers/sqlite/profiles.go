package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/konbase/konbase/internal/domain"
)

type profilesRepo struct {
	db dbtx
}

func (r *profilesRepo) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	var (
		p         domain.Profile
		enabledAt sql.NullTime
		secret    sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, display_name, two_factor_enabled, totp_secret, created_at, updated_at
		 FROM profiles WHERE user_id = ?`, userID).
		Scan(&p.UserID, &p.DisplayName, &enabledAt, &secret, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Profile{}, mapNotFound(err)
	}
	p.TwoFactorEnabled = mapNullTimePtr(enabledAt)
	p.TOTPSecret = mapNullStringPtr(secret)
	return p, nil
}

func (r *profilesRepo) CreateProfile(ctx context.Context, p domain.Profile) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, display_name, two_factor_enabled, totp_secret, created_at, updated_at)
		 VALUES (?, ?, NULL, NULL, ?, ?)`,
		p.UserID, p.DisplayName, p.CreatedAt, p.UpdatedAt)
	return mapConflict(err)
}

func (r *profilesRepo) UpdateDisplayName(ctx context.Context, userID, displayName string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET display_name = ?, updated_at = ? WHERE user_id = ?`,
		displayName, time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *profilesRepo) EnableTwoFactor(ctx context.Context, userID, secret string) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET totp_secret = ?, two_factor_enabled = ?, updated_at = ? WHERE user_id = ?`,
		secret, now, now, userID)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *profilesRepo) DisableTwoFactor(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET totp_secret = NULL, two_factor_enabled = NULL, updated_at = ? WHERE user_id = ?`,
		time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}
