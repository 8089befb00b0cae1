package postgres

import (
	"context"
	"time"

	"github.com/konbase/konbase/internal/domain"
)

type profilesRepo struct {
	db dbtx
}

func (r *profilesRepo) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	var p domain.Profile
	err := r.db.QueryRow(ctx,
		`SELECT user_id, display_name, two_factor_enabled, totp_secret, created_at, updated_at
		 FROM profiles WHERE user_id = $1`, userID).
		Scan(&p.UserID, &p.DisplayName, &p.TwoFactorEnabled, &p.TOTPSecret, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Profile{}, mapNotFound(err)
	}
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
	_, err := r.db.Exec(ctx,
		`INSERT INTO profiles (user_id, display_name, two_factor_enabled, totp_secret, created_at, updated_at)
		 VALUES ($1, $2, NULL, NULL, $3, $4)`,
		p.UserID, p.DisplayName, p.CreatedAt, p.UpdatedAt)
	return mapConflict(err)
}

func (r *profilesRepo) UpdateDisplayName(ctx context.Context, userID, displayName string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE profiles SET display_name = $1, updated_at = $2 WHERE user_id = $3`,
		displayName, time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	return requireRowAffected(tag)
}

func (r *profilesRepo) EnableTwoFactor(ctx context.Context, userID, secret string) error {
	now := time.Now().UTC()
	tag, err := r.db.Exec(ctx,
		`UPDATE profiles SET totp_secret = $1, two_factor_enabled = $2, updated_at = $3 WHERE user_id = $4`,
		secret, now, now, userID)
	if err != nil {
		return err
	}
	return requireRowAffected(tag)
}

func (r *profilesRepo) DisableTwoFactor(ctx context.Context, userID string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE profiles SET totp_secret = NULL, two_factor_enabled = NULL, updated_at = $1 WHERE user_id = $2`,
		time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	return requireRowAffected(tag)
}
