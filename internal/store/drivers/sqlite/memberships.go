package sqlite

import (
	"context"
	"time"

	"github.com/konbase/konbase/internal/domain"
)

type membershipsRepo struct {
	db dbtx
}

func scanMembership(row interface{ Scan(...any) error }) (domain.Membership, error) {
	var (
		m    domain.Membership
		role string
	)
	if err := row.Scan(&m.AssociationID, &m.UserID, &role, &m.CreatedAt); err != nil {
		return domain.Membership{}, mapNotFound(err)
	}
	parsed, err := domain.ParseMembershipRole(role)
	if err != nil {
		return domain.Membership{}, err
	}
	m.Role = parsed
	return m, nil
}

func (r *membershipsRepo) CreateMembership(ctx context.Context, m domain.Membership) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO association_members (association_id, user_id, role, created_at)
		 VALUES (?, ?, ?, ?)`,
		m.AssociationID, m.UserID, m.Role.String(), m.CreatedAt)
	return mapConflict(err)
}

func (r *membershipsRepo) GetMembership(ctx context.Context, associationID, userID string) (domain.Membership, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT association_id, user_id, role, created_at
		 FROM association_members WHERE association_id = ? AND user_id = ?`,
		associationID, userID)
	return scanMembership(row)
}

func (r *membershipsRepo) ListMembershipsByUser(ctx context.Context, userID string) ([]domain.Membership, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT association_id, user_id, role, created_at
		 FROM association_members WHERE user_id = ? ORDER BY association_id`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *membershipsRepo) ListMembersByAssociation(ctx context.Context, associationID string) ([]domain.Membership, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT association_id, user_id, role, created_at
		 FROM association_members WHERE association_id = ? ORDER BY user_id`,
		associationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *membershipsRepo) UpdateMembershipRole(ctx context.Context, associationID, userID string, role domain.MembershipRole) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE association_members SET role = ? WHERE association_id = ? AND user_id = ?`,
		role.String(), associationID, userID)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *membershipsRepo) DeleteMembership(ctx context.Context, associationID, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM association_members WHERE association_id = ? AND user_id = ?`,
		associationID, userID)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}
