package sqlite

import (
	"context"
	"time"

	"github.com/konbase/konbase/internal/domain"
)

type associationsRepo struct {
	db dbtx
}

func (r *associationsRepo) GetAssociationByID(ctx context.Context, id string) (domain.Association, error) {
	var a domain.Association
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_at, updated_at FROM associations WHERE id = ?`, id).
		Scan(&a.ID, &a.Name, &a.Description, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return domain.Association{}, mapNotFound(err)
	}
	return a, nil
}

func (r *associationsRepo) CreateAssociation(ctx context.Context, a domain.Association) error {
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO associations (id, name, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.Description, a.CreatedAt, a.UpdatedAt)
	return mapConflict(err)
}

func (r *associationsRepo) ListAssociations(ctx context.Context) ([]domain.Association, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, created_at, updated_at FROM associations ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Association
	for rows.Next() {
		var a domain.Association
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
