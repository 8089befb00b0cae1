package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/konbase/konbase/internal/domain"
	"github.com/konbase/konbase/internal/store"
)

type auditLogRepo struct {
	db dbtx
}

func (r *auditLogRepo) AppendAuditEntry(ctx context.Context, entry domain.AuditEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	changes := entry.Changes
	if changes == nil {
		changes = map[string]string{}
	}

	// pgx encodes the map straight to jsonb.
	_, err := r.db.Exec(ctx,
		`INSERT INTO audit_log (id, action, entity_type, entity_id, actor_id, changes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.Action, entry.EntityType, entry.EntityID, entry.ActorID, changes, entry.CreatedAt)
	return mapConflict(err)
}

func (r *auditLogRepo) ListAuditEntries(ctx context.Context, filter store.AuditFilter) ([]domain.AuditEntry, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, val any) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.EntityType != "" {
		add("entity_type = $%d", filter.EntityType)
	}
	if filter.EntityID != "" {
		add("entity_id = $%d", filter.EntityID)
	}
	if filter.ActorID != "" {
		add("actor_id = $%d", filter.ActorID)
	}

	query := `SELECT id, action, entity_type, entity_id, actor_id, changes, created_at FROM audit_log`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		if err := rows.Scan(&e.ID, &e.Action, &e.EntityType, &e.EntityID, &e.ActorID, &e.Changes, &e.CreatedAt); err != nil {
			return nil, err
		}
		if len(e.Changes) == 0 {
			e.Changes = nil
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
