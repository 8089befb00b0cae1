package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/konbase/konbase/internal/domain"
	"github.com/konbase/konbase/internal/store"
)

type txStore struct {
	tx pgx.Tx
}

func (t *txStore) Commit() error   { return t.tx.Commit(context.Background()) }
func (t *txStore) Rollback() error { return t.tx.Rollback(context.Background()) }

// Close is a no-op; the outer pool stays open and the caller commits or rolls back.
func (t *txStore) Close() error { return nil }

// Ping is a no-op inside a transaction; the connection is already live.
func (t *txStore) Ping(ctx context.Context) error { return nil }

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	return nil, errors.New("postgres: nested transactions not supported")
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return errors.New("postgres: nested transactions not supported")
}

// ApplyMigrations is a no-op inside a transaction; migrations run before the
// store serves traffic.
func (t *txStore) ApplyMigrations(ctx context.Context) (domain.MigrationReport, error) {
	return domain.MigrationReport{}, nil
}

func (t *txStore) Users() store.Users               { return &usersRepo{db: t.tx} }
func (t *txStore) Profiles() store.Profiles         { return &profilesRepo{db: t.tx} }
func (t *txStore) Associations() store.Associations { return &associationsRepo{db: t.tx} }
func (t *txStore) Memberships() store.Memberships   { return &membershipsRepo{db: t.tx} }
func (t *txStore) RecoveryKeys() store.RecoveryKeys { return &recoveryKeysRepo{db: t.tx} }
func (t *txStore) AuditLog() store.AuditLog         { return &auditLogRepo{db: t.tx} }
