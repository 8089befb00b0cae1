package sqlite

import (
	"context"
	"database/sql"

	"github.com/konbase/konbase/internal/domain"
	"github.com/konbase/konbase/internal/store"
)

type txStore struct {
	tx *sql.Tx
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

// Close is a no-op; the outer DB stays open and the caller commits or rolls back.
func (t *txStore) Close() error { return nil }

// Ping is a no-op inside a transaction; the connection is already live.
func (t *txStore) Ping(ctx context.Context) error { return nil }

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	// Nested tx not supported; could emulate with SAVEPOINT if needed
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return sql.ErrTxDone
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
