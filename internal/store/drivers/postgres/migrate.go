package postgres

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/konbase/konbase/internal/domain"
	"github.com/konbase/konbase/internal/store/drivers/postgres/migrations"
)

// ApplyMigrations runs each embedded up-migration in its own transaction.
// Files whose objects are already in place fail with an "already exists"
// error; those are rolled back and reported as skipped rather than fatal, so
// repeated boots against the same database converge without bookkeeping
// tables.
func (s *Store) ApplyMigrations(ctx context.Context) (domain.MigrationReport, error) {
	return runMigrations(ctx, migrations.Migrations, s.applyMigrationFile)
}

// runMigrations walks the up-migration files in filename order and classifies
// each as applied or skipped. Split out from the Store so the ordering and
// skip logic is testable without a live database.
func runMigrations(ctx context.Context, fsys fs.FS, apply func(ctx context.Context, sqlText string) error) (domain.MigrationReport, error) {
	var report domain.MigrationReport

	files, err := fs.Glob(fsys, "*.up.sql")
	if err != nil {
		return report, err
	}
	sort.Strings(files)

	for _, name := range files {
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return report, err
		}

		if err := apply(ctx, string(raw)); err != nil {
			if isAlreadyExists(err) {
				report.Skipped = append(report.Skipped, name)
				continue
			}
			return report, fmt.Errorf("apply migration %s: %w", name, err)
		}
		report.Applied = append(report.Applied, name)
	}
	return report, nil
}

// applyMigrationFile executes one migration file, statement by statement,
// inside a single transaction. Any failure rolls the whole file back.
func (s *Store) applyMigrationFile(ctx context.Context, sqlText string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, stmt := range splitStatements(sqlText) {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// duplicate_table, duplicate_column, duplicate_object, duplicate_schema,
// duplicate_function. See https://www.postgresql.org/docs/current/errcodes-appendix.html
var alreadyExistsCodes = map[string]bool{
	"42P07": true,
	"42701": true,
	"42710": true,
	"42P06": true,
	"42723": true,
}

func isAlreadyExists(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return alreadyExistsCodes[pgErr.Code]
	}
	return strings.Contains(err.Error(), "already exists")
}

// splitStatements naively splits SQL by semicolon, respecting single-quoted
// strings. Good enough for DDL migration files.
func splitStatements(sqlText string) []string {
	var (
		stmts    []string
		current  strings.Builder
		inString bool
	)
	for _, r := range sqlText {
		switch r {
		case '\'':
			current.WriteRune(r)
			inString = !inString
		case ';':
			if inString {
				current.WriteRune(r)
				continue
			}
			stmts = append(stmts, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	if strings.TrimSpace(current.String()) != "" {
		stmts = append(stmts, current.String())
	}
	return stmts
}
