package sqlite

import (
	"context"
	"errors"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"github.com/konbase/konbase/internal/domain"
	"github.com/konbase/konbase/internal/store/drivers/sqlite/migrations"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "modernc.org/sqlite"
)

// ApplyMigrations applies any pending schema migrations using the embedded
// migration files, and reports which files ran and which were already in
// place from a previous boot.
func (s *Store) ApplyMigrations(ctx context.Context) (domain.MigrationReport, error) {
	var report domain.MigrationReport

	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return report, err
	}

	src, err := iofs.New(migrations.Migrations, ".")
	if err != nil {
		return report, err
	}

	instance, err := migrate.NewWithInstance("iofs", src, "", driver)
	if err != nil {
		return report, err
	}

	before, _, err := instance.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return report, err
	}

	err = instance.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return report, err
	}

	files, err := fs.Glob(migrations.Migrations, "*.up.sql")
	if err != nil {
		return report, err
	}
	sort.Strings(files)

	for _, name := range files {
		version, ok := migrationVersion(name)
		if ok && version <= before {
			report.Skipped = append(report.Skipped, name)
			continue
		}
		report.Applied = append(report.Applied, name)
	}
	return report, nil
}

// migrationVersion extracts the numeric prefix of a migration filename,
// e.g. "000001_init.up.sql" -> 1.
func migrationVersion(name string) (uint, bool) {
	prefix, _, found := strings.Cut(name, "_")
	if !found {
		return 0, false
	}
	v, err := strconv.ParseUint(prefix, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(v), true
}
