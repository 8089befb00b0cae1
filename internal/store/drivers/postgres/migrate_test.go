package postgres

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestRunMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"000002_second.up.sql":  {Data: []byte("CREATE TABLE b (id TEXT);")},
		"000001_first.up.sql":   {Data: []byte("CREATE TABLE a (id TEXT);")},
		"000001_first.down.sql": {Data: []byte("DROP TABLE a;")},
	}

	t.Run("applies in filename order", func(t *testing.T) {
		var ran []string
		report, err := runMigrations(context.Background(), fsys, func(ctx context.Context, sqlText string) error {
			ran = append(ran, sqlText)
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, []string{"CREATE TABLE a (id TEXT);", "CREATE TABLE b (id TEXT);"}, ran)
		require.Equal(t, []string{"000001_first.up.sql", "000002_second.up.sql"}, report.Applied)
		require.Empty(t, report.Skipped)
	})

	t.Run("already exists is skipped not fatal", func(t *testing.T) {
		calls := 0
		report, err := runMigrations(context.Background(), fsys, func(ctx context.Context, sqlText string) error {
			calls++
			if calls == 1 {
				return errors.New(`relation "a" already exists`)
			}
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, []string{"000001_first.up.sql"}, report.Skipped)
		require.Equal(t, []string{"000002_second.up.sql"}, report.Applied)
	})

	t.Run("other errors abort", func(t *testing.T) {
		boom := errors.New("connection refused")
		report, err := runMigrations(context.Background(), fsys, func(ctx context.Context, sqlText string) error {
			return boom
		})
		require.ErrorIs(t, err, boom)
		require.Empty(t, report.Applied)
	})
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements("CREATE TABLE a (id TEXT);\nINSERT INTO a VALUES ('x;y');\n")
	require.Len(t, stmts, 2)
	require.Contains(t, stmts[1], "'x;y'")
}
