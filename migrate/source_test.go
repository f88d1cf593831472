package migrate_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/james-darko/gort"
	"github.com/james-darko/sqlmig"
	"github.com/james-darko/sqlmig/migrate"
	"github.com/james-darko/sqlmig/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestMigrationName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		file string
		name string
		ok   bool
	}{
		{"create_users_table.mg.yaml", "create_users_table", true},
		{"/tmp/x/create_posts_table.mg.yml", "create_posts_table", true},
		{"notes.yaml", "", false},
		{"create_users_table.yaml", "", false},
		{".mg.yaml", "", false},
		{"create_users_table.mg.json", "", false},
	}
	for _, tt := range tests {
		name, ok := migrate.MigrationName(tt.file)
		assert.Equal(t, tt.ok, ok, tt.file)
		assert.Equal(t, tt.name, name, tt.file)
	}
}

func TestDirSourceDefinitions(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "create_users_table.mg.yaml", "table: users\ncolumns:\n  - {name: id, type: bigInteger}\n")
	writeFile(t, dir, "create_posts_table.mg.yml", "table: posts\ncolumns:\n  - {name: id, type: bigInteger}\n")
	writeFile(t, dir, "README.md", "not a migration")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.mg.yaml"), 0o755))

	src, err := migrate.Dirs(dir)
	require.NoError(t, err)
	defs, err := src.Definitions()
	require.NoError(t, err)

	require.Len(t, defs, 2)
	assert.Equal(t, "create_posts_table", defs[0].Name)
	assert.Equal(t, "posts", defs[0].Build().Name())
	assert.Equal(t, "create_users_table", defs[1].Name)
	assert.Equal(t, "users", defs[1].Build().Name())
}

func TestDirSourceDuplicateNames(t *testing.T) {
	t.Parallel()
	a, b := t.TempDir(), t.TempDir()
	writeFile(t, a, "create_users_table.mg.yaml", "table: users\ncolumns: [{name: id, type: int}]\n")
	writeFile(t, b, "create_users_table.mg.yml", "table: users\ncolumns: [{name: id, type: int}]\n")

	src, err := migrate.Dirs(a, b)
	require.NoError(t, err)
	_, err = src.Definitions()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "defined twice")
}

func TestDirSourceInvalidFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "broken.mg.yaml", "table: broken\ncolumns: [{name: id, type: money}]\n")

	src, err := migrate.Dirs(dir)
	require.NoError(t, err)
	_, err = src.Definitions()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.mg.yaml")
}

func TestDirsRejectsMissingDirectory(t *testing.T) {
	t.Parallel()
	missing := filepath.Join(t.TempDir(), "missing")
	_, err := migrate.Dirs(missing)
	assert.ErrorIs(t, err, sqlmig.ErrInvalidMigrationDirectory)

	var dirErr *sqlmig.InvalidMigrationDirectoryError
	require.ErrorAs(t, err, &dirErr)
	assert.Equal(t, missing, dirErr.Dir)
}

func TestDirSourceMigrates(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "create_users_table.mg.yaml", "table: users\nprimary_key: [id]\ncolumns:\n  - {name: id, type: bigInteger, auto_increment: true, unsigned: true}\n")
	src, err := migrate.Dirs(dir)
	require.NoError(t, err)

	conn := newFakeConn()
	report, err := migrate.New(conn, migrate.WithSource(src)).Migrate(gort.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"users"}, report.Applied)
	assert.Equal(t, []string{"create_migrations_table", "create_users_table"}, conn.names())
}

func TestRegistryPanicsOnDuplicate(t *testing.T) {
	t.Parallel()
	r := migrate.NewRegistry()
	r.Register("create_users_table", users)
	assert.Panics(t, func() { r.Register("create_users_table", users) })
	assert.Panics(t, func() { r.Register("create_posts_table", nil) })

	defs, err := r.Definitions()
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.IsType(t, &schema.Table{}, defs[0].Build())
}
