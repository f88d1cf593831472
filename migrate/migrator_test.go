package migrate_test

import (
	"errors"
	"testing"
	"time"

	"github.com/james-darko/gort"
	"github.com/james-darko/sqlmig"
	"github.com/james-darko/sqlmig/migrate"
	"github.com/james-darko/sqlmig/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func users() *schema.Table {
	t := schema.New("users")
	t.BigInteger("id", true, true)
	t.SetPrimaryKey("id")
	t.String("name", 0)
	t.String("email", 0).SetUnique(true)
	t.Timestamps()
	return t
}

func posts() *schema.Table {
	t := schema.New("posts")
	t.BigInteger("id", true, true)
	t.SetPrimaryKey("id")
	t.Text("body")
	return t
}

func registry(defs map[string]func() *schema.Table) *migrate.Registry {
	r := migrate.NewRegistry()
	for name, fn := range defs {
		r.Register(name, fn)
	}
	return r
}

// bootstrapped returns a connection that already has the bookkeeping table.
func bootstrapped(records ...sqlmig.Row) *fakeConn {
	conn := newFakeConn()
	conn.tables[migrate.DefaultTable] = true
	conn.records = append(conn.records, records...)
	return conn
}

func TestMigrateWithoutConnection(t *testing.T) {
	t.Parallel()
	_, err := migrate.New(nil).Migrate(gort.Context())
	assert.ErrorIs(t, err, sqlmig.ErrConnectionNotReady)
}

func TestMigrateNothingDiscovered(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zapcore.InfoLevel)
	conn := bootstrapped()

	report, err := migrate.New(conn, migrate.WithLogger(zap.New(core))).Migrate(gort.Context())
	require.NoError(t, err)
	assert.True(t, report.NoOp())
	assert.False(t, report.Bootstrapped)
	assert.Empty(t, conn.statements())
	assert.Equal(t, 1, logs.FilterMessage("nothing to migrate").Len())
}

func TestMigrateBootstrapsBookkeeping(t *testing.T) {
	t.Parallel()
	conn := newFakeConn()
	now := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	m := migrate.New(conn,
		migrate.WithSource(registry(map[string]func() *schema.Table{"create_users_table": users})),
		migrate.WithClock(func() time.Time { return now }))

	report, err := m.Migrate(gort.Context())
	require.NoError(t, err)
	assert.True(t, report.Bootstrapped)
	assert.Equal(t, int64(1), report.Batch)
	assert.Equal(t, []string{"users"}, report.Applied)

	stmts := conn.statements()
	require.Len(t, stmts, 4)
	assert.Contains(t, stmts[0], "CREATE TABLE migrations (\n  id BIGINT UNSIGNED AUTO_INCREMENT,\n  name VARCHAR(191),\n  batch INT,\n")
	assert.Equal(t, "INSERT INTO migrations (batch, created_at, name) VALUES (?, ?, ?)", stmts[1])
	assert.Equal(t, users().SQL(), stmts[2])

	require.Len(t, conn.records, 2)
	assert.Equal(t, "create_migrations_table", conn.records[0]["name"])
	assert.Nil(t, conn.records[0]["batch"])
	assert.Equal(t, "create_users_table", conn.records[1]["name"])
	assert.Equal(t, int64(1), conn.records[1]["batch"])
	assert.Equal(t, "2024-03-01 12:30:00", conn.records[1]["created_at"])
}

func TestMigrateExcludesRecordedTables(t *testing.T) {
	t.Parallel()
	conn := bootstrapped(sqlmig.Row{"id": int64(1), "name": "create_users_table", "batch": int64(1)})
	conn.tables["users"] = true
	src := registry(map[string]func() *schema.Table{
		"create_users_table": users,
		"create_posts_table": posts,
	})

	report, err := migrate.New(conn, migrate.WithSource(src)).Migrate(gort.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"posts"}, report.Applied)
	assert.Equal(t, int64(2), report.Batch)
	for _, stmt := range conn.statements() {
		assert.NotContains(t, stmt, "CREATE TABLE users")
	}
	assert.Equal(t, []string{"create_users_table", "create_posts_table"}, conn.names())
}

func TestMigrateMatchesDefinitionName(t *testing.T) {
	t.Parallel()
	conn := bootstrapped(sqlmig.Row{"id": int64(1), "name": "2024_01_01_posts", "batch": int64(3)})
	src := registry(map[string]func() *schema.Table{"2024_01_01_posts": posts})

	m := migrate.New(conn, migrate.WithSource(src))
	pending, err := m.Pending(gort.Context())
	require.NoError(t, err)
	assert.Empty(t, pending)

	report, err := m.Migrate(gort.Context())
	require.NoError(t, err)
	assert.True(t, report.NoOp())
}

func TestMigrateTwiceIsNoOp(t *testing.T) {
	t.Parallel()
	conn := newFakeConn()
	m := migrate.New(conn, migrate.WithSource(registry(map[string]func() *schema.Table{
		"create_users_table": users,
		"create_posts_table": posts,
	})))

	report, err := m.Migrate(gort.Context())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"users", "posts"}, report.Applied)

	executed := len(conn.statements())
	report, err = m.Migrate(gort.Context())
	require.NoError(t, err)
	assert.True(t, report.NoOp())
	assert.False(t, report.Bootstrapped)
	assert.Len(t, conn.statements(), executed)
}

func TestMigrateRollsBackFailedBatch(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zapcore.InfoLevel)
	conn := bootstrapped()
	cause := errors.New("syntax error near BODY")
	conn.fail["posts"] = cause
	src := registry(map[string]func() *schema.Table{
		"create_users_table": users,
		"create_posts_table": posts,
	})

	report, err := migrate.New(conn, migrate.WithSource(src), migrate.WithLogger(zap.New(core))).Migrate(gort.Context())
	assert.Nil(t, report)
	var batchErr *sqlmig.MigrationBatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, []string{"posts", "users"}, batchErr.Tables)
	assert.ErrorIs(t, err, cause)

	var execErr *sqlmig.QueryExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, posts().SQL(), execErr.Query)

	assert.Equal(t, 1, conn.rollback)
	assert.Empty(t, conn.statements())
	assert.Empty(t, conn.records)
	assert.False(t, conn.tables["users"])
	assert.Equal(t, 1, logs.FilterMessage("migrations failed, rolled back the batch").Len())
}

func TestPretend(t *testing.T) {
	t.Parallel()
	conn := newFakeConn()
	m := migrate.New(conn, migrate.WithSource(registry(map[string]func() *schema.Table{"create_users_table": users})))

	stmts, err := m.Pretend(gort.Context())
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[0], "CREATE TABLE migrations")
	assert.Equal(t, users().SQL(), stmts[1])
	assert.Empty(t, conn.statements())
	assert.Zero(t, conn.commits)
	assert.Equal(t, 1, conn.lookups, "the bookkeeping table is checked once")
}

func TestPretendWithBookkeeping(t *testing.T) {
	t.Parallel()
	conn := bootstrapped(sqlmig.Row{"id": int64(1), "name": "create_users_table", "batch": int64(1)})
	m := migrate.New(conn, migrate.WithSource(registry(map[string]func() *schema.Table{
		"create_users_table": users,
		"create_posts_table": posts,
	})))

	stmts, err := m.Pretend(gort.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{posts().SQL()}, stmts)
	assert.Equal(t, 1, conn.lookups)
}

func TestCustomBookkeepingTable(t *testing.T) {
	t.Parallel()
	conn := newFakeConn()
	m := migrate.New(conn,
		migrate.WithTable("schema_history"),
		migrate.WithSource(registry(map[string]func() *schema.Table{"create_posts_table": posts})))

	_, err := m.Migrate(gort.Context())
	require.NoError(t, err)
	assert.True(t, conn.tables["schema_history"])

	records, err := m.Records(gort.Context())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, migrate.Record{ID: 2, Name: "create_posts_table", Batch: 1}, records[1])
}
