package schema_test

import (
	"testing"

	"github.com/james-darko/sqlmig/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const usersSpec = `
table: users
primary_key: [id]
timestamps: true
columns:
  - {name: id, type: bigInteger, auto_increment: true, unsigned: true}
  - {name: name, type: string}
  - {name: email, type: string, unique: true}
`

func TestSpecBuildsSameTableAsCode(t *testing.T) {
	t.Parallel()
	spec, err := schema.ParseSpec([]byte(usersSpec))
	require.NoError(t, err)
	table, err := spec.Build()
	require.NoError(t, err)

	assert.Equal(t, usersTable().SQL(), table.SQL())
}

func TestSpecOptions(t *testing.T) {
	t.Parallel()
	spec, err := schema.ParseSpec([]byte(`
table: orders
engine: MyISAM
comment: all orders
auto_increment: 10
columns:
  - {name: id, type: INT, nullable: false}
  - {name: total, type: decimal, length: 12, default: 0}
  - {name: user_id, type: BIGINT, unsigned: true, comment: owner}
  - {name: note, type: text, nullable: true, default: null}
  - {name: memo, type: text, nullable: true}
  - {name: shipped_at, type: datetime, default: ~}
foreign_keys:
  - {column: user_id, ref_table: users, ref_column: id, on_delete: CASCADE}
indexes:
  - {name: orders_user_id_index, columns: [user_id]}
`))
	require.NoError(t, err)
	table, err := spec.Build()
	require.NoError(t, err)

	sql := table.SQL()
	assert.Contains(t, sql, "  id INT NOT NULL,\n")
	assert.Contains(t, sql, "  total DECIMAL(12) DEFAULT '0',\n")
	assert.Contains(t, sql, "  user_id BIGINT UNSIGNED COMMENT 'owner',\n")
	assert.Contains(t, sql, "  note TEXT DEFAULT NULL,\n")
	assert.Contains(t, sql, "  memo TEXT,\n")
	assert.Contains(t, sql, "  shipped_at DATETIME DEFAULT NULL,\n")
	assert.Contains(t, sql, "FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE")
	assert.Contains(t, sql, "INDEX orders_user_id_index (user_id)")
	assert.Contains(t, sql, "ENGINE=MyISAM AUTO_INCREMENT=10 CHARSET=utf8mb4")
	assert.Contains(t, sql, "COMMENT='all orders';")
}

func TestSpecErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		yaml string
		msg  string
	}{
		{"missing table", "columns: [{name: id, type: int}]", "no table name"},
		{"unknown type", "table: t\ncolumns: [{name: id, type: money}]", `unknown type "money"`},
		{"missing column name", "table: t\ncolumns: [{type: int}]", "has no name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := schema.ParseSpec([]byte(tt.yaml))
			require.NoError(t, err)
			_, err = spec.Build()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}

	_, err := schema.ParseSpec([]byte("table: [unterminated"))
	assert.Error(t, err)
}

func TestSpecRejectsUnknownKeys(t *testing.T) {
	t.Parallel()
	for name, doc := range map[string]string{
		"column key": "table: t\ncolumns: [{name: note, type: text, nulable: true}]",
		"table key":  "table: t\ntimestamp: true\ncolumns: [{name: id, type: int}]",
		"index key":  "table: t\ncolumns: [{name: id, type: int}]\nindexes: [{name: i, column: [id]}]",
	} {
		_, err := schema.ParseSpec([]byte(doc))
		require.Error(t, err, name)
		assert.Contains(t, err.Error(), "not found", name)
	}

	spec, err := schema.ParseSpec(nil)
	require.NoError(t, err)
	_, err = spec.Build()
	assert.Error(t, err, "an empty file has no table name")
}

func TestStubRoundTrip(t *testing.T) {
	t.Parallel()
	data, err := schema.Stub("posts").Marshal()
	require.NoError(t, err)

	spec, err := schema.ParseSpec(data)
	require.NoError(t, err)
	table, err := spec.Build()
	require.NoError(t, err)

	assert.Equal(t, "CREATE TABLE posts (\n"+
		"  id BIGINT UNSIGNED AUTO_INCREMENT,\n"+
		"  created_at TIMESTAMP,\n"+
		"  updated_at TIMESTAMP,\n"+
		"  PRIMARY KEY (id)\n"+
		") ENGINE=InnoDB CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;", table.SQL())
}
