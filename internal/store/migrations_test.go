package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLStatements(t *testing.T) {
	script := `-- leading comment

CREATE TABLE a (
    id TEXT PRIMARY KEY
);

-- another comment
CREATE INDEX idx_a ON a(id);
`
	stmts := sqlStatements(script)
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[0], "CREATE TABLE a")
	assert.NotContains(t, stmts[0], ";")
	assert.NotContains(t, stmts[0], "--")
	assert.Equal(t, "CREATE INDEX idx_a ON a(id)", stmts[1])
}

func TestSQLStatements_CommentOnlyScript(t *testing.T) {
	assert.Empty(t, sqlStatements("-- nothing here\n\n-- still nothing\n"))
}

func TestSQLStatements_MissingTrailingSemicolon(t *testing.T) {
	stmts := sqlStatements("CREATE TABLE b (id TEXT)")
	require.Len(t, stmts, 1)
	assert.Equal(t, "CREATE TABLE b (id TEXT)", stmts[0])
}

func TestInitialSchemaStatements(t *testing.T) {
	stmts := sqlStatements(initialSchemaSQL)
	require.Len(t, stmts, 3) // runs, extractions, index
}

func TestRunMigrations_RecordsVersion(t *testing.T) {
	s := newTestStore(t)

	var version int
	var name string
	err := s.db.QueryRowContext(context.Background(),
		`SELECT version, name FROM schema_version ORDER BY version DESC LIMIT 1`,
	).Scan(&version, &name)
	require.NoError(t, err)
	assert.Equal(t, 1, version)
	assert.Equal(t, "initial_schema", name)
}
