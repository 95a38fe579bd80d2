package db

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractUp(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE a (id INT);\n-- +migrate Down\nDROP TABLE a;\n"
	up := ExtractUp(content)
	assert.Contains(t, up, "CREATE TABLE a")
	assert.NotContains(t, up, "DROP TABLE")

	assert.Equal(t, "SELECT 1;", ExtractUp("SELECT 1;"))
}

func TestEmbeddedMigrationsDeclareUniqueEmail(t *testing.T) {
	files, err := migrationFiles(migrationFS)
	require.NoError(t, err)
	require.NotEmpty(t, files)

	content, err := fs.ReadFile(migrationFS, "migrations/"+files[0])
	require.NoError(t, err)
	up := ExtractUp(string(content))
	assert.True(t, strings.Contains(up, "CREATE UNIQUE INDEX IF NOT EXISTS users_email_key"))
	assert.True(t, strings.Contains(up, "owner_id    BIGINT NOT NULL REFERENCES users (id)"))
}
