package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrations(t *testing.T) {
	migrations, err := loadMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	assert.Equal(t, 1, migrations[0].version)
	assert.Equal(t, "1_kv_entries.sql", migrations[0].name)
	assert.Contains(t, migrations[0].content, "CREATE TABLE IF NOT EXISTS kv_entries")

	for i := 1; i < len(migrations); i++ {
		assert.Less(t, migrations[i-1].version, migrations[i].version)
	}
}
