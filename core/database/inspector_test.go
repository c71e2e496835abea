package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTableColumns(t *testing.T) {
	db, err := Connect(Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)

	err = db.Exec("CREATE TABLE players (id TEXT PRIMARY KEY, name TEXT, balance NUMERIC)").Error
	require.NoError(t, err)

	columns, err := GetTableColumns(db, "players")
	assert.NoError(t, err)
	assert.Len(t, columns, 3)

	colMap := make(map[string]string)
	for _, col := range columns {
		colMap[col.Field] = col.Type
	}
	assert.Equal(t, "text", colMap["id"])
	assert.Equal(t, "numeric", colMap["balance"])

	// PRAGMA table_info returns an empty result for unknown tables
	cols, err := GetTableColumns(db, "non_existent")
	assert.NoError(t, err)
	assert.Empty(t, cols)
}

func TestMissingColumns(t *testing.T) {
	db, err := Connect(Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE TABLE games (id TEXT PRIMARY KEY, name TEXT)").Error)

	missing, err := MissingColumns(db, "games", []string{"id", "name", "winner"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"winner"}, missing)

	missing, err = MissingColumns(db, "nope", []string{"id"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"id"}, missing)
}
