package checks

import (
	"context"
	"errors"
	"testing"

	"party-ledger/core/database"
	"party-ledger/feature/ledger/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func columns(names ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"})
	for _, n := range names {
		typ := "varchar(64)"
		switch n {
		case "amount", "total_pot", "balance", "initial_balance":
			typ = "decimal(20,2)"
		}
		rows.AddRow(n, typ, "YES", "", nil, "")
	}
	return rows
}

func TestCheckSchema_NilDB(t *testing.T) {
	report, err := CheckSchema(nil, store.SchemaModels())
	assert.Error(t, err)
	assert.Nil(t, report)
}

func TestCheckSchema_MySQL(t *testing.T) {
	db, mock := setupMockDB(t)

	games := sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"}).
		AddRow("id", "varchar(64)", "NO", "PRI", nil, "").
		AddRow("total_pot", "int(11)", "YES", "", nil, "")
	mock.ExpectQuery("SHOW COLUMNS FROM `games`").WillReturnRows(games)
	mock.ExpectQuery("SHOW COLUMNS FROM `players`").WillReturnError(errors.New("table locked"))
	mock.ExpectQuery("SHOW COLUMNS FROM `transactions`").WillReturnRows(columns(
		"id", "player_id", "player_name", "game_id", "game_name", "amount", "type", "timestamp", "description",
	))
	mock.ExpectQuery("SHOW COLUMNS FROM `player_adjustments`").WillReturnRows(columns("id", "player_id", "created_at"))

	report, err := CheckSchema(db, store.SchemaModels())
	require.NoError(t, err)
	assert.Equal(t, "mysql", report.Driver)
	assert.False(t, report.Matched)

	tbl := report.Tables["games"]
	assert.Equal(t, "error", tbl.Status)
	assert.Contains(t, tbl.MissingColumns, "winner")
	assert.NotContains(t, tbl.MissingColumns, "id")
	assert.Equal(t, []string{"total_pot: expected numeric(20,2), got int(11)"}, tbl.TypeMismatches)

	_, ok := report.Tables["players"]
	assert.False(t, ok)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "table locked")

	assert.Equal(t, "ok", report.Tables["transactions"].Status)
	assert.Empty(t, report.Tables["transactions"].TypeMismatches)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckSchema_MigratedSQLite(t *testing.T) {
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, store.NewRemoteStore(db).Migrate(context.Background()))

	report, err := CheckSchema(db, store.SchemaModels())
	require.NoError(t, err)
	assert.True(t, report.Matched, "%+v", report)
	assert.Len(t, report.Tables, 4)
}

func TestParseGormTags(t *testing.T) {
	col := parseGormColumn("column:id;primaryKey")
	assert.Equal(t, "id", col)

	col2 := parseGormColumn("primaryKey;column:total_pot;type:numeric(20,2)")
	assert.Equal(t, "total_pot", col2)

	typ := parseGormType("column:amount;type:numeric(20,2)")
	assert.Equal(t, "numeric(20,2)", typ)

	typ2 := parseGormType("column:id")
	assert.Equal(t, "", typ2)
}

func TestBaseType(t *testing.T) {
	assert.Equal(t, "numeric", baseType("numeric(20,2)"))
	assert.Equal(t, "numeric", baseType("decimal(20,2)"))
	assert.Equal(t, "numeric", baseType("numeric"))
	assert.Equal(t, "int", baseType("int(11)"))
}
