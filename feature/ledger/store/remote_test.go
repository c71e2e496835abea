package store

import (
	"context"
	"errors"
	"net"
	"testing"

	"party-ledger/core/database"
	"party-ledger/feature/ledger/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func newSQLiteRemote(t *testing.T) *RemoteStore {
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	r := NewRemoteStore(db)
	require.NoError(t, r.Migrate(context.Background()))
	return r
}

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

func TestRemoteStore_Schema(t *testing.T) {
	r := newSQLiteRemote(t)

	missing, err := r.CheckSchema()
	require.NoError(t, err)
	assert.Empty(t, missing)
	assert.NoError(t, r.Ping(context.Background()))
}

func TestRemoteStore_GameRoundTrip(t *testing.T) {
	ctx := context.Background()
	r := newSQLiteRemote(t)

	g := models.Game{
		ID:        "g1",
		Name:      "Poker",
		Type:      "cards",
		Status:    models.StatusActive,
		StartTime: 1000,
		Players: []models.PlayerEntry{
			{ID: "A", Name: "Ann", Bet: decimal.NewFromInt(50)},
			{ID: "B", Name: "Bob", Bet: decimal.NewFromInt(50)},
		},
		TotalPot: decimal.NewFromInt(100),
	}
	require.NoError(t, r.UpsertGame(ctx, g))

	g.Status = models.StatusCompleted
	g.Winner = "A"
	g.EndTime = models.Int64Ptr(2000)
	require.NoError(t, r.UpsertGame(ctx, g))

	games, err := r.ListGames(ctx)
	require.NoError(t, err)
	require.Len(t, games, 1)
	got := games[0]
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Equal(t, "A", got.Winner)
	require.NotNil(t, got.EndTime)
	assert.Equal(t, int64(2000), *got.EndTime)
	require.Len(t, got.Players, 2)
	assert.Equal(t, "Bob", got.Players[1].Name)
	assert.True(t, got.TotalPot.Equal(decimal.NewFromInt(100)))
}

func TestRemoteStore_PlayersAndAdjust(t *testing.T) {
	ctx := context.Background()
	r := newSQLiteRemote(t)

	require.NoError(t, r.UpsertPlayer(ctx, models.Player{ID: "A", Name: "Ann", InitialBalance: decimal.NewFromInt(300), Balance: decimal.NewFromInt(300)}))
	require.NoError(t, r.AdjustPlayer(ctx, PlayerDelta{PlayerID: "A", Balance: decimal.NewFromInt(-50), GamesPlayed: 1}))
	require.NoError(t, r.AdjustPlayer(ctx, PlayerDelta{PlayerID: "A", Balance: decimal.NewFromInt(100), GamesWon: 1}))

	players, err := r.ListPlayers(ctx)
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.True(t, players[0].Balance.Equal(decimal.NewFromInt(350)), "balance %s", players[0].Balance)
	assert.Equal(t, 1, players[0].GamesPlayed)
	assert.Equal(t, 1, players[0].GamesWon)

	err = r.AdjustPlayer(ctx, PlayerDelta{PlayerID: "Z", Balance: decimal.NewFromInt(1)})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRemoteStore_KeyedAdjustAppliesOnce(t *testing.T) {
	ctx := context.Background()
	r := newSQLiteRemote(t)
	require.NoError(t, r.UpsertPlayer(ctx, models.Player{ID: "A", InitialBalance: decimal.NewFromInt(300), Balance: decimal.NewFromInt(300)}))

	delta := PlayerDelta{Key: "bet-1", PlayerID: "A", Balance: decimal.NewFromInt(-50), GamesPlayed: 1}
	require.NoError(t, r.AdjustPlayer(ctx, delta))
	err := r.AdjustPlayer(ctx, delta)
	assert.True(t, errors.Is(err, ErrAlreadyProcessed), "got %v", err)

	// a missing player leaves no key behind
	err = r.AdjustPlayer(ctx, PlayerDelta{Key: "bet-2", PlayerID: "Z", Balance: decimal.NewFromInt(1)})
	require.True(t, errors.Is(err, ErrNotFound))
	require.NoError(t, r.UpsertPlayer(ctx, models.Player{ID: "Z"}))
	require.NoError(t, r.AdjustPlayer(ctx, PlayerDelta{Key: "bet-2", PlayerID: "Z", Balance: decimal.NewFromInt(1)}))

	players, err := r.ListPlayers(ctx)
	require.NoError(t, err)
	for _, p := range players {
		if p.ID == "A" {
			assert.True(t, p.Balance.Equal(decimal.NewFromInt(250)), "balance %s", p.Balance)
			assert.Equal(t, 1, p.GamesPlayed)
		}
	}
}

func TestRemoteStore_TransactionMergeAndRelink(t *testing.T) {
	ctx := context.Background()
	r := newSQLiteRemote(t)

	tx := models.Transaction{ID: "t1", PlayerID: "A", Amount: decimal.NewFromInt(-50), Type: models.TypeBet, GameID: models.InvalidGameID, Timestamp: 10}
	require.NoError(t, r.UpsertTransaction(ctx, tx))
	require.NoError(t, r.UpsertTransaction(ctx, models.Transaction{ID: "t1", GameID: "g1", GameName: "Poker", Amount: decimal.NewFromInt(7)}))

	txs, err := r.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "g1", txs[0].GameID)
	assert.True(t, txs[0].Amount.Equal(decimal.NewFromInt(-50)))

	require.NoError(t, r.Relink(ctx, Link{TransactionID: "t1", GameID: "g2", GameName: "Rummy"}))
	txs, _ = r.ListTransactions(ctx)
	assert.Equal(t, "g2", txs[0].GameID)
	assert.Equal(t, "Rummy", txs[0].GameName)

	err = r.Relink(ctx, Link{TransactionID: "t9", GameID: "g1"})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRemoteStore_DuplicateWin(t *testing.T) {
	ctx := context.Background()
	r := newSQLiteRemote(t)

	win := models.Transaction{ID: "w1", PlayerID: "A", GameID: "g1", Amount: decimal.NewFromInt(100), Type: models.TypeWin, Timestamp: 5}
	require.NoError(t, r.UpsertTransaction(ctx, win))

	dup := win
	dup.ID = "w2"
	err := r.UpsertTransaction(ctx, dup)
	assert.True(t, errors.Is(err, ErrAlreadyProcessed))

	found, err := r.FindWin(ctx, "g1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "w1", found.ID)

	require.NoError(t, r.UpsertTransaction(ctx, models.Transaction{
		ID: "r1", PlayerID: "A", Amount: decimal.NewFromInt(-100), Type: models.TypeAdjustment, Description: models.ReversalOf("w1"), Timestamp: 6,
	}))
	found, err = r.FindWin(ctx, "g1")
	require.NoError(t, err)
	assert.Nil(t, found)

	none, err := r.FindWin(ctx, "g404")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestRemoteStore_DeleteGame(t *testing.T) {
	ctx := context.Background()
	r := newSQLiteRemote(t)

	require.NoError(t, r.UpsertGame(ctx, models.Game{ID: "g1", Status: models.StatusActive}))
	require.NoError(t, r.UpsertTransaction(ctx, models.Transaction{ID: "t1", GameID: "g1", Type: models.TypeBet}))
	require.NoError(t, r.UpsertTransaction(ctx, models.Transaction{ID: "t2", GameID: "g2", Type: models.TypeBet}))

	require.NoError(t, r.DeleteGame(ctx, "g1"))

	games, _ := r.ListGames(ctx)
	assert.Empty(t, games)
	txs, _ := r.ListTransactions(ctx)
	require.Len(t, txs, 1)
	assert.Equal(t, "t2", txs[0].ID)
}

func TestRemoteStore_ErrorClassification(t *testing.T) {
	t.Run("connectivity failure is unavailable", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectQuery("SELECT \\* FROM `games`").
			WillReturnError(&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")})

		_, err := NewRemoteStore(db).ListGames(context.Background())
		assert.True(t, errors.Is(err, ErrUnavailable))
		assert.False(t, errors.Is(err, ErrRejected))
	})

	t.Run("constraint violation is rejected", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `players`").WillReturnError(errors.New("Error 1264: Out of range value for column 'balance'"))
		mock.ExpectRollback()

		err := NewRemoteStore(db).AdjustPlayer(context.Background(), PlayerDelta{PlayerID: "A", Balance: decimal.NewFromInt(1)})
		assert.True(t, errors.Is(err, ErrRejected))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"deadline", context.DeadlineExceeded, ErrUnavailable},
		{"reset message", errors.New("read tcp: connection reset by peer"), ErrUnavailable},
		{"record not found", gorm.ErrRecordNotFound, ErrNotFound},
		{"already processed", ErrAlreadyProcessed, ErrAlreadyProcessed},
		{"syntax", errors.New("syntax error at or near"), ErrRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(classify(tt.err), tt.want))
		})
	}
	assert.NoError(t, classify(nil))
}
