package store

import (
	"errors"
	"testing"

	"party-ledger/core/kv"
	"party-ledger/feature/ledger/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocal() *LocalStore {
	return NewLocalStore(kv.NewMemory())
}

func TestLocalStore_EmptyCollections(t *testing.T) {
	s := newLocal()

	games, err := s.Games()
	require.NoError(t, err)
	assert.Empty(t, games)

	pending, err := s.Pending()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestLocalStore_CorruptDocument(t *testing.T) {
	store := kv.NewMemory()
	require.NoError(t, store.Set(keyGames, "{not json"))

	_, err := NewLocalStore(store).Games()
	assert.Error(t, err)
}

func TestLocalStore_UpsertGames(t *testing.T) {
	s := newLocal()

	require.NoError(t, s.UpsertGames([]models.Game{{ID: "g1", Name: "Poker"}, {ID: "g2"}}))
	require.NoError(t, s.UpsertGames([]models.Game{{ID: "g1", Name: "Holdem"}}))

	games, err := s.Games()
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, "Holdem", games[0].Name)

	g, err := s.Game("g2")
	require.NoError(t, err)
	require.NotNil(t, g)
	missing, err := s.Game("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestLocalStore_UpsertTransaction(t *testing.T) {
	s := newLocal()
	bet := models.Transaction{ID: "t1", PlayerID: "A", Amount: decimal.NewFromInt(-50), Type: models.TypeBet}

	require.NoError(t, s.UpsertTransaction(bet))
	require.NoError(t, s.UpsertTransaction(models.Transaction{ID: "t1", GameID: "g1", GameName: "Poker", Amount: decimal.NewFromInt(1)}))

	txs, err := s.Transactions()
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "g1", txs[0].GameID)
	assert.True(t, txs[0].Amount.Equal(decimal.NewFromInt(-50)))
}

func TestLocalStore_DuplicateWin(t *testing.T) {
	s := newLocal()
	win := models.Transaction{ID: "w1", PlayerID: "A", GameID: "g1", Amount: decimal.NewFromInt(100), Type: models.TypeWin}

	require.NoError(t, s.UpsertTransaction(win))
	// same id is a merge, not a duplicate
	require.NoError(t, s.UpsertTransaction(win))

	second := win
	second.ID = "w2"
	err := s.UpsertTransaction(second)
	assert.True(t, errors.Is(err, ErrAlreadyProcessed))

	require.NoError(t, s.UpsertTransaction(models.Transaction{
		ID: "r1", PlayerID: "A", Amount: decimal.NewFromInt(-100), Type: models.TypeAdjustment, Description: models.ReversalOf("w1"),
	}))
	require.NoError(t, s.UpsertTransaction(second))

	found, err := s.FindWin("g1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "w2", found.ID)
}

func TestLocalStore_Relink(t *testing.T) {
	s := newLocal()
	require.NoError(t, s.UpsertTransaction(models.Transaction{ID: "t1", GameID: "gone", Type: models.TypeBet}))

	require.NoError(t, s.Relink(Link{TransactionID: "t1", GameID: "g1", GameName: "Poker"}))
	txs, _ := s.Transactions()
	assert.Equal(t, "g1", txs[0].GameID)

	err := s.Relink(Link{TransactionID: "t9", GameID: "g1"})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLocalStore_DeleteGame(t *testing.T) {
	s := newLocal()
	require.NoError(t, s.UpsertGames([]models.Game{{ID: "g1"}, {ID: "g2"}}))
	require.NoError(t, s.UpsertTransactions([]models.Transaction{
		{ID: "t1", GameID: "g1", Type: models.TypeBet},
		{ID: "t2", GameID: "g2", Type: models.TypeBet},
	}))

	require.NoError(t, s.DeleteGame("g1"))

	games, _ := s.Games()
	require.Len(t, games, 1)
	assert.Equal(t, "g2", games[0].ID)
	txs, _ := s.Transactions()
	require.Len(t, txs, 1)
	assert.Equal(t, "t2", txs[0].ID)
}

func TestLocalStore_AdjustPlayer(t *testing.T) {
	s := newLocal()
	require.NoError(t, s.UpsertPlayers([]models.Player{{ID: "A", Balance: decimal.NewFromInt(300)}}))

	require.NoError(t, s.AdjustPlayer(PlayerDelta{PlayerID: "A", Balance: decimal.NewFromInt(-50), GamesPlayed: 1}))
	players, _ := s.Players()
	assert.True(t, players[0].Balance.Equal(decimal.NewFromInt(250)))
	assert.Equal(t, 1, players[0].GamesPlayed)

	err := s.AdjustPlayer(PlayerDelta{PlayerID: "Z"})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLocalStore_UpdatePending(t *testing.T) {
	s := newLocal()

	require.NoError(t, s.UpdatePending(func(entries []PendingEntry) ([]PendingEntry, error) {
		return append(entries, PendingEntry{ID: "e1", Entity: EntityGame, Op: OpUpsert, EntityID: "g1", State: StateQueued}), nil
	}))
	err := s.UpdatePending(func(entries []PendingEntry) ([]PendingEntry, error) {
		return nil, errors.New("boom")
	})
	assert.Error(t, err)

	entries, err := s.Pending()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "e1", entries[0].ID)
}

func TestLocalStore_WriteSnapshot(t *testing.T) {
	s := newLocal()
	require.NoError(t, s.UpsertGames([]models.Game{{ID: "old"}}))
	require.NoError(t, s.UpdatePending(func(entries []PendingEntry) ([]PendingEntry, error) {
		return []PendingEntry{{ID: "e1"}}, nil
	}))

	require.NoError(t, s.WriteSnapshot(
		[]models.Game{{ID: "g1"}},
		[]models.Transaction{{ID: "t1"}},
		[]models.Player{{ID: "A"}},
	))

	games, _ := s.Games()
	require.Len(t, games, 1)
	assert.Equal(t, "g1", games[0].ID)
	pending, _ := s.Pending()
	assert.Len(t, pending, 1)
}
