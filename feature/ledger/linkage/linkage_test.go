package linkage

import (
	"errors"
	"testing"
	"time"

	"party-ledger/feature/ledger/models"
	"party-ledger/feature/ledger/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completed(id string, end int64) models.Game {
	return models.Game{ID: id, Name: "Game " + id, Status: models.StatusCompleted, EndTime: models.Int64Ptr(end)}
}

func bet(id, gameID string, ts int64) models.Transaction {
	return models.Transaction{ID: id, PlayerID: "A", GameID: gameID, Type: models.TypeBet, Amount: decimal.NewFromInt(-50), Timestamp: ts}
}

func TestRepair_SingleMatch(t *testing.T) {
	r := New(0)
	txs := []models.Transaction{bet("t1", "", 100_000), bet("t2", models.InvalidGameID, 130_000)}
	games := []models.Game{completed("g1", 120_000), completed("g2", 500_000)}

	res := r.Repair(txs, games)

	require.Len(t, res.Repaired, 2)
	assert.Equal(t, store.Link{TransactionID: "t1", GameID: "g1", GameName: "Game g1"}, res.Repaired[0])
	assert.Equal(t, "g1", res.Transactions[1].GameID)
	assert.Empty(t, res.Unresolved)
	assert.Empty(t, txs[0].GameID, "input is not mutated")
}

func TestRepair_AmbiguousIsNotGuessed(t *testing.T) {
	r := New(time.Minute)
	txs := []models.Transaction{bet("t1", "", 100_000)}
	games := []models.Game{completed("g1", 70_000), completed("g2", 130_000)}

	res := r.Repair(txs, games)

	assert.Empty(t, res.Repaired)
	assert.Empty(t, res.Transactions[0].GameID)
	require.Len(t, res.Unresolved, 1)
	assert.Equal(t, ReasonAmbiguous, res.Unresolved[0].Reason)
	assert.Equal(t, []string{"g1", "g2"}, res.Unresolved[0].Candidates)
	assert.True(t, errors.Is(res.Unresolved[0].Err(), store.ErrAmbiguous))
}

func TestRepair_WindowIsStrict(t *testing.T) {
	r := New(time.Minute)
	res := r.Repair([]models.Transaction{bet("t1", "", 0)}, []models.Game{completed("g1", 60_000)})

	assert.Empty(t, res.Repaired)
	require.Len(t, res.Unresolved, 1)
	assert.Equal(t, ReasonNoMatch, res.Unresolved[0].Reason)
	assert.True(t, errors.Is(res.Unresolved[0].Err(), store.ErrNotFound))
}

func TestRepair_Candidates(t *testing.T) {
	r := New(time.Minute)
	active := models.Game{ID: "g3", Status: models.StatusActive, EndTime: models.Int64Ptr(100_000)}
	noEnd := models.Game{ID: "g4", Status: models.StatusCompleted}
	adjustment := models.Transaction{ID: "t3", Type: models.TypeAdjustment, Timestamp: 100_000}

	txs := []models.Transaction{
		bet("t1", "g1", 100_000),   // linked to a known game
		bet("t2", "lost", 100_000), // dangling reference
		adjustment,
	}
	res := r.Repair(txs, []models.Game{completed("g1", 100_000), active, noEnd})

	require.Len(t, res.Repaired, 1)
	assert.Equal(t, "t2", res.Repaired[0].TransactionID)
	assert.Equal(t, "g1", res.Repaired[0].GameID)
	assert.Empty(t, res.Transactions[2].GameID)
}

func TestRepair_Idempotent(t *testing.T) {
	r := New(time.Minute)
	games := []models.Game{completed("g1", 100_000), completed("g2", 300_000), completed("g3", 320_000)}
	txs := []models.Transaction{bet("t1", "", 90_000), bet("t2", "", 310_000)}

	first := r.Repair(txs, games)
	second := r.Repair(first.Transactions, games)

	assert.Len(t, first.Repaired, 1)
	assert.Empty(t, second.Repaired)
	assert.Equal(t, first.Transactions, second.Transactions)
	assert.Equal(t, first.Unresolved, second.Unresolved)
}

func TestRepair_ReservedIDsAreLeftAlone(t *testing.T) {
	r := New(time.Minute)
	txs := []models.Transaction{bet("t1", "lost", 100_000), bet("t2", "", 100_000)}

	res := r.Repair(txs, []models.Game{completed("g1", 110_000)}, "lost")

	require.Len(t, res.Repaired, 1)
	assert.Equal(t, "t2", res.Repaired[0].TransactionID)
	assert.Equal(t, "lost", res.Transactions[0].GameID)
}
