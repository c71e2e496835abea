package models

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionType_Valid(t *testing.T) {
	assert.True(t, TypeBet.Valid())
	assert.True(t, TypeAdjustment.Valid())
	assert.False(t, TransactionType("bonus").Valid())
	assert.True(t, TypeRefund.GameLinked())
	assert.False(t, TypeAdjustment.GameLinked())
}

func TestGameStatus_Terminal(t *testing.T) {
	assert.False(t, StatusActive.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCancelled.Terminal())
}

func TestTransaction_Linked(t *testing.T) {
	assert.False(t, Transaction{}.Linked())
	assert.False(t, Transaction{GameID: InvalidGameID}.Linked())
	assert.True(t, Transaction{GameID: "g1"}.Linked())
}

func TestMergeTransaction(t *testing.T) {
	existing := Transaction{ID: "t1", PlayerID: "A", Amount: decimal.NewFromInt(-50), Type: TypeBet, GameID: InvalidGameID}

	t.Run("fills empty fields", func(t *testing.T) {
		incoming := Transaction{ID: "t1", GameID: "g1", GameName: "Poker", PlayerName: "Ann", Description: "buy-in"}
		merged, changed := MergeTransaction(existing, incoming)
		assert.True(t, changed)
		assert.Equal(t, "g1", merged.GameID)
		assert.Equal(t, "Poker", merged.GameName)
		assert.Equal(t, "Ann", merged.PlayerName)
		assert.Equal(t, "buy-in", merged.Description)
	})

	t.Run("never changes amount type or player", func(t *testing.T) {
		incoming := Transaction{ID: "t1", PlayerID: "B", Amount: decimal.NewFromInt(999), Type: TypeWin}
		merged, changed := MergeTransaction(existing, incoming)
		assert.False(t, changed)
		assert.Equal(t, "A", merged.PlayerID)
		assert.True(t, merged.Amount.Equal(decimal.NewFromInt(-50)))
		assert.Equal(t, TypeBet, merged.Type)
	})

	t.Run("keeps an existing link", func(t *testing.T) {
		linked := existing
		linked.GameID = "g1"
		merged, changed := MergeTransaction(linked, Transaction{GameID: "g2", GameName: "Other"})
		assert.False(t, changed)
		assert.Equal(t, "g1", merged.GameID)
		assert.Empty(t, merged.GameName)
	})
}

func TestGame_PotAndClone(t *testing.T) {
	end := int64(10)
	g := Game{
		ID:      "g1",
		EndTime: &end,
		Players: []PlayerEntry{
			{ID: "A", Bet: decimal.NewFromInt(50)},
			{ID: "B", Bet: decimal.NewFromInt(50)},
		},
	}

	assert.True(t, g.Pot().Equal(decimal.NewFromInt(100)), "pot falls back to the bet total")
	g.TotalPot = decimal.NewFromInt(120)
	assert.True(t, g.Pot().Equal(decimal.NewFromInt(120)))

	c := g.Clone()
	c.Players[0].Bet = decimal.NewFromInt(1)
	*c.EndTime = 99
	assert.True(t, g.Players[0].Bet.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, int64(10), *g.EndTime)

	p, ok := g.Player("B")
	assert.True(t, ok)
	assert.Equal(t, "B", p.ID)
	_, ok = g.Player("Z")
	assert.False(t, ok)
}

func TestGame_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		players []PlayerEntry
		pot     string
	}{
		{
			name:    "array of objects",
			payload: `{"id":"g1","players":[{"id":"A","name":"Ann","bet":50},{"id":"B","name":"Bob","bet":"25.5"}],"totalPot":"75.5"}`,
			players: []PlayerEntry{
				{ID: "A", Name: "Ann", Bet: decimal.NewFromInt(50)},
				{ID: "B", Name: "Bob", Bet: decimal.RequireFromString("25.5")},
			},
			pot: "75.5",
		},
		{
			name:    "id keyed object",
			payload: `{"id":"g1","players":{"B":{"name":"Bob","bet":10},"A":{"name":"Ann","bet":"20"}},"totalPot":30}`,
			players: []PlayerEntry{
				{ID: "A", Name: "Ann", Bet: decimal.NewFromInt(20)},
				{ID: "B", Name: "Bob", Bet: decimal.NewFromInt(10)},
			},
			pot: "30",
		},
		{
			name:    "no players",
			payload: `{"id":"g1"}`,
			pot:     "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var g Game
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &g))
			assert.Equal(t, StatusActive, g.Status)
			require.Len(t, g.Players, len(tt.players))
			for i, want := range tt.players {
				assert.Equal(t, want.ID, g.Players[i].ID)
				assert.Equal(t, want.Name, g.Players[i].Name)
				assert.True(t, want.Bet.Equal(g.Players[i].Bet), "bet of %s", want.ID)
			}
			assert.Equal(t, tt.pot, g.TotalPot.String())
		})
	}
}

func TestGame_JSONRoundTripKeepsEndTime(t *testing.T) {
	g := Game{ID: "g1", Status: StatusCompleted, StartTime: 1, EndTime: Int64Ptr(2), Winner: "A"}
	data, err := json.Marshal(g)
	require.NoError(t, err)

	var back Game
	require.NoError(t, json.Unmarshal(data, &back))
	require.NotNil(t, back.EndTime)
	assert.Equal(t, int64(2), *back.EndTime)
	assert.Equal(t, "A", back.Winner)
}

func TestActiveWins(t *testing.T) {
	txs := []Transaction{
		{ID: "w1", PlayerID: "A", GameID: "g1", Type: TypeWin, Amount: decimal.NewFromInt(100)},
		{ID: "r1", PlayerID: "A", Type: TypeAdjustment, Amount: decimal.NewFromInt(-100), Description: ReversalOf("w1")},
		{ID: "w2", PlayerID: "B", GameID: "g1", Type: TypeWin, Amount: decimal.NewFromInt(100)},
		{ID: "w3", PlayerID: "B", GameID: "g2", Type: TypeWin, Amount: decimal.NewFromInt(10)},
	}

	wins := ActiveWins(txs, "g1")
	require.Len(t, wins, 1)
	assert.Equal(t, "w2", wins[0].ID)

	id, ok := txs[1].Reverses()
	assert.True(t, ok)
	assert.Equal(t, "w1", id)
	_, ok = txs[0].Reverses()
	assert.False(t, ok)
}
