package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	TypeBet        TransactionType = "bet"
	TypeWin        TransactionType = "win"
	TypeRefund     TransactionType = "refund"
	TypeAdjustment TransactionType = "adjustment"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeBet, TypeWin, TypeRefund, TypeAdjustment:
		return true
	}
	return false
}

// GameLinked reports whether transactions of this type belong to a game.
func (t TransactionType) GameLinked() bool {
	return t == TypeBet || t == TypeWin || t == TypeRefund
}

// GameStatus is the lifecycle state of a game.
type GameStatus string

const (
	StatusActive    GameStatus = "active"
	StatusCompleted GameStatus = "completed"
	StatusCancelled GameStatus = "cancelled"
)

// Terminal reports whether no further lifecycle transition is allowed.
func (s GameStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

const (
	// InvalidGameID is the sentinel older clients wrote when a game id was unknown.
	InvalidGameID = "invalid"
	// ReconstructedType tags games rebuilt from transaction history.
	ReconstructedType = "Reconstructed"

	reversalPrefix = "reversal:"
)

// IsUnlinked reports whether gameID carries no usable game reference.
func IsUnlinked(gameID string) bool {
	return gameID == "" || gameID == InvalidGameID
}

// Transaction is one append-only ledger entry.
type Transaction struct {
	ID          string          `json:"id"`
	PlayerID    string          `json:"playerId"`
	PlayerName  string          `json:"playerName"`
	GameID      string          `json:"gameId,omitempty"`
	GameName    string          `json:"gameName,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"type"`
	Timestamp   int64           `json:"timestamp"`
	Description string          `json:"description,omitempty"`
}

// Linked reports whether the transaction carries a game reference.
func (t Transaction) Linked() bool {
	return !IsUnlinked(t.GameID)
}

// MergeTransaction fills the empty fields of existing from incoming.
// Amount, type and player never change once a transaction exists.
// It returns the merged transaction and whether anything was filled in.
func MergeTransaction(existing, incoming Transaction) (Transaction, bool) {
	merged := existing
	changed := false

	if !existing.Linked() && incoming.Linked() {
		merged.GameID = incoming.GameID
		changed = true
	}
	if merged.GameName == "" && incoming.GameName != "" && (merged.GameID == incoming.GameID) {
		merged.GameName = incoming.GameName
		changed = true
	}
	if merged.PlayerName == "" && incoming.PlayerName != "" {
		merged.PlayerName = incoming.PlayerName
		changed = true
	}
	if merged.Description == "" && incoming.Description != "" {
		merged.Description = incoming.Description
		changed = true
	}
	return merged, changed
}

// ReversalOf is the description carried by the adjustment that reverses txID.
func ReversalOf(txID string) string {
	return reversalPrefix + txID
}

// Reverses returns the id of the transaction this adjustment reverses.
func (t Transaction) Reverses() (string, bool) {
	if t.Type != TypeAdjustment || !strings.HasPrefix(t.Description, reversalPrefix) {
		return "", false
	}
	return strings.TrimPrefix(t.Description, reversalPrefix), true
}

// ActiveWins returns the win transactions of gameID that were not reversed,
// ordered as they appear in txs.
func ActiveWins(txs []Transaction, gameID string) []Transaction {
	reversed := make(map[string]struct{})
	for _, tx := range txs {
		if id, ok := tx.Reverses(); ok {
			reversed[id] = struct{}{}
		}
	}
	var wins []Transaction
	for _, tx := range txs {
		if tx.Type != TypeWin || tx.GameID != gameID {
			continue
		}
		if _, ok := reversed[tx.ID]; ok {
			continue
		}
		wins = append(wins, tx)
	}
	return wins
}

// PlayerEntry is a participant of a game with the amount they put in.
type PlayerEntry struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Bet  decimal.Decimal `json:"bet"`
}

// Game is a single round of play.
type Game struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Status    GameStatus      `json:"status"`
	StartTime int64           `json:"startTime"`
	EndTime   *int64          `json:"endTime,omitempty"`
	Players   []PlayerEntry   `json:"players"`
	TotalPot  decimal.Decimal `json:"totalPot"`
	Winner    string          `json:"winner,omitempty"`
	Synthetic bool            `json:"synthetic,omitempty"`
}

// BetTotal sums the bets of all players.
func (g Game) BetTotal() decimal.Decimal {
	total := decimal.Zero
	for _, p := range g.Players {
		total = total.Add(p.Bet)
	}
	return total
}

// Pot returns TotalPot, falling back to the bet total when no pot was recorded.
func (g Game) Pot() decimal.Decimal {
	if g.TotalPot.IsPositive() {
		return g.TotalPot
	}
	return g.BetTotal()
}

// Player returns the entry for id.
func (g Game) Player(id string) (PlayerEntry, bool) {
	for _, p := range g.Players {
		if p.ID == id {
			return p, true
		}
	}
	return PlayerEntry{}, false
}

// Clone returns a deep copy of g.
func (g Game) Clone() Game {
	c := g
	if g.EndTime != nil {
		end := *g.EndTime
		c.EndTime = &end
	}
	if g.Players != nil {
		c.Players = append([]PlayerEntry(nil), g.Players...)
	}
	return c
}

// Player holds a participant's running totals.
type Player struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
	Balance        decimal.Decimal `json:"balance"`
	GamesPlayed    int             `json:"gamesPlayed"`
	GamesWon       int             `json:"gamesWon"`
}

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 {
	return &v
}
