package linkage

import (
	"fmt"
	"sort"
	"time"

	"party-ledger/feature/ledger/models"
	"party-ledger/feature/ledger/store"
)

// DefaultWindow is the maximum distance between a game's end and a
// transaction for the two to be linked.
const DefaultWindow = 60 * time.Second

// Reasons a transaction stays unlinked.
const (
	ReasonAmbiguous = "ambiguous"
	ReasonNoMatch   = "no_match"
)

// Unresolved is a transaction the repairer refused to link.
type Unresolved struct {
	TransactionID string   `json:"transactionId"`
	GameID        string   `json:"gameId,omitempty"`
	Reason        string   `json:"reason"`
	Candidates    []string `json:"candidates,omitempty"`
}

// Err maps the reason onto the store sentinels.
func (u Unresolved) Err() error {
	if u.Reason == ReasonAmbiguous {
		return fmt.Errorf("transaction %s matches %v: %w", u.TransactionID, u.Candidates, store.ErrAmbiguous)
	}
	return fmt.Errorf("transaction %s: %w", u.TransactionID, store.ErrNotFound)
}

// Result is the outcome of one repair pass.
type Result struct {
	// Transactions is the input with repaired links applied, in input order.
	Transactions []models.Transaction
	Repaired     []store.Link
	Unresolved   []Unresolved
}

// Repairer attaches orphaned transactions to the completed game whose end
// time is within the window.
type Repairer struct {
	window int64
}

// New creates a Repairer. A non-positive window falls back to DefaultWindow.
func New(window time.Duration) *Repairer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Repairer{window: window.Milliseconds()}
}

// NeedsRepair reports whether tx is a repair candidate given the ids of all
// known games.
func NeedsRepair(tx models.Transaction, known map[string]struct{}) bool {
	if !tx.Type.GameLinked() {
		return false
	}
	if !tx.Linked() {
		return true
	}
	_, ok := known[tx.GameID]
	return !ok
}

// Repair runs one pass over txs. games are the genuine games of every tier;
// only completed games with an end time are link targets. reserved names game
// ids that exist without being link targets, such as earlier reconstructions;
// transactions referencing them are left alone. The pass is pure: a
// transaction is linked only when exactly one game matches.
func (r *Repairer) Repair(txs []models.Transaction, games []models.Game, reserved ...string) Result {
	known := make(map[string]struct{}, len(games)+len(reserved))
	for _, id := range reserved {
		known[id] = struct{}{}
	}
	var targets []models.Game
	for _, g := range games {
		known[g.ID] = struct{}{}
		if g.Status == models.StatusCompleted && g.EndTime != nil {
			targets = append(targets, g)
		}
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].ID < targets[j].ID })

	res := Result{Transactions: make([]models.Transaction, len(txs))}
	copy(res.Transactions, txs)

	for i, tx := range res.Transactions {
		if !NeedsRepair(tx, known) {
			continue
		}

		var matches []models.Game
		for _, g := range targets {
			if abs(*g.EndTime-tx.Timestamp) < r.window {
				matches = append(matches, g)
			}
		}

		switch len(matches) {
		case 1:
			g := matches[0]
			res.Transactions[i].GameID = g.ID
			res.Transactions[i].GameName = g.Name
			res.Repaired = append(res.Repaired, store.Link{TransactionID: tx.ID, GameID: g.ID, GameName: g.Name})
		case 0:
			res.Unresolved = append(res.Unresolved, Unresolved{TransactionID: tx.ID, GameID: tx.GameID, Reason: ReasonNoMatch})
		default:
			ids := make([]string, len(matches))
			for j, g := range matches {
				ids[j] = g.ID
			}
			res.Unresolved = append(res.Unresolved, Unresolved{TransactionID: tx.ID, GameID: tx.GameID, Reason: ReasonAmbiguous, Candidates: ids})
		}
	}
	return res
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
