package reconcile

import (
	"sort"
	"time"

	"party-ledger/feature/ledger/models"
)

// Issue kinds surfaced to callers.
const (
	IssueAmbiguous    = "ambiguous"
	IssueInconsistent = "inconsistent"
)

// Issue is a condition that needs human judgment.
type Issue struct {
	Kind       string   `json:"kind"`
	Entity     string   `json:"entity"`
	ID         string   `json:"id"`
	Detail     string   `json:"detail"`
	Candidates []string `json:"candidates,omitempty"`
}

// Report describes what a pass did. It is not part of the serialized view.
type Report struct {
	Repaired    int
	Synthesized int
	DriftSynced int
	Unresolved  int
	RemoteError string
	Duration    time.Duration
	CompletedAt time.Time
}

// LedgerView is the canonical merged ledger. Two passes without mutations
// in between marshal to identical bytes.
type LedgerView struct {
	Games         []models.Game        `json:"games"`
	Transactions  []models.Transaction `json:"transactions"`
	Players       []models.Player      `json:"players"`
	Degraded      bool                 `json:"degraded"`
	PendingWrites int                  `json:"pendingWrites"`
	Issues        []Issue              `json:"issues"`

	Report Report `json:"-"`
}

// Game returns the game with id.
func (v *LedgerView) Game(id string) (models.Game, bool) {
	for _, g := range v.Games {
		if g.ID == id {
			return g, true
		}
	}
	return models.Game{}, false
}

// Player returns the player with id.
func (v *LedgerView) Player(id string) (models.Player, bool) {
	for _, p := range v.Players {
		if p.ID == id {
			return p, true
		}
	}
	return models.Player{}, false
}

func (v *LedgerView) sort() {
	sort.Slice(v.Games, func(i, j int) bool { return v.Games[i].ID < v.Games[j].ID })
	sort.Slice(v.Transactions, func(i, j int) bool {
		a, b := v.Transactions[i], v.Transactions[j]
		if a.Timestamp != b.Timestamp {
			return a.Timestamp < b.Timestamp
		}
		return a.ID < b.ID
	})
	sort.Slice(v.Players, func(i, j int) bool { return v.Players[i].ID < v.Players[j].ID })
	sort.Slice(v.Issues, func(i, j int) bool {
		a, b := v.Issues[i], v.Issues[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		return a.Detail < b.Detail
	})
	if v.Games == nil {
		v.Games = []models.Game{}
	}
	if v.Transactions == nil {
		v.Transactions = []models.Transaction{}
	}
	if v.Players == nil {
		v.Players = []models.Player{}
	}
	if v.Issues == nil {
		v.Issues = []Issue{}
	}
}
