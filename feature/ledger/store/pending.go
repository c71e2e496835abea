package store

import (
	"party-ledger/feature/ledger/models"
)

// EntityType groups pending entries; a failed replay blocks the rest of its type.
type EntityType string

const (
	EntityGame        EntityType = "game"
	EntityTransaction EntityType = "transaction"
	EntityPlayer      EntityType = "player"
)

// Operation is the mutation a pending entry replays.
type Operation string

const (
	OpUpsert Operation = "upsert"
	OpDelete Operation = "delete"
	OpRelink Operation = "relink"
	OpAdjust Operation = "adjust"
)

// EntryState tracks a pending entry through replay.
type EntryState string

const (
	StateQueued     EntryState = "queued"
	StateAttempting EntryState = "attempting"
	StateApplied    EntryState = "applied"
)

// Game fields tracked by pending markers.
const (
	FieldName      = "name"
	FieldType      = "type"
	FieldStatus    = "status"
	FieldStartTime = "startTime"
	FieldEndTime   = "endTime"
	FieldPlayers   = "players"
	FieldTotalPot  = "totalPot"
	FieldWinner    = "winner"
)

// AllGameFields lists every overlayable game field.
var AllGameFields = []string{
	FieldName, FieldType, FieldStatus, FieldStartTime,
	FieldEndTime, FieldPlayers, FieldTotalPot, FieldWinner,
}

// PendingEntry is a mutation accepted locally and not yet acknowledged by the
// remote tier.
type PendingEntry struct {
	ID        string     `json:"id"`
	Entity    EntityType `json:"entity"`
	Op        Operation  `json:"op"`
	EntityID  string     `json:"entityId"`
	Fields    []string   `json:"fields,omitempty"`
	State     EntryState `json:"state"`
	Attempts  int        `json:"attempts"`
	LastError string     `json:"lastError,omitempty"`
	CreatedAt int64      `json:"createdAt"`
	UpdatedAt int64      `json:"updatedAt"`

	Game        *models.Game        `json:"game,omitempty"`
	Transaction *models.Transaction `json:"transaction,omitempty"`
	Player      *models.Player      `json:"player,omitempty"`
	Delta       *PlayerDelta        `json:"delta,omitempty"`
	Link        *Link               `json:"link,omitempty"`
}

// Markers answers which parts of the ledger have unacknowledged local writes.
type Markers struct {
	gameFields   map[string]map[string]struct{}
	deletedGames map[string]struct{}
	players      map[string]struct{}
	transactions map[string]struct{}
}

// BuildMarkers derives markers from the pending queue. Applied entries are ignored.
func BuildMarkers(entries []PendingEntry) Markers {
	m := Markers{
		gameFields:   make(map[string]map[string]struct{}),
		deletedGames: make(map[string]struct{}),
		players:      make(map[string]struct{}),
		transactions: make(map[string]struct{}),
	}
	for _, e := range entries {
		if e.State == StateApplied {
			continue
		}
		switch {
		case e.Entity == EntityGame && e.Op == OpDelete:
			m.deletedGames[e.EntityID] = struct{}{}
		case e.Entity == EntityGame && e.Op == OpUpsert:
			fields := e.Fields
			if len(fields) == 0 {
				fields = AllGameFields
			}
			set, ok := m.gameFields[e.EntityID]
			if !ok {
				set = make(map[string]struct{})
				m.gameFields[e.EntityID] = set
			}
			for _, f := range fields {
				set[f] = struct{}{}
			}
		case e.Entity == EntityPlayer:
			m.players[e.EntityID] = struct{}{}
		case e.Entity == EntityTransaction:
			m.transactions[e.EntityID] = struct{}{}
		}
	}
	return m
}

// FieldPending reports whether field of gameID has a pending local write.
func (m Markers) FieldPending(gameID, field string) bool {
	_, ok := m.gameFields[gameID][field]
	return ok
}

// GamePending reports whether gameID has any pending field write.
func (m Markers) GamePending(gameID string) bool {
	return len(m.gameFields[gameID]) > 0
}

// GameFields returns the pending fields of gameID in AllGameFields order.
func (m Markers) GameFields(gameID string) []string {
	set := m.gameFields[gameID]
	if len(set) == 0 {
		return nil
	}
	fields := make([]string, 0, len(set))
	for _, f := range AllGameFields {
		if _, ok := set[f]; ok {
			fields = append(fields, f)
		}
	}
	return fields
}

// GameDeleted reports whether gameID has a pending delete.
func (m Markers) GameDeleted(gameID string) bool {
	_, ok := m.deletedGames[gameID]
	return ok
}

// PlayerPending reports whether playerID has pending writes or adjustments.
func (m Markers) PlayerPending(playerID string) bool {
	_, ok := m.players[playerID]
	return ok
}

// TransactionPending reports whether the transaction has a pending write.
func (m Markers) TransactionPending(txID string) bool {
	_, ok := m.transactions[txID]
	return ok
}

// ChangedGameFields lists the fields that differ between prev and next.
// A nil prev means every field is new.
func ChangedGameFields(prev *models.Game, next models.Game) []string {
	if prev == nil {
		return AllGameFields
	}
	var fields []string
	if prev.Name != next.Name {
		fields = append(fields, FieldName)
	}
	if prev.Type != next.Type {
		fields = append(fields, FieldType)
	}
	if prev.Status != next.Status {
		fields = append(fields, FieldStatus)
	}
	if prev.StartTime != next.StartTime {
		fields = append(fields, FieldStartTime)
	}
	if !sameEnd(prev.EndTime, next.EndTime) {
		fields = append(fields, FieldEndTime)
	}
	if !samePlayers(prev.Players, next.Players) {
		fields = append(fields, FieldPlayers)
	}
	if !prev.TotalPot.Equal(next.TotalPot) {
		fields = append(fields, FieldTotalPot)
	}
	if prev.Winner != next.Winner {
		fields = append(fields, FieldWinner)
	}
	return fields
}

// OverlayGame copies the given fields from local onto remote.
func OverlayGame(remote, local models.Game, fields []string) models.Game {
	out := remote.Clone()
	src := local.Clone()
	for _, f := range fields {
		switch f {
		case FieldName:
			out.Name = src.Name
		case FieldType:
			out.Type = src.Type
		case FieldStatus:
			out.Status = src.Status
		case FieldStartTime:
			out.StartTime = src.StartTime
		case FieldEndTime:
			out.EndTime = src.EndTime
		case FieldPlayers:
			out.Players = src.Players
		case FieldTotalPot:
			out.TotalPot = src.TotalPot
		case FieldWinner:
			out.Winner = src.Winner
		}
	}
	return out
}

func sameEnd(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func samePlayers(a, b []models.PlayerEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Name != b[i].Name || !a[i].Bet.Equal(b[i].Bet) {
			return false
		}
	}
	return true
}
