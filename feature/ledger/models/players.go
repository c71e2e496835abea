package models

import (
	"fmt"
	"sort"
	"strings"

	"party-ledger/core/utils"

	"github.com/goccy/go-json"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName trims and NFC-normalizes a display name so the same player
// typed on different devices compares equal.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// DecodePlayers normalizes the player shapes found in stored games into one
// ordered list. Accepted shapes:
//   - an array of {id, name, bet} objects (bet as number or string)
//   - an array of bare player ids
//   - an object keyed by player id whose values are {name, bet} objects or bare bets
//
// Entries are deduplicated by id; the last value wins and the first position is kept.
// Bets are stored as absolute values.
func DecodePlayers(v any) ([]PlayerEntry, error) {
	var entries []PlayerEntry

	switch shape := v.(type) {
	case nil:
		return nil, nil
	case []PlayerEntry:
		entries = append(entries, shape...)
	case []any:
		for i, item := range shape {
			entry, err := decodeEntry("", item)
			if err != nil {
				return nil, fmt.Errorf("players[%d]: %w", i, err)
			}
			entries = append(entries, entry)
		}
	case map[string]any:
		keys := make([]string, 0, len(shape))
		for k := range shape {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			entry, err := decodeEntry(k, shape[k])
			if err != nil {
				return nil, fmt.Errorf("players[%s]: %w", k, err)
			}
			entries = append(entries, entry)
		}
	default:
		return nil, fmt.Errorf("unsupported players shape %T", v)
	}

	return dedupePlayers(entries), nil
}

// DecodePlayersJSON decodes a raw JSON players column.
func DecodePlayersJSON(data []byte) ([]PlayerEntry, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("invalid players json: %w", err)
	}
	return DecodePlayers(v)
}

func decodeEntry(key string, item any) (PlayerEntry, error) {
	switch val := item.(type) {
	case map[string]any:
		id := utils.ToString(val["id"])
		if id == "" {
			id = key
		}
		if id == "" {
			return PlayerEntry{}, fmt.Errorf("player without id")
		}
		name := utils.ToString(val["name"])
		return PlayerEntry{ID: id, Name: NormalizeName(name), Bet: utils.ToDecimal(val["bet"]).Abs()}, nil
	case string:
		if key != "" {
			// id-keyed map with the name as value
			return PlayerEntry{ID: key, Name: NormalizeName(val)}, nil
		}
		return PlayerEntry{ID: val}, nil
	case float64, int, int64:
		if key == "" {
			return PlayerEntry{}, fmt.Errorf("bare bet without player id")
		}
		return PlayerEntry{ID: key, Bet: utils.ToDecimal(val).Abs()}, nil
	default:
		return PlayerEntry{}, fmt.Errorf("unsupported player entry %T", item)
	}
}

func dedupePlayers(entries []PlayerEntry) []PlayerEntry {
	if len(entries) == 0 {
		return nil
	}
	pos := make(map[string]int, len(entries))
	out := make([]PlayerEntry, 0, len(entries))
	for _, e := range entries {
		e.Name = NormalizeName(e.Name)
		e.Bet = e.Bet.Abs()
		if i, ok := pos[e.ID]; ok {
			if e.Name == "" {
				e.Name = out[i].Name
			}
			out[i] = e
			continue
		}
		pos[e.ID] = len(out)
		out = append(out, e)
	}
	return out
}

// gameJSON mirrors Game with a loosely typed players field.
type gameJSON struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Type      string     `json:"type"`
	Status    GameStatus `json:"status"`
	StartTime any        `json:"startTime"`
	EndTime   any        `json:"endTime"`
	Players   any        `json:"players"`
	TotalPot  any        `json:"totalPot"`
	Winner    string     `json:"winner"`
	Synthetic bool       `json:"synthetic"`
}

// UnmarshalJSON accepts every players shape DecodePlayers understands, and
// numbers or strings for times and the pot.
func (g *Game) UnmarshalJSON(data []byte) error {
	var raw gameJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	players, err := DecodePlayers(raw.Players)
	if err != nil {
		return fmt.Errorf("game %s: %w", raw.ID, err)
	}

	*g = Game{
		ID:        raw.ID,
		Name:      raw.Name,
		Type:      raw.Type,
		Status:    raw.Status,
		StartTime: utils.ToInt64(raw.StartTime),
		Players:   players,
		TotalPot:  utils.ToDecimal(raw.TotalPot),
		Winner:    raw.Winner,
		Synthetic: raw.Synthetic,
	}
	if raw.EndTime != nil {
		if end := utils.ToInt64(raw.EndTime); end > 0 {
			g.EndTime = &end
		}
	}
	if g.Status == "" {
		g.Status = StatusActive
	}
	return nil
}
