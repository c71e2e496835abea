package synth

import (
	"sort"

	"party-ledger/feature/ledger/models"

	"github.com/shopspring/decimal"
)

// SynthesizeAll reconstructs a game for every linked gameId in txs that is not
// in known. Results are ordered by id.
func SynthesizeAll(txs []models.Transaction, known map[string]struct{}) []models.Game {
	groups := make(map[string][]models.Transaction)
	for _, tx := range txs {
		if !tx.Linked() {
			continue
		}
		if _, ok := known[tx.GameID]; ok {
			continue
		}
		groups[tx.GameID] = append(groups[tx.GameID], tx)
	}

	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	games := make([]models.Game, 0, len(ids))
	for _, id := range ids {
		games = append(games, Synthesize(id, groups[id], models.ActiveWins(txs, id)))
	}
	return games
}

// Synthesize builds a game from the transactions that reference gameID.
// wins are the active wins of the game; only the earliest is used.
func Synthesize(gameID string, group []models.Transaction, wins []models.Transaction) models.Game {
	ordered := append([]models.Transaction(nil), group...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Timestamp != ordered[j].Timestamp {
			return ordered[i].Timestamp < ordered[j].Timestamp
		}
		return ordered[i].ID < ordered[j].ID
	})

	g := models.Game{
		ID:        gameID,
		Type:      models.ReconstructedType,
		Status:    models.StatusActive,
		Synthetic: true,
	}

	var minTS, maxTS int64
	pos := make(map[string]int)
	for i, tx := range ordered {
		if i == 0 || tx.Timestamp < minTS {
			minTS = tx.Timestamp
		}
		if i == 0 || tx.Timestamp > maxTS {
			maxTS = tx.Timestamp
		}
		if g.Name == "" && tx.GameName != "" {
			g.Name = tx.GameName
		}
		if tx.Type != models.TypeBet {
			continue
		}
		entry := models.PlayerEntry{ID: tx.PlayerID, Name: models.NormalizeName(tx.PlayerName), Bet: tx.Amount.Abs()}
		if j, ok := pos[tx.PlayerID]; ok {
			if entry.Name == "" {
				entry.Name = g.Players[j].Name
			}
			g.Players[j] = entry
			continue
		}
		pos[tx.PlayerID] = len(g.Players)
		g.Players = append(g.Players, entry)
	}

	g.StartTime = minTS
	g.TotalPot = g.BetTotal()

	if len(wins) > 0 {
		sort.SliceStable(wins, func(i, j int) bool { return wins[i].Timestamp < wins[j].Timestamp })
		win := wins[0]
		g.Winner = win.PlayerID
		g.Status = models.StatusCompleted
		g.EndTime = models.Int64Ptr(win.Timestamp)
		if win.Amount.Abs().GreaterThan(g.TotalPot) {
			g.TotalPot = win.Amount.Abs()
		}
	} else {
		g.EndTime = models.Int64Ptr(maxTS)
	}
	return g
}

// Merge folds a fresh synthesis into a previous one. Facts already present
// in previous are never removed.
func Merge(previous, next models.Game) models.Game {
	out := previous.Clone()
	out.Synthetic = true
	out.Type = models.ReconstructedType

	if out.Name == "" {
		out.Name = next.Name
	}

	pos := make(map[string]int, len(out.Players))
	for i, p := range out.Players {
		pos[p.ID] = i
	}
	for _, p := range next.Players {
		i, ok := pos[p.ID]
		if !ok {
			pos[p.ID] = len(out.Players)
			out.Players = append(out.Players, p)
			continue
		}
		if p.Name != "" {
			out.Players[i].Name = p.Name
		}
		if !p.Bet.IsZero() {
			out.Players[i].Bet = p.Bet
		}
	}

	if out.StartTime == 0 || (next.StartTime != 0 && next.StartTime < out.StartTime) {
		out.StartTime = next.StartTime
	}
	out.TotalPot = decimal.Max(out.TotalPot, next.TotalPot, out.BetTotal())

	switch {
	case out.Status == models.StatusCompleted:
		// winner and end time already established
	case next.Status == models.StatusCompleted:
		out.Status = models.StatusCompleted
		out.Winner = next.Winner
		out.EndTime = cloneEnd(next.EndTime)
	default:
		if next.EndTime != nil && (out.EndTime == nil || *next.EndTime > *out.EndTime) {
			out.EndTime = cloneEnd(next.EndTime)
		}
	}
	return out
}

func cloneEnd(v *int64) *int64 {
	if v == nil {
		return nil
	}
	return models.Int64Ptr(*v)
}
