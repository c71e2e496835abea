// Package storetest provides an in-memory remote tier for tests.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"party-ledger/feature/ledger/models"
	"party-ledger/feature/ledger/store"
)

// Remote is an in-memory store.Remote whose availability can be toggled.
type Remote struct {
	mu       sync.Mutex
	games    map[string]models.Game
	players  map[string]models.Player
	adjusted map[string]struct{}
	txs      []models.Transaction
	down     bool
	reject   int
	allow    int
	writes   int
}

// NewRemote creates an empty, reachable Remote.
func NewRemote() *Remote {
	return &Remote{
		games:    make(map[string]models.Game),
		players:  make(map[string]models.Player),
		adjusted: make(map[string]struct{}),
	}
}

// SetDown makes every call fail with store.ErrUnavailable while down is true.
func (r *Remote) SetDown(down bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.down = down
}

// RejectWrites makes the next n writes fail with store.ErrRejected.
func (r *Remote) RejectWrites(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reject = n
	r.allow = 0
}

// RejectAfter lets the next skip writes through, then rejects n writes.
func (r *Remote) RejectAfter(skip, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.allow = skip
	r.reject = n
}

// Writes returns the number of accepted writes.
func (r *Remote) Writes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes
}

// Seed stores records directly, bypassing availability toggles.
func (r *Remote) Seed(games []models.Game, txs []models.Transaction, players []models.Player) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range games {
		r.games[g.ID] = g.Clone()
	}
	r.txs = append(r.txs, txs...)
	for _, p := range players {
		r.players[p.ID] = p
	}
}

func (r *Remote) check() error {
	if r.down {
		return fmt.Errorf("%w: remote down", store.ErrUnavailable)
	}
	return nil
}

func (r *Remote) checkWrite() error {
	if err := r.check(); err != nil {
		return err
	}
	if r.reject > 0 && r.allow > 0 {
		r.allow--
	} else if r.reject > 0 {
		r.reject--
		return fmt.Errorf("%w: payload refused", store.ErrRejected)
	}
	r.writes++
	return nil
}

func (r *Remote) Ping(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.check()
}

func (r *Remote) ListGames(ctx context.Context) ([]models.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(); err != nil {
		return nil, err
	}
	games := make([]models.Game, 0, len(r.games))
	for _, g := range r.games {
		games = append(games, g.Clone())
	}
	sort.Slice(games, func(i, j int) bool { return games[i].ID < games[j].ID })
	return games, nil
}

func (r *Remote) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(); err != nil {
		return nil, err
	}
	return append([]models.Transaction(nil), r.txs...), nil
}

func (r *Remote) ListPlayers(ctx context.Context) ([]models.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(); err != nil {
		return nil, err
	}
	players := make([]models.Player, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
	return players, nil
}

func (r *Remote) UpsertGame(ctx context.Context, game models.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkWrite(); err != nil {
		return err
	}
	r.games[game.ID] = game.Clone()
	return nil
}

func (r *Remote) UpsertTransaction(ctx context.Context, tx models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(); err != nil {
		return err
	}
	for i := range r.txs {
		if r.txs[i].ID == tx.ID {
			r.txs[i], _ = models.MergeTransaction(r.txs[i], tx)
			return nil
		}
	}
	if tx.Type == models.TypeWin {
		for _, w := range models.ActiveWins(r.txs, tx.GameID) {
			if w.PlayerID == tx.PlayerID {
				return fmt.Errorf("win for %s: %w", tx.PlayerID, store.ErrAlreadyProcessed)
			}
		}
	}
	if err := r.checkWrite(); err != nil {
		return err
	}
	r.txs = append(r.txs, tx)
	return nil
}

func (r *Remote) UpsertPlayer(ctx context.Context, player models.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkWrite(); err != nil {
		return err
	}
	r.players[player.ID] = player
	return nil
}

func (r *Remote) Relink(ctx context.Context, link store.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkWrite(); err != nil {
		return err
	}
	for i := range r.txs {
		if r.txs[i].ID == link.TransactionID {
			r.txs[i].GameID = link.GameID
			r.txs[i].GameName = link.GameName
			return nil
		}
	}
	return fmt.Errorf("transaction %s: %w", link.TransactionID, store.ErrNotFound)
}

func (r *Remote) DeleteGame(ctx context.Context, gameID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkWrite(); err != nil {
		return err
	}
	delete(r.games, gameID)
	kept := r.txs[:0]
	for _, tx := range r.txs {
		if tx.GameID != gameID {
			kept = append(kept, tx)
		}
	}
	r.txs = kept
	return nil
}

func (r *Remote) AdjustPlayer(ctx context.Context, delta store.PlayerDelta) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkWrite(); err != nil {
		return err
	}
	if _, ok := r.adjusted[delta.Key]; ok && delta.Key != "" {
		return fmt.Errorf("adjustment %s: %w", delta.Key, store.ErrAlreadyProcessed)
	}
	p, ok := r.players[delta.PlayerID]
	if !ok {
		return fmt.Errorf("player %s: %w", delta.PlayerID, store.ErrNotFound)
	}
	if delta.Key != "" {
		r.adjusted[delta.Key] = struct{}{}
	}
	p.Balance = p.Balance.Add(delta.Balance)
	p.GamesPlayed += delta.GamesPlayed
	p.GamesWon += delta.GamesWon
	r.players[delta.PlayerID] = p
	return nil
}

func (r *Remote) FindWin(ctx context.Context, gameID string) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(); err != nil {
		return nil, err
	}
	wins := models.ActiveWins(r.txs, gameID)
	if len(wins) == 0 {
		return nil, nil
	}
	w := wins[0]
	return &w, nil
}

var _ store.Remote = (*Remote)(nil)
