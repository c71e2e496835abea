package store

import (
	"fmt"
	"sync"

	"party-ledger/core/kv"
	"party-ledger/feature/ledger/models"

	"github.com/goccy/go-json"
)

const (
	keyGames        = "ledger:games"
	keyTransactions = "ledger:transactions"
	keyPlayers      = "ledger:players"
	keyPending      = "ledger:pending"
)

// LocalStore is the local cache tier. Each collection is one JSON document in
// the underlying kv.Store. All mutations are serialized by a single mutex.
type LocalStore struct {
	mu sync.Mutex
	kv kv.Store
}

// NewLocalStore wraps a kv.Store.
func NewLocalStore(store kv.Store) *LocalStore {
	return &LocalStore{kv: store}
}

func loadList[T any](store kv.Store, key string) ([]T, error) {
	raw, ok, err := store.Get(key)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return items, nil
}

func saveList[T any](store kv.Store, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := store.Set(key, string(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Games returns the cached games.
func (s *LocalStore) Games() ([]models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return loadList[models.Game](s.kv, keyGames)
}

// Transactions returns the cached transactions.
func (s *LocalStore) Transactions() ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return loadList[models.Transaction](s.kv, keyTransactions)
}

// Players returns the cached players.
func (s *LocalStore) Players() ([]models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return loadList[models.Player](s.kv, keyPlayers)
}

// Game returns the cached game with id.
func (s *LocalStore) Game(id string) (*models.Game, error) {
	games, err := s.Games()
	if err != nil {
		return nil, err
	}
	for i := range games {
		if games[i].ID == id {
			g := games[i]
			return &g, nil
		}
	}
	return nil, nil
}

// UpsertGames replaces games by id, appending unknown ones.
func (s *LocalStore) UpsertGames(games []models.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := loadList[models.Game](s.kv, keyGames)
	if err != nil {
		return err
	}
	index := make(map[string]int, len(current))
	for i, g := range current {
		index[g.ID] = i
	}
	for _, g := range games {
		if i, ok := index[g.ID]; ok {
			current[i] = g
			continue
		}
		index[g.ID] = len(current)
		current = append(current, g)
	}
	return saveList(s.kv, keyGames, current)
}

// UpsertTransaction inserts tx or fills the empty fields of the cached copy.
// A second active win for the same player and game is refused with
// ErrAlreadyProcessed.
func (s *LocalStore) UpsertTransaction(tx models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := loadList[models.Transaction](s.kv, keyTransactions)
	if err != nil {
		return err
	}
	for i := range current {
		if current[i].ID == tx.ID {
			merged, changed := models.MergeTransaction(current[i], tx)
			if !changed {
				return nil
			}
			current[i] = merged
			return saveList(s.kv, keyTransactions, current)
		}
	}
	if tx.Type == models.TypeWin {
		for _, w := range models.ActiveWins(current, tx.GameID) {
			if w.PlayerID == tx.PlayerID {
				return fmt.Errorf("win for %s in game %s: %w", tx.PlayerID, tx.GameID, ErrAlreadyProcessed)
			}
		}
	}
	current = append(current, tx)
	return saveList(s.kv, keyTransactions, current)
}

// UpsertTransactions merges txs into the cache without the duplicate win check.
// It is used to write through an already reconciled view.
func (s *LocalStore) UpsertTransactions(txs []models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := loadList[models.Transaction](s.kv, keyTransactions)
	if err != nil {
		return err
	}
	index := make(map[string]int, len(current))
	for i, tx := range current {
		index[tx.ID] = i
	}
	for _, tx := range txs {
		if i, ok := index[tx.ID]; ok {
			current[i], _ = models.MergeTransaction(current[i], tx)
			continue
		}
		index[tx.ID] = len(current)
		current = append(current, tx)
	}
	return saveList(s.kv, keyTransactions, current)
}

// UpsertPlayers replaces players by id, appending unknown ones.
func (s *LocalStore) UpsertPlayers(players []models.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := loadList[models.Player](s.kv, keyPlayers)
	if err != nil {
		return err
	}
	index := make(map[string]int, len(current))
	for i, p := range current {
		index[p.ID] = i
	}
	for _, p := range players {
		if i, ok := index[p.ID]; ok {
			current[i] = p
			continue
		}
		index[p.ID] = len(current)
		current = append(current, p)
	}
	return saveList(s.kv, keyPlayers, current)
}

// Relink replaces the game reference of a cached transaction.
func (s *LocalStore) Relink(link Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := loadList[models.Transaction](s.kv, keyTransactions)
	if err != nil {
		return err
	}
	for i := range current {
		if current[i].ID == link.TransactionID {
			current[i].GameID = link.GameID
			current[i].GameName = link.GameName
			return saveList(s.kv, keyTransactions, current)
		}
	}
	return fmt.Errorf("transaction %s: %w", link.TransactionID, ErrNotFound)
}

// DeleteGame removes a cached game and the transactions linked to it.
func (s *LocalStore) DeleteGame(gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	games, err := loadList[models.Game](s.kv, keyGames)
	if err != nil {
		return err
	}
	txs, err := loadList[models.Transaction](s.kv, keyTransactions)
	if err != nil {
		return err
	}

	keptGames := games[:0]
	for _, g := range games {
		if g.ID != gameID {
			keptGames = append(keptGames, g)
		}
	}
	keptTxs := txs[:0]
	for _, tx := range txs {
		if tx.GameID != gameID {
			keptTxs = append(keptTxs, tx)
		}
	}

	if err := saveList(s.kv, keyGames, keptGames); err != nil {
		return err
	}
	return saveList(s.kv, keyTransactions, keptTxs)
}

// AdjustPlayer applies delta to a cached player.
func (s *LocalStore) AdjustPlayer(delta PlayerDelta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	players, err := loadList[models.Player](s.kv, keyPlayers)
	if err != nil {
		return err
	}
	for i := range players {
		if players[i].ID != delta.PlayerID {
			continue
		}
		players[i].Balance = players[i].Balance.Add(delta.Balance)
		players[i].GamesPlayed += delta.GamesPlayed
		players[i].GamesWon += delta.GamesWon
		return saveList(s.kv, keyPlayers, players)
	}
	return fmt.Errorf("player %s: %w", delta.PlayerID, ErrNotFound)
}

// FindWin returns the first active win of gameID in the cache.
func (s *LocalStore) FindWin(gameID string) (*models.Transaction, error) {
	txs, err := s.Transactions()
	if err != nil {
		return nil, err
	}
	wins := models.ActiveWins(txs, gameID)
	if len(wins) == 0 {
		return nil, nil
	}
	w := wins[0]
	return &w, nil
}

// WriteSnapshot replaces the cached games, transactions and players with a
// reconciled view. The pending queue is left untouched.
func (s *LocalStore) WriteSnapshot(games []models.Game, txs []models.Transaction, players []models.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := saveList(s.kv, keyGames, games); err != nil {
		return err
	}
	if err := saveList(s.kv, keyTransactions, txs); err != nil {
		return err
	}
	return saveList(s.kv, keyPlayers, players)
}

// Pending returns the durable pending-write queue in FIFO order.
func (s *LocalStore) Pending() ([]PendingEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return loadList[PendingEntry](s.kv, keyPending)
}

// UpdatePending atomically rewrites the pending queue.
func (s *LocalStore) UpdatePending(fn func([]PendingEntry) ([]PendingEntry, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := loadList[PendingEntry](s.kv, keyPending)
	if err != nil {
		return err
	}
	next, err := fn(entries)
	if err != nil {
		return err
	}
	return saveList(s.kv, keyPending, next)
}
