package store

import (
	"context"
	"fmt"

	"party-ledger/feature/ledger/models"

	"github.com/shopspring/decimal"
)

// Tier selects which copy of the ledger an operation reads or writes.
type Tier string

const (
	TierLocal  Tier = "local"
	TierRemote Tier = "remote"
)

// PlayerDelta is an atomic increment applied to a player's counters.
// A delta with a Key is applied at most once per tier.
type PlayerDelta struct {
	Key         string          `json:"key,omitempty"`
	PlayerID    string          `json:"playerId"`
	Balance     decimal.Decimal `json:"balance"`
	GamesPlayed int             `json:"gamesPlayed,omitempty"`
	GamesWon    int             `json:"gamesWon,omitempty"`
}

// Link is an explicit repair of a transaction's game reference.
type Link struct {
	TransactionID string `json:"transactionId"`
	GameID        string `json:"gameId"`
	GameName      string `json:"gameName"`
}

// Store reads and writes both tiers of the ledger.
type Store interface {
	ListGames(ctx context.Context, tier Tier) ([]models.Game, error)
	ListTransactions(ctx context.Context, tier Tier) ([]models.Transaction, error)
	ListPlayers(ctx context.Context, tier Tier) ([]models.Player, error)
	UpsertGame(ctx context.Context, tier Tier, game models.Game) error
	UpsertTransaction(ctx context.Context, tier Tier, tx models.Transaction) error
	UpsertPlayer(ctx context.Context, tier Tier, player models.Player) error
	// Relink is the only operation allowed to replace a non-empty gameId.
	Relink(ctx context.Context, tier Tier, link Link) error
	// DeleteGame removes a game together with its linked transactions.
	DeleteGame(ctx context.Context, tier Tier, gameID string) error
	AdjustPlayer(ctx context.Context, tier Tier, delta PlayerDelta) error
	// FindWin returns the active win of gameID, or nil when there is none.
	FindWin(ctx context.Context, tier Tier, gameID string) (*models.Transaction, error)
}

// Remote is the authoritative tier.
type Remote interface {
	Ping(ctx context.Context) error
	ListGames(ctx context.Context) ([]models.Game, error)
	ListTransactions(ctx context.Context) ([]models.Transaction, error)
	ListPlayers(ctx context.Context) ([]models.Player, error)
	UpsertGame(ctx context.Context, game models.Game) error
	UpsertTransaction(ctx context.Context, tx models.Transaction) error
	UpsertPlayer(ctx context.Context, player models.Player) error
	Relink(ctx context.Context, link Link) error
	DeleteGame(ctx context.Context, gameID string) error
	AdjustPlayer(ctx context.Context, delta PlayerDelta) error
	FindWin(ctx context.Context, gameID string) (*models.Transaction, error)
}

// Ledger dispatches Store calls to the local cache or the remote tier.
type Ledger struct {
	local  *LocalStore
	remote Remote
}

// NewLedger creates a Ledger. remote may be nil, in which case every remote
// call fails with ErrUnavailable.
func NewLedger(local *LocalStore, remote Remote) *Ledger {
	return &Ledger{local: local, remote: remote}
}

// Local returns the local tier.
func (l *Ledger) Local() *LocalStore {
	return l.local
}

// Ping checks that the remote tier answers.
func (l *Ledger) Ping(ctx context.Context) error {
	r, err := l.remoteTier()
	if err != nil {
		return err
	}
	return r.Ping(ctx)
}

func (l *Ledger) remoteTier() (Remote, error) {
	if l.remote == nil {
		return nil, fmt.Errorf("%w: no remote configured", ErrUnavailable)
	}
	return l.remote, nil
}

func (l *Ledger) ListGames(ctx context.Context, tier Tier) ([]models.Game, error) {
	if tier == TierLocal {
		return l.local.Games()
	}
	r, err := l.remoteTier()
	if err != nil {
		return nil, err
	}
	return r.ListGames(ctx)
}

func (l *Ledger) ListTransactions(ctx context.Context, tier Tier) ([]models.Transaction, error) {
	if tier == TierLocal {
		return l.local.Transactions()
	}
	r, err := l.remoteTier()
	if err != nil {
		return nil, err
	}
	return r.ListTransactions(ctx)
}

func (l *Ledger) ListPlayers(ctx context.Context, tier Tier) ([]models.Player, error) {
	if tier == TierLocal {
		return l.local.Players()
	}
	r, err := l.remoteTier()
	if err != nil {
		return nil, err
	}
	return r.ListPlayers(ctx)
}

func (l *Ledger) UpsertGame(ctx context.Context, tier Tier, game models.Game) error {
	if tier == TierLocal {
		return l.local.UpsertGames([]models.Game{game})
	}
	r, err := l.remoteTier()
	if err != nil {
		return err
	}
	return r.UpsertGame(ctx, game)
}

func (l *Ledger) UpsertTransaction(ctx context.Context, tier Tier, tx models.Transaction) error {
	if tier == TierLocal {
		return l.local.UpsertTransaction(tx)
	}
	r, err := l.remoteTier()
	if err != nil {
		return err
	}
	return r.UpsertTransaction(ctx, tx)
}

func (l *Ledger) UpsertPlayer(ctx context.Context, tier Tier, player models.Player) error {
	if tier == TierLocal {
		return l.local.UpsertPlayers([]models.Player{player})
	}
	r, err := l.remoteTier()
	if err != nil {
		return err
	}
	return r.UpsertPlayer(ctx, player)
}

func (l *Ledger) Relink(ctx context.Context, tier Tier, link Link) error {
	if tier == TierLocal {
		return l.local.Relink(link)
	}
	r, err := l.remoteTier()
	if err != nil {
		return err
	}
	return r.Relink(ctx, link)
}

func (l *Ledger) DeleteGame(ctx context.Context, tier Tier, gameID string) error {
	if tier == TierLocal {
		return l.local.DeleteGame(gameID)
	}
	r, err := l.remoteTier()
	if err != nil {
		return err
	}
	return r.DeleteGame(ctx, gameID)
}

func (l *Ledger) AdjustPlayer(ctx context.Context, tier Tier, delta PlayerDelta) error {
	if tier == TierLocal {
		return l.local.AdjustPlayer(delta)
	}
	r, err := l.remoteTier()
	if err != nil {
		return err
	}
	return r.AdjustPlayer(ctx, delta)
}

func (l *Ledger) FindWin(ctx context.Context, tier Tier, gameID string) (*models.Transaction, error) {
	if tier == TierLocal {
		return l.local.FindWin(gameID)
	}
	r, err := l.remoteTier()
	if err != nil {
		return nil, err
	}
	return r.FindWin(ctx, gameID)
}
