package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"party-ledger/core/events"
	"party-ledger/feature/ledger/models"
	"party-ledger/feature/ledger/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Path names the step of the write chain that accepted a mutation.
type Path string

const (
	PathTyped  Path = "typed"
	PathRaw    Path = "raw"
	PathQueued Path = "queued"
	PathNone   Path = "none"
)

// Result reports how a mutation was accepted.
type Result struct {
	EntityID         string     `json:"entityId,omitempty"`
	Tier             store.Tier `json:"tier"`
	Path             Path       `json:"path"`
	AlreadyProcessed bool       `json:"alreadyProcessed"`
	PendingCount     int        `json:"pendingCount"`
}

// Options tune the gateway.
type Options struct {
	// AttemptTimeout bounds every remote attempt during replay.
	AttemptTimeout time.Duration
	// ProbeInterval is how often Run checks connectivity.
	ProbeInterval time.Duration
	// Bus receives ledger.changed after accepted mutations. Optional.
	Bus *events.Bus
}

// Gateway performs every ledger mutation through the write chain:
// typed remote, raw remote after a rejection, then local write plus a
// durable pending entry.
type Gateway struct {
	ledger *store.Ledger
	raw    store.RawWriter
	logger *zap.Logger
	bus    *events.Bus

	attemptTimeout time.Duration
	probeInterval  time.Duration
	now            func() time.Time

	replayMu sync.Mutex
	notify   chan struct{}
}

// New creates a Gateway. raw may be nil when no raw endpoint is configured.
func New(ledger *store.Ledger, raw store.RawWriter, logger *zap.Logger, opts Options) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = 10 * time.Second
	}
	if opts.ProbeInterval <= 0 {
		opts.ProbeInterval = 30 * time.Second
	}
	return &Gateway{
		ledger:         ledger,
		raw:            raw,
		logger:         logger,
		bus:            opts.Bus,
		attemptTimeout: opts.AttemptTimeout,
		probeInterval:  opts.ProbeInterval,
		now:            time.Now,
		notify:         make(chan struct{}, 1),
	}
}

func (g *Gateway) nowMillis() int64 {
	return g.now().UnixMilli()
}

// write is one mutation of an operation, shaped like the pending entry it
// becomes when every remote path fails.
type write = store.PendingEntry

func gameWrite(game models.Game, fields []string) write {
	return write{Entity: store.EntityGame, Op: store.OpUpsert, EntityID: game.ID, Fields: fields, Game: &game}
}

func deleteWrite(gameID string) write {
	return write{Entity: store.EntityGame, Op: store.OpDelete, EntityID: gameID}
}

func txWrite(tx models.Transaction) write {
	return write{Entity: store.EntityTransaction, Op: store.OpUpsert, EntityID: tx.ID, Transaction: &tx}
}

// adjustWrite keys the delta by the transaction it accompanies so a replay
// never applies it twice.
func adjustWrite(key string, delta store.PlayerDelta) write {
	delta.Key = key
	return write{Entity: store.EntityPlayer, Op: store.OpAdjust, EntityID: delta.PlayerID, Delta: &delta}
}

func playerWrite(p models.Player) write {
	return write{Entity: store.EntityPlayer, Op: store.OpUpsert, EntityID: p.ID, Player: &p}
}

var pathRank = map[Path]int{PathNone: 0, PathTyped: 1, PathRaw: 2, PathQueued: 3}

// apply runs the write chain for every write of one operation, in order.
// A write refused as already processed stops the operation.
func (g *Gateway) apply(ctx context.Context, entityID string, writes []write) (Result, error) {
	res := Result{EntityID: entityID, Tier: store.TierRemote, Path: PathNone}

	pending, err := g.ledger.Local().Pending()
	if err != nil {
		return res, err
	}
	// Entity types with queued entries stay FIFO: new writes join the queue
	backlog := make(map[store.EntityType]bool)
	for _, e := range pending {
		if e.State != store.StateApplied {
			backlog[e.Entity] = true
		}
	}

	for _, w := range writes {
		path, err := g.applyOne(ctx, w, backlog[w.Entity])
		if errors.Is(err, store.ErrAlreadyProcessed) {
			res.AlreadyProcessed = true
			break
		}
		if err != nil {
			return res, err
		}
		if path == PathQueued {
			backlog[w.Entity] = true
		}
		if pathRank[path] > pathRank[res.Path] {
			res.Path = path
		}
	}

	if res.Path == PathQueued {
		res.Tier = store.TierLocal
	}
	res.PendingCount, err = g.PendingCount()
	if err != nil {
		return res, err
	}
	if res.Path != PathNone {
		g.publish(entityID)
	}
	return res, nil
}

func (g *Gateway) applyOne(ctx context.Context, w write, queueOnly bool) (Path, error) {
	log := g.logger.With(zap.String("entity", string(w.Entity)), zap.String("op", string(w.Op)), zap.String("id", w.EntityID))

	if !queueOnly {
		path, err := g.applyRemote(ctx, w)
		switch {
		case err == nil:
			if err := g.applyLocal(w); err != nil {
				return path, err
			}
			return path, nil
		case errors.Is(err, store.ErrAlreadyProcessed):
			return PathNone, err
		default:
			log.Warn("Remote write failed, queueing", zap.Error(err))
		}
	}

	if err := g.applyLocal(w); err != nil {
		return PathQueued, err
	}
	if err := g.enqueue(w); err != nil {
		return PathQueued, err
	}
	log.Info("Mutation queued for replay")
	return PathQueued, nil
}

// applyRemote tries the typed client, then the raw client when the typed
// write was refused for any reason other than connectivity.
func (g *Gateway) applyRemote(ctx context.Context, w write) (Path, error) {
	err := g.typed(ctx, w)
	if err == nil {
		return PathTyped, nil
	}
	if errors.Is(err, store.ErrAlreadyProcessed) || errors.Is(err, store.ErrUnavailable) || g.raw == nil {
		return PathTyped, err
	}

	g.logger.Warn("Typed write rejected, trying raw path",
		zap.String("entity", string(w.Entity)), zap.String("id", w.EntityID), zap.Error(err))
	if rawErr := g.rawWrite(ctx, w); rawErr != nil {
		return PathRaw, fmt.Errorf("raw write failed after %v: %w", err, rawErr)
	}
	return PathRaw, nil
}

func (g *Gateway) typed(ctx context.Context, w write) error {
	switch {
	case w.Entity == store.EntityGame && w.Op == store.OpUpsert:
		return g.ledger.UpsertGame(ctx, store.TierRemote, *w.Game)
	case w.Entity == store.EntityGame && w.Op == store.OpDelete:
		return g.ledger.DeleteGame(ctx, store.TierRemote, w.EntityID)
	case w.Entity == store.EntityTransaction && w.Op == store.OpUpsert:
		return g.ledger.UpsertTransaction(ctx, store.TierRemote, *w.Transaction)
	case w.Entity == store.EntityTransaction && w.Op == store.OpRelink:
		return g.ledger.Relink(ctx, store.TierRemote, *w.Link)
	case w.Entity == store.EntityPlayer && w.Op == store.OpAdjust:
		return g.ledger.AdjustPlayer(ctx, store.TierRemote, *w.Delta)
	case w.Entity == store.EntityPlayer && w.Op == store.OpUpsert:
		return g.ledger.UpsertPlayer(ctx, store.TierRemote, *w.Player)
	}
	return fmt.Errorf("unsupported write %s/%s", w.Entity, w.Op)
}

func (g *Gateway) rawWrite(ctx context.Context, w write) error {
	switch {
	case w.Entity == store.EntityGame && w.Op == store.OpUpsert:
		if len(w.Fields) > 0 && len(w.Fields) < len(store.AllGameFields) {
			return g.raw.Patch(ctx, "games", w.EntityID, store.RawGameFields(*w.Game, w.Fields))
		}
		return g.raw.Insert(ctx, "games", store.RawGame(*w.Game))
	case w.Entity == store.EntityGame && w.Op == store.OpDelete:
		return g.raw.RPC(ctx, store.DeleteGameProcedure, map[string]any{"game_id": w.EntityID})
	case w.Entity == store.EntityTransaction && w.Op == store.OpUpsert:
		return g.raw.Insert(ctx, "transactions", store.RawTransaction(*w.Transaction))
	case w.Entity == store.EntityTransaction && w.Op == store.OpRelink:
		return g.raw.Patch(ctx, "transactions", w.EntityID, map[string]any{"game_id": w.Link.GameID, "game_name": w.Link.GameName})
	case w.Entity == store.EntityPlayer && w.Op == store.OpAdjust:
		return g.raw.RPC(ctx, store.AdjustPlayerProcedure, store.RawAdjustArgs(*w.Delta))
	case w.Entity == store.EntityPlayer && w.Op == store.OpUpsert:
		return g.raw.Insert(ctx, "players", store.RawPlayer(*w.Player))
	}
	return fmt.Errorf("unsupported write %s/%s", w.Entity, w.Op)
}

// applyLocal mirrors an accepted or queued write into the local cache.
func (g *Gateway) applyLocal(w write) error {
	local := g.ledger.Local()
	var err error
	switch {
	case w.Entity == store.EntityGame && w.Op == store.OpUpsert:
		err = local.UpsertGames([]models.Game{*w.Game})
	case w.Entity == store.EntityGame && w.Op == store.OpDelete:
		err = local.DeleteGame(w.EntityID)
	case w.Entity == store.EntityTransaction && w.Op == store.OpUpsert:
		err = local.UpsertTransaction(*w.Transaction)
	case w.Entity == store.EntityTransaction && w.Op == store.OpRelink:
		err = local.Relink(*w.Link)
	case w.Entity == store.EntityPlayer && w.Op == store.OpAdjust:
		err = local.AdjustPlayer(*w.Delta)
	case w.Entity == store.EntityPlayer && w.Op == store.OpUpsert:
		err = local.UpsertPlayers([]models.Player{*w.Player})
	}
	// The cache may not hold the player or transaction yet; the next
	// reconcile pass rebuilds it
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

func (g *Gateway) enqueue(w write) error {
	now := g.nowMillis()
	w.ID = uuid.NewString()
	w.State = store.StateQueued
	w.CreatedAt = now
	w.UpdatedAt = now
	return g.ledger.Local().UpdatePending(func(entries []store.PendingEntry) ([]store.PendingEntry, error) {
		return append(entries, w), nil
	})
}

func (g *Gateway) publish(entityID string) {
	if g.bus != nil {
		g.bus.Publish(events.TopicLedgerChanged, events.NewEvent("gateway", entityID))
	}
}
