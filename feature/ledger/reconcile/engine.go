package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"party-ledger/core/events"
	"party-ledger/feature/ledger/linkage"
	"party-ledger/feature/ledger/models"
	"party-ledger/feature/ledger/store"
	"party-ledger/feature/ledger/synth"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Engine merges both tiers into the canonical LedgerView. It is the only
// writer of the merged view.
type Engine struct {
	ledger   *store.Ledger
	repairer *linkage.Repairer
	logger   *zap.Logger
	bus      *events.Bus

	sf   singleflight.Group
	mu   sync.RWMutex
	last *LedgerView
}

// NewEngine creates an Engine.
func NewEngine(ledger *store.Ledger, repairer *linkage.Repairer, logger *zap.Logger) *Engine {
	if repairer == nil {
		repairer = linkage.New(linkage.DefaultWindow)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{ledger: ledger, repairer: repairer, logger: logger}
}

// SetBus makes the engine publish ledger.changed after every pass.
func (e *Engine) SetBus(bus *events.Bus) {
	e.bus = bus
}

// Last returns the view of the most recent completed pass, or nil.
func (e *Engine) Last() *LedgerView {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.last
}

// Reconcile runs one pass. Calls arriving while a pass is in flight wait for
// it and share its result. Remote failures only mark the view degraded; an
// error is returned only when the local tier itself cannot be read or written.
func (e *Engine) Reconcile(ctx context.Context) (*LedgerView, error) {
	v, err, shared := e.sf.Do("reconcile", func() (interface{}, error) {
		return e.run(ctx)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		e.logger.Debug("Reconcile pass coalesced")
	}
	return v.(*LedgerView), nil
}

// Watch re-runs Reconcile for every data.changed event until ctx is done.
func (e *Engine) Watch(ctx context.Context, bus *events.Bus) {
	ch, unsubscribe := bus.Subscribe(events.TopicDataChanged)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			// Drop notifications already queued; one pass covers them all
			drain(ch)
			if _, err := e.Reconcile(ctx); err != nil {
				e.logger.Error("Reconcile after data change failed", zap.String("source", ev.Source), zap.Error(err))
			}
		}
	}
}

func drain(ch <-chan events.Event) {
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

type snapshot struct {
	localGames    []models.Game
	localTxs      []models.Transaction
	localPlayers  []models.Player
	pending       []store.PendingEntry
	remoteGames   []models.Game
	remoteTxs     []models.Transaction
	remotePlayers []models.Player
	remoteErr     error
}

func (e *Engine) load(ctx context.Context) (*snapshot, error) {
	s := &snapshot{}
	local := e.ledger.Local()

	var g errgroup.Group
	g.Go(func() (err error) {
		s.localGames, err = local.Games()
		return err
	})
	g.Go(func() (err error) {
		s.localTxs, err = local.Transactions()
		return err
	})
	g.Go(func() (err error) {
		s.localPlayers, err = local.Players()
		return err
	})
	g.Go(func() (err error) {
		s.pending, err = local.Pending()
		return err
	})

	// Remote failures never fail the group
	var remote errgroup.Group
	remote.Go(func() (err error) {
		s.remoteGames, err = e.ledger.ListGames(ctx, store.TierRemote)
		return err
	})
	remote.Go(func() (err error) {
		s.remoteTxs, err = e.ledger.ListTransactions(ctx, store.TierRemote)
		return err
	})
	remote.Go(func() (err error) {
		s.remotePlayers, err = e.ledger.ListPlayers(ctx, store.TierRemote)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load local tier: %w", err)
	}
	s.remoteErr = remote.Wait()
	return s, nil
}

func (e *Engine) run(ctx context.Context) (*LedgerView, error) {
	start := time.Now()

	snap, err := e.load(ctx)
	if err != nil {
		return nil, err
	}

	view := &LedgerView{}
	online := snap.remoteErr == nil
	if !online {
		view.Degraded = true
		view.Report.RemoteError = snap.remoteErr.Error()
		e.logger.Warn("Remote tier unavailable, reconciling from local cache", zap.Error(snap.remoteErr))
	}

	markers := store.BuildMarkers(snap.pending)
	for _, entry := range snap.pending {
		if entry.State != store.StateApplied {
			view.PendingWrites++
		}
	}

	games, previousSynthetic := mergeGames(snap, markers, online)
	txs, carried := mergeTransactions(snap, markers, online)

	// Linkage repair over the union. Earlier reconstructions keep their
	// transactions; they are never link targets.
	reserved := make([]string, 0, len(previousSynthetic))
	for id := range previousSynthetic {
		reserved = append(reserved, id)
	}
	repair := e.repairer.Repair(txs, games, reserved...)
	txs = repair.Transactions
	view.Report.Repaired = len(repair.Repaired)
	view.Report.Unresolved = len(repair.Unresolved)
	if online {
		// links repaired while offline only ever reached the local tier
		for _, link := range append(carried, repair.Repaired...) {
			if err := e.ledger.Relink(ctx, store.TierRemote, link); err != nil {
				e.logger.Warn("Failed to persist repaired link", zap.String("transaction", link.TransactionID), zap.Error(err))
			}
		}
	}
	for _, u := range repair.Unresolved {
		if u.Reason == linkage.ReasonAmbiguous {
			view.Issues = append(view.Issues, Issue{
				Kind:       IssueAmbiguous,
				Entity:     string(store.EntityTransaction),
				ID:         u.TransactionID,
				Detail:     "transaction matches more than one completed game",
				Candidates: u.Candidates,
			})
		}
	}

	// Synthesis for every referenced game no tier holds
	known := make(map[string]struct{}, len(games))
	for _, g := range games {
		known[g.ID] = struct{}{}
	}
	for _, g := range synth.SynthesizeAll(txs, known) {
		if prev, ok := previousSynthetic[g.ID]; ok {
			g = synth.Merge(prev, g)
		}
		games = append(games, g)
		view.Report.Synthesized++
	}

	view.Issues = append(view.Issues, checkWins(games, txs)...)
	ambiguous := make(map[string]struct{})
	for _, issue := range view.Issues {
		ambiguous[issue.ID] = struct{}{}
	}
	view.Issues = append(view.Issues, checkOrphans(txs, ambiguous)...)

	players := mergePlayers(snap, markers, online, txs)
	recomputeBalances(players, txs)
	if online {
		view.Report.DriftSynced, view.Issues = e.syncDrift(ctx, snap.remotePlayers, players, markers, view.Issues)
	}

	view.Games = games
	view.Transactions = txs
	view.Players = players
	view.sort()

	if err := e.ledger.Local().WriteSnapshot(view.Games, view.Transactions, view.Players); err != nil {
		return nil, fmt.Errorf("failed to write local snapshot: %w", err)
	}

	for _, issue := range view.Issues {
		e.logger.Warn("Ledger issue", zap.String("kind", issue.Kind), zap.String("entity", issue.Entity),
			zap.String("id", issue.ID), zap.String("detail", issue.Detail))
	}

	view.Report.Duration = time.Since(start)
	view.Report.CompletedAt = time.Now()
	e.logger.Info("Reconcile pass completed",
		zap.Bool("degraded", view.Degraded),
		zap.Int("games", len(view.Games)),
		zap.Int("transactions", len(view.Transactions)),
		zap.Int("repaired", view.Report.Repaired),
		zap.Int("synthesized", view.Report.Synthesized),
		zap.Int("pending", view.PendingWrites),
		zap.Duration("duration", view.Report.Duration),
	)

	e.mu.Lock()
	e.last = view
	e.mu.Unlock()

	if e.bus != nil {
		e.bus.Publish(events.TopicLedgerChanged, events.NewEvent("reconcile", ""))
	}
	return view, nil
}

// mergeGames unions genuine games by id. Remote wins except for fields with a
// pending local write. Local-only games survive only while offline or while
// they have pending writes. Previously synthesized games are returned
// separately so synthesis can build on them.
func mergeGames(snap *snapshot, markers store.Markers, online bool) ([]models.Game, map[string]models.Game) {
	previous := make(map[string]models.Game)
	local := make(map[string]models.Game)
	for _, g := range snap.localGames {
		if g.Synthetic {
			previous[g.ID] = g
			continue
		}
		local[g.ID] = g
	}

	merged := make(map[string]models.Game)
	if online {
		for _, g := range snap.remoteGames {
			if l, ok := local[g.ID]; ok && markers.GamePending(g.ID) {
				g = store.OverlayGame(g, l, markers.GameFields(g.ID))
			}
			merged[g.ID] = g
		}
	}
	for id, g := range local {
		if _, ok := merged[id]; ok {
			continue
		}
		if online && !markers.GamePending(id) {
			continue
		}
		merged[id] = g
	}

	games := make([]models.Game, 0, len(merged))
	for id, g := range merged {
		if markers.GameDeleted(id) {
			continue
		}
		// a genuine record always replaces an earlier reconstruction
		delete(previous, id)
		games = append(games, g)
	}
	return games, previous
}

// mergeTransactions unions transactions by id, filling empty remote fields from
// the local copy. Transactions of games with a pending delete are dropped. The
// returned links are remote transactions that are unlinked while the local copy
// is linked and no pending write will carry the link.
func mergeTransactions(snap *snapshot, markers store.Markers, online bool) ([]models.Transaction, []store.Link) {
	var carried []store.Link
	merged := make(map[string]models.Transaction)
	order := make([]string, 0, len(snap.remoteTxs)+len(snap.localTxs))

	if online {
		for _, tx := range snap.remoteTxs {
			if _, ok := merged[tx.ID]; !ok {
				order = append(order, tx.ID)
			}
			merged[tx.ID] = tx
		}
	}
	for _, tx := range snap.localTxs {
		if existing, ok := merged[tx.ID]; ok {
			m, _ := models.MergeTransaction(existing, tx)
			merged[tx.ID] = m
			if !existing.Linked() && m.Linked() && !markers.TransactionPending(tx.ID) && !markers.GameDeleted(m.GameID) {
				carried = append(carried, store.Link{TransactionID: tx.ID, GameID: m.GameID, GameName: m.GameName})
			}
			continue
		}
		if online && !markers.TransactionPending(tx.ID) {
			continue
		}
		merged[tx.ID] = tx
		order = append(order, tx.ID)
	}

	txs := make([]models.Transaction, 0, len(order))
	for _, id := range order {
		tx := merged[id]
		if tx.Linked() && markers.GameDeleted(tx.GameID) {
			continue
		}
		txs = append(txs, tx)
	}
	return txs, carried
}

// mergePlayers unions player records and adds a record for every player that
// only appears in transactions.
func mergePlayers(snap *snapshot, markers store.Markers, online bool, txs []models.Transaction) []models.Player {
	merged := make(map[string]models.Player)
	if online {
		for _, p := range snap.remotePlayers {
			merged[p.ID] = p
		}
	}
	for _, p := range snap.localPlayers {
		if _, ok := merged[p.ID]; ok {
			continue
		}
		if online && !markers.PlayerPending(p.ID) && !referenced(txs, p.ID) {
			continue
		}
		merged[p.ID] = p
	}
	for _, tx := range txs {
		if tx.PlayerID == "" {
			continue
		}
		if _, ok := merged[tx.PlayerID]; !ok {
			merged[tx.PlayerID] = models.Player{ID: tx.PlayerID, Name: tx.PlayerName}
		}
	}

	players := make([]models.Player, 0, len(merged))
	for _, p := range merged {
		players = append(players, p)
	}
	return players
}

func referenced(txs []models.Transaction, playerID string) bool {
	for _, tx := range txs {
		if tx.PlayerID == playerID {
			return true
		}
	}
	return false
}

// recomputeBalances sets balance = initialBalance + sum of the player's amounts.
func recomputeBalances(players []models.Player, txs []models.Transaction) {
	sums := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		sums[tx.PlayerID] = sums[tx.PlayerID].Add(tx.Amount)
	}
	for i := range players {
		players[i].Balance = players[i].InitialBalance.Add(sums[players[i].ID])
	}
}

// syncDrift corrects the remote balance column of players whose stored value
// differs from the recomputed one. Players with pending writes are skipped.
func (e *Engine) syncDrift(ctx context.Context, remote []models.Player, players []models.Player, markers store.Markers, issues []Issue) (int, []Issue) {
	stored := make(map[string]decimal.Decimal, len(remote))
	for _, p := range remote {
		stored[p.ID] = p.Balance
	}

	synced := 0
	for _, p := range players {
		current, ok := stored[p.ID]
		if !ok || current.Equal(p.Balance) || markers.PlayerPending(p.ID) {
			continue
		}
		delta := store.PlayerDelta{PlayerID: p.ID, Balance: p.Balance.Sub(current)}
		if err := e.ledger.AdjustPlayer(ctx, store.TierRemote, delta); err != nil {
			e.logger.Warn("Failed to sync balance drift", zap.String("player", p.ID), zap.Error(err))
			issues = append(issues, Issue{
				Kind:   IssueInconsistent,
				Entity: string(store.EntityPlayer),
				ID:     p.ID,
				Detail: fmt.Sprintf("stored balance %s differs from computed %s", current, p.Balance),
			})
			continue
		}
		synced++
	}
	return synced, issues
}

// checkWins reports games with more than one active win.
func checkWins(games []models.Game, txs []models.Transaction) []Issue {
	var issues []Issue
	for _, g := range games {
		wins := models.ActiveWins(txs, g.ID)
		if len(wins) <= 1 {
			continue
		}
		ids := make([]string, len(wins))
		for i, w := range wins {
			ids[i] = w.ID
		}
		issues = append(issues, Issue{
			Kind:       IssueInconsistent,
			Entity:     string(store.EntityGame),
			ID:         g.ID,
			Detail:     fmt.Sprintf("game has %d active wins", len(wins)),
			Candidates: ids,
		})
	}
	return issues
}

// checkOrphans reports game-bound transactions that still carry no game,
// except those already reported as ambiguous.
func checkOrphans(txs []models.Transaction, skip map[string]struct{}) []Issue {
	var issues []Issue
	for _, tx := range txs {
		if _, ok := skip[tx.ID]; ok {
			continue
		}
		if tx.Type.GameLinked() && !tx.Linked() {
			issues = append(issues, Issue{
				Kind:   IssueInconsistent,
				Entity: string(store.EntityTransaction),
				ID:     tx.ID,
				Detail: "transaction is not linked to any game",
			})
		}
	}
	return issues
}
