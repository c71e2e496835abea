package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"party-ledger/feature/ledger/models"
	"party-ledger/feature/ledger/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// derivedID is a stable id for a transaction that must never be written
// twice, however often its operation is retried or replayed.
func derivedID(parts ...string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(strings.Join(parts, ":"))).String()
}

// CreateGame starts a game, charging every player their bet.
func (g *Gateway) CreateGame(ctx context.Context, in CreateGameInput) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if in.StartTime == 0 {
		in.StartTime = g.nowMillis()
	}

	existing, err := g.findGame(ctx, in.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return Result{}, err
	}
	if existing != nil {
		return g.processed(in.ID)
	}

	game := models.Game{
		ID:        in.ID,
		Name:      in.Name,
		Type:      in.Type,
		Status:    models.StatusActive,
		StartTime: in.StartTime,
	}
	for _, p := range in.Players {
		game.Players = append(game.Players, models.PlayerEntry{ID: p.ID, Name: models.NormalizeName(p.Name), Bet: p.Bet.Abs()})
	}
	game.TotalPot = game.BetTotal()

	writes := []write{gameWrite(game, store.AllGameFields)}
	for _, p := range game.Players {
		betID := derivedID(game.ID, "bet", p.ID)
		if p.Bet.IsPositive() {
			writes = append(writes, txWrite(models.Transaction{
				ID:         betID,
				PlayerID:   p.ID,
				PlayerName: p.Name,
				GameID:     game.ID,
				GameName:   game.Name,
				Amount:     p.Bet.Neg(),
				Type:       models.TypeBet,
				Timestamp:  game.StartTime,
			}))
		}
		writes = append(writes, adjustWrite(betID, store.PlayerDelta{PlayerID: p.ID, Balance: p.Bet.Neg(), GamesPlayed: 1}))
	}
	return g.apply(ctx, game.ID, writes)
}

// EndGame finishes an active game. A game that already has a win, or that
// is no longer active, is reported as already processed.
func (g *Gateway) EndGame(ctx context.Context, in EndGameInput) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}
	game, err := g.findGame(ctx, in.GameID)
	if err != nil {
		return Result{}, err
	}
	win, err := g.findWin(ctx, in.GameID)
	if err != nil {
		return Result{}, err
	}
	if win != nil || game.Status.Terminal() {
		return g.processed(game.ID)
	}

	next := game.Clone()
	next.EndTime = models.Int64Ptr(g.nowMillis())
	pot := game.Pot()
	var writes []write

	switch in.Method {
	case MethodCancel:
		next.Status = models.StatusCancelled
		for _, p := range game.Players {
			if !p.Bet.IsPositive() {
				continue
			}
			refundID := derivedID(game.ID, "refund", p.ID)
			writes = append(writes,
				txWrite(models.Transaction{
					ID:         refundID,
					PlayerID:   p.ID,
					PlayerName: p.Name,
					GameID:     game.ID,
					GameName:   game.Name,
					Amount:     p.Bet,
					Type:       models.TypeRefund,
					Timestamp:  *next.EndTime,
				}),
				adjustWrite(refundID, store.PlayerDelta{PlayerID: p.ID, Balance: p.Bet}),
			)
		}
	case MethodWinner, MethodForce:
		next.Status = models.StatusCompleted
		next.TotalPot = pot
		if in.WinnerID != "" {
			entry, ok := game.Player(in.WinnerID)
			if !ok {
				return Result{}, fmt.Errorf("%w: %s did not play in game %s", ErrInvalid, in.WinnerID, game.ID)
			}
			next.Winner = entry.ID
			winID := derivedID(game.ID, "win", entry.ID)
			writes = append(writes,
				txWrite(models.Transaction{
					ID:         winID,
					PlayerID:   entry.ID,
					PlayerName: entry.Name,
					GameID:     game.ID,
					GameName:   game.Name,
					Amount:     pot,
					Type:       models.TypeWin,
					Timestamp:  *next.EndTime,
				}),
				adjustWrite(winID, store.PlayerDelta{PlayerID: entry.ID, Balance: pot, GamesWon: 1}),
			)
		}
	}

	writes = append(writes, gameWrite(next, store.ChangedGameFields(game, next)))
	return g.apply(ctx, game.ID, writes)
}

// ChangeWinner moves the payout of a completed game to another player.
// The previous win is cancelled by a reversal adjustment, never deleted.
func (g *Gateway) ChangeWinner(ctx context.Context, in ChangeWinnerInput) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}
	game, err := g.findGame(ctx, in.GameID)
	if err != nil {
		return Result{}, err
	}
	if game.Status != models.StatusCompleted {
		return Result{}, fmt.Errorf("%w: game %s is %s", ErrInvalid, game.ID, game.Status)
	}
	entry, ok := game.Player(in.WinnerID)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s did not play in game %s", ErrInvalid, in.WinnerID, game.ID)
	}
	if game.Winner == entry.ID {
		return g.processed(game.ID)
	}

	prev, err := g.findWin(ctx, game.ID)
	if err != nil {
		return Result{}, err
	}
	now := g.nowMillis()
	amount := game.Pot()
	winID := derivedID(game.ID, "win", entry.ID)
	var writes []write

	if prev != nil {
		if prev.PlayerID == entry.ID {
			return g.processed(game.ID)
		}
		amount = prev.Amount
		winID = derivedID(game.ID, "win", entry.ID, prev.ID)
		reversalID := derivedID(prev.ID, "reversal")
		writes = append(writes,
			txWrite(models.Transaction{
				ID:          reversalID,
				PlayerID:    prev.PlayerID,
				PlayerName:  prev.PlayerName,
				GameID:      game.ID,
				GameName:    game.Name,
				Amount:      prev.Amount.Neg(),
				Type:        models.TypeAdjustment,
				Timestamp:   now,
				Description: models.ReversalOf(prev.ID),
			}),
			adjustWrite(reversalID, store.PlayerDelta{PlayerID: prev.PlayerID, Balance: prev.Amount.Neg(), GamesWon: -1}),
		)
	}

	writes = append(writes,
		txWrite(models.Transaction{
			ID:         winID,
			PlayerID:   entry.ID,
			PlayerName: entry.Name,
			GameID:     game.ID,
			GameName:   game.Name,
			Amount:     amount,
			Type:       models.TypeWin,
			Timestamp:  now,
		}),
		adjustWrite(winID, store.PlayerDelta{PlayerID: entry.ID, Balance: amount, GamesWon: 1}),
	)

	next := game.Clone()
	next.Winner = entry.ID
	writes = append(writes, gameWrite(next, store.ChangedGameFields(game, next)))
	return g.apply(ctx, game.ID, writes)
}

// RecordTransaction writes one standalone transaction and moves the
// player's balance by its amount.
func (g *Gateway) RecordTransaction(ctx context.Context, in TransactionInput) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}
	tx := models.Transaction{
		ID:          in.ID,
		PlayerID:    in.PlayerID,
		PlayerName:  models.NormalizeName(in.PlayerName),
		GameID:      in.GameID,
		GameName:    in.GameName,
		Amount:      signed(in.Type, in.Amount),
		Type:        in.Type,
		Timestamp:   in.Timestamp,
		Description: in.Description,
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.Timestamp == 0 {
		tx.Timestamp = g.nowMillis()
	}

	known, err := g.knownTransaction(ctx, tx.ID)
	if err != nil {
		return Result{}, err
	}
	if known {
		return g.processed(tx.ID)
	}

	delta := store.PlayerDelta{PlayerID: tx.PlayerID, Balance: tx.Amount}
	if tx.Type == models.TypeWin {
		delta.GamesWon = 1
	}
	return g.apply(ctx, tx.ID, []write{txWrite(tx), adjustWrite(tx.ID, delta)})
}

// signed applies the sign convention of each transaction type: bets take
// money away, wins and refunds give it back, adjustments keep their sign.
func signed(t models.TransactionType, amount decimal.Decimal) decimal.Decimal {
	switch t {
	case models.TypeBet:
		return amount.Abs().Neg()
	case models.TypeWin, models.TypeRefund:
		return amount.Abs()
	}
	return amount
}

// DeleteGame removes a game and its linked transactions. Balances follow
// on the next reconcile pass.
func (g *Gateway) DeleteGame(ctx context.Context, gameID string) (Result, error) {
	if strings.TrimSpace(gameID) == "" {
		return Result{}, fmt.Errorf("%w: game id is required", ErrInvalid)
	}
	return g.apply(ctx, gameID, []write{deleteWrite(gameID)})
}

// RegisterPlayer creates a player with an opening balance. Known players
// are left untouched.
func (g *Gateway) RegisterPlayer(ctx context.Context, in PlayerInput) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}
	known, err := g.knownPlayer(ctx, in.ID)
	if err != nil {
		return Result{}, err
	}
	if known {
		return g.processed(in.ID)
	}
	return g.apply(ctx, in.ID, []write{playerWrite(models.Player{
		ID:             in.ID,
		Name:           models.NormalizeName(in.Name),
		InitialBalance: in.InitialBalance,
		Balance:        in.InitialBalance,
	})})
}

func (g *Gateway) processed(entityID string) (Result, error) {
	count, err := g.PendingCount()
	if err != nil {
		return Result{}, err
	}
	return Result{EntityID: entityID, Tier: store.TierRemote, Path: PathNone, AlreadyProcessed: true, PendingCount: count}, nil
}

// findGame looks a game up in the local cache, then in the remote store
// when it is reachable.
func (g *Gateway) findGame(ctx context.Context, id string) (*models.Game, error) {
	local, err := g.ledger.Local().Game(id)
	if err != nil {
		return nil, err
	}
	if local != nil {
		return local, nil
	}
	games, err := g.ledger.ListGames(ctx, store.TierRemote)
	if err != nil && !errors.Is(err, store.ErrUnavailable) {
		return nil, err
	}
	for i := range games {
		if games[i].ID == id {
			return &games[i], nil
		}
	}
	return nil, fmt.Errorf("game %s: %w", id, store.ErrNotFound)
}

// findWin checks every reachable tier for an active win of gameID.
func (g *Gateway) findWin(ctx context.Context, gameID string) (*models.Transaction, error) {
	remote, err := g.ledger.FindWin(ctx, store.TierRemote, gameID)
	if err != nil && !errors.Is(err, store.ErrUnavailable) {
		return nil, err
	}
	if remote != nil {
		return remote, nil
	}
	return g.ledger.FindWin(ctx, store.TierLocal, gameID)
}

// knownTransaction looks for id in the local cache, then in the remote tier
// when it answers.
func (g *Gateway) knownTransaction(ctx context.Context, id string) (bool, error) {
	for _, tier := range []store.Tier{store.TierLocal, store.TierRemote} {
		txs, err := g.ledger.ListTransactions(ctx, tier)
		if errors.Is(err, store.ErrUnavailable) {
			continue
		}
		if err != nil {
			return false, err
		}
		for _, t := range txs {
			if t.ID == id {
				return true, nil
			}
		}
	}
	return false, nil
}

func (g *Gateway) knownPlayer(ctx context.Context, id string) (bool, error) {
	for _, tier := range []store.Tier{store.TierLocal, store.TierRemote} {
		players, err := g.ledger.ListPlayers(ctx, tier)
		if errors.Is(err, store.ErrUnavailable) {
			continue
		}
		if err != nil {
			return false, err
		}
		for _, p := range players {
			if p.ID == id {
				return true, nil
			}
		}
	}
	return false, nil
}
