package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"party-ledger/core/database"
	"party-ledger/feature/ledger/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RemoteStore is the authoritative tier backed by a relational database.
// Every error it returns wraps ErrUnavailable, ErrRejected, ErrNotFound or
// ErrAlreadyProcessed.
type RemoteStore struct {
	db *gorm.DB
}

// NewRemoteStore creates a RemoteStore on db.
func NewRemoteStore(db *gorm.DB) *RemoteStore {
	return &RemoteStore{db: db}
}

// Migrate creates or updates the ledger tables.
func (r *RemoteStore) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&gameRow{}, &playerRow{}, &transactionRow{}, &adjustmentRow{}); err != nil {
		return classify(err)
	}
	return nil
}

// CheckSchema returns the expected columns missing from the remote tables,
// keyed by table name.
func (r *RemoteStore) CheckSchema() (map[string][]string, error) {
	tables := map[string][]string{
		"games":              gameColumns,
		"players":            playerColumns,
		"transactions":       transactionColumns,
		"player_adjustments": adjustmentColumns,
	}
	missing := make(map[string][]string)
	for table, columns := range tables {
		cols, err := database.MissingColumns(r.db, table, columns)
		if err != nil {
			return nil, classify(err)
		}
		if len(cols) > 0 {
			missing[table] = cols
		}
	}
	return missing, nil
}

func (r *RemoteStore) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return unavailable(err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return unavailable(err)
	}
	return nil
}

func (r *RemoteStore) ListGames(ctx context.Context) ([]models.Game, error) {
	var rows []gameRow
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	games := make([]models.Game, 0, len(rows))
	for _, row := range rows {
		g, err := row.toModel()
		if err != nil {
			return nil, fmt.Errorf("game %s: %w", row.ID, err)
		}
		games = append(games, g)
	}
	return games, nil
}

func (r *RemoteStore) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	var rows []transactionRow
	if err := r.db.WithContext(ctx).Order(byTimestamp).Order("id").Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	txs := make([]models.Transaction, 0, len(rows))
	for _, row := range rows {
		txs = append(txs, row.toModel())
	}
	return txs, nil
}

func (r *RemoteStore) ListPlayers(ctx context.Context) ([]models.Player, error) {
	var rows []playerRow
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	players := make([]models.Player, 0, len(rows))
	for _, row := range rows {
		players = append(players, row.toModel())
	}
	return players, nil
}

func (r *RemoteStore) UpsertGame(ctx context.Context, game models.Game) error {
	row, err := toGameRow(game)
	if err != nil {
		return rejected(err)
	}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
		Create(&row).Error
	return classify(err)
}

func (r *RemoteStore) UpsertPlayer(ctx context.Context, player models.Player) error {
	row := toPlayerRow(player)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
		Create(&row).Error
	return classify(err)
}

// UpsertTransaction inserts tx, or fills the empty fields of the stored row.
// A second active win for the same player and game fails with ErrAlreadyProcessed.
func (r *RemoteStore) UpsertTransaction(ctx context.Context, in models.Transaction) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []transactionRow
		if err := tx.Where("id = ?", in.ID).Limit(1).Find(&existing).Error; err != nil {
			return err
		}
		if len(existing) > 0 {
			merged, changed := models.MergeTransaction(existing[0].toModel(), in)
			if !changed {
				return nil
			}
			return tx.Model(&transactionRow{}).Where("id = ?", in.ID).Updates(map[string]any{
				"game_id":     merged.GameID,
				"game_name":   merged.GameName,
				"player_name": merged.PlayerName,
				"description": merged.Description,
			}).Error
		}

		if in.Type == models.TypeWin {
			wins, err := activeWins(tx, in.GameID)
			if err != nil {
				return err
			}
			for _, w := range wins {
				if w.PlayerID == in.PlayerID {
					return fmt.Errorf("win for %s in game %s: %w", in.PlayerID, in.GameID, ErrAlreadyProcessed)
				}
			}
		}

		row := toTransactionRow(in)
		return tx.Create(&row).Error
	})
	return classify(err)
}

func (r *RemoteStore) Relink(ctx context.Context, link Link) error {
	res := r.db.WithContext(ctx).Model(&transactionRow{}).
		Where("id = ?", link.TransactionID).
		Updates(map[string]any{"game_id": link.GameID, "game_name": link.GameName})
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("transaction %s: %w", link.TransactionID, ErrNotFound)
	}
	return nil
}

func (r *RemoteStore) DeleteGame(ctx context.Context, gameID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("game_id = ?", gameID).Delete(&transactionRow{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", gameID).Delete(&gameRow{}).Error
	})
	return classify(err)
}

// AdjustPlayer increments the player's counters in a single UPDATE so
// concurrent writers never lose an update. A keyed delta records its key in
// the same database transaction; a key seen before is ErrAlreadyProcessed.
func (r *RemoteStore) AdjustPlayer(ctx context.Context, delta PlayerDelta) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if delta.Key != "" {
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&adjustmentRow{ID: delta.Key, PlayerID: delta.PlayerID})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("adjustment %s: %w", delta.Key, ErrAlreadyProcessed)
			}
		}

		res := tx.Model(&playerRow{}).
			Where("id = ?", delta.PlayerID).
			Updates(map[string]any{
				"balance":      gorm.Expr("balance + ?", delta.Balance),
				"games_played": gorm.Expr("games_played + ?", delta.GamesPlayed),
				"games_won":    gorm.Expr("games_won + ?", delta.GamesWon),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("player %s: %w", delta.PlayerID, ErrNotFound)
		}
		return nil
	})
	return classify(err)
}

func (r *RemoteStore) FindWin(ctx context.Context, gameID string) (*models.Transaction, error) {
	wins, err := activeWins(r.db.WithContext(ctx), gameID)
	if err != nil {
		return nil, classify(err)
	}
	if len(wins) == 0 {
		return nil, nil
	}
	w := wins[0]
	return &w, nil
}

// timestamp is a type keyword in some dialects, so let gorm quote it
var byTimestamp = clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}}

func activeWins(db *gorm.DB, gameID string) ([]models.Transaction, error) {
	var winRows []transactionRow
	if err := db.Where("game_id = ? AND type = ?", gameID, string(models.TypeWin)).
		Order(byTimestamp).Order("id").Find(&winRows).Error; err != nil {
		return nil, err
	}
	if len(winRows) == 0 {
		return nil, nil
	}

	reversals := make([]string, 0, len(winRows))
	txs := make([]models.Transaction, 0, len(winRows))
	for _, row := range winRows {
		reversals = append(reversals, models.ReversalOf(row.ID))
		txs = append(txs, row.toModel())
	}

	var adjRows []transactionRow
	if err := db.Where("type = ? AND description IN ?", string(models.TypeAdjustment), reversals).
		Find(&adjRows).Error; err != nil {
		return nil, err
	}
	for _, row := range adjRows {
		txs = append(txs, row.toModel())
	}
	return models.ActiveWins(txs, gameID), nil
}

// classify maps a database error onto the store sentinels.
func classify(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrAlreadyProcessed), errors.Is(err, ErrNotFound),
		errors.Is(err, ErrUnavailable), errors.Is(err, ErrRejected):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case isConnectivity(err):
		return unavailable(err)
	default:
		return rejected(err)
	}
}

var connectivityMarkers = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"i/o timeout",
	"server closed",
	"failed to connect",
	"bad connection",
}

func isConnectivity(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range connectivityMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
