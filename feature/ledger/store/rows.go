package store

import (
	"time"

	"party-ledger/feature/ledger/models"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type gameRow struct {
	ID        string          `gorm:"column:id;primaryKey;size:64"`
	Name      string          `gorm:"column:name;size:255"`
	Type      string          `gorm:"column:type;size:64"`
	Status    string          `gorm:"column:status;size:20;not null"`
	StartTime int64           `gorm:"column:start_time"`
	EndTime   *int64          `gorm:"column:end_time"`
	Players   datatypes.JSON  `gorm:"column:players"`
	TotalPot  decimal.Decimal `gorm:"column:total_pot;type:numeric(20,2)"`
	Winner    string          `gorm:"column:winner;size:64"`
	UpdatedAt time.Time       `gorm:"column:updated_at"`
}

func (gameRow) TableName() string { return "games" }

type playerRow struct {
	ID             string          `gorm:"column:id;primaryKey;size:64"`
	Name           string          `gorm:"column:name;size:255"`
	InitialBalance decimal.Decimal `gorm:"column:initial_balance;type:numeric(20,2)"`
	Balance        decimal.Decimal `gorm:"column:balance;type:numeric(20,2)"`
	GamesPlayed    int             `gorm:"column:games_played"`
	GamesWon       int             `gorm:"column:games_won"`
	UpdatedAt      time.Time       `gorm:"column:updated_at"`
}

func (playerRow) TableName() string { return "players" }

type transactionRow struct {
	ID          string          `gorm:"column:id;primaryKey;size:64"`
	PlayerID    string          `gorm:"column:player_id;size:64;index"`
	PlayerName  string          `gorm:"column:player_name;size:255"`
	GameID      string          `gorm:"column:game_id;size:64;index"`
	GameName    string          `gorm:"column:game_name;size:255"`
	Amount      decimal.Decimal `gorm:"column:amount;type:numeric(20,2)"`
	Type        string          `gorm:"column:type;size:20"`
	Timestamp   int64           `gorm:"column:timestamp"`
	Description string          `gorm:"column:description;size:255"`
}

func (transactionRow) TableName() string { return "transactions" }

// adjustmentRow records keyed player deltas already applied remotely.
type adjustmentRow struct {
	ID        string    `gorm:"column:id;primaryKey;size:128"`
	PlayerID  string    `gorm:"column:player_id;size:64"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (adjustmentRow) TableName() string { return "player_adjustments" }

// columns expected by the remote schema check
var (
	gameColumns        = []string{"id", "name", "type", "status", "start_time", "end_time", "players", "total_pot", "winner"}
	playerColumns      = []string{"id", "name", "initial_balance", "balance", "games_played", "games_won"}
	transactionColumns = []string{"id", "player_id", "player_name", "game_id", "game_name", "amount", "type", "timestamp", "description"}
	adjustmentColumns  = []string{"id", "player_id"}
)

func toGameRow(g models.Game) (gameRow, error) {
	players := g.Players
	if players == nil {
		players = []models.PlayerEntry{}
	}
	data, err := json.Marshal(players)
	if err != nil {
		return gameRow{}, err
	}
	return gameRow{
		ID:        g.ID,
		Name:      g.Name,
		Type:      g.Type,
		Status:    string(g.Status),
		StartTime: g.StartTime,
		EndTime:   g.EndTime,
		Players:   datatypes.JSON(data),
		TotalPot:  g.TotalPot,
		Winner:    g.Winner,
	}, nil
}

func (r gameRow) toModel() (models.Game, error) {
	players, err := models.DecodePlayersJSON(r.Players)
	if err != nil {
		return models.Game{}, err
	}
	status := models.GameStatus(r.Status)
	if status == "" {
		status = models.StatusActive
	}
	return models.Game{
		ID:        r.ID,
		Name:      r.Name,
		Type:      r.Type,
		Status:    status,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		Players:   players,
		TotalPot:  r.TotalPot,
		Winner:    r.Winner,
	}, nil
}

func toPlayerRow(p models.Player) playerRow {
	return playerRow{
		ID:             p.ID,
		Name:           models.NormalizeName(p.Name),
		InitialBalance: p.InitialBalance,
		Balance:        p.Balance,
		GamesPlayed:    p.GamesPlayed,
		GamesWon:       p.GamesWon,
	}
}

func (r playerRow) toModel() models.Player {
	return models.Player{
		ID:             r.ID,
		Name:           models.NormalizeName(r.Name),
		InitialBalance: r.InitialBalance,
		Balance:        r.Balance,
		GamesPlayed:    r.GamesPlayed,
		GamesWon:       r.GamesWon,
	}
}

func toTransactionRow(tx models.Transaction) transactionRow {
	return transactionRow{
		ID:          tx.ID,
		PlayerID:    tx.PlayerID,
		PlayerName:  models.NormalizeName(tx.PlayerName),
		GameID:      tx.GameID,
		GameName:    tx.GameName,
		Amount:      tx.Amount,
		Type:        string(tx.Type),
		Timestamp:   tx.Timestamp,
		Description: tx.Description,
	}
}

func (r transactionRow) toModel() models.Transaction {
	return models.Transaction{
		ID:          r.ID,
		PlayerID:    r.PlayerID,
		PlayerName:  models.NormalizeName(r.PlayerName),
		GameID:      r.GameID,
		GameName:    r.GameName,
		Amount:      r.Amount,
		Type:        models.TransactionType(r.Type),
		Timestamp:   r.Timestamp,
		Description: r.Description,
	}
}

// SchemaModels returns the row models of the remote tables, for schema
// inspection by reflection.
func SchemaModels() []any {
	return []any{gameRow{}, playerRow{}, transactionRow{}, adjustmentRow{}}
}
