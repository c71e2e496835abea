package gateway

import (
	"errors"
	"fmt"
	"reflect"

	"party-ledger/feature/ledger/models"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ErrInvalid wraps every input validation failure.
var ErrInvalid = errors.New("invalid input")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Validate decimals through their float value so gte/ne tags apply
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

func check(what string, v interface{}) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalid, what, err)
	}
	return nil
}

// PlayerBet is one participant of a new game.
type PlayerBet struct {
	ID   string          `json:"id" validate:"required,max=64"`
	Name string          `json:"name" validate:"max=255"`
	Bet  decimal.Decimal `json:"bet" validate:"gte=0"`
}

// CreateGameInput describes a new game.
type CreateGameInput struct {
	ID        string      `json:"id" validate:"omitempty,max=64"`
	Name      string      `json:"name" validate:"required,max=255"`
	Type      string      `json:"type" validate:"max=64"`
	StartTime int64       `json:"startTime" validate:"gte=0"`
	Players   []PlayerBet `json:"players" validate:"required,min=1,dive"`
}

// Validate checks the input and rejects duplicate player ids.
func (in *CreateGameInput) Validate() error {
	if err := check("game", in); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(in.Players))
	for _, p := range in.Players {
		if _, ok := seen[p.ID]; ok {
			return fmt.Errorf("%w: player %s listed twice", ErrInvalid, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

// EndMethod selects how a game ends.
type EndMethod string

const (
	// MethodWinner completes the game and pays the winner the pot.
	MethodWinner EndMethod = "winner"
	// MethodForce completes the game; the winner is optional.
	MethodForce EndMethod = "force"
	// MethodCancel cancels the game and refunds every bet.
	MethodCancel EndMethod = "cancel"
)

// EndGameInput ends an active game.
type EndGameInput struct {
	GameID   string    `json:"gameId" validate:"required,max=64"`
	WinnerID string    `json:"winnerId" validate:"required_if=Method winner,max=64"`
	Method   EndMethod `json:"method" validate:"required,oneof=winner force cancel"`
}

func (in *EndGameInput) Validate() error {
	return check("end game", in)
}

// ChangeWinnerInput corrects the winner of a completed game.
type ChangeWinnerInput struct {
	GameID   string `json:"gameId" validate:"required,max=64"`
	WinnerID string `json:"winnerId" validate:"required,max=64"`
}

func (in *ChangeWinnerInput) Validate() error {
	return check("change winner", in)
}

// TransactionInput records a standalone ledger entry.
type TransactionInput struct {
	ID          string                 `json:"id" validate:"omitempty,max=64"`
	PlayerID    string                 `json:"playerId" validate:"required,max=64"`
	PlayerName  string                 `json:"playerName" validate:"max=255"`
	GameID      string                 `json:"gameId" validate:"max=64"`
	GameName    string                 `json:"gameName" validate:"max=255"`
	Amount      decimal.Decimal        `json:"amount" validate:"ne=0"`
	Type        models.TransactionType `json:"type" validate:"required,oneof=bet win refund adjustment"`
	Timestamp   int64                  `json:"timestamp" validate:"gte=0"`
	Description string                 `json:"description" validate:"max=255"`
}

func (in *TransactionInput) Validate() error {
	return check("transaction", in)
}

// PlayerInput registers a player with an opening balance.
type PlayerInput struct {
	ID             string          `json:"id" validate:"required,max=64"`
	Name           string          `json:"name" validate:"required,max=255"`
	InitialBalance decimal.Decimal `json:"initialBalance" validate:"gte=0"`
}

func (in *PlayerInput) Validate() error {
	return check("player", in)
}
