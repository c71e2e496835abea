package store

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"party-ledger/feature/ledger/models"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
)

// RawWriter is the minimal-shape remote write path used when the typed
// client rejects a payload.
type RawWriter interface {
	Insert(ctx context.Context, table string, row map[string]any) error
	Patch(ctx context.Context, table, id string, fields map[string]any) error
	Delete(ctx context.Context, table, id string) error
	RPC(ctx context.Context, fn string, args map[string]any) error
}

// RawClient talks to a PostgREST-compatible endpoint.
type RawClient struct {
	baseURL string
	apiKey  string
	timeout time.Duration
}

// NewRawClient creates a RawClient. timeout bounds requests whose context
// carries no deadline.
func NewRawClient(baseURL, apiKey string, timeout time.Duration) *RawClient {
	return &RawClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		timeout: timeout,
	}
}

// Insert upserts row into table, merging on the primary key.
func (c *RawClient) Insert(ctx context.Context, table string, row map[string]any) error {
	a := fiber.Post(c.baseURL + "/" + table)
	a.Set("Prefer", "resolution=merge-duplicates,return=minimal")
	return c.do(ctx, a, row)
}

// Patch updates the given fields of the row with id.
func (c *RawClient) Patch(ctx context.Context, table, id string, fields map[string]any) error {
	a := fiber.Patch(c.baseURL + "/" + table + "?id=eq." + url.QueryEscape(id))
	a.Set("Prefer", "return=minimal")
	return c.do(ctx, a, fields)
}

// Delete removes the row with id.
func (c *RawClient) Delete(ctx context.Context, table, id string) error {
	a := fiber.Delete(c.baseURL + "/" + table + "?id=eq." + url.QueryEscape(id))
	return c.do(ctx, a, nil)
}

// RPC invokes a stored procedure.
func (c *RawClient) RPC(ctx context.Context, fn string, args map[string]any) error {
	a := fiber.Post(c.baseURL + "/rpc/" + fn)
	return c.do(ctx, a, args)
}

func (c *RawClient) do(ctx context.Context, a *fiber.Agent, body any) error {
	if err := ctx.Err(); err != nil {
		return unavailable(err)
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return unavailable(context.DeadlineExceeded)
		}
	}
	if timeout > 0 {
		a.Timeout(timeout)
	}

	a.Set("apikey", c.apiKey)
	a.Set(fiber.HeaderAuthorization, "Bearer "+c.apiKey)
	if body != nil {
		a.JSONEncoder(json.Marshal).JSON(body)
	}

	if err := a.Parse(); err != nil {
		fiber.ReleaseAgent(a)
		return rejected(err)
	}

	code, resp, errs := a.Bytes()
	if len(errs) > 0 {
		return unavailable(errs[0])
	}
	return classifyStatus(code, resp)
}

func classifyStatus(code int, body []byte) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code >= 500, code == fiber.StatusRequestTimeout, code == fiber.StatusTooManyRequests:
		return unavailable(fmt.Errorf("status %d: %s", code, body))
	default:
		return rejected(fmt.Errorf("status %d: %s", code, body))
	}
}

// RawGame is the minimal row shape of a game.
func RawGame(g models.Game) map[string]any {
	players := make([]map[string]any, 0, len(g.Players))
	for _, p := range g.Players {
		players = append(players, map[string]any{"id": p.ID, "name": p.Name, "bet": p.Bet.String()})
	}
	row := map[string]any{
		"id":         g.ID,
		"name":       g.Name,
		"type":       g.Type,
		"status":     string(g.Status),
		"start_time": g.StartTime,
		"players":    players,
		"total_pot":  g.TotalPot.String(),
	}
	if g.EndTime != nil {
		row["end_time"] = *g.EndTime
	}
	if g.Winner != "" {
		row["winner"] = g.Winner
	}
	return row
}

// RawTransaction is the minimal row shape of a transaction.
func RawTransaction(tx models.Transaction) map[string]any {
	row := map[string]any{
		"id":          tx.ID,
		"player_id":   tx.PlayerID,
		"player_name": tx.PlayerName,
		"amount":      tx.Amount.String(),
		"type":        string(tx.Type),
		"timestamp":   tx.Timestamp,
	}
	if tx.Linked() {
		row["game_id"] = tx.GameID
		row["game_name"] = tx.GameName
	}
	if tx.Description != "" {
		row["description"] = tx.Description
	}
	return row
}

// RawPlayer is the minimal row shape of a player.
func RawPlayer(p models.Player) map[string]any {
	return map[string]any{
		"id":              p.ID,
		"name":            p.Name,
		"initial_balance": p.InitialBalance.String(),
		"balance":         p.Balance.String(),
		"games_played":    p.GamesPlayed,
		"games_won":       p.GamesWon,
	}
}

// RawAdjustArgs are the arguments of the adjust_player procedure. The
// procedure skips an adjustment_key it has already recorded.
func RawAdjustArgs(d PlayerDelta) map[string]any {
	args := map[string]any{
		"player_id":    d.PlayerID,
		"balance":      d.Balance.String(),
		"games_played": d.GamesPlayed,
		"games_won":    d.GamesWon,
	}
	if d.Key != "" {
		args["adjustment_key"] = d.Key
	}
	return args
}

// Procedure applying PlayerDelta atomically on the raw path.
const AdjustPlayerProcedure = "adjust_player"

// Procedure deleting a game together with its linked transactions.
const DeleteGameProcedure = "delete_game"

var gameColumnOf = map[string]string{
	FieldName:      "name",
	FieldType:      "type",
	FieldStatus:    "status",
	FieldStartTime: "start_time",
	FieldEndTime:   "end_time",
	FieldPlayers:   "players",
	FieldTotalPot:  "total_pot",
	FieldWinner:    "winner",
}

// RawGameFields is the patch body carrying only the given game fields.
// Cleared optional fields are sent as null.
func RawGameFields(g models.Game, fields []string) map[string]any {
	full := RawGame(g)
	patch := make(map[string]any, len(fields))
	for _, f := range fields {
		col, ok := gameColumnOf[f]
		if !ok {
			continue
		}
		if v, ok := full[col]; ok {
			patch[col] = v
		} else {
			patch[col] = nil
		}
	}
	return patch
}
