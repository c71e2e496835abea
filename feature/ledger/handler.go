package ledger

import (
	"errors"

	"party-ledger/core/events"
	"party-ledger/core/logger"
	"party-ledger/feature/ledger/gateway"
	"party-ledger/feature/ledger/reconcile"
	"party-ledger/feature/ledger/store"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the ledger.
type Handler struct {
	engine  *reconcile.Engine
	gateway *gateway.Gateway
	bus     *events.Bus
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(engine *reconcile.Engine, gw *gateway.Gateway, bus *events.Bus, logger *zap.Logger) *Handler {
	return &Handler{engine: engine, gateway: gw, bus: bus, logger: logger}
}

// RegisterRoutes registers the ledger routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/ledger")
	group.Get("/", h.HandleGetLedger)
	group.Get("/pending", h.HandleListPending)
	group.Delete("/pending/:id", h.HandleDiscardPending)
	group.Post("/events", h.HandleEvent)
	group.Post("/replay", h.HandleReplay)
	group.Post("/games", h.HandleCreateGame)
	group.Post("/games/:id/end", h.HandleEndGame)
	group.Post("/games/:id/winner", h.HandleChangeWinner)
	group.Delete("/games/:id", h.HandleDeleteGame)
	group.Post("/transactions", h.HandleRecordTransaction)
	group.Post("/players", h.HandleRegisterPlayer)
}

// HandleGetLedger returns the reconciled ledger view.
// @Summary Get Ledger
// @Description Returns the last reconciled view. With refresh=true a new pass runs first.
// @Tags ledger
// @Produce json
// @Param refresh query bool false "Run a reconcile pass before answering"
// @Success 200 {object} reconcile.LedgerView "Ledger View"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /ledger [get]
func (h *Handler) HandleGetLedger(c *fiber.Ctx) error {
	view := h.engine.Last()
	if view == nil || c.QueryBool("refresh") {
		var err error
		view, err = h.engine.Reconcile(c.Context())
		if err != nil {
			return h.fail(c, "Reconcile failed", err)
		}
	}
	return c.JSON(view)
}

// HandleListPending lists the writes waiting for the remote store.
// @Summary List Pending Writes
// @Tags ledger
// @Produce json
// @Success 200 {array} store.PendingEntry "Pending Entries"
// @Router /ledger/pending [get]
func (h *Handler) HandleListPending(c *fiber.Ctx) error {
	entries, err := h.gateway.Pending()
	if err != nil {
		return h.fail(c, "Failed to read pending queue", err)
	}
	if entries == nil {
		entries = []store.PendingEntry{}
	}
	return c.JSON(entries)
}

// HandleDiscardPending drops a pending write without applying it.
// @Summary Discard Pending Write
// @Tags ledger
// @Param id path string true "Pending entry id"
// @Success 204
// @Failure 404 {object} map[string]string "Not Found"
// @Router /ledger/pending/{id} [delete]
func (h *Handler) HandleDiscardPending(c *fiber.Ctx) error {
	if err := h.gateway.Discard(c.Params("id")); err != nil {
		return h.fail(c, "Discard failed", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// eventRequest is the body of POST /ledger/events.
type eventRequest struct {
	Source   string `json:"source"`
	EntityID string `json:"entityId"`
}

// HandleEvent raises data.changed so the engine reconciles.
// @Summary Notify Data Change
// @Tags ledger
// @Accept json
// @Param event body eventRequest false "Event"
// @Success 202
// @Router /ledger/events [post]
func (h *Handler) HandleEvent(c *fiber.Ctx) error {
	var req eventRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, err)
		}
	}
	if req.Source == "" {
		req.Source = "http"
	}
	h.bus.Publish(events.TopicDataChanged, events.NewEvent(req.Source, req.EntityID))
	return c.SendStatus(fiber.StatusAccepted)
}

// HandleReplay drains the pending queue once.
// @Summary Replay Pending Writes
// @Tags ledger
// @Produce json
// @Success 200 {object} gateway.ReplayReport "Replay Report"
// @Router /ledger/replay [post]
func (h *Handler) HandleReplay(c *fiber.Ctx) error {
	report, err := h.gateway.Replay(c.Context())
	if err != nil {
		return h.fail(c, "Replay failed", err)
	}
	return c.JSON(report)
}

// HandleCreateGame starts a game.
// @Summary Create Game
// @Tags games
// @Accept json
// @Produce json
// @Param game body gateway.CreateGameInput true "Game"
// @Success 200 {object} gateway.Result "Accepted by the remote store"
// @Success 202 {object} gateway.Result "Queued locally"
// @Failure 400 {object} map[string]string "Bad Request"
// @Router /ledger/games [post]
func (h *Handler) HandleCreateGame(c *fiber.Ctx) error {
	var in gateway.CreateGameInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, err)
	}
	res, err := h.gateway.CreateGame(c.Context(), in)
	return h.respond(c, "Create game failed", res, err)
}

// HandleEndGame ends a game.
// @Summary End Game
// @Tags games
// @Accept json
// @Produce json
// @Param id path string true "Game id"
// @Param end body gateway.EndGameInput true "Winner and method"
// @Success 200 {object} gateway.Result "Accepted by the remote store"
// @Success 202 {object} gateway.Result "Queued locally"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /ledger/games/{id}/end [post]
func (h *Handler) HandleEndGame(c *fiber.Ctx) error {
	var in gateway.EndGameInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, err)
	}
	in.GameID = c.Params("id")
	res, err := h.gateway.EndGame(c.Context(), in)
	return h.respond(c, "End game failed", res, err)
}

// HandleChangeWinner corrects the winner of a completed game.
// @Summary Change Winner
// @Tags games
// @Accept json
// @Produce json
// @Param id path string true "Game id"
// @Param winner body gateway.ChangeWinnerInput true "New winner"
// @Success 200 {object} gateway.Result
// @Failure 400 {object} map[string]string "Bad Request"
// @Router /ledger/games/{id}/winner [post]
func (h *Handler) HandleChangeWinner(c *fiber.Ctx) error {
	var in gateway.ChangeWinnerInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, err)
	}
	in.GameID = c.Params("id")
	res, err := h.gateway.ChangeWinner(c.Context(), in)
	return h.respond(c, "Change winner failed", res, err)
}

// HandleDeleteGame removes a game and its transactions.
// @Summary Delete Game
// @Tags games
// @Produce json
// @Param id path string true "Game id"
// @Success 200 {object} gateway.Result
// @Router /ledger/games/{id} [delete]
func (h *Handler) HandleDeleteGame(c *fiber.Ctx) error {
	res, err := h.gateway.DeleteGame(c.Context(), c.Params("id"))
	return h.respond(c, "Delete game failed", res, err)
}

// HandleRecordTransaction records a standalone transaction.
// @Summary Record Transaction
// @Tags transactions
// @Accept json
// @Produce json
// @Param transaction body gateway.TransactionInput true "Transaction"
// @Success 200 {object} gateway.Result
// @Failure 400 {object} map[string]string "Bad Request"
// @Router /ledger/transactions [post]
func (h *Handler) HandleRecordTransaction(c *fiber.Ctx) error {
	var in gateway.TransactionInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, err)
	}
	res, err := h.gateway.RecordTransaction(c.Context(), in)
	return h.respond(c, "Record transaction failed", res, err)
}

// HandleRegisterPlayer registers a player with an opening balance.
// @Summary Register Player
// @Tags players
// @Accept json
// @Produce json
// @Param player body gateway.PlayerInput true "Player"
// @Success 200 {object} gateway.Result
// @Failure 400 {object} map[string]string "Bad Request"
// @Router /ledger/players [post]
func (h *Handler) HandleRegisterPlayer(c *fiber.Ctx) error {
	var in gateway.PlayerInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, err)
	}
	res, err := h.gateway.RegisterPlayer(c.Context(), in)
	return h.respond(c, "Register player failed", res, err)
}

func (h *Handler) respond(c *fiber.Ctx, msg string, res gateway.Result, err error) error {
	if err != nil {
		return h.fail(c, msg, err)
	}
	if res.Path == gateway.PathQueued {
		return c.Status(fiber.StatusAccepted).JSON(res)
	}
	return c.JSON(res)
}

func (h *Handler) fail(c *fiber.Ctx, msg string, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, gateway.ErrInvalid):
		status = fiber.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		status = fiber.StatusNotFound
	}
	l := logger.WithRayID(h.logger, c)
	if status == fiber.StatusInternalServerError {
		l.Error(msg, zap.Error(err))
	} else {
		l.Debug(msg, zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": err.Error(),
	})
}
