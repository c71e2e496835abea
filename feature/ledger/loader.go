package ledger

import (
	"party-ledger/core/events"
	"party-ledger/feature/ledger/gateway"
	"party-ledger/feature/ledger/reconcile"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	handler *Handler
}

// NewFeature creates the ledger feature around an engine and a gateway.
func NewFeature(engine *reconcile.Engine, gw *gateway.Gateway, bus *events.Bus, logger *zap.Logger) *Feature {
	return &Feature{handler: NewHandler(engine, gw, bus, logger)}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "ledger"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
