package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"party-ledger/core/loader"
	"party-ledger/core/logger"
	"party-ledger/core/middleware/auth"
	"party-ledger/core/middleware/rayid"
	"party-ledger/feature/integrity"
	"party-ledger/feature/ledger"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	_ "party-ledger/docs/swagger"
)

// @title Party Ledger API
// @version 1.0
// @description Offline-first ledger for party games.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the ledger server",
	Long: `Starts the HTTP server, the pending-write replay loop and the
reconcile watcher. A first reconcile pass runs before the server listens.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, migrateFlag)
		if err != nil {
			return err
		}
		defer a.close()
		logg := a.logger
		zap.ReplaceGlobals(logg)

		if _, err := a.engine.Reconcile(ctx); err != nil {
			logg.Warn("Initial reconcile failed", zap.Error(err))
		}

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
			JSONEncoder:           json.Marshal,
			JSONDecoder:           json.Unmarshal,
		})

		mgr := loader.NewManager()
		mgr.Register(ledger.NewFeature(a.engine, a.gateway, a.bus, logg))
		mgr.Register(integrity.NewFeature(a.storage, a.cfg.Storage.Bucket, a.storageFolders(), logg, a.db, a.gateway))

		// RayID first so every log line below carries it
		app.Use(rayid.New())
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		app.Get("/swagger/*", swagger.HandlerDefault)
		app.Use(auth.New(auth.Config{ApiKey: a.cfg.Server.ApiKey}))

		if err := mgr.LoadAll(app); err != nil {
			return err
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return a.gateway.Run(gctx)
		})
		g.Go(func() error {
			a.engine.Watch(gctx, a.bus)
			return nil
		})
		g.Go(func() error {
			logg.Info("Starting server", zap.String("address", a.cfg.Server.Address()))
			return app.Listen(a.cfg.Server.Address())
		})
		g.Go(func() error {
			<-gctx.Done()
			logg.Info("Shutting down server...")
			return app.Shutdown()
		})

		return g.Wait()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
