package cmd

import (
	"context"
	"fmt"
	"strings"

	"party-ledger/core/config"
	"party-ledger/core/database"
	"party-ledger/core/events"
	"party-ledger/core/kv"
	"party-ledger/core/logger"
	"party-ledger/core/storage"
	"party-ledger/feature/integrity/checks"
	"party-ledger/feature/ledger/gateway"
	"party-ledger/feature/ledger/linkage"
	"party-ledger/feature/ledger/reconcile"
	"party-ledger/feature/ledger/store"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app wires the ledger components shared by every command.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	storage storage.Client
	db      *gorm.DB
	remote  *store.RemoteStore
	ledger  *store.Ledger
	bus     *events.Bus
	engine  *reconcile.Engine
	gateway *gateway.Gateway
}

// newApp loads configuration and builds the ledger. A remote database that
// cannot be reached leaves the ledger running on the local tier only.
func newApp(ctx context.Context, migrate bool) (*app, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a := &app{cfg: cfg, logger: l, bus: events.NewBus(16)}

	// Storage is only required by the object cache driver and snapshot export
	if client, err := storage.NewClient(cfg.Storage); err != nil {
		l.Warn("Storage client unavailable", zap.Error(err))
	} else {
		a.storage = client
	}

	cache, err := kv.Open(cfg.Cache, a.storage, cfg.Storage.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to open local cache: %w", err)
	}

	var remote store.Remote
	if db, err := database.Connect(cfg.Database); err != nil {
		l.Warn("Remote database unavailable, running on the local tier", zap.Error(err))
	} else {
		a.db = db
		a.remote = store.NewRemoteStore(db)
		remote = a.remote
		l = l.With(zap.String("driver", cfg.Database.Driver))
		a.logger = l
		if err := a.prepareSchema(ctx, migrate); err != nil {
			return nil, err
		}
	}

	var raw store.RawWriter
	if cfg.Ledger.RawURL != "" {
		raw = store.NewRawClient(cfg.Ledger.RawURL, cfg.Ledger.RawAPIKey, cfg.Ledger.ReplayAttemptTimeout)
	}

	a.ledger = store.NewLedger(store.NewLocalStore(cache), remote)
	a.engine = reconcile.NewEngine(a.ledger, linkage.New(cfg.Ledger.LinkWindow), l)
	a.engine.SetBus(a.bus)
	a.gateway = gateway.New(a.ledger, raw, l, gateway.Options{
		AttemptTimeout: cfg.Ledger.ReplayAttemptTimeout,
		ProbeInterval:  cfg.Ledger.ProbeInterval,
		Bus:            a.bus,
	})
	return a, nil
}

// prepareSchema migrates the remote tables when asked and otherwise only
// reports the columns the remote store is missing.
func (a *app) prepareSchema(ctx context.Context, migrate bool) error {
	if migrate {
		if err := a.remote.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate remote schema: %w", err)
		}
		a.logger.Info("Remote schema migrated")
		return nil
	}

	missing, err := a.remote.CheckSchema()
	if err != nil {
		a.logger.Warn("Schema check failed", zap.Error(err))
		return nil
	}
	for table, cols := range missing {
		a.logger.Warn("Remote table is missing columns, run with --migrate",
			zap.String("table", table),
			zap.Strings("columns", cols),
		)
	}
	return nil
}

// storageFolders are the bucket folders the integrity check expects.
func (a *app) storageFolders() []string {
	folders := append([]string{}, checks.RequiredFolders...)
	if a.cfg.Cache.Driver == "object" {
		folders = append(folders, strings.TrimSuffix(a.cfg.Cache.Prefix, "/"))
	}
	return folders
}

func (a *app) close() {
	_ = a.logger.Sync()
}
