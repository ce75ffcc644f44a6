package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Sergeybob123/callboard/internal/auth"
	"github.com/Sergeybob123/callboard/internal/config"
	"github.com/Sergeybob123/callboard/internal/core"
	"github.com/Sergeybob123/callboard/internal/events"
	"github.com/Sergeybob123/callboard/internal/markup"
	"github.com/Sergeybob123/callboard/internal/storage"
)

// App wires storage, events and services together
type App struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    *storage.Store
	bus      *events.Bus
	registry *prometheus.Registry
	board    *core.Board
	accounts *core.Accounts
}

// NewApp opens storage and connects the event bus. Callers must Close it.
func NewApp(cfg *config.Config, logger *zap.Logger, registry *prometheus.Registry) (*App, error) {
	store, err := storage.NewStore(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	bus, err := events.Connect(cfg.NATS, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	var reg prometheus.Registerer
	if registry != nil {
		reg = registry
	}
	metrics := events.NewMetrics(reg)

	var notifier core.Notifier
	if bus != nil {
		notifier = events.NewNATSNotifier(bus.Conn, cfg.NATS.SubjectPrefix, metrics)
	} else {
		notifier = events.NewLogNotifier(logger, metrics)
	}

	return &App{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		bus:      bus,
		registry: registry,
		board: core.NewBoard(core.BoardDeps{
			Store:     store,
			Notifier:  notifier,
			Previewer: markup.NewPreviewer(cfg.Board.PreviewLength),
			Logger:    logger,
			PageSize:  cfg.Board.PageSize,
		}),
		accounts: core.NewAccounts(store, auth.NewBcryptHasher(), logger),
	}, nil
}

// accountStore opens storage and the account service without touching the
// event bus. The returned func closes the store.
func accountStore(cfg *config.Config, logger *zap.Logger) (*core.Accounts, func(), error) {
	store, err := storage.NewStore(cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing storage", zap.Error(err))
		}
		_ = logger.Sync()
	}
	return core.NewAccounts(store, auth.NewBcryptHasher(), logger), closeFn, nil
}

// Close releases the bus and storage
func (a *App) Close() {
	a.bus.Close()
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing storage", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// tokenIssuer builds the token issuer, generating a throwaway secret when
// none is configured
func (a *App) tokenIssuer() (*auth.Issuer, error) {
	secret := a.cfg.Auth.Secret
	if secret == "" {
		generated, err := auth.RandomSecret()
		if err != nil {
			return nil, fmt.Errorf("generate token secret: %w", err)
		}
		secret = generated
		a.logger.Warn("auth.secret is empty; using an ephemeral secret, tokens will not survive a restart")
	}
	return auth.NewIssuer(secret, a.cfg.Auth.TokenTTL)
}
