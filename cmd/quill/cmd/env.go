package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/naveenspark/quill/internal/config"
	"github.com/naveenspark/quill/internal/logging"
	"github.com/naveenspark/quill/internal/relay"
	"github.com/naveenspark/quill/internal/session"
	"github.com/naveenspark/quill/internal/storage"
	"github.com/naveenspark/quill/pkg/client"
)

// loadConfig reads the effective configuration. bind, when non-nil, may
// attach command flags to config keys before the file is read.
func (o *options) loadConfig(bind func(v *viper.Viper) error) (*config.Config, error) {
	loader, err := config.NewLoader(o.configFile)
	if err != nil {
		return nil, err
	}
	if bind != nil {
		if err := bind(loader.Viper()); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}
	if o.ephemeral {
		cfg.Storage.Backend = storage.BackendMemory
		cfg.Storage.Path = ""
	}
	return cfg, nil
}

func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Backend, error) {
	return storage.Open(ctx, storage.Options{
		Backend:     cfg.Storage.Backend,
		Path:        cfg.Storage.Path,
		RedisAddr:   cfg.Storage.RedisAddr,
		RedisDB:     cfg.Storage.RedisDB,
		RedisPrefix: cfg.Storage.RedisPrefix,
		Logger:      logger,
	})
}

// cliEnv is what the account subcommands work with: a hydrated session and an
// API client that reads its token.
type cliEnv struct {
	cfg     *config.Config
	logger  *slog.Logger
	kv      storage.Backend
	session *session.Store
	client  *client.Client
	relay   *relay.Handoff // nil unless relay.enabled
}

func (o *options) newCLIEnv(ctx context.Context, stderr io.Writer) (*cliEnv, error) {
	cfg, err := o.loadConfig(nil)
	if err != nil {
		return nil, err
	}
	logger, err := logging.Setup(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: stderr})
	if err != nil {
		return nil, err
	}
	kv, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	store := session.New(kv, session.WithLogger(logger))
	store.InitializeAuth(ctx)

	env := &cliEnv{
		cfg:     cfg,
		logger:  logger,
		kv:      kv,
		session: store,
		client:  client.New(cfg.APIURL, store),
	}
	if cfg.Relay.Enabled {
		env.relay = relay.NewHandoff(cfg.Relay.Addr)
	}
	return env, nil
}

func (e *cliEnv) close() {
	e.session.Close()
	if err := e.kv.Close(); err != nil {
		e.logger.Warn("close storage", "error", err)
	}
}

// handOff forwards token to a running relay. An empty token clears the cookie.
func (e *cliEnv) handOff(ctx context.Context, token string) {
	if e.relay == nil {
		return
	}
	var err error
	if token == "" {
		err = e.relay.ClearToken(ctx)
	} else {
		err = e.relay.SetToken(ctx, token)
	}
	if err != nil {
		e.logger.Warn("relay handoff failed", "addr", e.cfg.Relay.Addr, "error", err)
	}
}
