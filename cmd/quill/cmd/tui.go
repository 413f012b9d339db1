package cmd

import (
	"context"
	"fmt"
	"net"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/naveenspark/quill/internal/logging"
	"github.com/naveenspark/quill/internal/relay"
	"github.com/naveenspark/quill/internal/session"
	"github.com/naveenspark/quill/internal/toast"
	"github.com/naveenspark/quill/internal/tui"
	"github.com/naveenspark/quill/pkg/client"
)

// runTUI opens the reader. It owns the terminal, so logs go to log.file.
func runTUI(c *cobra.Command, o *options) error {
	cfg, err := o.loadConfig(nil)
	if err != nil {
		return err
	}
	logFile, err := logging.OpenFile(cfg.Log.File)
	if err != nil {
		return err
	}
	defer logFile.Close() //nolint:errcheck

	logger, err := logging.Setup(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: logFile})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(c.Context())
	defer cancel()

	kv, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := kv.Close(); err != nil {
			logger.Warn("close storage", "error", err)
		}
	}()

	store := session.New(kv, session.WithLogger(logger))
	toasts := toast.NewQueue()

	opts := tui.Options{
		Client:        client.New(cfg.APIURL, store),
		Session:       store,
		Toasts:        toasts,
		WebURL:        cfg.WebURL,
		ToastDuration: cfg.Toast.Duration,
		Logger:        logger,
	}

	if cfg.Relay.Enabled {
		ln, err := net.Listen("tcp", cfg.Relay.Addr)
		if err != nil {
			return fmt.Errorf("relay listen on %s: %w", cfg.Relay.Addr, err)
		}
		srv := relay.New(relay.Options{
			Addr:         cfg.Relay.Addr,
			APIURL:       cfg.APIURL,
			CookieName:   cfg.Relay.CookieName,
			CookieMaxAge: cfg.Relay.CookieMaxAge,
			Production:   cfg.Relay.Production,
			Logger:       logger,
		})
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := srv.Serve(ctx, ln); err != nil {
				logger.Error("relay stopped", "error", err)
			}
		}()
		defer func() {
			cancel()
			<-done
		}()
		opts.Relay = relay.NewHandoff(ln.Addr().String())
	}

	app := tui.NewApp(opts)
	defer app.Close()
	defer toasts.Close()
	defer store.Close()

	logger.Info("starting", "api", cfg.APIURL, "storage", cfg.Storage.Backend, "relay", cfg.Relay.Enabled)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}
