package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/naveenspark/quill/internal/logging"
	"github.com/naveenspark/quill/internal/relay"
)

func newRelayCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Run the cookie relay server",
		Long: `Run the token relay: a small HTTP server that turns a session token
into an HttpOnly cookie for server-rendered pages, and serves guarded
post reads and Prometheus metrics.

Routes:
  POST /api/set-token      store {"token": ...} as a cookie
  POST /api/clear-token    expire the cookie
  GET  /api/posts          list posts (cookie required)
  GET  /api/posts/{id}     one post (cookie required)
  GET  /metrics            Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			cfg, err := o.loadConfig(func(v *viper.Viper) error {
				if err := v.BindPFlag("relay.addr", c.Flags().Lookup("addr")); err != nil {
					return err
				}
				return v.BindPFlag("relay.production", c.Flags().Lookup("production"))
			})
			if err != nil {
				return err
			}
			logger, err := logging.Setup(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: c.ErrOrStderr()})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := relay.New(relay.Options{
				Addr:         cfg.Relay.Addr,
				APIURL:       cfg.APIURL,
				CookieName:   cfg.Relay.CookieName,
				CookieMaxAge: cfg.Relay.CookieMaxAge,
				Production:   cfg.Relay.Production,
				Logger:       logger,
			})
			return srv.ListenAndServe(ctx)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default from relay.addr)")
	cmd.Flags().Bool("production", false, "mark the cookie Secure")
	return cmd
}
