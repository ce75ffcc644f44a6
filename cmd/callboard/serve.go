package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/Sergeybob123/callboard/internal/web"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the Callboard JSON API.

Examples:
  callboard serve
  callboard serve --addr :9090
  CALLBOARD_AUTH_SECRET=... callboard serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := flags.setup()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			gin.SetMode(cfg.Server.Mode)

			registry := prometheus.NewRegistry()
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			app, err := NewApp(cfg, logger, registry)
			if err != nil {
				return err
			}
			defer app.Close()

			tokens, err := app.tokenIssuer()
			if err != nil {
				return err
			}

			server := web.NewServer(web.Deps{
				Board:    app.board,
				Accounts: app.accounts,
				Tokens:   tokens,
				Health:   app.store,
				Logger:   logger,
				Registry: registry,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.Run(ctx, cfg.Server.Addr, cfg.Server.ShutdownTimeout)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
