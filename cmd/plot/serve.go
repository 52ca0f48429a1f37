package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/plot451/plot/pkg/api"
	"github.com/plot451/plot/pkg/logger"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serves the JSON API under /api and streams domain events over the
/api/events WebSocket until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if listenAddr != "" {
			cfg.Server.Listen = listenAddr
		}

		sv, err := openServices(cfg)
		if err != nil {
			return err
		}
		defer sv.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := api.NewServer(api.Options{
			Listen: cfg.Server.Listen,
			APIKey: cfg.Server.APIKey,
		}, sv.container)
		if err := srv.Start(ctx); err != nil {
			return err
		}

		<-ctx.Done()
		logger.InfoC("plot", "Shutting down")
		return srv.Stop()
	},
}

func init() {
	serveCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "listen address (overrides server.listen)")
}
