package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/ratmaze/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Exposes the maze over HTTP: edit the grid, start and cancel runs, follow the
events over SSE at /events and scrape metrics at /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			cfg.HTTP.Addr, _ = cmd.Flags().GetString("addr")
		}
		if cmd.Flags().Changed("redis") {
			cfg.Redis.Addr, _ = cmd.Flags().GetString("redis")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return cli.Serve(ctx, cfg, cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", ":8080", "Address to listen on")
	serveCmd.Flags().String("redis", "", "Redis address for a run lock shared between replicas")
}
