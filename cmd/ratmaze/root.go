package main

import (
	"fmt"
	"os"

	"github.com/aretw0/ratmaze/internal/cli"
	"github.com/aretw0/ratmaze/pkg/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ratmaze",
	Short: "Ratmaze animates a backtracking search through a grid maze",
	Long: `Ratmaze sends a rat from the top-left corner of a grid to the bottom-right corner,
backtracking out of dead ends, and shows every step as it happens.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Config file (default ./"+config.DefaultPath+" if present)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
}

// loadConfig merges the config file with the flags the user actually set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")

	var o cli.Overrides
	if flags.Changed("log-level") {
		v, _ := flags.GetString("log-level")
		o.LogLevel = &v
	}
	if flags.Lookup("rows") != nil && flags.Changed("rows") {
		v, _ := flags.GetInt("rows")
		o.Rows = &v
	}
	if flags.Lookup("cols") != nil && flags.Changed("cols") {
		v, _ := flags.GetInt("cols")
		o.Cols = &v
	}
	if flags.Lookup("speed") != nil && flags.Changed("speed") {
		v, _ := flags.GetInt("speed")
		o.Speed = &v
	}
	if flags.Lookup("density") != nil && flags.Changed("density") {
		v, _ := flags.GetFloat64("density")
		o.Density = &v
	}
	if flags.Lookup("seed") != nil && flags.Changed("seed") {
		v, _ := flags.GetInt64("seed")
		o.Seed = &v
	}
	return cli.LoadConfig(path, o)
}
