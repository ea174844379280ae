package main

import (
	"github.com/aretw0/ratmaze/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one search and watch it",
	Long: `Builds the maze from the config file and flags, then runs the search.
On a terminal the board is animated in place; Ctrl+C cancels the run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		jsonMode, _ := cmd.Flags().GetBool("json")
		random, _ := cmd.Flags().GetBool("random")
		plain, _ := cmd.Flags().GetBool("plain")
		noBanner, _ := cmd.Flags().GetBool("no-banner")

		_, err = cli.Execute(cmd.Context(), cli.RunOptions{
			Config:    cfg,
			JSON:      jsonMode,
			Randomize: random || cmd.Flags().Changed("density"),
			Plain:     plain,
			NoBanner:  noBanner,
			Stdout:    cmd.OutOrStdout(),
			Stderr:    cmd.ErrOrStderr(),
		})
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Int("rows", 0, "Number of rows (default 5)")
	runCmd.Flags().Int("cols", 0, "Number of columns (default 5)")
	runCmd.Flags().IntP("speed", "s", 0, "Speed level 1-10 (default 1)")
	runCmd.Flags().Float64("density", 0, "Add random walls with this probability (implies --random)")
	runCmd.Flags().Int64("seed", 0, "Seed for random walls")
	runCmd.Flags().Bool("random", false, "Add random walls before the run")
	runCmd.Flags().Bool("json", false, "Print NDJSON records instead of the board")
	runCmd.Flags().Bool("plain", false, "Print one line per event instead of animating")
	runCmd.Flags().Bool("no-banner", false, "Do not print the banner")

	// Make 'run' the default if no command is provided
	rootCmd.RunE = runCmd.RunE
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
}
