package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/ratmaze"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of ratmaze",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ratmaze version %s\n", strings.TrimSpace(ratmaze.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
