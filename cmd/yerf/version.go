package main

import (
	"fmt"

	"github.com/aretw0/yerf"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of yerf",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "yerf version %s\n", yerf.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
