package main

import (
	"os"

	cmd "github.com/openherd/openherd/cmd/openherd/commands"
)

func main() {
	rootCmd := cmd.RootCmd

	rootCmd.AddCommand(
		cmd.VersionCmd,
		cmd.NewServeCmd(),
		cmd.NewPostCmd(),
		cmd.NewFeedCmd(),
		cmd.NewSyncCmd(),
		cmd.NewDiscoverCmd(),
		cmd.NewWatchCmd(),
		cmd.NewStatusCmd(),
	)

	//Do not print usage when error occurs
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
