package commands

import (
	"fmt"

	"github.com/openherd/openherd/src/openherd"
	"github.com/spf13/cobra"
)

//NewStatusCmd returns the command that summarizes the local state
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Short:   "Show pending posts, cached posts and known nodes",
		PreRunE: loadConfig,
		RunE:    runStatus,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	engine, err := newEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	settings, _, err := openherd.LoadSettings(engine.Store)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "node:           %s\n", settings.NodeURL)
	fmt.Fprintf(out, "auto-discovery: %v\n", settings.AutoDiscovery)
	fmt.Fprintf(out, "privacy:        %s %v-%vm\n", settings.Privacy.Mode, settings.Privacy.MinDistance, settings.Privacy.MaxDistance)
	fmt.Fprintf(out, "store:          %s\n", _config.OpenHerd.Store)

	fmt.Fprintf(out, "pending:        %d\n", engine.Node.Queue().Len())
	for _, e := range engine.Node.Queue().Entries() {
		fmt.Fprintf(out, "  %s queued %s, %d attempt(s)\n", shortID(e.Envelope.ID), e.Timestamp.Local().Format("Jan _2 15:04"), e.Attempts)
	}

	fmt.Fprintf(out, "cached:         %d\n", engine.Node.Cache().Len())

	known := engine.Node.Directory().Discovered()
	fmt.Fprintf(out, "known nodes:    %d\n", len(known))
	for _, p := range known {
		fmt.Fprintf(out, "  %s\n", p)
	}

	return nil
}
