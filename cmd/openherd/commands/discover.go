package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

//NewDiscoverCmd returns the command that scans the local network for nodes
func NewDiscoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "discover",
		Short:   "Find nodes on the local network",
		PreRunE: loadConfig,
		RunE:    runDiscover,
	}
	cmd.Flags().Bool("probe", false, "Check that every node found answers")
	return cmd
}

func runDiscover(cmd *cobra.Command, args []string) error {
	engine, err := newEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx := context.Background()
	probe, _ := cmd.Flags().GetBool("probe")

	found := engine.Node.Discover(ctx)
	if len(found) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no node found")
		return nil
	}

	for _, p := range found {
		line := p.String()
		if probe {
			if engine.Node.TestReachability(ctx, p.URL) {
				line += " reachable"
			} else {
				line += " unreachable"
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}

	return nil
}
