package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

//NewSyncCmd returns the command that delivers pending posts
func NewSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sync",
		Short:   "Deliver posts queued while offline",
		PreRunE: loadConfig,
		RunE:    runSync,
	}
	AddSyncFlags(cmd)
	return cmd
}

func runSync(cmd *cobra.Command, args []string) error {
	engine, err := newEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	if daemon, _ := cmd.Flags().GetBool("daemon"); daemon {
		ctx, cancel := interruptContext()
		defer cancel()
		engine.Run(ctx)
		return nil
	}

	res, err := engine.Node.Reconcile(context.Background())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "delivered: %d, failed: %d, pending: %d\n",
		res.Success, res.Failed, engine.Node.Queue().Len())

	return nil
}

//AddSyncFlags adds flags to the Sync command
func AddSyncFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("daemon", false, "Keep running and reconcile periodically")
	cmd.Flags().Duration("sync-interval", _config.OpenHerd.SyncInterval, "Time between reconciliations")
	cmd.Flags().Duration("discovery-interval", _config.OpenHerd.DiscoveryInterval, "Time between discovery scans")
}
