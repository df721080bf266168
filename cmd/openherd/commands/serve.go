package commands

import (
	"github.com/spf13/cobra"
)

//NewServeCmd returns the command that runs an OpenHerd node
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Run a node: accept, keep and serve posts",
		PreRunE: loadConfig,
		RunE:    runServe,
	}
	AddServeFlags(cmd)
	return cmd
}

/*******************************************************************************
* RUN
*******************************************************************************/

func runServe(cmd *cobra.Command, args []string) error {
	engine, err := newEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.InitService(); err != nil {
		_config.OpenHerd.Logger().Error("Cannot initialize service: ", err)
		return err
	}

	ctx, cancel := interruptContext()
	defer cancel()

	engine.Run(ctx)

	return nil
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

//AddServeFlags adds flags to the Serve command
func AddServeFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("service-listen", "s", _config.OpenHerd.ServiceAddr, "Listen IP:Port for the node HTTP service")
	cmd.Flags().Bool("advertise", _config.OpenHerd.Advertise, "Advertise the node on the local network with mDNS")
	cmd.Flags().String("moniker", _config.OpenHerd.Moniker, "Optional mDNS instance name")
	cmd.Flags().Int("outbox-size", _config.OpenHerd.OutboxSize, "Max number of posts kept and served")
	cmd.Flags().Duration("sync-interval", _config.OpenHerd.SyncInterval, "Time between pending queue reconciliations")
	cmd.Flags().Duration("discovery-interval", _config.OpenHerd.DiscoveryInterval, "Time between discovery scans")
}
