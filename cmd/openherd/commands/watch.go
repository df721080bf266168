package commands

import (
	"fmt"

	"github.com/openherd/openherd/src/net"
	"github.com/openherd/openherd/src/post"
	"github.com/spf13/cobra"
)

//NewWatchCmd returns the command that follows the posts a node accepts
func NewWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "watch",
		Short:   "Print posts as the primary node accepts them",
		PreRunE: loadConfig,
		RunE:    runWatch,
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := interruptContext()
	defer cancel()

	target := _config.OpenHerd.NodeURL
	_config.OpenHerd.Logger().WithField("url", net.StreamURL(target)).Debug("Watching")

	return net.Watch(ctx, target, func(env *post.Envelope) {
		data, err := env.ParseData()
		if err != nil {
			_config.OpenHerd.Logger().WithError(err).Debug("Skipping malformed post")
			return
		}

		verified := "verified"
		if !post.Verify(env) {
			verified = "unverified"
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n  %s\n", data.Date.Local().Format("15:04:05"), shortID(env.ID), verified, data.Text)
	})
}
