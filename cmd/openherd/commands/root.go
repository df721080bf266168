package commands

import (
	"github.com/spf13/cobra"
)

var (
	_config = NewDefaultCLIConfig()
)

func init() {
	AddGlobalFlags(RootCmd)
}

//RootCmd is the root command for OpenHerd
var RootCmd = &cobra.Command{
	Use:              "openherd",
	Short:            "OpenHerd local-first posts",
	TraverseChildren: true,
}

//AddGlobalFlags adds the flags shared by every command
func AddGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("datadir", _config.OpenHerd.DataDir, "Top-level directory for configuration and data")
	cmd.PersistentFlags().String("log", _config.OpenHerd.LogLevel, "debug, info, warn, error, fatal, panic")
	cmd.PersistentFlags().String("log-file", _config.LogFile, "Also write logs to this file")

	// Store
	cmd.PersistentFlags().String("store", _config.OpenHerd.Store, "Blob store: inmem, badger or sqlite")
	cmd.PersistentFlags().String("db", _config.OpenHerd.DatabaseDir, "Database location")

	// Settings
	cmd.PersistentFlags().StringP("node", "n", _config.OpenHerd.NodeURL, "Base URL of the primary node")
	cmd.PersistentFlags().Bool("auto-discovery", _config.OpenHerd.AutoDiscovery, "Discover nodes on the local network")
	cmd.PersistentFlags().String("distance-unit", _config.OpenHerd.DistanceUnit, "Distance unit: km or mi")
	cmd.PersistentFlags().String("skew-mode", _config.OpenHerd.Privacy.Mode, "Location privacy mode: random or grid")
	cmd.PersistentFlags().Float64("skew-min", _config.OpenHerd.Privacy.MinDistance, "Min distance in meters between real and published locations")
	cmd.PersistentFlags().Float64("skew-max", _config.OpenHerd.Privacy.MaxDistance, "Max distance in meters between real and published locations")

	// Network
	cmd.PersistentFlags().Duration("submit-timeout", _config.OpenHerd.SubmitTimeout, "Timeout of a single submission")
	cmd.PersistentFlags().Duration("fetch-timeout", _config.OpenHerd.FetchTimeout, "Timeout of a single outbox fetch")
	cmd.PersistentFlags().Duration("scan-timeout", _config.OpenHerd.ScanTimeout, "Duration of a discovery scan")
	cmd.PersistentFlags().Duration("probe-timeout", _config.OpenHerd.ProbeTimeout, "Timeout of a reachability probe")
	cmd.PersistentFlags().Int("cache-size", _config.OpenHerd.CacheSize, "Max number of posts in the feed cache")
}
