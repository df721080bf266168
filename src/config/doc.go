// Package config defines the configuration of an OpenHerd client and node.
//
// Regardless of how OpenHerd is started, directly from Go code or from the
// command line, it uses the Config object defined in this package to store and
// forward configuration options. On top of these options, OpenHerd relies on a
// data directory, defined by Config.DataDir, where it keeps:
//
//  openherd.toml // (optional) configuration file read by the CLI.
//  peers.json // the last-known set of discovered nodes.
//  badger_db/ or openherd.db // persisted blobs: settings, cache, pending queue.
package config
