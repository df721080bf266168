// Package openherd assembles an OpenHerd client, and optionally a node, from
// a configuration.
//
// The engine picks the blob store, the transport, the connectivity probe and
// the discovery scanner, builds the client Node on top of them and, when asked
// to serve, the node HTTP service and its mDNS advertisement. Every piece can
// be set on the engine before Init to replace the default one; tests use this
// to run fully in memory.
package openherd
