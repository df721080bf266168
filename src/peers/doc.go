// Package peers defines the OpenHerd peer and the directory of nodes a client
// talks to.
//
// A peer is a node that accepts and serves signed posts over HTTP. The client
// always has one primary node, configured by the user, and zero or more nodes
// found on the local network by the discovery service. The Directory holds
// both and produces the list of targets used for broadcasts and feed loads:
// the primary first, followed by the discovered nodes in discovery order.
//
// The discovered set is replaced wholesale on every scan. JSONPeerSet persists
// the last known set to a peers.json file in the data directory, so a client
// that restarts without a network still knows where to look.
package peers
