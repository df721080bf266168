// Package node implements the client side of OpenHerd: it signs posts,
// broadcasts them to every known node, keeps the ones that could not be
// delivered and loads the merged feed.
//
// Broadcast
//
// A post is submitted to the primary node and to every node found by
// discovery, concurrently. Every submission runs to completion, whatever
// happens to the others, and the broadcast reports how many nodes
// acknowledged the post. When no node did, the post goes to the pending
// queue.
//
// Offline mode
//
// When the device has no network a broadcast makes no attempt at all and
// queues the post directly. The node's run loop watches connectivity; it
// reconciles the pending queue on every sync tick and as soon as the network
// comes back.
//
// Node is built once per process and holds every piece of mutable state: the
// peer directory, the pending queue and the feed cache.
package node
