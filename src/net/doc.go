// Package net implements the transports used by OpenHerd clients to talk to
// nodes, and the connectivity probes that tell them whether to try at all.
//
// A node exposes two endpoints under its base url:
//
// - POST /_openherd/inbox: accepts a JSON array of envelopes and answers
// {"ok": true} when it took them.
//
// - GET /_openherd/outbox: returns the JSON array of envelopes the node holds.
//
// There are two implementations of the Transport interface:
//
// - HTTP: the real transport, bounded by per-request timeouts.
//
// - Inmem: in-memory transport used for testing, routing targets to
// in-process endpoints.
//
// A submission only counts as delivered when the node answers with a 2xx
// status and an explicit {"ok": true} body. Anything else, including a 2xx
// with {"ok": false}, is a SubmissionFailure.
package net
