// Package service implements the HTTP surface of an OpenHerd node.
//
// A node keeps the envelopes it accepted in a bounded outbox and serves them
// to clients. Submissions to the inbox are checked one by one: an envelope
// must be complete, carry parsable post data, and verify against its own
// public key. Envelopes already held are acknowledged without being stored
// twice.
//
// Endpoints:
//
//	POST /_openherd/inbox    JSON array of envelopes, answers {"ok": bool}
//	GET  /_openherd/outbox   JSON array of envelopes, most recently accepted first
//	GET  /_openherd/stats    counters
//	GET  /_openherd/stream   websocket, one JSON envelope per accepted post
//
// The node can advertise itself on the local network with mDNS so that
// clients find it without configuration.
package service
