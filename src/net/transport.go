package net

import (
	"context"

	"github.com/openherd/openherd/src/post"
)

// Transport provides an interface for network transports to allow a client to
// communicate with nodes. Targets are node base urls.
type Transport interface {

	// Submit delivers envelopes to the target's inbox. It returns nil only if
	// the target explicitly acknowledged them.
	Submit(ctx context.Context, target string, envelopes []*post.Envelope) error

	// Fetch retrieves the envelopes held by the target. Entries that cannot be
	// decoded are skipped.
	Fetch(ctx context.Context, target string) ([]*post.Envelope, error)

	// Ping checks that the target answers its outbox endpoint.
	Ping(ctx context.Context, target string) error
}
