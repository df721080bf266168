package net

import (
	"context"
	"fmt"
	"sync"

	"github.com/openherd/openherd/src/common"
	"github.com/openherd/openherd/src/post"
)

// Endpoint is the node side of the InmemTransport.
type Endpoint interface {
	Accept(envelopes []*post.Envelope) bool
	Outbox() []*post.Envelope
}

// InmemTransport Implements the Transport interface, to allow OpenHerd to be
// tested in-memory without going over a network.
type InmemTransport struct {
	sync.RWMutex
	peers map[string]Endpoint
}

// NewInmemTransport ...
func NewInmemTransport() *InmemTransport {
	return &InmemTransport{
		peers: make(map[string]Endpoint),
	}
}

// Submit implements the Transport interface.
func (i *InmemTransport) Submit(ctx context.Context, target string, envelopes []*post.Envelope) error {
	peer, err := i.route(ctx, target)
	if err != nil {
		return common.WrapErr("InmemTransport", common.SubmissionFailure, target, err)
	}

	// Wait for the endpoint, or for the context
	respCh := make(chan bool, 1)
	go func() {
		respCh <- peer.Accept(copyEnvelopes(envelopes))
	}()

	select {
	case ok := <-respCh:
		if !ok {
			return common.NewErr("InmemTransport", common.SubmissionFailure, target+": not acknowledged")
		}
		return nil
	case <-ctx.Done():
		return common.WrapErr("InmemTransport", common.SubmissionFailure, target, ctx.Err())
	}
}

// Fetch implements the Transport interface.
func (i *InmemTransport) Fetch(ctx context.Context, target string) ([]*post.Envelope, error) {
	peer, err := i.route(ctx, target)
	if err != nil {
		return nil, err
	}
	return copyEnvelopes(peer.Outbox()), nil
}

// Ping implements the Transport interface.
func (i *InmemTransport) Ping(ctx context.Context, target string) error {
	_, err := i.route(ctx, target)
	return err
}

func (i *InmemTransport) route(ctx context.Context, target string) (Endpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	i.RLock()
	peer, ok := i.peers[target]
	i.RUnlock()

	if !ok {
		return nil, fmt.Errorf("failed to connect to peer: %v", target)
	}
	return peer, nil
}

// Connect is used to route a target to an endpoint.
func (i *InmemTransport) Connect(target string, e Endpoint) {
	i.Lock()
	defer i.Unlock()
	i.peers[target] = e
}

// Disconnect is used to remove the ability to route to a given target.
func (i *InmemTransport) Disconnect(target string) {
	i.Lock()
	defer i.Unlock()
	delete(i.peers, target)
}

// DisconnectAll is used to remove all routes.
func (i *InmemTransport) DisconnectAll() {
	i.Lock()
	defer i.Unlock()
	i.peers = make(map[string]Endpoint)
}

func copyEnvelopes(envelopes []*post.Envelope) []*post.Envelope {
	res := make([]*post.Envelope, len(envelopes))
	for k, e := range envelopes {
		c := *e
		res[k] = &c
	}
	return res
}

// InmemEndpoint is a minimal Endpoint that keeps everything it accepts, in
// order, and can be told to refuse submissions.
type InmemEndpoint struct {
	l        sync.Mutex
	outbox   []*post.Envelope
	refuse   bool
	accepted int
	calls    int
}

// NewInmemEndpoint creates an endpoint which already holds envelopes.
func NewInmemEndpoint(envelopes ...*post.Envelope) *InmemEndpoint {
	return &InmemEndpoint{
		outbox: envelopes,
	}
}

// Accept implements Endpoint.
func (e *InmemEndpoint) Accept(envelopes []*post.Envelope) bool {
	e.l.Lock()
	defer e.l.Unlock()
	e.calls++
	if e.refuse {
		return false
	}
	e.outbox = append(e.outbox, envelopes...)
	e.accepted += len(envelopes)
	return true
}

// Outbox implements Endpoint.
func (e *InmemEndpoint) Outbox() []*post.Envelope {
	e.l.Lock()
	defer e.l.Unlock()
	res := make([]*post.Envelope, len(e.outbox))
	copy(res, e.outbox)
	return res
}

// SetRefuse makes the endpoint answer {"ok": false}.
func (e *InmemEndpoint) SetRefuse(refuse bool) {
	e.l.Lock()
	defer e.l.Unlock()
	e.refuse = refuse
}

// Accepted returns the number of envelopes taken so far.
func (e *InmemEndpoint) Accepted() int {
	e.l.Lock()
	defer e.l.Unlock()
	return e.accepted
}

// Calls returns the number of submissions received, refused or not.
func (e *InmemEndpoint) Calls() int {
	e.l.Lock()
	defer e.l.Unlock()
	return e.calls
}
