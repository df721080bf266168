package node

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/openherd/openherd/src/net"
	"github.com/openherd/openherd/src/peers"
	"github.com/openherd/openherd/src/post"
	"github.com/openherd/openherd/src/queue"
	"github.com/sirupsen/logrus"
)

// Coordinator fans envelopes out to every target of the directory.
type Coordinator struct {
	directory     *peers.Directory
	transport     net.Transport
	connectivity  net.Connectivity
	queue         *queue.Queue
	submitTimeout time.Duration
	logger        *logrus.Entry
}

// NewCoordinator ...
func NewCoordinator(directory *peers.Directory,
	transport net.Transport,
	connectivity net.Connectivity,
	q *queue.Queue,
	submitTimeout time.Duration,
	logger *logrus.Entry,
) *Coordinator {
	return &Coordinator{
		directory:     directory,
		transport:     transport,
		connectivity:  connectivity,
		queue:         q,
		submitTimeout: submitTimeout,
		logger:        logger.WithField("prefix", "broadcast"),
	}
}

// Broadcast submits env to every target and returns the number of targets
// that acknowledged it. Submissions run concurrently and are all awaited; a
// failed or slow target never affects the others. Errors are logged and
// counted, never returned. When offline no submission is attempted.
//
// If enqueueOnTotalFailure is set and no target acknowledged env, it is added
// to the pending queue. A malformed env is neither sent nor queued.
func (c *Coordinator) Broadcast(ctx context.Context, env *post.Envelope, enqueueOnTotalFailure bool) int {
	if err := env.Validate(); err != nil {
		c.logger.WithError(err).Warn("Not broadcasting malformed envelope")
		return 0
	}

	if !c.connectivity.Connected(ctx) {
		c.logger.WithField("id", env.ID).Debug("Offline, not broadcasting")
		if enqueueOnTotalFailure {
			c.enqueue(env)
		}
		return 0
	}

	targets := c.directory.Targets()

	var successes int32
	var wg sync.WaitGroup

	for _, target := range targets {
		wg.Add(1)
		go func(target string) {
			defer wg.Done()

			sctx, cancel := ctx, context.CancelFunc(func() {})
			if c.submitTimeout > 0 {
				sctx, cancel = context.WithTimeout(ctx, c.submitTimeout)
			}
			defer cancel()

			if err := c.transport.Submit(sctx, target, []*post.Envelope{env}); err != nil {
				c.logger.WithFields(logrus.Fields{
					"id":     env.ID,
					"target": target,
				}).WithError(err).Debug("Submission failed")
				return
			}
			atomic.AddInt32(&successes, 1)
		}(target)
	}

	wg.Wait()

	count := int(atomic.LoadInt32(&successes))

	c.logger.WithFields(logrus.Fields{
		"id":        env.ID,
		"targets":   len(targets),
		"successes": count,
	}).Debug("Broadcast")

	if count == 0 && enqueueOnTotalFailure {
		c.enqueue(env)
	}

	return count
}

func (c *Coordinator) enqueue(env *post.Envelope) {
	if err := c.queue.Enqueue(env); err != nil {
		c.logger.WithField("id", env.ID).WithError(err).Error("Enqueueing post")
	}
}
