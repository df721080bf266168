package queue

import (
	"context"
	"sync"

	"github.com/openherd/openherd/src/net"
	"github.com/openherd/openherd/src/post"
	"github.com/sirupsen/logrus"
)

// Broadcaster delivers one envelope to every known node and returns the
// number of nodes that acknowledged it.
type Broadcaster interface {
	Broadcast(ctx context.Context, env *post.Envelope, enqueueOnTotalFailure bool) int
}

// Result summarizes a reconciliation pass. Failed counts every entry that was
// not delivered, whether it stays in the queue or not.
type Result struct {
	Success int
	Failed  int
}

// Reconciler retries the entries of a Queue.
type Reconciler struct {
	sync.Mutex
	queue        *Queue
	broadcaster  Broadcaster
	connectivity net.Connectivity
	logger       *logrus.Entry
}

// NewReconciler ...
func NewReconciler(q *Queue, b Broadcaster, c net.Connectivity, logger *logrus.Entry) *Reconciler {
	return &Reconciler{
		queue:        q,
		broadcaster:  b,
		connectivity: c,
		logger:       logger.WithField("prefix", "reconciler"),
	}
}

// Reconcile makes one pass over the queue, in enqueue order, retrying each
// entry with a broadcast that does not enqueue. It returns {0, len} without
// touching the queue when offline. If connectivity drops mid-pass, the
// entries not yet attempted are kept as they are and counted as failed.
func (r *Reconciler) Reconcile(ctx context.Context) (Result, error) {
	r.Lock()
	defer r.Unlock()

	entries := r.queue.Entries()
	if len(entries) == 0 {
		return Result{}, nil
	}

	if !r.connectivity.Connected(ctx) {
		r.logger.WithField("entries", len(entries)).Debug("Offline, skipping reconciliation")
		return Result{Failed: len(entries)}, nil
	}

	var res Result
	survivors := make([]*Entry, 0, len(entries))

	keepRemaining := func(i int) {
		r.logger.WithField("remaining", len(entries)-i).Debug("Connectivity lost during reconciliation")
		survivors = append(survivors, entries[i:]...)
		res.Failed += len(entries) - i
	}

loop:
	for i, e := range entries {
		if ctx.Err() != nil || !r.connectivity.Connected(ctx) {
			keepRemaining(i)
			break
		}

		// Entries loaded with a spent budget are dropped without a retry.
		if e.Attempts >= MaxAttempts {
			e.State = Exhausted
			res.Failed++
			r.logger.WithField("id", e.Envelope.ID).Warn("Dropping exhausted pending post")
			continue
		}

		delivered := r.broadcaster.Broadcast(ctx, e.Envelope, false) > 0

		// Going offline during the broadcast does not cost an attempt.
		if !delivered && (ctx.Err() != nil || !r.connectivity.Connected(ctx)) {
			keepRemaining(i)
			break loop
		}

		switch e.Attempt(delivered) {
		case Delivered:
			res.Success++
			r.logger.WithField("id", e.Envelope.ID).Debug("Delivered pending post")
		case Exhausted:
			res.Failed++
			r.logger.WithFields(logrus.Fields{
				"id":       e.Envelope.ID,
				"attempts": e.Attempts,
			}).Warn("Dropping pending post after too many attempts")
		default:
			res.Failed++
			survivors = append(survivors, e)
		}
	}

	if err := r.queue.replacePrefix(len(entries), survivors); err != nil {
		return res, err
	}

	r.logger.WithFields(logrus.Fields{
		"success":   res.Success,
		"failed":    res.Failed,
		"remaining": r.queue.Len(),
	}).Debug("Reconciled")

	return res, nil
}
