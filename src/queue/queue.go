package queue

import (
	"sync"
	"time"

	"github.com/openherd/openherd/src/post"
	"github.com/openherd/openherd/src/store"
	"github.com/sirupsen/logrus"
)

// Queue is the ordered, persisted list of entries awaiting delivery.
type Queue struct {
	l       sync.Mutex
	entries []*Entry
	store   store.Store
	logger  *logrus.Entry
}

// NewQueue loads the persisted entries from s, if any. Entries without a
// valid envelope are dropped and the cleaned queue is saved back.
func NewQueue(s store.Store, logger *logrus.Entry) (*Queue, error) {
	q := &Queue{
		store:  s,
		logger: logger.WithField("prefix", "queue"),
	}

	var entries []*Entry
	found, err := store.LoadValue(s, store.PendingKey, &entries)
	if err != nil {
		return nil, err
	}
	if !found {
		return q, nil
	}

	for i, e := range entries {
		if e == nil {
			q.logger.WithField("index", i).Warn("Dropping empty pending entry")
			continue
		}
		if err := e.Envelope.Validate(); err != nil {
			q.logger.WithField("index", i).WithError(err).Warn("Dropping malformed pending entry")
			continue
		}
		q.entries = append(q.entries, e)
	}

	if len(q.entries) != len(entries) {
		if err := q.persist(); err != nil {
			return nil, err
		}
	}

	q.logger.WithField("entries", len(q.entries)).Debug("Loaded pending queue")

	return q, nil
}

// Enqueue appends a new Pending entry and persists the queue. Malformed
// envelopes are refused.
func (q *Queue) Enqueue(env *post.Envelope) error {
	if err := env.Validate(); err != nil {
		return err
	}

	q.l.Lock()
	defer q.l.Unlock()

	q.entries = append(q.entries, NewEntry(env, time.Now().UTC()))

	q.logger.WithFields(logrus.Fields{
		"id":      env.ID,
		"entries": len(q.entries),
	}).Debug("Enqueued")

	return q.persist()
}

// Len ...
func (q *Queue) Len() int {
	q.l.Lock()
	defer q.l.Unlock()
	return len(q.entries)
}

// Entries returns copies of the entries in enqueue order.
func (q *Queue) Entries() []*Entry {
	q.l.Lock()
	defer q.l.Unlock()
	res := make([]*Entry, len(q.entries))
	for i, e := range q.entries {
		res[i] = e.copy()
	}
	return res
}

// Envelopes returns the envelopes of the entries in enqueue order.
func (q *Queue) Envelopes() []*post.Envelope {
	entries := q.Entries()
	res := make([]*post.Envelope, len(entries))
	for i, e := range entries {
		res[i] = e.Envelope
	}
	return res
}

// replacePrefix swaps the first n entries for survivors, keeping whatever was
// enqueued after them, and persists the result.
func (q *Queue) replacePrefix(n int, survivors []*Entry) error {
	q.l.Lock()
	defer q.l.Unlock()

	if n > len(q.entries) {
		n = len(q.entries)
	}

	next := make([]*Entry, 0, len(survivors)+len(q.entries)-n)
	next = append(next, survivors...)
	next = append(next, q.entries[n:]...)
	q.entries = next

	return q.persist()
}

func (q *Queue) persist() error {
	return store.SaveValue(q.store, store.PendingKey, q.entries)
}
