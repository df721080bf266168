package queue

import (
	"time"

	"github.com/openherd/openherd/src/post"
)

// MaxAttempts is the number of failed deliveries after which an entry is
// dropped.
const MaxAttempts = 5

// State ...
type State uint8

const (
	// Pending entries have never been retried.
	Pending State = iota
	// Retrying entries failed at least once and will be retried.
	Retrying
	// Delivered entries reached at least one node.
	Delivered
	// Exhausted entries failed MaxAttempts times.
	Exhausted
)

func (s State) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Retrying:
		return "Retrying"
	case Delivered:
		return "Delivered"
	case Exhausted:
		return "Exhausted"
	default:
		return "Unknown"
	}
}

// Terminal reports whether an entry in this state leaves the queue.
func (s State) Terminal() bool {
	return s == Delivered || s == Exhausted
}

// Entry is a post awaiting delivery.
type Entry struct {
	Envelope  *post.Envelope `json:"envelope"`
	Timestamp time.Time      `json:"timestamp"`
	Attempts  int            `json:"attempts"`
	State     State          `json:"state"`
}

// NewEntry ...
func NewEntry(env *post.Envelope, now time.Time) *Entry {
	return &Entry{
		Envelope:  env,
		Timestamp: now,
		State:     Pending,
	}
}

// Attempt records the outcome of one delivery attempt and returns the new
// state. Terminal entries do not move.
func (e *Entry) Attempt(delivered bool) State {
	if e.State.Terminal() {
		return e.State
	}

	if delivered {
		e.State = Delivered
		return e.State
	}

	e.Attempts++
	if e.Attempts >= MaxAttempts {
		e.State = Exhausted
	} else {
		e.State = Retrying
	}
	return e.State
}

func (e *Entry) copy() *Entry {
	c := *e
	if e.Envelope != nil {
		env := *e.Envelope
		c.Envelope = &env
	}
	return &c
}
