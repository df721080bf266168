// Package queue holds the posts that could not be delivered to any node and
// retries them later.
//
// Every entry goes through a small state machine:
//
//	Pending --fail--> Retrying --fail--> ... --fail (5th attempt)--> Exhausted
//	   |                 |
//	   +----deliver------+----deliver----> Delivered
//
// Entry.Attempt is the only transition. Delivered and Exhausted entries leave
// the queue at the end of the reconciliation pass that produced them.
//
// The queue is persisted wholesale, as one blob, after every mutation.
// Reconciliation passes run one at a time and in enqueue order; entries added
// while a pass is running are kept after the survivors of that pass.
package queue
