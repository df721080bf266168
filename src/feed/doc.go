// Package feed merges the posts held by the primary node, the discovered nodes
// and the local pending queue into one displayable, threaded feed.
//
// Loading a feed fetches every node concurrently, collapses duplicates by post
// id, refreshes the cached snapshot, puts the not yet delivered posts in front
// and sorts the result by date, newest first. When the primary node cannot be
// reached the cached snapshot is returned together with a FeedLoadDegraded
// error; the feed is still usable.
package feed
