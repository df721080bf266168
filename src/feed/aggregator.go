package feed

import (
	"context"
	"sync"

	"github.com/openherd/openherd/src/common"
	"github.com/openherd/openherd/src/net"
	"github.com/openherd/openherd/src/post"
	"github.com/sirupsen/logrus"
)

// Aggregator loads feeds.
type Aggregator struct {
	transport net.Transport
	cache     *Cache
	verify    func(*post.Envelope) bool
	logger    *logrus.Entry
}

// NewAggregator creates an Aggregator. verify may be nil, in which case
// post.Verify is used.
func NewAggregator(transport net.Transport, cache *Cache, verify func(*post.Envelope) bool, logger *logrus.Entry) *Aggregator {
	if verify == nil {
		verify = post.Verify
	}
	return &Aggregator{
		transport: transport,
		cache:     cache,
		verify:    verify,
		logger:    logger.WithField("prefix", "feed"),
	}
}

// Cache ...
func (a *Aggregator) Cache() *Cache {
	return a.cache
}

// LoadFeed builds the feed. When connected it fetches primary and every
// discovered node concurrently; a discovered node that fails contributes
// nothing, while a primary that fails degrades the whole load to the cached
// snapshot.
func (a *Aggregator) LoadFeed(ctx context.Context, connected bool, primary string, discovered []string, pending []*post.Envelope) (*Feed, error) {
	var base []*Item

	if connected {
		fetched, err := a.fetchAll(ctx, primary, discovered)
		if err != nil {
			a.logger.WithError(err).Warn("Falling back to cached feed")
			return &Feed{Items: SortByDate(a.items(a.cache.Envelopes(), false))},
				common.WrapErr("Feed", common.FeedLoadDegraded, primary, err)
		}

		merged := Dedup(a.items(fetched, false))
		if len(merged) > 0 {
			if err := a.cache.Replace(merged); err != nil {
				a.logger.WithError(err).Error("Saving feed cache")
			}
			base = merged
		}
	}

	if base == nil {
		base = a.items(a.cache.Envelopes(), false)
	}

	combined := append(a.items(pending, true), base...)
	combined = Dedup(combined)

	a.logger.WithFields(logrus.Fields{
		"connected": connected,
		"pending":   len(pending),
		"items":     len(combined),
	}).Debug("Feed loaded")

	return &Feed{Items: SortByDate(combined)}, nil
}

// fetchAll returns the primary envelopes followed by the envelopes of every
// discovered node, in discovery order.
func (a *Aggregator) fetchAll(ctx context.Context, primary string, discovered []string) ([]*post.Envelope, error) {
	var primaryEnvs []*post.Envelope
	var primaryErr error
	results := make([][]*post.Envelope, len(discovered))

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		primaryEnvs, primaryErr = a.transport.Fetch(ctx, primary)
	}()

	for i, target := range discovered {
		wg.Add(1)
		go func(i int, target string) {
			defer wg.Done()
			envs, err := a.transport.Fetch(ctx, target)
			if err != nil {
				a.logger.WithField("target", target).WithError(err).Debug("Fetching discovered peer")
				return
			}
			results[i] = envs
		}(i, target)
	}

	wg.Wait()

	if primaryErr != nil {
		return nil, primaryErr
	}

	all := primaryEnvs
	for _, r := range results {
		all = append(all, r...)
	}

	return all, nil
}

// items converts envelopes to items, dropping the malformed ones.
func (a *Aggregator) items(envelopes []*post.Envelope, pending bool) []*Item {
	res := make([]*Item, 0, len(envelopes))
	for _, env := range envelopes {
		if env == nil {
			continue
		}
		data, err := env.ParseData()
		if err != nil {
			a.logger.WithError(err).Debug("Dropping malformed envelope")
			continue
		}
		res = append(res, &Item{
			Envelope: env,
			Post:     data,
			Verified: a.verify(env),
			Pending:  pending,
		})
	}
	return res
}
