package node

import (
	"context"
	"time"

	"github.com/openherd/openherd/src/config"
	"github.com/openherd/openherd/src/discovery"
	"github.com/openherd/openherd/src/feed"
	"github.com/openherd/openherd/src/geo"
	"github.com/openherd/openherd/src/net"
	"github.com/openherd/openherd/src/peers"
	"github.com/openherd/openherd/src/post"
	"github.com/openherd/openherd/src/queue"
	"github.com/openherd/openherd/src/store"
	"github.com/sirupsen/logrus"
)

// Node defines an OpenHerd client
type Node struct {
	state

	conf   *config.Config
	logger *logrus.Entry

	crypto post.Crypto
	skewer geo.Skewer

	directory    *peers.Directory
	peerSet      *peers.JSONPeerSet
	connectivity net.Connectivity

	coordinator *Coordinator
	queue       *queue.Queue
	reconciler  *queue.Reconciler
	aggregator  *feed.Aggregator
	discovery   *discovery.Service
}

// Deps groups the capabilities a Node is built on.
type Deps struct {
	Store        store.Store
	Transport    net.Transport
	Connectivity net.Connectivity
	Scanner      discovery.Scanner
	Crypto       post.Crypto
	Skewer       geo.Skewer
	// PeerSet, when set, seeds the directory with the last known peers and
	// records every discovery result.
	PeerSet *peers.JSONPeerSet
}

// NewNode is a factory method that returns a Node instance. It loads the
// pending queue and the feed cache from the store.
func NewNode(conf *config.Config, deps Deps) (*Node, error) {
	logger := conf.Logger()

	q, err := queue.NewQueue(deps.Store, logger)
	if err != nil {
		return nil, err
	}

	cache, err := feed.NewCache(deps.Store, conf.MaxCacheSize())
	if err != nil {
		return nil, err
	}

	crypto := deps.Crypto
	if crypto == nil {
		crypto = post.NewECDSACrypto()
	}

	skewer := deps.Skewer
	if skewer == nil {
		skewer = geo.NewGridSkewer()
	}

	directory := peers.NewDirectory(conf.NodeURL)

	coordinator := NewCoordinator(directory, deps.Transport, deps.Connectivity, q, conf.SubmitTimeout, logger)

	n := &Node{
		conf:         conf,
		logger:       logger.WithField("prefix", "node"),
		crypto:       crypto,
		skewer:       skewer,
		directory:    directory,
		peerSet:      deps.PeerSet,
		connectivity: deps.Connectivity,
		coordinator:  coordinator,
		queue:        q,
		reconciler:   queue.NewReconciler(q, coordinator, deps.Connectivity, logger),
		aggregator:   feed.NewAggregator(deps.Transport, cache, crypto.Verify, logger),
	}

	if deps.Scanner != nil {
		n.discovery = discovery.NewService(deps.Scanner, deps.Transport, conf.ScanTimeout, conf.ProbeTimeout, logger)
		n.discovery.Subscribe(directory)
		if deps.PeerSet != nil {
			n.discovery.Subscribe(deps.PeerSet)
		}
	}

	if deps.PeerSet != nil {
		known, err := deps.PeerSet.Peers()
		if err != nil {
			n.logger.WithError(err).Warn("Reading last known peers")
		}
		directory.SetDiscovered(known)
	}

	return n, nil
}

// Post signs a new post and broadcasts it, queueing it if no node takes it.
// It returns the envelope and the number of nodes that acknowledged it. Only
// signing errors are returned.
func (n *Node) Post(ctx context.Context, req post.Request) (*post.Envelope, int, error) {
	env, err := post.CreateSignedPost(n.crypto, n.skewer, req, n.conf.Privacy)
	if err != nil {
		return nil, 0, err
	}

	n.logger.WithField("id", env.ID).Debug("Signed post")

	return env, n.Broadcast(ctx, env, true), nil
}

// Broadcast ...
func (n *Node) Broadcast(ctx context.Context, env *post.Envelope, enqueueOnTotalFailure bool) int {
	return n.coordinator.Broadcast(ctx, env, enqueueOnTotalFailure)
}

// Reconcile retries the pending queue once.
func (n *Node) Reconcile(ctx context.Context) (queue.Result, error) {
	return n.reconciler.Reconcile(ctx)
}

// LoadFeed loads the merged feed of every known node plus the pending posts.
func (n *Node) LoadFeed(ctx context.Context) (*feed.Feed, error) {
	return n.aggregator.LoadFeed(ctx,
		n.connectivity.Connected(ctx),
		n.directory.Primary(),
		n.directory.DiscoveredURLs(),
		n.queue.Envelopes(),
	)
}

// Discover runs one discovery scan. It returns nil if discovery is not
// configured.
func (n *Node) Discover(ctx context.Context) []*peers.Peer {
	if n.discovery == nil {
		return nil
	}
	return n.discovery.Discover(ctx)
}

// TestReachability probes a single node.
func (n *Node) TestReachability(ctx context.Context, url string) bool {
	if n.discovery == nil {
		return n.coordinator.transport.Ping(ctx, url) == nil
	}
	return n.discovery.TestReachability(ctx, url)
}

// Run starts periodic discovery, if enabled, and reconciles the pending queue
// every sync interval and whenever connectivity comes back. It returns when
// ctx is done.
func (n *Node) Run(ctx context.Context) {
	if n.conf.AutoDiscovery && n.discovery != nil {
		n.discovery.StartPeriodic(n.conf.DiscoveryInterval)
		defer n.discovery.StopPeriodic()
	}

	interval := n.conf.SyncInterval
	if interval <= 0 {
		interval = config.DefaultSyncInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	n.checkConnectivity(ctx)

	for {
		select {
		case <-ctx.Done():
			n.waitRoutines()
			n.setState(Shutdown)
			n.logger.Debug("Node stopped")
			return
		case <-ticker.C:
			n.checkConnectivity(ctx)
		}
	}
}

// checkConnectivity updates the node state and starts a reconciliation when
// online with a non-empty queue.
func (n *Node) checkConnectivity(ctx context.Context) {
	prev := n.getState()

	if !n.connectivity.Connected(ctx) {
		if prev != Offline {
			n.logger.Info("Offline")
		}
		n.setState(Offline)
		return
	}

	if prev != Online {
		n.logger.Info("Online")
	}
	n.setState(Online)

	if n.queue.Len() == 0 {
		return
	}

	n.goFunc(func() {
		res, err := n.reconciler.Reconcile(ctx)
		if err != nil {
			n.logger.WithError(err).Error("Reconciling pending posts")
			return
		}
		n.logger.WithFields(logrus.Fields{
			"success": res.Success,
			"failed":  res.Failed,
		}).Info("Reconciled pending posts")
	})
}

// GetState ...
func (n *Node) GetState() State {
	return n.getState()
}

// Directory ...
func (n *Node) Directory() *peers.Directory {
	return n.directory
}

// Queue ...
func (n *Node) Queue() *queue.Queue {
	return n.queue
}

// Cache ...
func (n *Node) Cache() *feed.Cache {
	return n.aggregator.Cache()
}

// Discovery returns the discovery service, or nil.
func (n *Node) Discovery() *discovery.Service {
	return n.discovery
}

// Settings returns the user settings the node runs with.
func (n *Node) Settings() config.Settings {
	return n.conf.Settings
}
