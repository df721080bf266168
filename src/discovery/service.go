package discovery

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/openherd/openherd/src/config"
	"github.com/openherd/openherd/src/net"
	"github.com/openherd/openherd/src/peers"
	"github.com/sirupsen/logrus"
)

// State of the discovery service.
type State uint32

const (
	// Idle ...
	Idle State = iota
	// Scanning ...
	Scanning
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Scanning:
		return "Scanning"
	default:
		return "Unknown"
	}
}

// Subscriber receives the complete peer set after every scan. Subscribers are
// compared by identity, so they should be pointers.
type Subscriber interface {
	OnPeers(peers []*peers.Peer)
}

// Service runs discovery scans and publishes their results.
type Service struct {
	state uint32

	scanLock sync.Mutex

	// periodicLock serializes StartPeriodic and StopPeriodic.
	periodicLock sync.Mutex

	l           sync.Mutex
	subscribers []Subscriber
	known       []*peers.Peer
	stop        context.CancelFunc
	wg          sync.WaitGroup

	scanner      Scanner
	transport    net.Transport
	scanTimeout  time.Duration
	probeTimeout time.Duration

	logger *logrus.Entry
}

// NewService creates a discovery service. transport is used for reachability
// probes only.
func NewService(scanner Scanner, transport net.Transport, scanTimeout, probeTimeout time.Duration, logger *logrus.Entry) *Service {
	return &Service{
		scanner:      scanner,
		transport:    transport,
		scanTimeout:  scanTimeout,
		probeTimeout: probeTimeout,
		logger:       logger.WithField("prefix", "discovery"),
	}
}

// State ...
func (s *Service) State() State {
	return State(atomic.LoadUint32(&s.state))
}

func (s *Service) setState(state State) {
	atomic.StoreUint32(&s.state, uint32(state))
}

// Subscribe adds a subscriber. Adding the same subscriber twice has no
// effect.
func (s *Service) Subscribe(sub Subscriber) {
	s.l.Lock()
	defer s.l.Unlock()
	for _, existing := range s.subscribers {
		if existing == sub {
			return
		}
	}
	s.subscribers = append(s.subscribers, sub)
}

// Unsubscribe removes a subscriber.
func (s *Service) Unsubscribe(sub Subscriber) {
	s.l.Lock()
	defer s.l.Unlock()
	for i, existing := range s.subscribers {
		if existing == sub {
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			return
		}
	}
}

// Peers returns the result of the last scan.
func (s *Service) Peers() []*peers.Peer {
	s.l.Lock()
	defer s.l.Unlock()
	res := make([]*peers.Peer, len(s.known))
	copy(res, s.known)
	return res
}

// Discover runs one scan, replaces the known peers with its result and
// notifies every subscriber before returning. A failed scan yields, and
// publishes, an empty set. If ctx is cancelled nothing is published.
func (s *Service) Discover(ctx context.Context) []*peers.Peer {
	s.scanLock.Lock()
	defer s.scanLock.Unlock()

	s.setState(Scanning)

	scanCtx, cancel := context.WithTimeout(ctx, s.scanTimeout)
	records, err := s.scanner.Scan(scanCtx)
	cancel()

	s.setState(Idle)

	// A cancelled caller keeps the previous set.
	if ctx.Err() != nil {
		return s.Peers()
	}

	found := []*peers.Peer{}
	if err != nil {
		s.logger.WithError(err).Warn("Discovery scan failed")
	} else {
		for _, r := range records {
			found = append(found, peers.NewPeer(r.Name, r.Host, r.Port, metadata(r.TXT)))
		}
	}

	s.l.Lock()
	s.known = found
	subscribers := make([]Subscriber, len(s.subscribers))
	copy(subscribers, s.subscribers)
	s.l.Unlock()

	s.logger.WithField("peers", len(found)).Debug("Discovered")

	for _, sub := range subscribers {
		sub.OnPeers(copyPeers(found))
	}

	return copyPeers(found)
}

// StartPeriodic scans immediately, then every interval, until StopPeriodic is
// called. Starting again stops the running timer first. A non-positive
// interval falls back to the default discovery interval.
func (s *Service) StartPeriodic(interval time.Duration) {
	if interval <= 0 {
		interval = config.DefaultDiscoveryInterval
	}

	s.periodicLock.Lock()
	defer s.periodicLock.Unlock()

	s.stopPeriodic()

	ctx, cancel := context.WithCancel(context.Background())

	s.l.Lock()
	s.stop = cancel
	s.l.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.Discover(ctx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Discover(ctx)
			}
		}
	}()
}

// StopPeriodic stops periodic scans and waits for a running one to return.
func (s *Service) StopPeriodic() {
	s.periodicLock.Lock()
	defer s.periodicLock.Unlock()

	s.stopPeriodic()
}

func (s *Service) stopPeriodic() {
	s.l.Lock()
	stop := s.stop
	s.stop = nil
	s.l.Unlock()

	if stop != nil {
		stop()
	}
	s.wg.Wait()
}

// TestReachability probes a single node once, bounded by the probe timeout.
func (s *Service) TestReachability(ctx context.Context, url string) bool {
	ctx, cancel := context.WithTimeout(ctx, s.probeTimeout)
	defer cancel()

	if err := s.transport.Ping(ctx, url); err != nil {
		s.logger.WithField("url", url).WithError(err).Debug("Unreachable")
		return false
	}
	return true
}

func metadata(txt []string) map[string]string {
	if len(txt) == 0 {
		return nil
	}
	res := make(map[string]string, len(txt))
	for _, field := range txt {
		kv := strings.SplitN(field, "=", 2)
		if len(kv) == 2 {
			res[kv[0]] = kv[1]
		} else {
			res[kv[0]] = ""
		}
	}
	return res
}

func copyPeers(ps []*peers.Peer) []*peers.Peer {
	res := make([]*peers.Peer, len(ps))
	copy(res, ps)
	return res
}
