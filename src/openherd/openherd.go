package openherd

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/openherd/openherd/src/config"
	"github.com/openherd/openherd/src/discovery"
	onet "github.com/openherd/openherd/src/net"
	"github.com/openherd/openherd/src/node"
	"github.com/openherd/openherd/src/peers"
	"github.com/openherd/openherd/src/service"
	"github.com/openherd/openherd/src/store"
	"github.com/sirupsen/logrus"
)

// OpenHerd is the engine.
type OpenHerd struct {
	Config       *config.Config
	Store        store.Store
	Transport    onet.Transport
	Connectivity onet.Connectivity
	Scanner      discovery.Scanner
	PeerSet      *peers.JSONPeerSet
	Node         *node.Node
	Service      *service.Service
	Advertiser   *service.Advertiser

	logger *logrus.Entry
}

// NewOpenHerd ...
func NewOpenHerd(conf *config.Config) *OpenHerd {
	return &OpenHerd{
		Config: conf,
		logger: conf.Logger(),
	}
}

func (o *OpenHerd) initStore() error {
	if o.Store != nil {
		return nil
	}

	switch o.Config.Store {
	case config.InmemStore:
		o.Store = store.NewInmemStore()
		o.logger.Debug("created new in-mem store")
	case config.BadgerStore:
		o.logger.WithField("path", o.Config.DatabaseDir).Debug("Attempting to load or create database")
		s, err := store.NewBadgerStore(o.Config.DatabaseDir, o.logger)
		if err != nil {
			return err
		}
		o.Store = s
	case config.SQLiteStore:
		path := o.Config.DatabasePath()
		o.logger.WithField("path", path).Debug("Attempting to load or create database")
		s, err := store.NewSQLiteStore(path)
		if err != nil {
			return err
		}
		o.Store = s
	default:
		return fmt.Errorf("unknown store %q", o.Config.Store)
	}

	return nil
}

func (o *OpenHerd) initTransport() {
	if o.Transport == nil {
		o.Transport = onet.NewHTTPTransport(
			o.Config.SubmitTimeout,
			o.Config.FetchTimeout,
			o.Config.ProbeTimeout,
			o.logger,
		)
	}

	if o.Connectivity == nil {
		o.Connectivity = onet.NewInterfaceConnectivity()
	}

	if o.Scanner == nil {
		o.Scanner = discovery.NewMDNSScanner(o.Config.ScanTimeout, o.logger)
	}
}

func (o *OpenHerd) initPeers() {
	if o.PeerSet == nil && o.Config.Store != config.InmemStore && o.Config.DataDir != "" {
		o.PeerSet = peers.NewJSONPeerSet(o.Config.DataDir)
	}
}

func (o *OpenHerd) initNode() error {
	n, err := node.NewNode(o.Config, node.Deps{
		Store:        o.Store,
		Transport:    o.Transport,
		Connectivity: o.Connectivity,
		Scanner:      o.Scanner,
		PeerSet:      o.PeerSet,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize node: %s", err)
	}

	o.Node = n

	return nil
}

func (o *OpenHerd) saveSettings() error {
	return store.SaveValue(o.Store, store.SettingsKey, o.Config.Settings)
}

// Init builds every component. Components already set are kept.
func (o *OpenHerd) Init() error {
	if err := o.Config.Privacy.Validate(); err != nil {
		return err
	}

	if o.Config.Store != config.InmemStore && o.Config.DataDir != "" {
		if err := os.MkdirAll(o.Config.DataDir, 0700); err != nil {
			return err
		}
	}

	if err := o.initStore(); err != nil {
		return err
	}

	o.initTransport()
	o.initPeers()

	if err := o.initNode(); err != nil {
		return err
	}

	if err := o.saveSettings(); err != nil {
		return err
	}

	o.logger.WithFields(logrus.Fields{
		"node":           o.Config.NodeURL,
		"store":          o.Config.Store,
		"auto-discovery": o.Config.AutoDiscovery,
		"pending":        o.Node.Queue().Len(),
	}).Debug("Engine initialized")

	return nil
}

// InitService builds the node HTTP service, and the mDNS advertiser when
// enabled. It must be called after Init.
func (o *OpenHerd) InitService() error {
	if o.Service == nil {
		s, err := service.NewService(o.Config.ServiceAddr, o.Store, o.Config.OutboxSize, o.logger)
		if err != nil {
			return err
		}
		o.Service = s
	}

	if o.Config.Advertise && o.Advertiser == nil {
		port, err := listenPort(o.Config.ServiceAddr)
		if err != nil {
			return err
		}
		a, err := service.NewAdvertiser(o.Config.Moniker, port, o.logger)
		if err != nil {
			o.logger.WithError(err).Warn("Cannot advertise node, continuing without mDNS")
		} else {
			o.Advertiser = a
		}
	}

	return nil
}

// Run serves the node API, if a service was built, and runs the client loop
// until ctx is done.
func (o *OpenHerd) Run(ctx context.Context) {
	if o.Service != nil {
		go func() {
			if err := o.Service.Serve(); err != nil {
				o.logger.WithError(err).Error("Service stopped")
			}
		}()
	}

	o.Node.Run(ctx)
}

// Close releases the service, the advertiser and the store.
func (o *OpenHerd) Close() error {
	if o.Advertiser != nil {
		o.Advertiser.Shutdown()
	}

	if o.Service != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := o.Service.Shutdown(ctx); err != nil {
			o.logger.WithError(err).Warn("Shutting down service")
		}
	}

	if o.Store != nil {
		return o.Store.Close()
	}

	return nil
}

// LoadSettings reads the settings saved by the last Init.
func LoadSettings(s store.Store) (config.Settings, bool, error) {
	var settings config.Settings
	found, err := store.LoadValue(s, store.SettingsKey, &settings)
	return settings, found, err
}

func listenPort(addr string) (int, error) {
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(p)
}
