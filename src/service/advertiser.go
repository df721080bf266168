package service

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/hashicorp/mdns"
	"github.com/openherd/openherd/src/discovery"
	"github.com/openherd/openherd/src/version"
	"github.com/sirupsen/logrus"
)

// Advertiser publishes a node as a _openherd._tcp service over mDNS.
type Advertiser struct {
	server *mdns.Server
	logger *logrus.Entry
}

// InstanceName returns moniker, or a random name when it is empty.
func InstanceName(moniker string) string {
	if moniker != "" {
		return moniker
	}
	return "openherd-" + uuid.New().String()[:8]
}

// NewAdvertiser starts answering mDNS queries for the node listening on port.
func NewAdvertiser(moniker string, port int, logger *logrus.Entry) (*Advertiser, error) {
	host, _ := os.Hostname()

	info := []string{
		fmt.Sprintf("version=%s", version.Version),
		"path=/_openherd",
	}

	instance := InstanceName(moniker)

	zone, err := mdns.NewMDNSService(instance, discovery.ServiceName, "", "", port, nil, info)
	if err != nil {
		return nil, err
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: zone})
	if err != nil {
		return nil, err
	}

	a := &Advertiser{
		server: server,
		logger: logger.WithField("prefix", "advertiser"),
	}

	a.logger.WithFields(logrus.Fields{
		"instance": instance,
		"host":     host,
		"port":     port,
	}).Info("Advertising node")

	return a, nil
}

// Shutdown stops answering queries.
func (a *Advertiser) Shutdown() error {
	return a.server.Shutdown()
}
