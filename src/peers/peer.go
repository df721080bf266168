package peers

import (
	"fmt"
	"strings"
)

// DefaultPort is used when a discovery record does not carry a port.
const DefaultPort = 3000

// Peer is a node found on the local network.
type Peer struct {
	Name     string
	Host     string
	Port     int
	URL      string
	Metadata map[string]string `json:",omitempty"`
}

// NewPeer builds a peer from a discovery record and derives its base url.
func NewPeer(name, host string, port int, metadata map[string]string) *Peer {
	host = strings.TrimSuffix(host, ".")
	return &Peer{
		Name:     name,
		Host:     host,
		Port:     port,
		URL:      PeerURL(host, port),
		Metadata: metadata,
	}
}

// PeerURL returns the base url of a node, using DefaultPort when port is not
// set.
func PeerURL(host string, port int) string {
	if port <= 0 {
		port = DefaultPort
	}
	return fmt.Sprintf("http://%s:%d", host, port)
}

// String ...
func (p *Peer) String() string {
	if p.Name == "" {
		return p.URL
	}
	return fmt.Sprintf("%s(%s)", p.Name, p.URL)
}

// URLs returns the base urls of peers, in order.
func URLs(peers []*Peer) []string {
	res := make([]string, 0, len(peers))
	for _, p := range peers {
		res = append(res, p.URL)
	}
	return res
}
