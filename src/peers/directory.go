package peers

import (
	"sync"
)

// Directory holds the primary node url and the peers found by discovery. It
// is safe for concurrent use.
type Directory struct {
	l          sync.RWMutex
	primary    string
	discovered []*Peer
}

// NewDirectory ...
func NewDirectory(primary string) *Directory {
	return &Directory{
		primary: primary,
	}
}

// Primary returns the url of the primary node.
func (d *Directory) Primary() string {
	d.l.RLock()
	defer d.l.RUnlock()
	return d.primary
}

// SetPrimary changes the primary node.
func (d *Directory) SetPrimary(url string) {
	d.l.Lock()
	defer d.l.Unlock()
	d.primary = url
}

// Discovered returns a copy of the current discovered set.
func (d *Directory) Discovered() []*Peer {
	d.l.RLock()
	defer d.l.RUnlock()
	res := make([]*Peer, len(d.discovered))
	copy(res, d.discovered)
	return res
}

// DiscoveredURLs ...
func (d *Directory) DiscoveredURLs() []string {
	return URLs(d.Discovered())
}

// SetDiscovered replaces the discovered set.
func (d *Directory) SetDiscovered(peers []*Peer) {
	d.l.Lock()
	defer d.l.Unlock()
	d.discovered = make([]*Peer, len(peers))
	copy(d.discovered, peers)
}

// OnPeers receives the result of a discovery scan.
func (d *Directory) OnPeers(peers []*Peer) {
	d.SetDiscovered(peers)
}

// Targets returns the primary url followed by the discovered urls in
// discovery order. A discovered peer with the same url as the primary is not
// removed.
func (d *Directory) Targets() []string {
	d.l.RLock()
	defer d.l.RUnlock()
	res := make([]string, 0, len(d.discovered)+1)
	res = append(res, d.primary)
	for _, p := range d.discovered {
		res = append(res, p.URL)
	}
	return res
}
