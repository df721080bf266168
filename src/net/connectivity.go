package net

import (
	"context"
	"net"
	"sync/atomic"
)

// Connectivity tells whether the device currently has a network.
type Connectivity interface {
	Connected(ctx context.Context) bool
}

// ConnectivityFunc adapts a function to the Connectivity interface.
type ConnectivityFunc func(ctx context.Context) bool

// Connected implements Connectivity.
func (f ConnectivityFunc) Connected(ctx context.Context) bool {
	return f(ctx)
}

// StaticConnectivity reports a value set by the caller. It is used in tests
// and when connectivity is known from outside.
type StaticConnectivity struct {
	connected int32
}

// NewStaticConnectivity ...
func NewStaticConnectivity(connected bool) *StaticConnectivity {
	s := &StaticConnectivity{}
	s.Set(connected)
	return s
}

// Set changes the reported value.
func (s *StaticConnectivity) Set(connected bool) {
	var v int32
	if connected {
		v = 1
	}
	atomic.StoreInt32(&s.connected, v)
}

// Connected implements Connectivity.
func (s *StaticConnectivity) Connected(ctx context.Context) bool {
	return atomic.LoadInt32(&s.connected) == 1
}

// InterfaceConnectivity reports true when at least one non-loopback network
// interface is up and has an address.
type InterfaceConnectivity struct {
	interfaces func() ([]net.Interface, error)
}

// NewInterfaceConnectivity ...
func NewInterfaceConnectivity() *InterfaceConnectivity {
	return &InterfaceConnectivity{
		interfaces: net.Interfaces,
	}
}

// Connected implements Connectivity.
func (c *InterfaceConnectivity) Connected(ctx context.Context) bool {
	ifaces, err := c.interfaces()
	if err != nil {
		return false
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil || len(addrs) == 0 {
			continue
		}
		return true
	}

	return false
}
