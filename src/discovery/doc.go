// Package discovery finds OpenHerd nodes on the local network.
//
// Nodes advertise themselves as the DNS-SD service _openherd._tcp over
// multicast DNS. A scan collects the advertisements received within a short
// window, turns them into peers and hands the complete set to every
// subscriber. Each scan replaces the previous set; peers are never merged
// across scans.
//
// The service is either Idle or Scanning. Scans never overlap: a scan started
// while another one runs waits for it to finish.
package discovery
