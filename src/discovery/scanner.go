package discovery

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
	"github.com/sirupsen/logrus"
)

// ServiceName is the DNS-SD service type advertised by nodes.
const ServiceName = "_openherd._tcp"

// Record is one service advertisement.
type Record struct {
	Name string
	Host string
	Port int
	TXT  []string
}

// Scanner browses the local network for node advertisements. Scan returns
// when ctx is done or the scan window is over.
type Scanner interface {
	Scan(ctx context.Context) ([]Record, error)
}

// ScannerFunc adapts a function to the Scanner interface.
type ScannerFunc func(ctx context.Context) ([]Record, error)

// Scan implements Scanner.
func (f ScannerFunc) Scan(ctx context.Context) ([]Record, error) {
	return f(ctx)
}

// MDNSScanner implements Scanner over multicast DNS.
type MDNSScanner struct {
	service string
	domain  string
	window  time.Duration
	logger  *logrus.Entry
}

// NewMDNSScanner creates a scanner for ServiceName in the local domain. window
// bounds a scan when the context carries no deadline.
func NewMDNSScanner(window time.Duration, logger *logrus.Entry) *MDNSScanner {
	return &MDNSScanner{
		service: ServiceName,
		domain:  "local",
		window:  window,
		logger:  logger.WithField("prefix", "mdns"),
	}
}

// Scan implements Scanner.
func (s *MDNSScanner) Scan(ctx context.Context) ([]Record, error) {
	timeout := s.window
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}

	entries := make(chan *mdns.ServiceEntry, 16)
	records := []Record{}
	seen := make(map[string]bool)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for e := range entries {
			r := recordFromEntry(e)
			if r.Host == "" || seen[r.Name] {
				continue
			}
			seen[r.Name] = true
			records = append(records, r)
		}
	}()

	params := mdns.DefaultParams(s.service)
	params.Domain = s.domain
	params.Timeout = timeout
	params.Entries = entries
	params.DisableIPv6 = true

	err := mdns.Query(params)
	close(entries)
	<-done

	if err != nil {
		return nil, err
	}

	s.logger.WithField("records", len(records)).Debug("Scan complete")

	return records, nil
}

func recordFromEntry(e *mdns.ServiceEntry) Record {
	host := strings.TrimSuffix(e.Host, ".")
	if e.AddrV4 != nil {
		host = e.AddrV4.String()
	}

	return Record{
		Name: instanceName(e.Name),
		Host: host,
		Port: e.Port,
		TXT:  e.InfoFields,
	}
}

// instanceName strips the service and domain from a full service instance
// name.
func instanceName(full string) string {
	if i := strings.Index(full, "."+ServiceName); i > 0 {
		return full[:i]
	}
	return strings.TrimSuffix(full, ".")
}
