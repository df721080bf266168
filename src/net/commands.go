package net

// Paths served by an OpenHerd node, relative to its base url.
const (
	InboxPath  = "/_openherd/inbox"
	OutboxPath = "/_openherd/outbox"
	StreamPath = "/_openherd/stream"
	StatsPath  = "/_openherd/stats"
)

// SubmitResponse is the body a node returns to an inbox submission.
type SubmitResponse struct {
	OK       bool   `json:"ok"`
	Accepted int    `json:"accepted,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Stats is the body returned by the stats endpoint.
type Stats struct {
	Version  string `json:"version"`
	Posts    int    `json:"posts"`
	Accepted int    `json:"accepted"`
	Rejected int    `json:"rejected"`
	Streams  int    `json:"streams"`
}
