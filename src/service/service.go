package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"

	onet "github.com/openherd/openherd/src/net"
	"github.com/openherd/openherd/src/post"
	"github.com/openherd/openherd/src/store"
	"github.com/openherd/openherd/src/version"
	"github.com/sirupsen/logrus"
)

// maxInboxSize caps the body of an inbox submission.
const maxInboxSize = 1 << 20

// Service ...
type Service struct {
	sync.Mutex

	bindAddress string
	store       store.Store
	outboxSize  int
	verify      func(*post.Envelope) bool

	outbox []*post.Envelope
	ids    map[string]struct{}

	accepted int
	rejected int

	hub    *Hub
	mux    *http.ServeMux
	server *http.Server
	logger *logrus.Entry
}

// NewService loads the outbox from the store and registers the handlers.
func NewService(bindAddress string, s store.Store, outboxSize int, logger *logrus.Entry) (*Service, error) {
	service := &Service{
		bindAddress: bindAddress,
		store:       s,
		outboxSize:  outboxSize,
		verify:      post.Verify,
		ids:         make(map[string]struct{}),
		logger:      logger.WithField("prefix", "service"),
	}

	var stored []*post.Envelope
	if _, err := store.LoadValue(s, store.OutboxKey, &stored); err != nil {
		return nil, err
	}

	outbox := make([]*post.Envelope, 0, len(stored))
	for i, e := range stored {
		if err := e.Validate(); err != nil {
			service.logger.WithField("index", i).WithError(err).Warn("Dropping malformed outbox entry")
			continue
		}
		if _, held := service.ids[e.ID]; held {
			continue
		}
		service.ids[e.ID] = struct{}{}
		outbox = append(outbox, e)
	}
	service.outbox = outbox

	if len(outbox) != len(stored) {
		if err := store.SaveValue(s, store.OutboxKey, outbox); err != nil {
			return nil, err
		}
	}

	service.hub = NewHub(service.logger)

	service.registerHandlers()

	return service, nil
}

func (s *Service) registerHandlers() {
	s.logger.Debug("Registering OpenHerd API handlers")
	s.mux = http.NewServeMux()
	s.mux.HandleFunc(onet.InboxPath, s.makeHandler(s.PostInbox))
	s.mux.HandleFunc(onet.OutboxPath, s.makeHandler(s.GetOutbox))
	s.mux.HandleFunc(onet.StatsPath, s.makeHandler(s.GetStats))
	s.mux.HandleFunc(onet.StreamPath, s.hub.ServeWS)
}

func (s *Service) makeHandler(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// enable CORS
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		fn(w, r)
	}
}

// Handler returns the node API.
func (s *Service) Handler() http.Handler {
	return s.mux
}

// Serve calls ListenAndServe. This is a blocking call; it returns nil after
// Shutdown.
func (s *Service) Serve() error {
	s.Lock()
	s.server = &http.Server{
		Addr:    s.bindAddress,
		Handler: s.mux,
	}
	server := s.server
	s.Unlock()

	s.logger.WithField("bind_address", s.bindAddress).Info("Serving OpenHerd API")

	err := server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the server and closes every stream.
func (s *Service) Shutdown(ctx context.Context) error {
	s.hub.Close()

	s.Lock()
	server := s.server
	s.Unlock()

	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

// Accept checks and stores envelopes. It returns true when every envelope was
// valid, whether new or already held.
func (s *Service) Accept(envelopes []*post.Envelope) bool {
	ok := true
	fresh := []*post.Envelope{}

	for _, e := range envelopes {
		if e == nil {
			ok = false
			continue
		}
		if _, err := e.ParseData(); err != nil || !s.verify(e) {
			s.logger.WithField("id", e.ID).Debug("Rejecting envelope")
			ok = false
			continue
		}
		fresh = append(fresh, e)
	}

	s.Lock()
	defer s.Unlock()

	added := []*post.Envelope{}
	for _, e := range fresh {
		if _, held := s.ids[e.ID]; held {
			continue
		}
		s.ids[e.ID] = struct{}{}
		added = append(added, e)
	}

	s.rejected += len(envelopes) - len(fresh)

	if len(added) == 0 {
		return ok
	}

	// Most recent first, oldest trimmed
	next := make([]*post.Envelope, 0, len(s.outbox)+len(added))
	for i := len(added) - 1; i >= 0; i-- {
		next = append(next, added[i])
	}
	next = append(next, s.outbox...)
	if s.outboxSize > 0 && len(next) > s.outboxSize {
		for _, e := range next[s.outboxSize:] {
			delete(s.ids, e.ID)
		}
		next = next[:s.outboxSize]
	}

	if err := store.SaveValue(s.store, store.OutboxKey, next); err != nil {
		s.logger.WithError(err).Error("Saving outbox")
		for _, e := range added {
			delete(s.ids, e.ID)
		}
		return false
	}

	s.outbox = next
	s.accepted += len(added)

	s.logger.WithFields(logrus.Fields{
		"added":  len(added),
		"outbox": len(s.outbox),
	}).Debug("Accepted envelopes")

	for _, e := range added {
		s.hub.Publish(e)
	}

	return ok
}

// Outbox returns the held envelopes, most recently accepted first.
func (s *Service) Outbox() []*post.Envelope {
	s.Lock()
	defer s.Unlock()
	res := make([]*post.Envelope, len(s.outbox))
	copy(res, s.outbox)
	return res
}

// Stats ...
func (s *Service) Stats() onet.Stats {
	s.Lock()
	defer s.Unlock()
	return onet.Stats{
		Version:  version.Version,
		Posts:    len(s.outbox),
		Accepted: s.accepted,
		Rejected: s.rejected,
		Streams:  s.hub.Len(),
	}
}

// PostInbox ...
func (s *Service) PostInbox(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var envelopes []*post.Envelope
	if err := json.NewDecoder(io.LimitReader(r.Body, maxInboxSize)).Decode(&envelopes); err != nil {
		s.logger.WithError(err).Debug("Decoding inbox submission")
		writeJSON(w, http.StatusBadRequest, onet.SubmitResponse{OK: false, Error: "invalid body"})
		return
	}

	if len(envelopes) == 0 {
		writeJSON(w, http.StatusBadRequest, onet.SubmitResponse{OK: false, Error: "no envelope"})
		return
	}

	if !s.Accept(envelopes) {
		writeJSON(w, http.StatusOK, onet.SubmitResponse{OK: false, Error: "rejected"})
		return
	}

	writeJSON(w, http.StatusOK, onet.SubmitResponse{OK: true, Accepted: len(envelopes)})
}

// GetOutbox ...
func (s *Service) GetOutbox(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Outbox())
}

// GetStats ...
func (s *Service) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Stats())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
