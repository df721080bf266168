package service

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/openherd/openherd/src/post"
	"github.com/sirupsen/logrus"
)

const (
	writeWait   = 10 * time.Second
	pingPeriod  = 30 * time.Second
	streamQueue = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans accepted envelopes out to websocket streams. A stream that cannot
// keep up is dropped.
type Hub struct {
	l       sync.Mutex
	streams map[*stream]struct{}
	closed  bool
	logger  *logrus.Entry
}

type stream struct {
	conn *websocket.Conn
	send chan *post.Envelope
	once sync.Once
}

func (s *stream) close() {
	s.once.Do(func() {
		close(s.send)
	})
}

// NewHub ...
func NewHub(logger *logrus.Entry) *Hub {
	return &Hub{
		streams: make(map[*stream]struct{}),
		logger:  logger.WithField("prefix", "stream"),
	}
}

// Len returns the number of open streams.
func (h *Hub) Len() int {
	h.l.Lock()
	defer h.l.Unlock()
	return len(h.streams)
}

// Publish queues env on every stream.
func (h *Hub) Publish(env *post.Envelope) {
	h.l.Lock()
	defer h.l.Unlock()

	for s := range h.streams {
		select {
		case s.send <- env:
		default:
			h.logger.Debug("Dropping slow stream")
			delete(h.streams, s)
			s.close()
		}
	}
}

// Close ends every stream.
func (h *Hub) Close() {
	h.l.Lock()
	defer h.l.Unlock()

	h.closed = true
	for s := range h.streams {
		delete(h.streams, s)
		s.close()
	}
}

// ServeWS upgrades the request and streams envelopes until the client goes
// away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Debug("Upgrading stream")
		return
	}

	s := &stream{
		conn: conn,
		send: make(chan *post.Envelope, streamQueue),
	}

	h.l.Lock()
	if h.closed {
		h.l.Unlock()
		conn.Close()
		return
	}
	h.streams[s] = struct{}{}
	h.l.Unlock()

	h.logger.WithField("remote", r.RemoteAddr).Debug("Stream opened")

	go h.readLoop(s)
	h.writeLoop(s)
}

// readLoop discards client messages and detects disconnection.
func (h *Hub) readLoop(s *stream) {
	defer h.remove(s)
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(s *stream) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case env, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := s.conn.WriteJSON(env); err != nil {
				h.remove(s)
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(s)
				return
			}
		}
	}
}

func (h *Hub) remove(s *stream) {
	h.l.Lock()
	defer h.l.Unlock()
	if _, ok := h.streams[s]; ok {
		delete(h.streams, s)
		s.close()
	}
}
