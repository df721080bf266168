package store

import (
	"sync"

	cm "github.com/openherd/openherd/src/common"
)

// InmemStore keeps blobs in a map. It is used in tests and when persistence is
// disabled.
type InmemStore struct {
	l      sync.RWMutex
	blobs  map[string][]byte
	closed bool
}

// NewInmemStore ...
func NewInmemStore() *InmemStore {
	return &InmemStore{
		blobs: make(map[string][]byte),
	}
}

// Load implements the Store interface.
func (s *InmemStore) Load(name string) ([]byte, error) {
	s.l.RLock()
	defer s.l.RUnlock()

	if s.closed {
		return nil, cm.NewErr("InmemStore", cm.StoreClosed, name)
	}

	v, ok := s.blobs[name]
	if !ok {
		return nil, cm.NewErr("InmemStore", cm.KeyNotFound, name)
	}

	res := make([]byte, len(v))
	copy(res, v)
	return res, nil
}

// Save implements the Store interface.
func (s *InmemStore) Save(name string, value []byte) error {
	s.l.Lock()
	defer s.l.Unlock()

	if s.closed {
		return cm.NewErr("InmemStore", cm.StoreClosed, name)
	}

	v := make([]byte, len(value))
	copy(v, value)
	s.blobs[name] = v
	return nil
}

// Close implements the Store interface.
func (s *InmemStore) Close() error {
	s.l.Lock()
	defer s.l.Unlock()
	s.closed = true
	return nil
}
