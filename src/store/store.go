// Package store persists the named blobs the engine keeps across restarts: the
// user settings, the cached feed snapshot and the pending queue on a client,
// and the outbox on a node.
//
// Blobs are always written whole. The engine never patches a stored value in
// place, it encodes the full collection and replaces the previous blob.
package store

import (
	"bytes"

	"github.com/ugorji/go/codec"
)

// Blob names.
const (
	SettingsKey = "settings"
	CacheKey    = "cache"
	PendingKey  = "pending"
	OutboxKey   = "outbox"
)

// Store loads and saves named blobs. Load returns a common.KeyNotFound error
// when nothing was saved under the name.
type Store interface {
	Load(name string) ([]byte, error)
	Save(name string, value []byte) error
	Close() error
}

// Marshal encodes v with the JSON handle of ugorji/codec, which is
// deterministic for structs and, with Canonical set, for maps.
func Marshal(v interface{}) ([]byte, error) {
	var b bytes.Buffer

	jh := new(codec.JsonHandle)
	jh.Canonical = true

	enc := codec.NewEncoder(&b, jh)

	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// Unmarshal decodes data produced by Marshal into v.
func Unmarshal(data []byte, v interface{}) error {
	b := bytes.NewBuffer(data)

	jh := new(codec.JsonHandle)

	dec := codec.NewDecoder(b, jh)

	return dec.Decode(v)
}

// LoadValue loads the named blob and decodes it into v. It returns
// found=false, and no error, when the blob does not exist.
func LoadValue(s Store, name string, v interface{}) (found bool, err error) {
	data, err := s.Load(name)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := Unmarshal(data, v); err != nil {
		return false, err
	}
	return true, nil
}

// SaveValue encodes v and saves it under name, replacing any previous blob.
func SaveValue(s Store, name string, v interface{}) error {
	data, err := Marshal(v)
	if err != nil {
		return err
	}
	return s.Save(name, data)
}
