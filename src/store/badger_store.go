package store

import (
	"os"

	"github.com/dgraph-io/badger"
	cm "github.com/openherd/openherd/src/common"
	"github.com/sirupsen/logrus"
)

const blobPrefix = "blob_"

// BadgerStore persists blobs in a Badger database, one key per blob.
type BadgerStore struct {
	db   *badger.DB
	path string
}

// NewBadgerStore opens, or creates, the Badger database in path. Badger's own
// messages go to logger.
func NewBadgerStore(path string, logger *logrus.Entry) (*BadgerStore, error) {
	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(path)
	opts.SyncWrites = true
	if logger != nil {
		opts.Logger = logger.WithField("component", "badger")
	}

	handle, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &BadgerStore{
		db:   handle,
		path: path,
	}, nil
}

func blobKey(name string) []byte {
	return []byte(blobPrefix + name)
}

// Load implements the Store interface.
func (s *BadgerStore) Load(name string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(blobKey(name))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})

	if err != nil {
		return nil, mapError(err, name)
	}

	return value, nil
}

// Save implements the Store interface.
func (s *BadgerStore) Save(name string, value []byte) error {
	tx := s.db.NewTransaction(true)
	defer tx.Discard()

	//insert [blob_name] => [value]
	if err := tx.Set(blobKey(name), value); err != nil {
		return err
	}

	return tx.Commit()
}

// Close implements the Store interface.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// StorePath returns the directory of the database.
func (s *BadgerStore) StorePath() string {
	return s.path
}

func isDBKeyNotFound(err error) bool {
	return err == badger.ErrKeyNotFound
}

func mapError(err error, key string) error {
	if err != nil {
		if isDBKeyNotFound(err) {
			return cm.NewErr("BadgerStore", cm.KeyNotFound, key)
		}
	}
	return err
}

func isNotFound(err error) bool {
	return cm.Is(err, cm.KeyNotFound)
}
