package vault

import (
	"github.com/dgraph-io/badger"
)

const configurationKey = "configuration"

// BadgerStore implements the Store interface on top of a Badger database.
// It is the durable backend used on real deployments, where provisioning
// state must survive power cycles.
type BadgerStore struct {
	db   *badger.DB
	path string
}

// NewBadgerStore opens (or creates) a Badger database at path.
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).
		WithSyncWrites(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, StoreErr{Op: "open", Err: err}
	}

	return &BadgerStore{
		db:   db,
		path: path,
	}, nil
}

// Load implements the Store interface.
func (s *BadgerStore) Load() (*Configuration, error) {
	var data []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(configurationKey))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})

	if err == badger.ErrKeyNotFound {
		return nil, ErrNoConfiguration
	}
	if err != nil {
		return nil, StoreErr{Op: "load", Err: err}
	}

	conf := new(Configuration)
	if err := conf.Unmarshal(data); err != nil {
		return nil, StoreErr{Op: "load", Err: err}
	}

	return conf, nil
}

// Save implements the Store interface.
func (s *BadgerStore) Save(conf *Configuration) error {
	data, err := conf.Marshal()
	if err != nil {
		return StoreErr{Op: "save", Err: err}
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(configurationKey), data)
	})
	if err != nil {
		return StoreErr{Op: "save", Err: err}
	}

	return nil
}

// Reset implements the Store interface. It drops everything in the
// database, returning the device to its first-boot state.
func (s *BadgerStore) Reset() error {
	if err := s.db.DropAll(); err != nil {
		return StoreErr{Op: "reset", Err: err}
	}
	return nil
}

// Close implements the Store interface.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// Path returns the database directory.
func (s *BadgerStore) Path() string {
	return s.path
}
