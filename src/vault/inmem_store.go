package vault

import "sync"

// InmemStore implements the Store interface with no persistence at all. It
// is used for tests and for store-less runs where losing provisioning state
// on restart is acceptable.
type InmemStore struct {
	sync.Mutex
	data []byte
}

// NewInmemStore ...
func NewInmemStore() *InmemStore {
	return &InmemStore{}
}

// Load implements the Store interface.
func (s *InmemStore) Load() (*Configuration, error) {
	s.Lock()
	defer s.Unlock()

	if s.data == nil {
		return nil, ErrNoConfiguration
	}

	conf := new(Configuration)
	if err := conf.Unmarshal(s.data); err != nil {
		return nil, StoreErr{Op: "load", Err: err}
	}

	return conf, nil
}

// Save implements the Store interface.
func (s *InmemStore) Save(conf *Configuration) error {
	data, err := conf.Marshal()
	if err != nil {
		return StoreErr{Op: "save", Err: err}
	}

	s.Lock()
	defer s.Unlock()
	s.data = data

	return nil
}

// Reset implements the Store interface.
func (s *InmemStore) Reset() error {
	s.Lock()
	defer s.Unlock()
	s.data = nil
	return nil
}

// Close implements the Store interface.
func (s *InmemStore) Close() error {
	return nil
}
