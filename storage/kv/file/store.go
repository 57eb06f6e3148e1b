package filekv

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"

	"github.com/gorilla/securecookie"
	"github.com/pkg/errors"

	"github.com/trezcool/fypdesk/core"
)

const cookieName = "fypdesk-session"

// Store persists string slots in a single file, authenticated (and encrypted when a block key is set)
// with securecookie.
type Store struct {
	path  string
	codec *securecookie.SecureCookie

	mu sync.Mutex
}

var _ core.KeyValueStore = (*Store)(nil)

func NewStore(path string, hashKey, blockKey []byte) (*Store, error) {
	if len(hashKey) == 0 {
		return nil, errors.New("filekv: hash key is required")
	}
	if len(blockKey) == 0 {
		blockKey = nil
	}
	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(0)
	codec.MaxLength(0)
	return &Store{path: path, codec: codec}, nil
}

// NewStoreFromConfig opens the token store configured under `session.*`.
func NewStoreFromConfig(conf *core.Config) (*Store, error) {
	return NewStore(conf.Session.StorePath, []byte(conf.Session.HashKey), []byte(conf.Session.BlockKey))
}

func (s *Store) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return "", err
	}
	return data[key], nil
}

func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		// a corrupt or foreign file is replaced
		data = make(map[string]string)
	}
	data[key] = value
	return s.save(data)
}

func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return s.remove()
	}
	if _, ok := data[key]; !ok {
		return nil
	}
	delete(data, key)
	if len(data) == 0 {
		return s.remove()
	}
	return s.save(data)
}

func (s *Store) load() (map[string]string, error) {
	data := make(map[string]string)
	raw, err := ioutil.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return data, nil
		}
		return nil, errors.Wrap(err, "filekv: reading store")
	}
	var encoded string
	if err = s.codec.Decode(cookieName, string(raw), &encoded); err != nil {
		return nil, errors.Wrap(err, "filekv: decoding store")
	}
	if err = json.Unmarshal([]byte(encoded), &data); err != nil {
		return nil, errors.Wrap(err, "filekv: unmarshalling store")
	}
	return data, nil
}

func (s *Store) save(data map[string]string) error {
	js, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "filekv: marshalling store")
	}
	encoded, err := s.codec.Encode(cookieName, string(js))
	if err != nil {
		return errors.Wrap(err, "filekv: encoding store")
	}
	if err = os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrap(err, "filekv: creating store dir")
	}
	if err = ioutil.WriteFile(s.path, []byte(encoded), 0o600); err != nil {
		return errors.Wrap(err, "filekv: writing store")
	}
	return nil
}

func (s *Store) remove() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "filekv: removing store")
	}
	return nil
}
