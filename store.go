package auth

import (
	"context"
	"encoding/json"
	"sync"
)

// Storage keys mirror the layout the web client kept in browser storage so
// the two implementations stay interchangeable during the migration.
const (
	StoreKeyToken    = "token"
	StoreKeyUserData = "userData"
)

// MemoryStore is a volatile SessionStore used by tests and by hosts that do
// not want persistence across restarts.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
	logger Logger
}

var _ SessionStore = (*MemoryStore)(nil)

// NewMemoryStore will create a new MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: map[string]string{},
		logger: defLogger{},
	}
}

func (s *MemoryStore) WithLogger(l Logger) *MemoryStore {
	if l != nil {
		s.logger = l
	}
	return s
}

// Save stores the profile first and the token second; readers treat either
// being absent as "no session", which makes the pair atomic from their view.
func (s *MemoryStore) Save(ctx context.Context, token string, user *User) error {
	raw, err := encodeStoredUser(user)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[StoreKeyUserData] = raw
	s.values[StoreKeyToken] = token
	return nil
}

// Load returns whatever is present. A corrupt profile yields an empty
// session, never an error.
func (s *MemoryStore) Load(ctx context.Context) (string, *User, error) {
	s.mu.RLock()
	token := s.values[StoreKeyToken]
	raw := s.values[StoreKeyUserData]
	s.mu.RUnlock()

	user, err := decodeStoredUser(raw)
	if err != nil {
		s.logger.Warn("discarding malformed persisted profile: %v", err)
		return "", nil, nil
	}

	return token, user, nil
}

// Clear removes both keys; it never fails
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, StoreKeyToken)
	delete(s.values, StoreKeyUserData)
	return nil
}

// Put writes a raw value, bypassing profile encoding. Test seams use it to
// simulate corrupt or partial state left behind by older clients.
func (s *MemoryStore) Put(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

func encodeStoredUser(user *User) (string, error) {
	if user == nil {
		return "", nil
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return "", ErrMalformedState.Clone().WithMetadata(map[string]any{
			"op": "encode",
		})
	}
	return string(raw), nil
}

func decodeStoredUser(raw string) (*User, error) {
	if raw == "" {
		return nil, nil
	}
	user := &User{}
	if err := json.Unmarshal([]byte(raw), user); err != nil {
		return nil, ErrMalformedState.Clone().WithMetadata(map[string]any{
			"op": "decode",
		})
	}
	return user, nil
}
