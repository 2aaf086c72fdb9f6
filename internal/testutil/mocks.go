package testutil

import (
	"errors"
	"sync"

	"github.com/devaloi/quoteboard/internal/domain"
)

// ErrStorage is returned by a MockStore that has been told to fail.
var ErrStorage = errors.New("mock storage failure")

// MockClient implements hub.Client for testing.
type MockClient struct {
	Name     string
	messages [][]byte
	mu       sync.Mutex
}

// NewMockClient creates a new MockClient with the given name.
func NewMockClient(name string) *MockClient {
	return &MockClient{Name: name}
}

// Username returns the mock client's name.
func (m *MockClient) Username() string { return m.Name }

// Send records a message sent to the mock client.
func (m *MockClient) Send(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.messages = append(m.messages, cp)
}

// GetMessages returns a copy of all messages received by the mock client.
func (m *MockClient) GetMessages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([][]byte, len(m.messages))
	copy(cp, m.messages)
	return cp
}

// MockStore implements store.Store in memory.
type MockStore struct {
	mu       sync.Mutex
	quotes   map[string][]domain.Quote
	failLoad bool
	failSave bool
	saves    int
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{quotes: make(map[string][]domain.Quote)}
}

// FailLoad makes subsequent Load calls return ErrStorage.
func (s *MockStore) FailLoad(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failLoad = fail
}

// FailSave makes subsequent Save calls return ErrStorage.
func (s *MockStore) FailSave(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSave = fail
}

// Saves returns how many Save calls succeeded.
func (s *MockStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Load returns a copy of the room's quotes.
func (s *MockStore) Load(room string) ([]domain.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLoad {
		return nil, ErrStorage
	}
	return append([]domain.Quote{}, s.quotes[room]...), nil
}

// Peek is Load; the mock never creates anything on read.
func (s *MockStore) Peek(room string) ([]domain.Quote, error) {
	return s.Load(room)
}

// Save stores a copy of quotes for the room.
func (s *MockStore) Save(room string, quotes []domain.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave {
		return ErrStorage
	}
	s.quotes[room] = append([]domain.Quote{}, quotes...)
	s.saves++
	return nil
}

// Close is a no-op for the mock store.
func (s *MockStore) Close() error { return nil }
