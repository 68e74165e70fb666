package merkletree

import (
	"context"
	"sync"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// nodeKey addresses a single tree node by level and index.
type nodeKey struct {
	level uint32
	index uint64
}

// InMemoryTreeStore is a TreeStore backed entirely by process memory. It is
// used by tests, by cmd/maspctl and by cmd/sequencerd, which rebuilds it
// from the persisted state file at startup; it loses all state on restart.
type InMemoryTreeStore struct {
	mu      sync.RWMutex
	nodes   map[nodeKey]fr.Element
	root    fr.Element
	size    uint64
	history []fr.Element
	cap     int
	next    int
	filled  bool
}

// NewInMemoryTreeStore creates an empty in-memory store whose root-history
// ring holds up to historyCapacity entries.
func NewInMemoryTreeStore(historyCapacity int) *InMemoryTreeStore {
	if historyCapacity < MinRootHistoryCapacity {
		historyCapacity = MinRootHistoryCapacity
	}
	return &InMemoryTreeStore{
		nodes:   make(map[nodeKey]fr.Element),
		history: make([]fr.Element, historyCapacity),
		cap:     historyCapacity,
	}
}

func (s *InMemoryTreeStore) GetNode(ctx context.Context, level uint32, index uint64) (fr.Element, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.nodes[nodeKey{level, index}]
	return v, ok, nil
}

func (s *InMemoryTreeStore) SetNode(ctx context.Context, level uint32, index uint64, hash fr.Element) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[nodeKey{level, index}] = hash
	return nil
}

func (s *InMemoryTreeStore) GetRoot(ctx context.Context) (fr.Element, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root, nil
}

func (s *InMemoryTreeStore) SetRoot(ctx context.Context, root fr.Element) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.root = root
	return nil
}

func (s *InMemoryTreeStore) GetSize(ctx context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size, nil
}

func (s *InMemoryTreeStore) SetSize(ctx context.Context, size uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.size = size
	return nil
}

// PushRootHistory overwrites the ring slot at position next modulo
// capacity, so the oldest entry is dropped once the ring has wrapped.
func (s *InMemoryTreeStore) PushRootHistory(ctx context.Context, root fr.Element) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[s.next] = root
	s.next = (s.next + 1) % s.cap
	if s.next == 0 {
		s.filled = true
	}
	return nil
}

// RootHistory returns the ring's live entries, oldest first.
func (s *InMemoryTreeStore) RootHistory(ctx context.Context) ([]fr.Element, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.filled {
		out := make([]fr.Element, s.next)
		copy(out, s.history[:s.next])
		return out, nil
	}
	out := make([]fr.Element, 0, s.cap)
	out = append(out, s.history[s.next:]...)
	out = append(out, s.history[:s.next]...)
	return out, nil
}
