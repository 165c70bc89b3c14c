package pack

import (
	"sort"
	"strings"
)

// EndBatch releases a batch-modification scope. It must be called exactly
// once, on every exit path, after the last write in the scope.
type EndBatch func()

// Store is the flat string-keyed mapping packs serialize into. Keys are
// dot-joined paths. BeginBatch opens a scoped notification-suppression
// window so that multi-field writes appear atomic to external observers;
// scopes may nest.
type Store interface {
	Has(key string) (bool, error)
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
	Keys(prefix string) ([]string, error)
	BeginBatch() EndBatch
}

// MemStore is the in-memory reference Store. Registered listeners are
// notified once per logical modification: every Set or Delete outside a
// batch, or once per outermost batch that changed anything.
type MemStore struct {
	entries   map[string]string
	listeners []func(keys []string)

	batchDepth int
	pending    map[string]struct{}
}

// NewMemStore constructs an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		entries: make(map[string]string),
	}
}

// Subscribe registers fn to receive modification notifications. The keys
// slice holds every key touched since the last notification, sorted.
func (s *MemStore) Subscribe(fn func(keys []string)) {
	if fn != nil {
		s.listeners = append(s.listeners, fn)
	}
}

// Has reports whether key holds an entry.
func (s *MemStore) Has(key string) (bool, error) {
	_, ok := s.entries[key]
	return ok, nil
}

// Get returns the value stored under key and whether it exists.
func (s *MemStore) Get(key string) (string, bool, error) {
	value, ok := s.entries[key]
	return value, ok, nil
}

// Set stores value under key.
func (s *MemStore) Set(key, value string) error {
	s.entries[key] = value
	s.touched(key)
	return nil
}

// Delete removes the entry under key, if any.
func (s *MemStore) Delete(key string) error {
	if _, ok := s.entries[key]; !ok {
		return nil
	}
	delete(s.entries, key)
	s.touched(key)
	return nil
}

// Keys returns every stored key with the given prefix, sorted. An empty
// prefix returns all keys.
func (s *MemStore) Keys(prefix string) ([]string, error) {
	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// BeginBatch opens a notification-suppression scope.
func (s *MemStore) BeginBatch() EndBatch {
	s.batchDepth++
	released := false
	return func() {
		if released {
			return
		}
		released = true
		s.batchDepth--
		if s.batchDepth == 0 {
			s.flush()
		}
	}
}

func (s *MemStore) touched(key string) {
	if s.batchDepth > 0 {
		if s.pending == nil {
			s.pending = make(map[string]struct{})
		}
		s.pending[key] = struct{}{}
		return
	}
	s.notify([]string{key})
}

func (s *MemStore) flush() {
	if len(s.pending) == 0 {
		return
	}
	keys := make([]string, 0, len(s.pending))
	for key := range s.pending {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	s.pending = nil
	s.notify(keys)
}

func (s *MemStore) notify(keys []string) {
	for _, fn := range s.listeners {
		fn(keys)
	}
}
