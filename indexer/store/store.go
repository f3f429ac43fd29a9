package store

import (
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"
)

// Store is the key to counter view the pipeline stages share. Add creates
// missing keys at zero.
type Store interface {
	Add(key string, delta int64)
	Get(key string) (int64, bool)
}

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps counters in memory and tracks the deltas applied since the
// last BeginBlock so the host can persist or discard them.
type MemoryStore struct {
	values  *xsync.Map[string, *atomic.Int64]
	deltas  *xsync.Map[string, *atomic.Int64]
	created *xsync.Map[string, struct{}] // keys first seen in the current window
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values:  xsync.NewMap[string, *atomic.Int64](),
		deltas:  xsync.NewMap[string, *atomic.Int64](),
		created: xsync.NewMap[string, struct{}](),
	}
}

func (s *MemoryStore) Add(key string, delta int64) {
	v, created := counter(s.values, key)
	if created {
		s.created.Store(key, struct{}{})
	}
	v.Add(delta)

	d, _ := counter(s.deltas, key)
	d.Add(delta)
}

func (s *MemoryStore) Get(key string) (int64, bool) {
	v, ok := s.values.Load(key)
	if !ok {
		return 0, false
	}
	return v.Load(), true
}

// BeginBlock starts a new delta window
func (s *MemoryStore) BeginBlock() {
	s.resetWindow()
}

// Deltas returns the per-key change since BeginBlock
func (s *MemoryStore) Deltas() map[string]int64 {
	out := make(map[string]int64, s.deltas.Size())
	s.deltas.Range(func(key string, value *atomic.Int64) bool {
		out[key] = value.Load()
		return true
	})
	return out
}

// Commit accepts the current deltas
func (s *MemoryStore) Commit() {
	s.resetWindow()
}

// Rollback reverts every Add since BeginBlock. Keys created in the window
// are removed again.
func (s *MemoryStore) Rollback() {
	s.deltas.Range(func(key string, value *atomic.Int64) bool {
		if current, ok := s.values.Load(key); ok {
			current.Add(-value.Load())
		}
		return true
	})
	s.created.Range(func(key string, _ struct{}) bool {
		s.values.Delete(key)
		return true
	})
	s.resetWindow()
}

// Restore replaces all counters, typically with the persisted state
func (s *MemoryStore) Restore(values map[string]int64) {
	s.values.Clear()
	s.resetWindow()
	for key, value := range values {
		v := new(atomic.Int64)
		v.Store(value)
		s.values.Store(key, v)
	}
}

func (s *MemoryStore) Snapshot() map[string]int64 {
	out := make(map[string]int64, s.values.Size())
	s.values.Range(func(key string, value *atomic.Int64) bool {
		out[key] = value.Load()
		return true
	})
	return out
}

func (s *MemoryStore) Size() int {
	return s.values.Size()
}

func (s *MemoryStore) resetWindow() {
	s.deltas.Clear()
	s.created.Clear()
}

func counter(m *xsync.Map[string, *atomic.Int64], key string) (*atomic.Int64, bool) {
	if v, ok := m.Load(key); ok {
		return v, false
	}
	v, loaded := m.LoadOrStore(key, new(atomic.Int64))
	return v, !loaded
}
