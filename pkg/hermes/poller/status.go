package poller

import (
	"sort"
	"sync"
	"time"

	"github.com/tsarna/hermes/pkg/hermes/topic"
)

// Key identifies one component instance. Site is empty for components that
// are not per-site.
type Key struct {
	Component topic.ComponentTag `json:"component"`
	Site      string             `json:"site,omitempty"`
}

// Entry is the latest report from a component.
type Entry struct {
	Key
	Version     string    `json:"version,omitempty"`
	Error       string    `json:"error,omitempty"`
	RequestedAt time.Time `json:"requestedAt,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

// Status holds the latest version or error reported by each component.
type Status struct {
	mu      sync.RWMutex
	entries map[Key]Entry
	now     func() time.Time
}

func NewStatus() *Status {
	return &Status{
		entries: make(map[Key]Entry),
		now:     time.Now,
	}
}

func (s *Status) requested(k Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entries[k]
	e.Key = k
	e.RequestedAt = s.now()
	s.entries[k] = e
}

func (s *Status) setVersion(k Key, version string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entries[k]
	e.Key = k
	e.Version = version
	e.Error = ""
	e.UpdatedAt = s.now()
	s.entries[k] = e
}

func (s *Status) setError(k Key, err string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entries[k]
	e.Key = k
	e.Error = err
	e.UpdatedAt = s.now()
	s.entries[k] = e
}

func (s *Status) Get(k Key) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[k]
	return e, ok
}

// All returns every entry ordered by component, then site.
func (s *Status) All() []Entry {
	s.mu.RLock()
	entries := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Component != entries[j].Component {
			return entries[i].Component < entries[j].Component
		}
		return entries[i].Site < entries[j].Site
	})
	return entries
}

// Stale returns the entries that were polled but have not answered since.
func (s *Status) Stale() []Entry {
	var stale []Entry
	for _, e := range s.All() {
		if !e.RequestedAt.IsZero() && e.UpdatedAt.Before(e.RequestedAt) {
			stale = append(stale, e)
		}
	}
	return stale
}
