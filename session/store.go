// Package session tracks per-session question counts with a time-to-live.
package session

import (
	"sync"
	"time"
)

// DefaultTTL is how long an idle session record is kept.
const DefaultTTL = 24 * time.Hour

type record struct {
	count    int
	lastSeen time.Time
}

// Store holds session counters. All access goes through one mutex, so
// increments for the same id are linearizable.
type Store struct {
	mu      sync.Mutex
	records map[string]*record
	ttl     time.Duration
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets the idle lifetime of a record.
func WithTTL(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore returns an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		records: make(map[string]*record),
		ttl:     DefaultTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the configured idle lifetime.
func (s *Store) TTL() time.Duration { return s.ttl }

// Increment counts one call for id and returns the new count.
func (s *Store) Increment(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.incrementLocked(id)
}

func (s *Store) incrementLocked(id string) int {
	r, ok := s.records[id]
	if !ok {
		r = &record{}
		s.records[id] = r
	}
	r.count++
	r.lastSeen = s.now()
	return r.count
}

// CurrentCount returns the count for id, or 0 when unknown. It does not
// refresh the record.
func (s *Store) CurrentCount(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.records[id]; ok {
		return r.count
	}
	return 0
}

// Acquire increments id only if its count is below limit. It returns the
// count after the call and whether the increment happened. The check and the
// increment happen under one lock.
func (s *Store) Acquire(id string, limit int) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.records[id]; ok && r.count >= limit {
		return r.count, false
	}
	if limit <= 0 {
		return 0, false
	}
	return s.incrementLocked(id), true
}

// SweepExpired removes records idle for longer than the TTL and returns how
// many were removed.
func (s *Store) SweepExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, r := range s.records {
		if now.Sub(r.lastSeen) > s.ttl {
			delete(s.records, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
