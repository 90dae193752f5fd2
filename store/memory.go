package store

import (
	"context"
	"sync"
	"time"
)

// maxRevoked bounds the revocation map; expired entries are purged when it is exceeded.
const maxRevoked = 10000

type window struct {
	count   int64
	resetAt time.Time
}

// MemoryStore keeps state in process. Suitable for single-instance deployments;
// state is lost on restart.
type MemoryStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	windows map[string]*window
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		revoked: make(map[string]time.Time),
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

func (s *MemoryStore) Revoke(_ context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if len(s.revoked) >= maxRevoked {
		s.purgeLocked(now)
	}
	s.revoked[tokenKey(token)] = now.Add(ttl)
	return nil
}

func (s *MemoryStore) IsRevoked(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := tokenKey(token)
	exp, ok := s.revoked[key]
	if !ok {
		return false, nil
	}
	if !s.now().Before(exp) {
		delete(s.revoked, key)
		return false, nil
	}
	return true, nil
}

func (s *MemoryStore) Hit(_ context.Context, key string, win time.Duration) (int64, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w, ok := s.windows[key]
	if !ok || !now.Before(w.resetAt) {
		if len(s.windows) >= maxRevoked {
			s.purgeLocked(now)
		}
		w = &window{resetAt: now.Add(win)}
		s.windows[key] = w
	}
	w.count++
	return w.count, w.resetAt, nil
}

// purgeLocked drops expired revocations and closed windows.
func (s *MemoryStore) purgeLocked(now time.Time) {
	for k, exp := range s.revoked {
		if !now.Before(exp) {
			delete(s.revoked, k)
		}
	}
	for k, w := range s.windows {
		if !now.Before(w.resetAt) {
			delete(s.windows, k)
		}
	}
}

func (s *MemoryStore) Close() error { return nil }
