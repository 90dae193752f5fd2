package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestMemoryStore() (*MemoryStore, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
	s := NewMemoryStore()
	s.now = clock.now
	return s, clock
}

func TestMemoryStore_Revocation(t *testing.T) {
	s, clock := newTestMemoryStore()
	ctx := context.Background()

	revoked, err := s.IsRevoked(ctx, "tok")
	assert.NoError(t, err)
	assert.False(t, revoked)

	assert.NoError(t, s.Revoke(ctx, "tok", time.Minute))
	revoked, _ = s.IsRevoked(ctx, "tok")
	assert.True(t, revoked)

	// a different token string is unaffected
	revoked, _ = s.IsRevoked(ctx, "tok2")
	assert.False(t, revoked)

	clock.advance(time.Minute)
	revoked, _ = s.IsRevoked(ctx, "tok")
	assert.False(t, revoked)
}

func TestMemoryStore_RevokeExpiredIsNoop(t *testing.T) {
	s, _ := newTestMemoryStore()
	assert.NoError(t, s.Revoke(context.Background(), "tok", -time.Second))
	assert.Empty(t, s.revoked)
}

func TestMemoryStore_PurgesWhenFull(t *testing.T) {
	s, clock := newTestMemoryStore()
	ctx := context.Background()
	for i := 0; i < maxRevoked; i++ {
		assert.NoError(t, s.Revoke(ctx, fmt.Sprintf("old-%d", i), time.Second))
	}
	clock.advance(2 * time.Second)
	assert.NoError(t, s.Revoke(ctx, "fresh", time.Minute))
	assert.Len(t, s.revoked, 1)
}

func TestMemoryStore_FixedWindow(t *testing.T) {
	s, clock := newTestMemoryStore()
	ctx := context.Background()
	start := clock.t

	for i := int64(1); i <= 3; i++ {
		n, reset, err := s.Hit(ctx, "1.2.3.4-/login", 15*time.Minute)
		assert.NoError(t, err)
		assert.Equal(t, i, n)
		assert.Equal(t, start.Add(15*time.Minute), reset)
	}

	// other keys have their own window
	n, _, _ := s.Hit(ctx, "1.2.3.4-/signup", 15*time.Minute)
	assert.Equal(t, int64(1), n)

	clock.advance(15 * time.Minute)
	n, reset, _ := s.Hit(ctx, "1.2.3.4-/login", 15*time.Minute)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, clock.t.Add(15*time.Minute), reset)
}
