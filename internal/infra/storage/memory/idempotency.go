package memory

import (
	"context"
	"sync"
	"time"

	"gearshare/internal/app/middleware"
)

const defaultIdempotencyTTL = 24 * time.Hour

type idempotencyEntry struct {
	rec       middleware.IdempotencyRecord
	expiresAt time.Time
}

// IdempotencyStore stores command results in memory. Records expire after
// the configured TTL, mirroring the Redis EXPIRE and Mongo TTL-index
// behaviour of the durable stores.
type IdempotencyStore struct {
	mu    sync.RWMutex
	ttl   time.Duration
	items map[string]idempotencyEntry
	now   func() time.Time
}

func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyStore{
		ttl:   ttl,
		items: make(map[string]idempotencyEntry),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Get drops the record lazily once it has outlived the TTL, so an expired
// key behaves exactly like one that was never stored.
func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.items[key]
	if !ok {
		return middleware.IdempotencyRecord{}, false, nil
	}
	if !entry.expiresAt.After(s.now()) {
		delete(s.items, key)
		return middleware.IdempotencyRecord{}, false, nil
	}
	return entry.rec, true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[rec.Key] = idempotencyEntry{rec: rec, expiresAt: s.now().Add(s.ttl)}
	return nil
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
