package objects

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/paaster/internal/common"
	"github.com/dmitrijs2005/paaster/internal/timex"
)

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

func (i memoryItem) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && !now.Before(i.expiresAt)
}

// MemoryRepository keeps everything in process memory behind one mutex.
// Expiry is evaluated lazily against the injected clock.
type MemoryRepository struct {
	mu    sync.Mutex
	now   timex.Clock
	items map[string]memoryItem
	sets  map[string]map[string]int64
}

func NewMemoryRepository(now timex.Clock) *MemoryRepository {
	if now == nil {
		now = timex.UTCNow
	}
	return &MemoryRepository{
		now:   now,
		items: make(map[string]memoryItem),
		sets:  make(map[string]map[string]int64),
	}
}

// live returns the item for key, dropping it if it has expired.
// The caller must hold r.mu.
func (r *MemoryRepository) live(key string) (memoryItem, bool) {
	item, ok := r.items[key]
	if !ok {
		return memoryItem{}, false
	}
	if item.expired(r.now()) {
		delete(r.items, key)
		return memoryItem{}, false
	}
	return item, true
}

func (r *MemoryRepository) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return r.now().Add(ttl)
}

func (r *MemoryRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[key] = memoryItem{value: append([]byte(nil), value...), expiresAt: r.expiry(ttl)}
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, key string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.live(key)
	if !ok {
		return nil, common.ErrorNotFound
	}
	return append([]byte(nil), item.value...), nil
}

func (r *MemoryRepository) Exists(ctx context.Context, key string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.live(key)
	return ok, nil
}

func (r *MemoryRepository) SetIfAbsent(ctx context.Context, key string, value []byte) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.live(key); ok {
		return false, nil
	}
	r.items[key] = memoryItem{value: append([]byte(nil), value...)}
	return true, nil
}

func (r *MemoryRepository) Expire(ctx context.Context, key string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.live(key)
	if !ok {
		return nil
	}
	item.expiresAt = r.expiry(ttl)
	r.items[key] = item
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.items, key)
	return nil
}

func (r *MemoryRepository) AddScored(ctx context.Context, set, member string, score int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sets[set]
	if !ok {
		s = make(map[string]int64)
		r.sets[set] = s
	}
	s[member] = score
	return nil
}

func (r *MemoryRepository) RangeByScore(ctx context.Context, set string, min, max int64) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	type scored struct {
		member string
		score  int64
	}
	var hits []scored
	for m, sc := range r.sets[set] {
		if sc >= min && sc <= max {
			hits = append(hits, scored{m, sc})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score < hits[j].score
		}
		return hits[i].member < hits[j].member
	})

	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.member)
	}
	return out, nil
}

func (r *MemoryRepository) RemoveScored(ctx context.Context, set string, members ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.sets[set]
	for _, m := range members {
		delete(s, m)
	}
	if len(s) == 0 {
		delete(r.sets, set)
	}
	return nil
}

// PurgeExpired drops every expired key and returns how many were removed.
func (r *MemoryRepository) PurgeExpired(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var n int64
	for k, item := range r.items {
		if item.expired(now) {
			delete(r.items, k)
			n++
		}
	}
	return n, nil
}
