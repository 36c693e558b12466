package relay

import (
	"sync"
	"time"
)

const (
	defaultDedupTTL = 10 * time.Minute
	defaultDedupMax = 10000
)

// deduper drops QoS 1 redeliveries of a message it has already processed.
type deduper struct {
	mu    sync.Mutex
	ttl   time.Duration
	limit int
	seen  map[string]time.Time
	now   func() time.Time
}

func newDeduper(ttl time.Duration, limit int) *deduper {
	if ttl <= 0 {
		ttl = defaultDedupTTL
	}
	if limit <= 0 {
		limit = defaultDedupMax
	}
	return &deduper{ttl: ttl, limit: limit, seen: make(map[string]time.Time), now: time.Now}
}

// shouldProcess returns false if key was seen within the TTL. An empty key
// is always processed.
func (d *deduper) shouldProcess(key string) bool {
	if key == "" {
		return true
	}

	now := d.now()
	d.mu.Lock()
	defer d.mu.Unlock()

	if exp, ok := d.seen[key]; ok && now.Before(exp) {
		return false
	}
	d.seen[key] = now.Add(d.ttl)

	if len(d.seen) > d.limit {
		for k, exp := range d.seen {
			if now.After(exp) {
				delete(d.seen, k)
			}
		}
	}
	return true
}
