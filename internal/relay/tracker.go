package relay

import (
	"sync"
	"time"

	"github.com/nerrad567/irrigation-relay/internal/registry"
	"github.com/nerrad567/irrigation-relay/internal/routing"
)

type trackKey struct {
	code     registry.DeviceCode
	response routing.Category
}

type pendingRequest struct {
	code      registry.DeviceCode
	response  routing.Category
	requestID string
	deadline  time.Time
}

// tracker remembers the latest outstanding request per device and response
// category. A newer request replaces an older one.
type tracker struct {
	mu      sync.Mutex
	pending map[trackKey]pendingRequest
}

func newTracker() *tracker {
	return &tracker{pending: make(map[trackKey]pendingRequest)}
}

func (t *tracker) track(code registry.DeviceCode, response routing.Category, requestID string, deadline time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending[trackKey{code, response}] = pendingRequest{
		code:      code,
		response:  response,
		requestID: requestID,
		deadline:  deadline,
	}
}

// resolve clears the outstanding request answered by a response. A response
// carrying a different request ID than the tracked one is a late answer to
// an older request and leaves the entry in place.
func (t *tracker) resolve(code registry.DeviceCode, response routing.Category, requestID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := trackKey{code, response}
	p, ok := t.pending[key]
	if !ok {
		return false
	}
	if requestID != "" && p.requestID != requestID {
		return false
	}
	delete(t.pending, key)
	return true
}

// expired removes and returns every request whose deadline is before now.
func (t *tracker) expired(now time.Time) []pendingRequest {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []pendingRequest
	for key, p := range t.pending {
		if now.After(p.deadline) {
			out = append(out, p)
			delete(t.pending, key)
		}
	}
	return out
}

func (t *tracker) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}
