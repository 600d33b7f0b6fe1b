package ranking

import (
	"sync"

	"github.com/google/uuid"
)

// periodLocks serializes recompute and publish per period id, so a
// recompute cannot overwrite the effect of a mark submitted mid-run by
// another writer reading a stale snapshot.
type periodLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newPeriodLocks() *periodLocks {
	return &periodLocks{locks: make(map[uuid.UUID]*sync.Mutex)}
}

// acquire locks the mutex for the given period and returns its release
// function. Locks are never evicted; the set of periods is small.
func (p *periodLocks) acquire(periodID uuid.UUID) func() {
	p.mu.Lock()
	m, ok := p.locks[periodID]
	if !ok {
		m = &sync.Mutex{}
		p.locks[periodID] = m
	}
	p.mu.Unlock()

	m.Lock()
	return m.Unlock
}
