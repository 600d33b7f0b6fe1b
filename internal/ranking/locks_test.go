package ranking

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestPeriodLocksSerializeSamePeriod(t *testing.T) {
	locks := newPeriodLocks()
	periodID := uuid.New()

	var mu sync.Mutex
	active := 0
	maxActive := 0

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := locks.acquire(periodID)
			defer release()

			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Errorf("observed %d concurrent holders for one period, want 1", maxActive)
	}
}

func TestPeriodLocksIndependentPeriods(t *testing.T) {
	locks := newPeriodLocks()

	releaseA := locks.acquire(uuid.New())
	defer releaseA()

	// A different period must not block behind the held lock.
	done := make(chan struct{})
	go func() {
		release := locks.acquire(uuid.New())
		release()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("acquiring a different period blocked behind an unrelated lock")
	}
}
