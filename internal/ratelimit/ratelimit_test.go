package ratelimit

import (
	"sync"
	"testing"
	"time"
)

// fakeClock returns a clock function whose current time is controlled by the test.
func fakeClock(start time.Time) (now func() time.Time, advance func(time.Duration)) {
	current := start
	return func() time.Time { return current },
		func(d time.Duration) { current = current.Add(d) }
}

func TestAllowUpToLimit(t *testing.T) {
	now, _ := fakeClock(time.Unix(1000, 0))
	l := NewWithClock(3, time.Minute, now)

	for i := 0; i < 3; i++ {
		if !l.Allow() {
			t.Fatalf("call %d: expected allowed", i+1)
		}
	}
	if l.Allow() {
		t.Error("call 4: expected denied, limit is 3")
	}
}

func TestWindowSlides(t *testing.T) {
	now, advance := fakeClock(time.Unix(1000, 0))
	l := NewWithClock(2, time.Minute, now)

	l.Allow()
	l.Allow()

	// One nanosecond before the oldest call ages out: still full.
	advance(time.Minute - time.Nanosecond)
	if l.Allow() {
		t.Error("expected denied just before the window boundary")
	}

	// At exactly one window, the opening calls are evicted.
	advance(time.Nanosecond)
	if !l.Allow() {
		t.Error("expected allowed once the window has fully passed")
	}
}

func TestDeniedCallsDoNotExtendWindow(t *testing.T) {
	now, advance := fakeClock(time.Unix(1000, 0))
	l := NewWithClock(1, time.Minute, now)

	l.Allow()
	for i := 0; i < 5; i++ {
		advance(time.Second)
		if l.Allow() {
			t.Fatalf("denied call %d was admitted", i+1)
		}
	}

	// 55s more brings the single admitted call to exactly one window old.
	advance(55 * time.Second)
	if !l.Allow() {
		t.Error("expected allowed: denied calls must not count toward the window")
	}
}

func TestConcurrentAllowNeverExceedsLimit(t *testing.T) {
	const limit = 10
	const callers = 50

	l := New(limit, time.Minute)

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow() {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if admitted != limit {
		t.Errorf("expected exactly %d admissions, got %d", limit, admitted)
	}
}
