package circuitbreaker

import (
	"errors"
	"sync"
	"testing"
	"time"
)

var errTest = errors.New("test error")

// fakeClock lets tests move past the reset timeout without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestBreaker(maxFailures int, reset time.Duration) (*Breaker, *fakeClock) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	b := New(maxFailures, reset)
	b.now = clock.Now
	return b, clock
}

func fail() error    { return errTest }
func succeed() error { return nil }

func TestNew(t *testing.T) {
	b := New(5, 30*time.Second)
	if b == nil {
		t.Fatal("New returned nil")
	}
	if b.GetState() != Closed {
		t.Errorf("initial state: got %s, want closed", b.GetState())
	}
}

func TestNew_ClampsMaxFailures(t *testing.T) {
	b := New(0, time.Second)
	b.Execute(fail)
	if b.GetState() != Open {
		t.Errorf("maxFailures=0: got %s, want open after one failure", b.GetState())
	}
}

func TestExecute_PropagatesError(t *testing.T) {
	b := New(3, time.Second)

	if err := b.Execute(fail); !errors.Is(err, errTest) {
		t.Errorf("expected errTest, got %v", err)
	}
	if err := b.Execute(succeed); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestExecute_OpensAfterMaxFailures(t *testing.T) {
	for maxF := 1; maxF <= 5; maxF++ {
		b := New(maxF, time.Hour)
		for i := 0; i < maxF-1; i++ {
			b.Execute(fail)
		}
		if b.GetState() != Closed {
			t.Errorf("maxFailures=%d: opened after %d failures", maxF, maxF-1)
		}
		b.Execute(fail)
		if b.GetState() != Open {
			t.Errorf("maxFailures=%d: expected Open after exactly %d failures", maxF, maxF)
		}

		err := b.Execute(func() error {
			t.Error("function should not be called when circuit is open")
			return nil
		})
		if !errors.Is(err, ErrCircuitOpen) {
			t.Errorf("expected ErrCircuitOpen, got %v", err)
		}
	}
}

func TestExecute_SuccessResetsFailureCount(t *testing.T) {
	b := New(3, time.Second)

	b.Execute(fail)
	b.Execute(fail)
	b.Execute(succeed)
	b.Execute(fail)
	b.Execute(fail)

	if b.GetState() != Closed {
		t.Error("state should be Closed after success reset")
	}
}

func TestExecute_HalfOpenSuccessCloses(t *testing.T) {
	b, clock := newTestBreaker(2, time.Minute)
	b.Execute(fail)
	b.Execute(fail)

	clock.Advance(30 * time.Second)
	if err := b.Execute(succeed); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("before reset timeout: got %v, want ErrCircuitOpen", err)
	}

	clock.Advance(31 * time.Second)
	called := false
	err := b.Execute(func() error {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Errorf("probe: err=%v called=%v", err, called)
	}
	if b.GetState() != Closed {
		t.Errorf("state after probe success: got %s, want closed", b.GetState())
	}
}

func TestExecute_HalfOpenFailureReopens(t *testing.T) {
	b, clock := newTestBreaker(3, time.Minute)
	for range 3 {
		b.Execute(fail)
	}

	clock.Advance(2 * time.Minute)
	b.Execute(fail)
	if b.GetState() != Open {
		t.Fatalf("state after probe failure: got %s, want open", b.GetState())
	}

	// The reset timeout restarts from the failed probe.
	if err := b.Execute(succeed); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("right after failed probe: got %v, want ErrCircuitOpen", err)
	}
}

func TestExecute_HalfOpenAllowsOneProbe(t *testing.T) {
	b, clock := newTestBreaker(1, time.Second)
	b.Execute(fail)
	clock.Advance(2 * time.Second)

	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan error)
	go func() {
		done <- b.Execute(func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	if b.GetState() != HalfOpen {
		t.Errorf("state during probe: got %s, want half_open", b.GetState())
	}
	if err := b.Execute(succeed); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("second caller during probe: got %v, want ErrCircuitOpen", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Errorf("probe: %v", err)
	}
	if b.GetState() != Closed {
		t.Errorf("after probe: got %s, want closed", b.GetState())
	}
}

func TestExecute_ConcurrentAccess(t *testing.T) {
	b := New(100, time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if n%2 == 0 {
				b.Execute(succeed)
			} else {
				b.Execute(fail)
			}
			b.GetState()
		}(i)
	}
	wg.Wait()
}

func TestState_String(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{Closed, "closed"},
		{Open, "open"},
		{HalfOpen, "half_open"},
		{State(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", int(tt.s), got, tt.want)
		}
	}
}

func TestErrCircuitOpen_IsError(t *testing.T) {
	var err error = ErrCircuitOpen
	if err.Error() != "circuit breaker is open" {
		t.Errorf("unexpected error message: %q", err.Error())
	}
}

func TestGroup_PerKeyBreakers(t *testing.T) {
	type change struct {
		name     string
		from, to State
	}
	var mu sync.Mutex
	var changes []change
	g := NewGroup(1, time.Hour, func(name string, from, to State) {
		mu.Lock()
		defer mu.Unlock()
		changes = append(changes, change{name, from, to})
	})

	a := g.Get("http://a")
	if g.Get("http://a") != a {
		t.Error("Get should return the same breaker for a key")
	}
	a.Execute(fail)

	if err := g.Get("http://b").Execute(succeed); err != nil {
		t.Errorf("breaker b affected by a: %v", err)
	}

	states := g.States()
	if states["http://a"] != Open || states["http://b"] != Closed {
		t.Errorf("States: got %v", states)
	}

	mu.Lock()
	if len(changes) != 1 || changes[0] != (change{"http://a", Closed, Open}) {
		t.Errorf("changes: got %+v", changes)
	}
	mu.Unlock()

	g.Remove("http://a")
	if g.Get("http://a").GetState() != Closed {
		t.Error("breaker should be fresh after Remove")
	}
}
