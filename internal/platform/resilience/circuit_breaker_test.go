package resilience

import (
	"errors"
	"testing"
	"time"
)

var errUpstream = errors.New("upstream 502")

func TestBreakers_TripPerSource(t *testing.T) {
	var transitions []string
	b := NewBreakers(CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
		HalfOpenMaxReq:   1,
		OnStateChange: func(key string, from, to CircuitState) {
			transitions = append(transitions, key+":"+string(from)+"->"+string(to))
		},
	})

	now := time.Date(2025, 9, 8, 6, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	fail := func() error { return errUpstream }
	for i := 0; i < 2; i++ {
		if err := b.Do("standings", fail); !errors.Is(err, errUpstream) {
			t.Fatalf("expected upstream error on attempt %d, got %v", i+1, err)
		}
	}

	if err := b.Do("standings", func() error { t.Fatal("open breaker ran the call"); return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected open standings breaker, got %v", err)
	}
	if err := b.Do("schedule", func() error { return nil }); err != nil {
		t.Fatalf("schedule must not share the standings breaker: %v", err)
	}

	if b.State("standings") != CircuitStateOpen || b.State("schedule") != CircuitStateClosed {
		t.Fatalf("unexpected states: standings=%s schedule=%s", b.State("standings"), b.State("schedule"))
	}

	now = now.Add(2 * time.Minute)
	if state := b.State("standings"); state != CircuitStateHalfOpen {
		t.Fatalf("expected half-open after timeout, got %s", state)
	}
	if err := b.Do("standings", func() error { return nil }); err != nil {
		t.Fatalf("expected half-open trial call to pass, got %v", err)
	}
	if state := b.State("standings"); state != CircuitStateClosed {
		t.Fatalf("expected closed after a good trial call, got %s", state)
	}

	want := []string{"standings:closed->open", "standings:open->half_open", "standings:half_open->closed"}
	if len(transitions) != len(want) {
		t.Fatalf("unexpected transitions: %v", transitions)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Fatalf("unexpected transitions: %v", transitions)
		}
	}
}

func TestBreakers_FailedTrialCallReopens(t *testing.T) {
	b := NewBreakers(CircuitBreakerConfig{Enabled: true, FailureThreshold: 1, OpenTimeout: time.Minute})
	now := time.Date(2025, 9, 8, 6, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	_ = b.Do("schedule", func() error { return errUpstream })
	now = now.Add(time.Minute)
	_ = b.Do("schedule", func() error { return errUpstream })

	if state := b.State("schedule"); state != CircuitStateOpen {
		t.Fatalf("expected failed trial call to reopen, got %s", state)
	}
}

func TestBreakers_IgnoredErrorsDoNotTrip(t *testing.T) {
	errNotFound := errors.New("status 404")
	b := NewBreakers(CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 1,
		IsFailure:        func(err error) bool { return errors.Is(err, errUpstream) },
	})

	for i := 0; i < 3; i++ {
		if err := b.Do("schedule", func() error { return errNotFound }); !errors.Is(err, errNotFound) {
			t.Fatalf("expected the call's own error, got %v", err)
		}
	}
	if state := b.State("schedule"); state != CircuitStateClosed {
		t.Fatalf("ignored errors must keep the breaker closed, got %s", state)
	}
}

func TestBreakers_DisabledAlwaysRuns(t *testing.T) {
	b := NewBreakers(CircuitBreakerConfig{Enabled: false, FailureThreshold: 1})

	calls := 0
	for i := 0; i < 3; i++ {
		_ = b.Do("standings", func() error { calls++; return errUpstream })
	}
	if calls != 3 {
		t.Fatalf("disabled breakers must not reject, calls=%d", calls)
	}
	if state := b.State("standings"); state != CircuitStateClosed {
		t.Fatalf("disabled breakers must stay closed, got %s", state)
	}
}
