package resilience

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitState string

const (
	CircuitStateClosed   CircuitState = "closed"
	CircuitStateOpen     CircuitState = "open"
	CircuitStateHalfOpen CircuitState = "half_open"
)

// Breakers keeps one circuit breaker per upstream source, so a broken
// results page does not stop the schedule page from being fetched.
type Breakers struct {
	cfg CircuitBreakerConfig
	now func() time.Time

	mu    sync.Mutex
	byKey map[string]*circuitBreaker
}

func NewBreakers(cfg CircuitBreakerConfig) *Breakers {
	return &Breakers{
		cfg:   cfg.normalized(),
		now:   time.Now,
		byKey: make(map[string]*circuitBreaker),
	}
}

// Do runs fn behind the breaker for key. A rejected call returns an error
// wrapping ErrCircuitOpen without running fn. Errors that the config does
// not count as failures close the breaker like a success.
func (b *Breakers) Do(key string, fn func() error) error {
	if !b.cfg.Enabled {
		return fn()
	}

	breaker := b.get(key)
	if err := breaker.allow(); err != nil {
		return fmt.Errorf("%w: %s", err, key)
	}

	err := fn()
	if b.cfg.IsFailure(err) {
		breaker.recordFailure()
	} else {
		breaker.recordSuccess()
	}
	return err
}

// State reports the breaker state for key. Unknown keys are closed.
func (b *Breakers) State(key string) CircuitState {
	b.mu.Lock()
	breaker, ok := b.byKey[key]
	b.mu.Unlock()
	if !ok {
		return CircuitStateClosed
	}
	return breaker.currentState()
}

func (b *Breakers) get(key string) *circuitBreaker {
	b.mu.Lock()
	defer b.mu.Unlock()

	breaker, ok := b.byKey[key]
	if !ok {
		breaker = &circuitBreaker{
			key:   key,
			cfg:   b.cfg,
			state: CircuitStateClosed,
			now:   func() time.Time { return b.now() },
		}
		b.byKey[key] = breaker
	}
	return breaker
}

type circuitBreaker struct {
	mu  sync.Mutex
	key string
	cfg CircuitBreakerConfig

	state               CircuitState
	consecutiveFailures int
	openedAt            time.Time
	halfOpenInFlight    int
	halfOpenSuccesses   int
	now                 func() time.Time
}

func (b *circuitBreaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen {
		if b.now().Sub(b.openedAt) < b.cfg.OpenTimeout {
			return ErrCircuitOpen
		}
		b.transition(CircuitStateHalfOpen)
	}

	if b.state == CircuitStateHalfOpen {
		if b.halfOpenInFlight >= b.cfg.HalfOpenMaxReq {
			return ErrCircuitOpen
		}
		b.halfOpenInFlight++
	}
	return nil
}

func (b *circuitBreaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitStateClosed:
		b.consecutiveFailures = 0
	case CircuitStateHalfOpen:
		if b.halfOpenInFlight > 0 {
			b.halfOpenInFlight--
		}
		b.halfOpenSuccesses++
		if b.halfOpenSuccesses >= b.cfg.HalfOpenMaxReq && b.halfOpenInFlight == 0 {
			b.transition(CircuitStateClosed)
		}
	}
}

func (b *circuitBreaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitStateClosed:
		b.consecutiveFailures++
		if b.consecutiveFailures >= b.cfg.FailureThreshold {
			b.transition(CircuitStateOpen)
		}
	case CircuitStateHalfOpen:
		b.transition(CircuitStateOpen)
	case CircuitStateOpen:
		b.openedAt = b.now()
	}
}

func (b *circuitBreaker) currentState() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen && b.now().Sub(b.openedAt) >= b.cfg.OpenTimeout {
		return CircuitStateHalfOpen
	}
	return b.state
}

// transition must be called with b.mu held.
func (b *circuitBreaker) transition(to CircuitState) {
	from := b.state
	b.state = to
	b.halfOpenInFlight = 0
	b.halfOpenSuccesses = 0
	switch to {
	case CircuitStateClosed:
		b.consecutiveFailures = 0
		b.openedAt = time.Time{}
	case CircuitStateOpen:
		b.openedAt = b.now()
	}

	if from != to && b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(b.key, from, to)
	}
}
