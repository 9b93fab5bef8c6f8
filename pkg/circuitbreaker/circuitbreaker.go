package circuitbreaker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// State is the breaker's position in the closed/open/half-open cycle.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

const halfOpenProbes = 3

// Breaker guards an external dependency. After maxFailures consecutive
// failures the breaker opens and rejects calls until the cooldown elapses,
// then lets a few probe calls through before fully closing again.
type Breaker struct {
	name        string
	maxFailures uint32
	cooldown    time.Duration
	logger      *logrus.Logger

	mu           sync.Mutex
	state        State
	failures     uint32
	lastFailure  time.Time
	probeCalls   uint32
	probeSuccess uint32
}

func New(name string, maxFailures uint32, cooldown time.Duration, logger *logrus.Logger) *Breaker {
	if logger == nil {
		logger = logrus.New()
	}
	return &Breaker{
		name:        name,
		maxFailures: maxFailures,
		cooldown:    cooldown,
		logger:      logger,
		state:       StateClosed,
	}
}

// Do runs fn through the breaker. When the breaker is open an *OpenError is
// returned without invoking fn. fn's error is passed through unchanged.
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if !b.allow() {
		return &OpenError{Name: b.name, State: b.State()}
	}

	err := fn(ctx)
	if err != nil {
		b.onFailure()
		return err
	}

	b.onSuccess()
	return nil
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(b.lastFailure) >= b.cooldown {
			b.state = StateHalfOpen
			b.probeCalls = 0
			b.probeSuccess = 0
			b.logger.WithField("breaker", b.name).Info("Circuit breaker half-open, probing")
			return true
		}
		return false
	case StateHalfOpen:
		if b.probeCalls < halfOpenProbes {
			b.probeCalls++
			return true
		}
		return false
	default:
		return false
	}
}

func (b *Breaker) onSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateHalfOpen:
		b.probeSuccess++
		if b.probeSuccess >= halfOpenProbes {
			b.state = StateClosed
			b.failures = 0
			b.logger.WithField("breaker", b.name).Info("Circuit breaker closed after recovery")
		}
	case StateClosed:
		b.failures = 0
	}
}

func (b *Breaker) onFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailure = time.Now()

	if b.state == StateHalfOpen || (b.state == StateClosed && b.failures >= b.maxFailures) {
		b.state = StateOpen
		b.logger.WithFields(logrus.Fields{
			"breaker":  b.name,
			"failures": b.failures,
		}).Warn("Circuit breaker opened")
	}
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// OpenError is returned when the breaker rejects a call.
type OpenError struct {
	Name  string
	State State
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("circuit breaker %q is %s", e.Name, e.State)
}

// IsOpenError reports whether err is a breaker rejection.
func IsOpenError(err error) bool {
	_, ok := err.(*OpenError)
	return ok
}
