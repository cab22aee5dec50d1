package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by Execute while the breaker is rejecting calls.
var ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

type BreakerConfig struct {
	// MaxFailures consecutive failures open the circuit. Default 5.
	MaxFailures int

	// ResetTimeout is how long the circuit stays open before a trial call is
	// let through. Default 30s.
	ResetTimeout time.Duration

	// HalfOpenMaxRequests caps concurrent trial calls. Default 1.
	HalfOpenMaxRequests int

	OnStateChange func(from, to State)

	// IsFailure decides which errors count. Default: any non-nil error
	// except context.Canceled, which means the caller went away.
	IsFailure func(err error) bool

	Now func() time.Time
}

// Breaker is a consecutive-failure circuit breaker, safe for concurrent use.
type Breaker struct {
	cfg BreakerConfig

	mu               sync.Mutex
	state            State
	failures         int
	openedAt         time.Time
	halfOpenInFlight int

	// generation changes on every transition. Outcomes of calls admitted
	// under an older generation are discarded.
	generation uint64
}

func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	if cfg.HalfOpenMaxRequests <= 0 {
		cfg.HalfOpenMaxRequests = 1
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = func(err error) bool {
			return err != nil && !errors.Is(err, context.Canceled)
		}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Breaker{cfg: cfg}
}

// Execute runs op unless the circuit is open, recording its outcome.
func (b *Breaker) Execute(ctx context.Context, op func(context.Context) error) error {
	gen, err := b.before()
	if err != nil {
		return err
	}
	err = op(ctx)
	b.after(gen, err)
	return err
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentLocked()
}

func (b *Breaker) before() (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.currentLocked() {
	case StateOpen:
		return 0, ErrCircuitOpen
	case StateHalfOpen:
		if b.halfOpenInFlight >= b.cfg.HalfOpenMaxRequests {
			return 0, ErrCircuitOpen
		}
		b.halfOpenInFlight++
	}
	return b.generation, nil
}

func (b *Breaker) after(gen uint64, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if gen != b.generation {
		return
	}

	failed := b.cfg.IsFailure(err)

	switch b.state {
	case StateClosed:
		if !failed {
			b.failures = 0
			return
		}
		b.failures++
		if b.failures >= b.cfg.MaxFailures {
			b.openLocked()
		}
	case StateHalfOpen:
		if failed {
			b.openLocked()
			return
		}
		b.failures = 0
		b.transitionLocked(StateClosed)
	}
}

func (b *Breaker) openLocked() {
	b.openedAt = b.cfg.Now()
	b.transitionLocked(StateOpen)
}

// currentLocked moves an expired open circuit to half-open.
func (b *Breaker) currentLocked() State {
	if b.state == StateOpen && b.cfg.Now().Sub(b.openedAt) >= b.cfg.ResetTimeout {
		b.transitionLocked(StateHalfOpen)
	}
	return b.state
}

func (b *Breaker) transitionLocked(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	b.generation++
	b.halfOpenInFlight = 0
	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(from, to)
	}
}
