package infra

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by Execute while the breaker refuses calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CBState is the breaker state machine: closed → open → half-open → closed.
type CBState int

const (
	CBClosed CBState = iota
	CBOpen
	CBHalfOpen
)

func (s CBState) String() string {
	switch s {
	case CBClosed:
		return "closed"
	case CBOpen:
		return "open"
	case CBHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

type CircuitBreakerConfig struct {
	// FailureThreshold consecutive failures trip the breaker open.
	FailureThreshold int
	// SuccessThreshold consecutive half-open successes close it again.
	SuccessThreshold int
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
}

// DefaultCBConfig is tuned for the SUNAT sidecar: emission is async and the
// cron re-drives anything rejected while the breaker was open, so tripping
// early costs little.
func DefaultCBConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      60 * time.Second,
	}
}

func (cfg CircuitBreakerConfig) normalized() CircuitBreakerConfig {
	def := DefaultCBConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = def.SuccessThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	return cfg
}

// CircuitBreaker keeps sidecar outages from stalling the worker pool: once
// it trips, calls fast-fail with ErrCircuitOpen instead of burning a worker
// on a 30s timeout each.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig

	mu        sync.Mutex
	state     CBState
	fallos    int
	aciertos  int
	abiertaEn time.Time
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{cfg: cfg.normalized(), state: CBClosed}
}

// State reports the current state, promoting open → half-open once the
// open timeout has elapsed. Exposed on /health.
func (cb *CircuitBreaker) State() CBState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == CBOpen && time.Since(cb.abiertaEn) >= cb.cfg.OpenTimeout {
		cb.state = CBHalfOpen
		cb.aciertos = 0
	}
	return cb.state
}

// Execute runs fn unless the breaker is open, and feeds the outcome back
// into the state machine. fn's own error is returned untouched.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if cb.State() == CBOpen {
		return ErrCircuitOpen
	}

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.registrarFallo()
		return err
	}
	cb.registrarAcierto()
	return nil
}

func (cb *CircuitBreaker) registrarFallo() {
	cb.fallos++
	cb.abiertaEn = time.Now()

	switch cb.state {
	case CBClosed:
		if cb.fallos >= cb.cfg.FailureThreshold {
			cb.state = CBOpen
			cb.aciertos = 0
		}
	case CBHalfOpen:
		// failed probe: back to open for another full timeout
		cb.state = CBOpen
		cb.fallos = 0
	}
}

func (cb *CircuitBreaker) registrarAcierto() {
	switch cb.state {
	case CBClosed:
		cb.fallos = 0
	case CBHalfOpen:
		cb.aciertos++
		if cb.aciertos >= cb.cfg.SuccessThreshold {
			cb.state = CBClosed
			cb.fallos = 0
			cb.aciertos = 0
		}
	}
}
