package overpass

import (
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Breaker trip parameters. After breakerThreshold consecutive failures the
// interpreter is considered down and calls short-circuit to an offline result
// until breakerResetAfter has passed, when a single probe is let through.
const (
	breakerThreshold  = 5
	breakerResetAfter = 30 * time.Second
)

// errBreakerOpen short-circuits an interpreter call without touching the
// network. It maps to the offline_error provenance tag like any other failure.
var errBreakerOpen = eris.New("overpass: interpreter circuit open")

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

func (s breakerState) String() string {
	switch s {
	case breakerOpen:
		return "open"
	case breakerHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// breaker is a single circuit breaker guarding the Overpass interpreter.
// Every evaluation hits the same endpoint, so one breaker covers the client.
type breaker struct {
	mu          sync.Mutex
	state       breakerState
	failures    int
	lastFailure time.Time

	nowFunc func() time.Time // test injection
}

func newBreaker() *breaker {
	return &breaker{nowFunc: time.Now}
}

// allow reports whether a call may proceed. In the open state it returns
// errBreakerOpen until the reset window passes, then admits one probe.
func (b *breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == breakerOpen {
		if b.nowFunc().Sub(b.lastFailure) < breakerResetAfter {
			return errBreakerOpen
		}
		b.transition(breakerHalfOpen)
	}
	return nil
}

// record feeds a call outcome back into the breaker. A success closes the
// circuit; a failure in half-open reopens it immediately.
func (b *breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		if b.state != breakerClosed {
			b.transition(breakerClosed)
		}
		b.failures = 0
		return
	}

	b.failures++
	b.lastFailure = b.nowFunc()

	switch b.state {
	case breakerClosed:
		if b.failures >= breakerThreshold {
			b.transition(breakerOpen)
		}
	case breakerHalfOpen:
		b.transition(breakerOpen)
	}
}

func (b *breaker) transition(to breakerState) {
	zap.L().Info("overpass: breaker state change",
		zap.Stringer("from", b.state),
		zap.Stringer("to", to),
	)
	b.state = to
}
