package invoice

import (
	"fmt"
	"sync"
	"time"
)

// State is a step of the emission lifecycle.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateSuccess State = "success"
	StateError   State = "error"
)

// Terminal reports whether no further transition is allowed from s.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateError
}

// Transition describes one state change of a submission.
type Transition struct {
	From     State
	To       State
	At       time.Time
	Duration time.Duration // time spent loading; set on terminal transitions
	Invoice  *EmittedInvoice
	Err      error
}

// Observer receives lifecycle transitions. It must not block.
type Observer func(Transition)

// Lifecycle tracks a single submission: idle -> loading -> success|error.
// A new submission needs a new Lifecycle.
type Lifecycle struct {
	mu        sync.Mutex
	state     State
	startedAt time.Time
	observers []Observer
	now       func() time.Time
}

// NewLifecycle creates an idle lifecycle notifying the given observers.
func NewLifecycle(observers ...Observer) *Lifecycle {
	return &Lifecycle{
		state:     StateIdle,
		observers: observers,
		now:       time.Now,
	}
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Start moves idle -> loading.
func (l *Lifecycle) Start() error {
	return l.transition(StateLoading, nil, nil)
}

// Succeed moves loading -> success.
func (l *Lifecycle) Succeed(inv EmittedInvoice) error {
	return l.transition(StateSuccess, &inv, nil)
}

// Fail moves loading -> error.
func (l *Lifecycle) Fail(err error) error {
	return l.transition(StateError, nil, err)
}

func (l *Lifecycle) transition(to State, inv *EmittedInvoice, cause error) error {
	l.mu.Lock()
	from := l.state
	if !allowed(from, to) {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	now := l.now()
	t := Transition{From: from, To: to, At: now, Invoice: inv, Err: cause}
	if to == StateLoading {
		l.startedAt = now
	} else {
		t.Duration = now.Sub(l.startedAt)
	}
	l.state = to
	observers := l.observers
	l.mu.Unlock()

	for _, observe := range observers {
		observe(t)
	}
	return nil
}

func allowed(from, to State) bool {
	switch from {
	case StateIdle:
		return to == StateLoading
	case StateLoading:
		return to == StateSuccess || to == StateError
	default:
		return false
	}
}
