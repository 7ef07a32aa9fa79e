package app

import (
	"fmt"
	"sync"

	"github.com/bft-labs/dropship/internal/domain"
	"github.com/bft-labs/dropship/internal/ports"
)

// State represents the lifecycle state of a listener.
type State int

const (
	StateIdle State = iota
	StateListening
	StateDraining
	StateClosed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateListening:
		return "Listening"
	case StateDraining:
		return "Draining"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// Lifecycle manages the state machine of a listener.
type Lifecycle struct {
	mu           sync.RWMutex
	state        State
	logger       ports.Logger
	eventEmitter StateEmitter
}

// StateEmitter is called when the lifecycle state changes.
type StateEmitter interface {
	OnStateChange(previous, current State)
}

// NewLifecycle creates a lifecycle in StateIdle.
func NewLifecycle(logger ports.Logger, emitter StateEmitter) *Lifecycle {
	return &Lifecycle{
		state:        StateIdle,
		logger:       logger,
		eventEmitter: emitter,
	}
}

// State returns the current lifecycle state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// TransitionTo attempts to move to a new state.
// Returns an error wrapping domain.ErrInvalidTransition if the move is not allowed.
func (l *Lifecycle) TransitionTo(newState State) error {
	l.mu.Lock()
	oldState := l.state

	if !validTransition(oldState, newState) {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s to %s", domain.ErrInvalidTransition, oldState, newState)
	}

	l.state = newState
	l.mu.Unlock()

	// Emit event outside of lock
	if l.eventEmitter != nil {
		l.eventEmitter.OnStateChange(oldState, newState)
	}

	l.logger.Debug("listener state",
		ports.String("from", oldState.String()),
		ports.String("to", newState.String()),
	)
	return nil
}

func validTransition(from, to State) bool {
	switch from {
	case StateIdle:
		return to == StateListening
	case StateListening:
		return to == StateDraining || to == StateClosed
	case StateDraining:
		return to == StateListening || to == StateClosed
	}
	return false
}
