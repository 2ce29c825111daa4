package client

import (
	"fmt"
	"sync"
	"time"
)

// ConnectionState represents the current state of the connection.
type ConnectionState int

const (
	// DISCONNECTED indicates no active session.
	DISCONNECTED ConnectionState = iota
	// CONNECTING indicates a bootstrap attempt in progress.
	CONNECTING
	// CONNECTED indicates an established, bound session.
	CONNECTED
	// DISCONNECTING indicates graceful close in progress.
	DISCONNECTING
)

// String returns the string representation of the connection state.
func (cs ConnectionState) String() string {
	switch cs {
	case DISCONNECTED:
		return "DISCONNECTED"
	case CONNECTING:
		return "CONNECTING"
	case CONNECTED:
		return "CONNECTED"
	case DISCONNECTING:
		return "DISCONNECTING"
	default:
		return "UNKNOWN"
	}
}

// StateTransition represents a change in connection state.
type StateTransition struct {
	// From is the previous state.
	From ConnectionState

	// To is the new current state.
	To ConnectionState

	// Timestamp is when the transition occurred.
	Timestamp time.Time

	// Error is the error that caused the transition, if any.
	Error error

	// Duration is how long the previous state was held.
	Duration time.Duration

	// Metadata contains additional context about the transition.
	Metadata map[string]interface{}
}

// StateChangeHandler is called when the connection state changes.
type StateChangeHandler func(transition StateTransition)

// StateManager manages connection state transitions and event handlers.
type StateManager struct {
	mu             sync.Mutex
	current        ConnectionState
	lastTransition time.Time
	last           StateTransition
	handlers       []StateChangeHandler
}

// NewStateManager creates a new state manager in DISCONNECTED state.
func NewStateManager() *StateManager {
	return &StateManager{
		current:        DISCONNECTED,
		lastTransition: time.Now(),
	}
}

// TransitionTo attempts to transition to a new state. Returns an error if
// the transition is illegal.
//
// Legal transitions:
//   - DISCONNECTED → CONNECTING
//   - CONNECTING → CONNECTED
//   - CONNECTING → DISCONNECTED (failed bootstrap)
//   - CONNECTED → DISCONNECTING
//   - DISCONNECTING → DISCONNECTED
func (sm *StateManager) TransitionTo(newState ConnectionState, err error, metadata map[string]interface{}) error {
	sm.mu.Lock()

	if !isLegalTransition(sm.current, newState) {
		from := sm.current
		sm.mu.Unlock()
		return fmt.Errorf("illegal state transition: %s -> %s", from, newState)
	}

	now := time.Now()
	transition := StateTransition{
		From:      sm.current,
		To:        newState,
		Timestamp: now,
		Error:     err,
		Duration:  now.Sub(sm.lastTransition),
		Metadata:  metadata,
	}

	sm.current = newState
	sm.lastTransition = now
	sm.last = transition

	// Handlers run without the lock so they may query the manager.
	handlers := make([]StateChangeHandler, len(sm.handlers))
	copy(handlers, sm.handlers)
	sm.mu.Unlock()

	for _, handler := range handlers {
		handler(transition)
	}
	return nil
}

func isLegalTransition(from, to ConnectionState) bool {
	switch from {
	case DISCONNECTED:
		return to == CONNECTING
	case CONNECTING:
		return to == CONNECTED || to == DISCONNECTED
	case CONNECTED:
		return to == DISCONNECTING
	case DISCONNECTING:
		return to == DISCONNECTED
	default:
		return false
	}
}

// GetState returns the current connection state.
func (sm *StateManager) GetState() ConnectionState {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.current
}

// GetLastTransition returns the most recent state transition.
func (sm *StateManager) GetLastTransition() StateTransition {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.last
}

// OnStateChange registers a handler to be called on state transitions.
func (sm *StateManager) OnStateChange(handler StateChangeHandler) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.handlers = append(sm.handlers, handler)
}
