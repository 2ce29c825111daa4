package client

import (
	"context"
	"testing"
	"time"

	"github.com/ldapdrv/ldapdrv/engine"
	"github.com/ldapdrv/ldapdrv/engine/mock"
	"github.com/ldapdrv/ldapdrv/protocol"
)

func TestConnectionStateString(t *testing.T) {
	tests := []struct {
		state    ConnectionState
		expected string
	}{
		{DISCONNECTED, "DISCONNECTED"},
		{CONNECTING, "CONNECTING"},
		{CONNECTED, "CONNECTED"},
		{DISCONNECTING, "DISCONNECTING"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.state.String(); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestLegalStateTransitions(t *testing.T) {
	tests := []struct {
		name     string
		from     ConnectionState
		to       ConnectionState
		shouldOK bool
	}{
		{"DISCONNECTED to CONNECTING", DISCONNECTED, CONNECTING, true},
		{"CONNECTING to CONNECTED", CONNECTING, CONNECTED, true},
		{"CONNECTING to DISCONNECTED", CONNECTING, DISCONNECTED, true},
		{"CONNECTED to DISCONNECTING", CONNECTED, DISCONNECTING, true},
		{"DISCONNECTING to DISCONNECTED", DISCONNECTING, DISCONNECTED, true},
		// Illegal transitions
		{"DISCONNECTED to CONNECTED", DISCONNECTED, CONNECTED, false},
		{"DISCONNECTED to DISCONNECTING", DISCONNECTED, DISCONNECTING, false},
		{"CONNECTING to DISCONNECTING", CONNECTING, DISCONNECTING, false},
		{"CONNECTED to CONNECTING", CONNECTED, CONNECTING, false},
		{"CONNECTED to DISCONNECTED", CONNECTED, DISCONNECTED, false},
		{"DISCONNECTING to CONNECTING", DISCONNECTING, CONNECTING, false},
		{"DISCONNECTING to CONNECTED", DISCONNECTING, CONNECTED, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := NewStateManager()

			switch tt.from {
			case CONNECTING:
				sm.TransitionTo(CONNECTING, nil, nil)
			case CONNECTED:
				sm.TransitionTo(CONNECTING, nil, nil)
				sm.TransitionTo(CONNECTED, nil, nil)
			case DISCONNECTING:
				sm.TransitionTo(CONNECTING, nil, nil)
				sm.TransitionTo(CONNECTED, nil, nil)
				sm.TransitionTo(DISCONNECTING, nil, nil)
			}

			err := sm.TransitionTo(tt.to, nil, nil)
			if tt.shouldOK && err != nil {
				t.Errorf("expected legal transition, got error: %v", err)
			}
			if !tt.shouldOK && err == nil {
				t.Errorf("expected illegal transition error, got none")
			}
		})
	}
}

func TestStateChangeHandlers(t *testing.T) {
	sm := NewStateManager()

	var captured []StateTransition
	sm.OnStateChange(func(transition StateTransition) {
		captured = append(captured, transition)
	})

	err := sm.TransitionTo(CONNECTING, nil, map[string]interface{}{
		"reason": "test",
	})
	if err != nil {
		t.Fatalf("transition failed: %v", err)
	}

	if len(captured) != 1 {
		t.Fatalf("expected 1 transition, got %d", len(captured))
	}
	trans := captured[0]
	if trans.From != DISCONNECTED || trans.To != CONNECTING {
		t.Errorf("expected DISCONNECTED->CONNECTING, got %s->%s", trans.From, trans.To)
	}
	if reason, ok := trans.Metadata["reason"].(string); !ok || reason != "test" {
		t.Errorf("expected metadata reason='test', got %v", trans.Metadata["reason"])
	}
}

func TestTransitionDuration(t *testing.T) {
	sm := NewStateManager()

	var duration time.Duration
	sm.OnStateChange(func(transition StateTransition) {
		duration = transition.Duration
	})

	time.Sleep(10 * time.Millisecond)
	sm.TransitionTo(CONNECTING, nil, nil)

	if duration < 10*time.Millisecond {
		t.Errorf("expected duration >= 10ms, got %v", duration)
	}
}

func TestTransitionCarriesError(t *testing.T) {
	sm := NewStateManager()

	var captured error
	sm.OnStateChange(func(transition StateTransition) {
		captured = transition.Error
	})

	bindErr := &AuthError{Code: "E_BIND", Type: "AUTH", Message: "bind rejected"}
	sm.TransitionTo(CONNECTING, nil, nil)
	sm.TransitionTo(DISCONNECTED, bindErr, nil)

	if captured == nil {
		t.Fatal("expected error in transition, got nil")
	}
	if captured.Error() != bindErr.Error() {
		t.Errorf("expected error %v, got %v", bindErr, captured)
	}
}

func TestConnectionLifecycleTransitions(t *testing.T) {
	opts := DefaultOptions()
	opts.URL = "ldap://ldap.example.com:389"
	opts.Credentials = SimpleCredentials("cn=admin,dc=example,dc=com", "secret")
	opts.Logger = NewNoopLogger()

	conn := NewConnection(mock.NewEngine(), &opts)

	var path []ConnectionState
	conn.OnStateChange(func(transition StateTransition) {
		path = append(path, transition.To)
	})

	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := conn.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	want := []ConnectionState{CONNECTING, CONNECTED, DISCONNECTING, DISCONNECTED}
	if len(path) != len(want) {
		t.Fatalf("transition path %v, want %v", path, want)
	}
	for i := range want {
		if path[i] != want[i] {
			t.Fatalf("transition path %v, want %v", path, want)
		}
	}
}

func TestFailedBootstrapReturnsToDisconnected(t *testing.T) {
	opts := DefaultOptions()
	opts.URL = "ldap://ldap.example.com:389"
	opts.Credentials = SimpleCredentials("cn=admin,dc=example,dc=com", "wrong")
	opts.Logger = NewNoopLogger()

	eng := mock.NewEngine()
	eng.Session().WithBindError(&engine.Error{
		Code: protocol.InvalidCredentials, Message: "bad password",
	})
	conn := NewConnection(eng, &opts)

	if err := conn.Connect(context.Background()); err == nil {
		t.Fatal("expected bind failure")
	}
	if conn.GetState() != DISCONNECTED {
		t.Errorf("failed bootstrap must end DISCONNECTED, got %s", conn.GetState())
	}
	last := conn.GetLastTransition()
	if last.Error == nil {
		t.Errorf("failing transition must carry the bootstrap error")
	}

	// A failed connection can be retried.
	eng.Session().WithBindError(nil)
	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("reconnect after failure: %v", err)
	}
	if conn.GetState() != CONNECTED {
		t.Errorf("expected CONNECTED after retry, got %s", conn.GetState())
	}
}

func TestDisconnectedCallbacks(t *testing.T) {
	connected := 0
	disconnected := 0

	opts := DefaultOptions()
	opts.URL = "ldap://ldap.example.com:389"
	opts.Credentials = Credentials{}
	opts.Logger = NewNoopLogger()
	opts.OnConnected = func(StateTransition) { connected++ }
	opts.OnDisconnected = func(StateTransition) { disconnected++ }

	conn := NewConnection(mock.NewEngine(), &opts)
	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := conn.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if connected != 1 {
		t.Errorf("OnConnected called %d times, want 1", connected)
	}
	if disconnected != 1 {
		t.Errorf("OnDisconnected called %d times, want 1", disconnected)
	}
}
