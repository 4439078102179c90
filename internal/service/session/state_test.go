package session

import (
	"errors"
	"sync"
	"testing"
)

func TestLifecycle_InitialState(t *testing.T) {
	lc := NewLifecycle("voice-1")

	if lc.State() != StateIdle {
		t.Errorf("expected StateIdle, got %v", lc.State())
	}
	if lc.SessionId() != "voice-1" {
		t.Errorf("expected voice-1, got %v", lc.SessionId())
	}
	if lc.State().HoldsResources() {
		t.Error("expected idle session to hold no resources")
	}
}

func TestLifecycle_HappyPath(t *testing.T) {
	lc := NewLifecycle("voice-1")

	steps := []struct {
		name string
		fn   func() error
		want State
	}{
		{"connect", lc.Connect, StateConnecting},
		{"open", lc.Open, StateActive},
		{"begin close", lc.BeginClose, StateClosing},
		{"finish", lc.Finish, StateClosed},
	}

	for _, s := range steps {
		if err := s.fn(); err != nil {
			t.Fatalf("%s: unexpected error: %v", s.name, err)
		}
		if lc.State() != s.want {
			t.Fatalf("%s: expected %v, got %v", s.name, s.want, lc.State())
		}
	}
}

func TestLifecycle_StopWhileConnecting(t *testing.T) {
	lc := NewLifecycle("voice-1")
	lc.Connect()

	if err := lc.BeginClose(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := lc.Open(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected open after close to fail, got %v", err)
	}
}

func TestLifecycle_InvalidTransitions(t *testing.T) {
	lc := NewLifecycle("voice-1")

	if err := lc.Open(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("open from idle: expected ErrInvalidTransition, got %v", err)
	}
	if err := lc.Finish(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("finish from idle: expected ErrInvalidTransition, got %v", err)
	}

	var te *TransitionError
	err := lc.BeginClose()
	if !errors.As(err, &te) {
		t.Fatalf("expected TransitionError, got %T", err)
	}
	if te.From != StateIdle || te.To != StateClosing {
		t.Errorf("unexpected transition detail: %+v", te)
	}
}

func TestLifecycle_Fail(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*Lifecycle)
		want  bool
	}{
		{"connecting", func(l *Lifecycle) { l.Connect() }, true},
		{"active", func(l *Lifecycle) { l.Connect(); l.Open() }, true},
		{"closing", func(l *Lifecycle) { l.Connect(); l.BeginClose() }, false},
		{"closed", func(l *Lifecycle) { l.Connect(); l.BeginClose(); l.Finish() }, false},
		{"idle", func(l *Lifecycle) {}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lc := NewLifecycle("voice-1")
			tt.setup(lc)
			before := lc.State()

			if got := lc.Fail(); got != tt.want {
				t.Errorf("expected Fail()=%v, got %v", tt.want, got)
			}
			if tt.want && lc.State() != StateErrored {
				t.Errorf("expected StateErrored, got %v", lc.State())
			}
			if !tt.want && lc.State() != before {
				t.Errorf("expected state unchanged %v, got %v", before, lc.State())
			}
		})
	}
}

func TestLifecycle_ConcurrentStopAndFail(t *testing.T) {
	for i := 0; i < 100; i++ {
		lc := NewLifecycle("voice-1")
		lc.Connect()
		lc.Open()

		var wg sync.WaitGroup
		var failed bool
		var closeErr error
		wg.Add(2)
		go func() { defer wg.Done(); failed = lc.Fail() }()
		go func() { defer wg.Done(); closeErr = lc.BeginClose() }()
		wg.Wait()

		if failed == (closeErr == nil) {
			t.Fatalf("expected exactly one winner: failed=%v closeErr=%v", failed, closeErr)
		}
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "IDLE"},
		{StateConnecting, "CONNECTING"},
		{StateActive, "ACTIVE"},
		{StateClosing, "CLOSING"},
		{StateClosed, "CLOSED"},
		{StateErrored, "ERRORED"},
		{State(99), "UNKNOWN(99)"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestState_Classification(t *testing.T) {
	for _, s := range []State{StateConnecting, StateActive, StateClosing} {
		if !s.HoldsResources() || s.CanStart() {
			t.Errorf("%v should hold resources", s)
		}
	}
	for _, s := range []State{StateIdle, StateClosed, StateErrored} {
		if s.HoldsResources() || !s.CanStart() {
			t.Errorf("%v should allow a new start", s)
		}
	}
}
