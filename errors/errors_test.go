package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseCall,
				Kind:   KindInvalidHandle,
				Class:  "Scene",
				Method: "MoveItem",
				Handle: 42,
				Path:   []string{"args", "0"},
				Detail: "scene was removed",
			},
			contains: []string{"[call]", "invalid_handle", "Scene.MoveItem", "handle 42", "args.0", "scene was removed"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDecode,
				Kind:  KindOutOfBounds,
			},
			contains: []string{"[decode]", "out_of_bounds"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseConnect,
				Kind:   KindConnection,
				Detail: "dial failed",
				Cause:  errors.New("no such file"),
			},
			contains: []string{"[connect]", "connection", "dial failed", "caused by", "no such file"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseCall,
		Kind:  KindDisconnected,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is did not reach cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase:  PhaseCall,
		Kind:   KindInvalidHandle,
		Handle: 7,
	}

	if !errors.Is(err, &Error{Phase: PhaseCall, Kind: KindInvalidHandle}) {
		t.Error("same phase and kind should match")
	}
	if errors.Is(err, &Error{Phase: PhaseLifecycle, Kind: KindInvalidHandle}) {
		t.Error("different phase should not match")
	}
	if !errors.Is(err, ErrInvalidHandle) {
		t.Error("kind sentinel should match any phase")
	}
	if errors.Is(err, ErrInvalidType) {
		t.Error("different kind sentinel should not match")
	}

	wrapped := fmt.Errorf("osn: scene: %w", err)
	if !errors.Is(wrapped, ErrInvalidHandle) {
		t.Error("sentinel should match through fmt wrapping")
	}
}

func TestError_As(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", InvalidType(PhaseFactory, "Input", "nope_source"))

	var e *Error
	if !errors.As(wrapped, &e) {
		t.Fatal("errors.As failed")
	}
	if e.Kind != KindInvalidType {
		t.Errorf("kind = %s, want %s", e.Kind, KindInvalidType)
	}
	if e.Value != "nope_source" {
		t.Errorf("value = %v", e.Value)
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("boom")
	err := New(PhaseHost, KindRemote).
		Call("Input", "Create").
		Handle(3).
		Path("settings", "url").
		Value("x").
		Cause(cause).
		Detail("failed %d times", 2).
		Build()

	if err.Class != "Input" || err.Method != "Create" {
		t.Errorf("call = %s.%s", err.Class, err.Method)
	}
	if err.Handle != 3 {
		t.Errorf("handle = %d", err.Handle)
	}
	if err.Detail != "failed 2 times" {
		t.Errorf("detail = %q", err.Detail)
	}
	if !errors.Is(err, cause) {
		t.Error("cause not chained")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		err  *Error
		kind Kind
	}{
		{Connection("refused", nil), KindConnection},
		{ProtocolMismatch(2, 1), KindProtocol},
		{Protocol(PhaseDecode, "bad frame", nil), KindProtocol},
		{Disconnected(nil), KindDisconnected},
		{InvalidType(PhaseFactory, "Input", "x"), KindInvalidType},
		{InvalidHandle(PhaseCall, 1, "Scene"), KindInvalidHandle},
		{InvalidArgument(PhaseHost, []string{"args"}, "missing"), KindInvalidArgument},
		{NotFound(PhaseFactory, "source", "a"), KindNotFound},
		{OutOfBounds(PhaseHost, nil, 4, 2), KindOutOfBounds},
		{Timeout("Scene", "Add", nil), KindTimeout},
		{InvalidData(PhaseDecode, nil, "truncated"), KindInvalidData},
		{Wrap(PhaseCall, KindRemote, errors.New("x"), "host failure"), KindRemote},
	}

	for _, tt := range tests {
		if tt.err.Kind != tt.kind {
			t.Errorf("%v: kind = %s, want %s", tt.err, tt.err.Kind, tt.kind)
		}
		if tt.err.Error() == "" {
			t.Errorf("empty message for %s", tt.kind)
		}
	}
}

func TestKindOf(t *testing.T) {
	if k := KindOf(fmt.Errorf("x: %w", Disconnected(nil))); k != KindDisconnected {
		t.Errorf("KindOf = %q", k)
	}
	if k := KindOf(errors.New("plain")); k != "" {
		t.Errorf("KindOf plain = %q", k)
	}
	if k := KindOf(nil); k != "" {
		t.Errorf("KindOf nil = %q", k)
	}
}
