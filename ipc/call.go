package ipc

import (
	"strconv"

	"github.com/segmentio/encoding/json"

	"github.com/wippyai/obs-ipc/errors"
	"github.com/wippyai/obs-ipc/wire"
)

// Call is one request as seen by a Func.
type Call struct {
	Class   string
	Method  string
	Session string
	ID      uint64
	Args    Args
}

// Args are the encoded request arguments.
type Args []json.RawMessage

// Len returns the number of arguments.
func (a Args) Len() int { return len(a) }

// Has reports whether argument i is present and not null.
func (a Args) Has(i int) bool {
	if i < 0 || i >= len(a) {
		return false
	}
	raw := a[i]
	return len(raw) > 0 && string(raw) != "null"
}

// Decode unmarshals argument i into v.
func (a Args) Decode(i int, v any) error {
	if i < 0 || i >= len(a) {
		return errors.New(errors.PhaseHost, errors.KindInvalidArgument).
			Path("args", strconv.Itoa(i)).
			Detail("missing argument").
			Build()
	}
	if err := json.Unmarshal(a[i], v); err != nil {
		return errors.New(errors.PhaseHost, errors.KindInvalidArgument).
			Path("args", strconv.Itoa(i)).
			Cause(err).
			Detail("malformed argument").
			Build()
	}
	return nil
}

func (a Args) Uint64(i int) (uint64, error) {
	var v uint64
	err := a.Decode(i, &v)
	return v, err
}

func (a Args) Int(i int) (int, error) {
	var v int
	err := a.Decode(i, &v)
	return v, err
}

func (a Args) Int64(i int) (int64, error) {
	var v int64
	err := a.Decode(i, &v)
	return v, err
}

func (a Args) Float(i int) (float64, error) {
	var v float64
	err := a.Decode(i, &v)
	return v, err
}

func (a Args) Bool(i int) (bool, error) {
	var v bool
	err := a.Decode(i, &v)
	return v, err
}

func (a Args) String(i int) (string, error) {
	var v string
	err := a.Decode(i, &v)
	return v, err
}

// Settings decodes an optional settings argument. Absent or null yields an
// empty map.
func (a Args) Settings(i int) (wire.Settings, error) {
	if !a.Has(i) {
		return wire.Settings{}, nil
	}
	var v wire.Settings
	if err := a.Decode(i, &v); err != nil {
		return nil, err
	}
	if v == nil {
		v = wire.Settings{}
	}
	return v, nil
}

// Reply is a successful response.
type Reply struct {
	Class  string
	Method string
	Result json.RawMessage
}

// Decode unmarshals the result into v. An empty result leaves v untouched.
func (r *Reply) Decode(v any) error {
	if err := wire.DecodeValue(r.Result, v); err != nil {
		return errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Call(r.Class, r.Method).
			Cause(err).
			Detail("decode result").
			Build()
	}
	return nil
}

// Empty reports whether the reply carries no result.
func (r *Reply) Empty() bool {
	return len(r.Result) == 0 || string(r.Result) == "null"
}

// codeOf maps an error to the wire code sent back to the client.
func codeOf(err error) wire.Code {
	switch errors.KindOf(err) {
	case errors.KindInvalidHandle:
		return wire.CodeInvalidReference
	case errors.KindInvalidType:
		return wire.CodeInvalidType
	case errors.KindInvalidArgument, errors.KindInvalidData:
		return wire.CodeInvalidArgument
	case errors.KindNotFound:
		return wire.CodeNotFound
	case errors.KindOutOfBounds:
		return wire.CodeOutOfBounds
	case errors.KindProtocol:
		return wire.CodeProtocolMismatch
	}
	return wire.CodeError
}

// kindOf maps a wire code to the client-side error kind.
func kindOf(code wire.Code) errors.Kind {
	switch code {
	case wire.CodeInvalidReference:
		return errors.KindInvalidHandle
	case wire.CodeInvalidType:
		return errors.KindInvalidType
	case wire.CodeInvalidArgument:
		return errors.KindInvalidArgument
	case wire.CodeNotFound:
		return errors.KindNotFound
	case wire.CodeOutOfBounds:
		return errors.KindOutOfBounds
	case wire.CodeProtocolMismatch:
		return errors.KindProtocol
	}
	return errors.KindRemote
}

// remoteError converts an error response into a structured error.
func remoteError(class, method string, m *wire.Message) *errors.Error {
	b := errors.New(errors.PhaseCall, kindOf(m.Code)).
		Call(class, method).
		Value(m.Code)
	if m.Handle != 0 {
		b = b.Handle(m.Handle)
	}
	if m.Error != "" {
		b = b.Detail("%s", m.Error)
	} else {
		b = b.Detail("%s", m.Code.String())
	}
	return b.Build()
}
