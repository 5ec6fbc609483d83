package wire

import "strconv"

// Code is a host result code. CodeOk doubles as the "valid" object status.
type Code int

const (
	CodeOk Code = iota
	CodeError
	CodeCriticalError
	CodeInvalidReference
	CodeNotFound
	CodeOutOfBounds
	CodeInvalidType
	CodeInvalidArgument
	CodeProtocolMismatch
)

var codeNames = [...]string{
	CodeOk:               "ok",
	CodeError:            "error",
	CodeCriticalError:    "critical_error",
	CodeInvalidReference: "invalid_reference",
	CodeNotFound:         "not_found",
	CodeOutOfBounds:      "out_of_bounds",
	CodeInvalidType:      "invalid_type",
	CodeInvalidArgument:  "invalid_argument",
	CodeProtocolMismatch: "protocol_mismatch",
}

func (c Code) String() string {
	if c >= 0 && int(c) < len(codeNames) {
		return codeNames[c]
	}
	return "code(" + strconv.Itoa(int(c)) + ")"
}
