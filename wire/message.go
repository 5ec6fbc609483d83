package wire

import (
	"github.com/segmentio/encoding/json"
)

// ProtocolVersion is bumped on any incompatible change to Message or payloads.
const ProtocolVersion = 3

// MessageType tags a Message so readers can route it.
type MessageType string

const (
	TypeHello    MessageType = "hello"
	TypeWelcome  MessageType = "welcome"
	TypeRequest  MessageType = "req"
	TypeResponse MessageType = "res"
	TypeEvent    MessageType = "evt"
)

// Message is the single envelope exchanged over a transport.
type Message struct {
	Type    MessageType       `json:"t"`
	ID      uint64            `json:"id,omitempty"`
	Class   string            `json:"c,omitempty"`
	Method  string            `json:"m,omitempty"`
	Args    []json.RawMessage `json:"a,omitempty"`
	Code    Code              `json:"code,omitempty"`
	Error   string            `json:"err,omitempty"`
	Result  json.RawMessage   `json:"r,omitempty"`
	Handle  uint64            `json:"h,omitempty"`
	Signal  Signal            `json:"s,omitempty"`
	Payload json.RawMessage   `json:"p,omitempty"`
}

// Hello opens a session.
type Hello struct {
	Version int    `json:"version"`
	Session string `json:"session"`
	Client  string `json:"client,omitempty"`
}

// Welcome accepts a session.
type Welcome struct {
	Version int    `json:"version"`
	Session string `json:"session"`
	Server  string `json:"server,omitempty"`
}

// NewRequest builds a request message, encoding each argument.
func NewRequest(id uint64, class, method string, args ...any) (*Message, error) {
	raw, err := EncodeArgs(args...)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:   TypeRequest,
		ID:     id,
		Class:  class,
		Method: method,
		Args:   raw,
	}, nil
}

// NewEvent builds an event message for handle.
func NewEvent(handle uint64, sig Signal, payload any) (*Message, error) {
	raw, err := EncodeValue(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:    TypeEvent,
		Handle:  handle,
		Signal:  sig,
		Payload: raw,
	}, nil
}

// IsReply reports whether m answers a request.
func (m *Message) IsReply() bool {
	return m.Type == TypeResponse
}
