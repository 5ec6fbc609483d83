package wire

import (
	"bufio"
	"encoding/binary"
	"io"
	"strconv"
	"sync"

	"github.com/segmentio/encoding/json"

	"github.com/wippyai/obs-ipc/errors"
)

// MaxFrameSize bounds a single frame body.
const MaxFrameSize = 16 << 20

const headerSize = 4

// Marshal encodes a message body without framing.
func Marshal(m *Message) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseEncode, errors.KindInvalidData, err, "marshal message")
	}
	if len(data) > MaxFrameSize {
		return nil, errors.New(errors.PhaseEncode, errors.KindProtocol).
			Detail("frame of %d bytes exceeds limit %d", len(data), MaxFrameSize).
			Build()
	}
	return data, nil
}

// Unmarshal decodes a message body without framing.
func Unmarshal(data []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Protocol(errors.PhaseDecode, "malformed message body", err)
	}
	if m.Type == "" {
		return nil, errors.Protocol(errors.PhaseDecode, "message without type", nil)
	}
	return &m, nil
}

// Encoder writes length-prefixed frames. Safe for concurrent use.
type Encoder struct {
	w   io.Writer
	buf []byte
	mu  sync.Mutex
}

// NewEncoder creates an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w, buf: make([]byte, 0, 512)}
}

// Encode writes one frame. Header and body go out in a single Write so
// concurrent encoders on a shared stream never interleave.
func (e *Encoder) Encode(m *Message) error {
	body, err := Marshal(m)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.buf = e.buf[:0]
	e.buf = binary.BigEndian.AppendUint32(e.buf, uint32(len(body)))
	e.buf = append(e.buf, body...)
	_, err = e.w.Write(e.buf)
	return err
}

// Decoder reads length-prefixed frames. Not safe for concurrent use.
type Decoder struct {
	r      *bufio.Reader
	header [headerSize]byte
}

// NewDecoder creates a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Decode reads one frame. A clean end of stream before a header returns io.EOF
// unchanged; a stream cut inside a frame returns io.ErrUnexpectedEOF.
func (d *Decoder) Decode() (*Message, error) {
	if _, err := io.ReadFull(d.r, d.header[:]); err != nil {
		return nil, err
	}

	size := binary.BigEndian.Uint32(d.header[:])
	if size == 0 {
		return nil, errors.Protocol(errors.PhaseDecode, "empty frame", nil)
	}
	if size > MaxFrameSize {
		return nil, errors.New(errors.PhaseDecode, errors.KindProtocol).
			Detail("frame of %d bytes exceeds limit %d", size, MaxFrameSize).
			Value(size).
			Build()
	}

	body := make([]byte, size)
	if _, err := io.ReadFull(d.r, body); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return Unmarshal(body)
}

// EncodeValue marshals a single value. A nil value encodes as no bytes.
func EncodeValue(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseEncode, errors.KindInvalidArgument, err, "marshal value")
	}
	return data, nil
}

// EncodeArgs marshals call arguments in order.
func EncodeArgs(args ...any) ([]json.RawMessage, error) {
	if len(args) == 0 {
		return nil, nil
	}
	out := make([]json.RawMessage, len(args))
	for i, a := range args {
		data, err := json.Marshal(a)
		if err != nil {
			return nil, errors.New(errors.PhaseEncode, errors.KindInvalidArgument).
				Path("args", strconv.Itoa(i)).
				Cause(err).
				Detail("marshal argument").
				Build()
		}
		out[i] = data
	}
	return out, nil
}

// DecodeValue unmarshals raw into v. Empty input leaves v untouched.
func DecodeValue(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "unmarshal value")
	}
	return nil
}
