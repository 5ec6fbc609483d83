package wire

import (
	"bytes"
	"encoding/binary"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/obs-ipc/errors"
)

func TestEncoder_FramesDecodeInOrder(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	req, err := NewRequest(1, "Scene", "Add", uint64(10), uint64(20))
	require.NoError(t, err)
	evt, err := NewEvent(10, SignalItemAdd, SceneSignalData{Scene: 10, ItemID: 1})
	require.NoError(t, err)
	res := &Message{Type: TypeResponse, ID: 1, Result: []byte(`{"id":30,"kind":"scene_item","item":1}`)}

	for _, m := range []*Message{req, evt, res} {
		require.NoError(t, enc.Encode(m))
	}

	dec := NewDecoder(&buf)

	got, err := dec.Decode()
	require.NoError(t, err)
	assert.Equal(t, TypeRequest, got.Type)
	assert.Equal(t, "Scene", got.Class)
	assert.Equal(t, "Add", got.Method)
	require.Len(t, got.Args, 2)
	var scene uint64
	require.NoError(t, DecodeValue(got.Args[0], &scene))
	assert.Equal(t, uint64(10), scene)

	got, err = dec.Decode()
	require.NoError(t, err)
	assert.Equal(t, TypeEvent, got.Type)
	assert.False(t, got.IsReply())
	var data SceneSignalData
	require.NoError(t, DecodeValue(got.Payload, &data))
	assert.Equal(t, int64(1), data.ItemID)

	got, err = dec.Decode()
	require.NoError(t, err)
	assert.True(t, got.IsReply())
	var ref ObjectRef
	require.NoError(t, DecodeValue(got.Result, &ref))
	assert.Equal(t, ObjectRef{ID: 30, Kind: KindSceneItem, ItemID: 1}, ref)

	_, err = dec.Decode()
	assert.ErrorIs(t, err, io.EOF)
}

func TestDecoder_RejectsOversizedFrame(t *testing.T) {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], MaxFrameSize+1)

	_, err := NewDecoder(bytes.NewReader(header[:])).Decode()
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrProtocol)
}

func TestDecoder_RejectsEmptyFrame(t *testing.T) {
	_, err := NewDecoder(bytes.NewReader([]byte{0, 0, 0, 0})).Decode()
	assert.ErrorIs(t, err, errors.ErrProtocol)
}

func TestDecoder_TruncatedBody(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).Encode(&Message{Type: TypeRequest, ID: 9, Class: "Global", Method: "GetInfo"}))
	cut := buf.Bytes()[:buf.Len()-3]

	_, err := NewDecoder(bytes.NewReader(cut)).Decode()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestUnmarshal_Malformed(t *testing.T) {
	_, err := Unmarshal([]byte(`{"t":`))
	assert.ErrorIs(t, err, errors.ErrProtocol)

	_, err = Unmarshal([]byte(`{"id":3}`))
	assert.ErrorIs(t, err, errors.ErrProtocol)
}

func TestEncoder_ConcurrentWritersDoNotInterleave(t *testing.T) {
	var buf safeBuffer
	enc := NewEncoder(&buf)

	var wg sync.WaitGroup
	for i := 1; i <= 32; i++ {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			m, err := NewRequest(id, "Input", "SetVolume", id, 0.5)
			assert.NoError(t, err)
			assert.NoError(t, enc.Encode(m))
		}(uint64(i))
	}
	wg.Wait()

	dec := NewDecoder(bytes.NewReader(buf.Bytes()))
	seen := map[uint64]bool{}
	for {
		m, err := dec.Decode()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		seen[m.ID] = true
	}
	assert.Len(t, seen, 32)
}

func TestEncodeArgs_Unmarshalable(t *testing.T) {
	_, err := EncodeArgs("ok", make(chan int))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)

	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, []string{"args", "1"}, e.Path)
}

func TestEncodeValue_Nil(t *testing.T) {
	raw, err := EncodeValue(nil)
	require.NoError(t, err)
	assert.Nil(t, raw)

	var v int = 5
	require.NoError(t, DecodeValue(nil, &v))
	assert.Equal(t, 5, v)
}

type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Bytes()
}
