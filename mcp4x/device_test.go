package mcp4x

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a Transport capturing every frame it is asked to write.
type recorder struct {
	frames [][]byte
	err    error
}

func (r *recorder) Transfer(p []byte) error {
	if r.err != nil {
		return r.err
	}
	frame := make([]byte, len(p))
	copy(frame, p)
	r.frames = append(r.frames, frame)
	return nil
}

func TestMCP42xSetPosition(t *testing.T) {
	tests := []struct {
		name     string
		channel  Channel
		position uint8
		frame    []byte
	}{
		{"channel 0", Channel0, 50, []byte{0x11, 0x32}},
		{"channel 1", Channel1, 127, []byte{0x12, 0x7F}},
		{"all channels", AllChannels, 255, []byte{0x13, 0xFF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &recorder{}
			dev := NewMCP42x(tr)

			require.NoError(t, dev.SetPosition(tt.channel, tt.position))
			require.Len(t, tr.frames, 1)
			assert.Equal(t, tt.frame, tr.frames[0])
		})
	}
}

func TestMCP42xShutdown(t *testing.T) {
	tests := []struct {
		name    string
		channel Channel
		frame   []byte
	}{
		{"channel 0", Channel0, []byte{0x21, 0x00}},
		{"channel 1", Channel1, []byte{0x22, 0x00}},
		{"all channels", AllChannels, []byte{0x23, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &recorder{}
			dev := NewMCP42x(tr)

			require.NoError(t, dev.Shutdown(tt.channel))
			require.Len(t, tr.frames, 1)
			assert.Equal(t, tt.frame, tr.frames[0])
		})
	}
}

func TestMCP41xChannels(t *testing.T) {
	tests := []struct {
		name    string
		channel Channel
		frame   []byte
		wantErr error
	}{
		{"channel 0", Channel0, []byte{0x11, 0x32}, nil},
		{"all channels alias", AllChannels, []byte{0x13, 0x32}, nil},
		{"channel 1 rejected", Channel1, nil, ErrWrongChannel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &recorder{}
			dev := NewMCP41x(tr)

			err := dev.SetPosition(tt.channel, 50)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, tr.frames, "an illegal channel must never reach the bus")
				return
			}

			require.NoError(t, err)
			require.Len(t, tr.frames, 1)
			assert.Equal(t, tt.frame, tr.frames[0])
		})
	}
}

func TestMCP41xShutdownWrongChannel(t *testing.T) {
	tr := &recorder{}
	dev := NewMCP41x(tr)

	require.ErrorIs(t, dev.Shutdown(Channel1), ErrWrongChannel)
	assert.Empty(t, tr.frames)
}

// Unknown selector values are refused on both families before encoding, which
// would otherwise produce a frame with an all-zero channel code.
func TestUnknownChannelRejected(t *testing.T) {
	tr := &recorder{}
	dev := NewMCP42x(tr)

	require.ErrorIs(t, dev.SetPosition(Channel(7), 1), ErrWrongChannel)
	require.ErrorIs(t, dev.Shutdown(Channel(7)), ErrWrongChannel)
	assert.Empty(t, tr.frames)
}

func TestCommErrorWrapsTransport(t *testing.T) {
	cause := errors.New("bus gone")
	dev := NewMCP42x(&recorder{err: cause})

	err := dev.SetPosition(Channel0, 10)
	require.Error(t, err)

	var comm *CommError
	require.ErrorAs(t, err, &comm)
	assert.Equal(t, cause, comm.Err)
	assert.ErrorIs(t, err, cause)
}

// Repeating an operation produces identical frames: the handle keeps no state
// between calls beyond its transport.
func TestRepeatedOperationsAreIdentical(t *testing.T) {
	tr := &recorder{}
	dev := NewMCP42x(tr)

	require.NoError(t, dev.SetPosition(Channel1, 80))
	require.NoError(t, dev.SetPosition(Channel1, 80))

	require.Len(t, tr.frames, 2)
	assert.Equal(t, tr.frames[0], tr.frames[1])
}

func TestFrameSize(t *testing.T) {
	tr := &recorder{}
	dev := NewMCP41x(tr)

	require.NoError(t, dev.SetPosition(Channel0, 0))
	require.NoError(t, dev.Shutdown(Channel0))

	for _, frame := range tr.frames {
		assert.Len(t, frame, PayloadSize)
	}
}

func TestDestroyReturnsTransport(t *testing.T) {
	tr := &recorder{}
	dev := NewMCP42x(tr)

	require.NoError(t, dev.SetPosition(Channel0, 1))

	got := dev.Destroy()
	assert.Same(t, tr, got, "Destroy must hand back the transport it was built with")

	// The handle is inert from now on; the transport sees nothing more.
	require.ErrorIs(t, dev.SetPosition(Channel0, 2), ErrDestroyed)
	require.ErrorIs(t, dev.Shutdown(AllChannels), ErrDestroyed)
	assert.Len(t, tr.frames, 1)
	assert.Nil(t, dev.Destroy())
}

func TestZeroValueHandleIsInert(t *testing.T) {
	var dev MCP41x

	require.ErrorIs(t, dev.SetPosition(Channel0, 1), ErrDestroyed)
}
