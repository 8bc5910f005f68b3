package dpti

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimDeviceLoopbackQueues(t *testing.T) {
	sim := NewSimDevice()
	require.NoError(t, sim.Enable(0))

	require.NoError(t, sim.Transfer([]byte{0xAA, 0xBB}, nil, false))
	in := make([]byte, 1)
	require.NoError(t, sim.Transfer(nil, in, false))
	if !bytes.Equal(in, []byte{0xAA}) {
		t.Fatalf("in = %X, want AA", in)
	}

	in = make([]byte, 2)
	err := sim.Transfer(nil, in, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, byte(0xBB), in[0])
}

func TestSimDeviceHook(t *testing.T) {
	sim := NewSimDevice()
	sim.OnTransfer = func(port int, out, in []byte) error {
		if port != 1 {
			t.Fatalf("hook called for port %d", port)
		}
		for i := range in {
			in[i] = byte(i)
		}
		return nil
	}
	require.NoError(t, sim.Enable(1))

	in := make([]byte, 3)
	require.NoError(t, sim.Transfer(nil, in, false))
	assert.Equal(t, []byte{0, 1, 2}, in)
}

func TestSimDeviceStateErrors(t *testing.T) {
	sim := NewSimDevice()
	assert.Error(t, sim.Transfer([]byte{1}, nil, false), "transfer before enable")

	assert.Error(t, sim.Enable(5))
	require.NoError(t, sim.Enable(0))
	assert.Error(t, sim.Enable(1), "second enable")

	_, err := sim.PortProperties(-1)
	var rangeErr *PortRangeError
	assert.True(t, errors.As(err, &rangeErr))

	require.NoError(t, sim.Disable())
	require.NoError(t, sim.Close())
	_, err = sim.PortCount()
	assert.Error(t, err)
}

func TestSimDeviceZeroValue(t *testing.T) {
	sim := &SimDevice{Ports: []Properties{PropSynchronous}}
	assert.Error(t, sim.Transfer(nil, make([]byte, 1), false))
	require.NoError(t, sim.Enable(0))
	require.NoError(t, sim.Transfer([]byte{7}, make([]byte, 1), false))
}
