package capture

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTraceDPTI/pkg/dpti"
	"github.com/OpenTraceLab/OpenTraceDPTI/pkg/tdc"
)

func simSession(t *testing.T, gen *tdc.Generator) *dpti.Session {
	t.Helper()
	sim := dpti.NewSimDevice()
	sim.OnTransfer = SimResponder(gen)
	sess, err := dpti.OpenPort(sim, 0)
	require.NoError(t, err)
	t.Cleanup(func() { sess.Close() })
	return sess
}

func TestRunDecodesEveryIteration(t *testing.T) {
	gen := tdc.NewGenerator(tdc.DefaultLayout, 1)
	gen.Step = 2
	sess := simSession(t, gen)

	cfg := DefaultConfig()
	cfg.Iterations = 3

	var recs []tdc.Record
	res, err := Run(context.Background(), sess, cfg, func(rec tdc.Record) error {
		recs = append(recs, rec)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, Result{Iterations: 3, Records: 48}, res)
	require.Len(t, recs, 48)

	for i, rec := range recs {
		assert.Equal(t, uint64(2*(i+1)), rec.Coarse)
		assert.Equal(t, i%16, rec.Seq)
	}
	// Deltas restart from zero with every buffer.
	assert.Equal(t, recs[16].Coarse, recs[16].CoarseDelta)
	assert.Equal(t, uint64(2), recs[17].CoarseDelta)
}

func TestRunCountsMisses(t *testing.T) {
	gen := tdc.NewGenerator(tdc.DefaultLayout, 1)
	gen.Step = 1
	gen.CorruptEvery = 4
	sess := simSession(t, gen)

	cfg := DefaultConfig()
	cfg.Iterations = 1
	cfg.RequestBytes = 64

	res, err := Run(context.Background(), sess, cfg, func(tdc.Record) error { return nil })
	require.NoError(t, err)
	// Words 4 and 8 of the buffer have a broken training byte.
	assert.Positive(t, res.Misses)
	assert.Less(t, res.Records, 8)
	assert.Equal(t, 1, res.Iterations)
}

func TestRunStopsOnCancel(t *testing.T) {
	sess := simSession(t, tdc.NewGenerator(tdc.DefaultLayout, 1))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cfg := DefaultConfig()
	cfg.Iterations = 0

	res, err := Run(ctx, sess, cfg, func(rec tdc.Record) error {
		if rec.Seq == 15 {
			cancel()
		}
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, res.Iterations)
	assert.Equal(t, 16, res.Records)
}

func TestRunPropagatesErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Iterations = 1

	// Loopback echoes the one-byte request, then times out on the read.
	sim := dpti.NewSimDevice()
	sess, err := dpti.OpenPort(sim, 0)
	require.NoError(t, err)
	defer sess.Close()
	_, err = Run(context.Background(), sess, cfg, func(tdc.Record) error { return nil })
	require.Error(t, err)
	assert.ErrorIs(t, err, dpti.ErrTimeout)
	assert.Contains(t, err.Error(), "receive 128 bytes: timed out after")
	assert.Regexp(t, `timed out after \d+\.\d{6} seconds`, err.Error())

	stop := errors.New("stop")
	sess2 := simSession(t, tdc.NewGenerator(tdc.DefaultLayout, 1))
	res, err := Run(context.Background(), sess2, cfg, func(tdc.Record) error { return stop })
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, res.Records)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	for _, n := range []int{0, 256} {
		bad := cfg
		bad.RequestBytes = n
		assert.Errorf(t, bad.Validate(), "request %d", n)
	}

	bad := cfg
	bad.Iterations = -1
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Layout.FineBits = 11
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Timebase.ReferenceHz = 0
	assert.Error(t, bad.Validate())
}

func TestRunReportsOtherReceiveErrors(t *testing.T) {
	sim := dpti.NewSimDevice()
	calls := 0
	sim.OnTransfer = func(port int, out, in []byte) error {
		calls++
		if len(in) > 0 {
			return &dpti.Error{Op: "DptiIO", Code: 1}
		}
		return nil
	}
	sess, err := dpti.OpenPort(sim, 0)
	require.NoError(t, err)
	defer sess.Close()

	cfg := DefaultConfig()
	cfg.Iterations = 1
	_, err = Run(context.Background(), sess, cfg, func(tdc.Record) error { return nil })
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "timed out")
	assert.Contains(t, err.Error(), "receive 128 bytes: dpti: DptiIO: erc = 1")
	assert.Equal(t, 2, calls)
}

func TestSimResponderShortRead(t *testing.T) {
	hook := SimResponder(tdc.NewGenerator(tdc.DefaultLayout, 1))
	require.NoError(t, hook(0, []byte{8}, nil))
	err := hook(0, nil, make([]byte, 16))
	assert.ErrorIs(t, err, dpti.ErrTimeout)
}
