// Package capture runs the request/receive loop that pulls timestamp words
// from the TDC logic over an enabled DPTI port.
//
// Each iteration sends a single byte holding the number of bytes wanted,
// then reads exactly that many bytes back and decodes them. Decoder state
// (the previous record used for deltas) starts from zero for every buffer.
package capture

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/OpenTraceLab/OpenTraceDPTI/pkg/dpti"
	"github.com/OpenTraceLab/OpenTraceDPTI/pkg/tdc"
)

// MaxRequestBytes is the largest count a one-byte request can carry.
const MaxRequestBytes = 255

// fillByte pre-fills the receive buffer so stale data is never decoded.
const fillByte = 0xBA

// Port is the part of a dpti.Session the loop needs.
type Port interface {
	Transfer(out, in []byte) error
}

// Config controls a capture run.
type Config struct {
	RequestBytes int // bytes requested per iteration, 1..255
	Iterations   int // 0 runs until the context is cancelled
	Layout       tdc.Layout
	Timebase     tdc.Timebase
}

// DefaultConfig requests 128 bytes (16 default words) 65536 times.
func DefaultConfig() Config {
	return Config{
		RequestBytes: 128,
		Iterations:   65536,
		Layout:       tdc.DefaultLayout,
		Timebase:     tdc.DefaultTimebase,
	}
}

// Validate checks the request size, iteration count, layout and timebase.
func (c Config) Validate() error {
	if c.RequestBytes < 1 || c.RequestBytes > MaxRequestBytes {
		return fmt.Errorf("capture: request size %d out of range [1,%d]", c.RequestBytes, MaxRequestBytes)
	}
	if c.Iterations < 0 {
		return fmt.Errorf("capture: negative iteration count %d", c.Iterations)
	}
	if err := c.Layout.Validate(); err != nil {
		return err
	}
	return c.Timebase.Validate()
}

// Result summarizes a run.
type Result struct {
	Iterations int
	Records    int
	Misses     int
}

// Run performs the capture loop, calling fn for every decoded record. It
// returns the context's error if cancelled between iterations, and stops at
// the first transfer or callback error.
func Run(ctx context.Context, port Port, cfg Config, fn func(tdc.Record) error) (Result, error) {
	var res Result
	if err := cfg.Validate(); err != nil {
		return res, err
	}

	req := []byte{byte(cfg.RequestBytes)}
	in := make([]byte, cfg.RequestBytes)
	for cfg.Iterations == 0 || res.Iterations < cfg.Iterations {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		glog.V(1).Infof("capture: iteration %d, requesting %d bytes", res.Iterations, cfg.RequestBytes)
		if err := port.Transfer(req, nil); err != nil {
			return res, fmt.Errorf("capture: request %d bytes: %w", cfg.RequestBytes, err)
		}
		for i := range in {
			in[i] = fillByte
		}
		start := time.Now()
		if err := port.Transfer(nil, in); err != nil {
			if errors.Is(err, dpti.ErrTimeout) {
				return res, fmt.Errorf("capture: receive %d bytes: timed out after %f seconds: %w",
					cfg.RequestBytes, time.Since(start).Seconds(), err)
			}
			return res, fmt.Errorf("capture: receive %d bytes: %w", cfg.RequestBytes, err)
		}
		if glog.V(2) {
			glog.Infof("capture: received %s", hex.EncodeToString(in))
		}

		dec, err := tdc.NewDecoder(in, cfg.Layout, cfg.Timebase)
		if err != nil {
			return res, err
		}
		for rec := range dec.All() {
			res.Records++
			if err := fn(rec); err != nil {
				return res, err
			}
		}
		res.Misses += dec.Misses()
		res.Iterations++
	}
	return res, nil
}

// SimResponder returns a transfer hook that answers the capture protocol
// with words from gen, for use with dpti.SimDevice.
func SimResponder(gen *tdc.Generator) dpti.TransferHook {
	pending := 0
	return func(port int, out, in []byte) error {
		if len(out) > 0 {
			pending = int(out[len(out)-1])
		}
		if len(in) == 0 {
			return nil
		}
		n := min(pending, len(in))
		pending -= n
		if _, err := gen.Fill(in[:n]); err != nil {
			return err
		}
		if n < len(in) {
			return fmt.Errorf("sim: %d of %d bytes available: %w", n, len(in), dpti.ErrTimeout)
		}
		return nil
	}
}
