package tdc

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceDPTI/pkg/bitfield"
)

// Layout describes the bit framing of one timing word. Fields are stored most
// significant first: training pattern, coarse counter, fine phase. The fine
// field occupies the lowest bits of the word, so the last byte holds its
// least significant bits.
type Layout struct {
	WordBytes    int
	TrainBits    int
	CoarseBits   int
	FineBits     int
	TrainPattern uint64
}

// DefaultLayout is the 64-bit framing emitted by the TDC capture logic:
// an 8-bit 0x6A training byte, a 46-bit coarse counter and a 10-bit fine
// phase.
var DefaultLayout = Layout{
	WordBytes:    8,
	TrainBits:    8,
	CoarseBits:   46,
	FineBits:     10,
	TrainPattern: 0x6A,
}

// Validate checks that the fields exactly fill the word and fit the result
// types.
func (l Layout) Validate() error {
	if l.WordBytes <= 0 {
		return fmt.Errorf("tdc: word size must be positive, got %d bytes", l.WordBytes)
	}
	if l.TrainBits < 0 || l.CoarseBits < 0 || l.FineBits < 0 {
		return fmt.Errorf("tdc: negative field width (train=%d coarse=%d fine=%d)",
			l.TrainBits, l.CoarseBits, l.FineBits)
	}
	if sum := l.TrainBits + l.CoarseBits + l.FineBits; sum != l.WordBytes*8 {
		return fmt.Errorf("tdc: fields span %d bits, word is %d bits", sum, l.WordBytes*8)
	}
	if l.CoarseBits > 64 {
		return fmt.Errorf("tdc: coarse field of %d bits exceeds 64", l.CoarseBits)
	}
	if l.FineBits > 32 {
		return fmt.Errorf("tdc: fine field of %d bits exceeds 32", l.FineBits)
	}
	if l.TrainBits > 64 {
		return fmt.Errorf("tdc: training field of %d bits exceeds 64", l.TrainBits)
	}
	if l.TrainBits < 64 && l.TrainPattern>>uint(l.TrainBits) != 0 {
		return fmt.Errorf("tdc: training pattern %#x does not fit in %d bits", l.TrainPattern, l.TrainBits)
	}
	return nil
}

// MaxFine is the largest value the fine field can hold.
func (l Layout) MaxFine() uint32 {
	return uint32(1<<uint(l.FineBits) - 1)
}

// MaxCoarse is the largest value the coarse field can hold.
func (l Layout) MaxCoarse() uint64 {
	if l.CoarseBits >= 64 {
		return ^uint64(0)
	}
	return 1<<uint(l.CoarseBits) - 1
}

// Encode writes one word carrying coarse and fine into dst, which must hold
// at least WordBytes bytes.
func (l Layout) Encode(dst []byte, coarse uint64, fine uint32) error {
	if err := l.Validate(); err != nil {
		return err
	}
	if len(dst) < l.WordBytes {
		return fmt.Errorf("tdc: encode needs %d bytes, have %d", l.WordBytes, len(dst))
	}
	w := bitfield.NewWriter(dst[:l.WordBytes])
	if err := w.WriteBits(l.TrainBits, l.TrainPattern); err != nil {
		return err
	}
	if err := w.WriteBits(l.CoarseBits, coarse); err != nil {
		return fmt.Errorf("tdc: coarse: %w", err)
	}
	if err := w.WriteBits(l.FineBits, uint64(fine)); err != nil {
		return fmt.Errorf("tdc: fine: %w", err)
	}
	return nil
}

// Timebase converts a coarse/fine pair into seconds.
type Timebase struct {
	ReferenceHz    float64 // coarse counter clock
	FineResolution float64 // seconds per fine step
}

// DefaultTimebase matches the 120 MHz reference and 15 ps delay taps of the
// capture logic.
var DefaultTimebase = Timebase{
	ReferenceHz:    120_000_000,
	FineResolution: 15e-12,
}

// Validate rejects a non-positive reference frequency.
func (tb Timebase) Validate() error {
	if tb.ReferenceHz <= 0 {
		return fmt.Errorf("tdc: reference frequency must be positive, got %g", tb.ReferenceHz)
	}
	if tb.FineResolution < 0 {
		return fmt.Errorf("tdc: fine resolution must not be negative, got %g", tb.FineResolution)
	}
	return nil
}

// Time returns (coarse+1)/ReferenceHz - fine*FineResolution. The fine phase
// measures how far before the coarse clock edge the event occurred.
func (tb Timebase) Time(coarse uint64, fine uint32) float64 {
	return float64(coarse+1)/tb.ReferenceHz - float64(fine)*tb.FineResolution
}
