package tdc

import (
	"encoding/hex"
	"iter"

	"github.com/golang/glog"

	"github.com/OpenTraceLab/OpenTraceDPTI/pkg/bitfield"
)

// Record is one decoded timing word together with its deltas from the
// previous record of the same pass. The first record of a pass is compared
// against zero.
type Record struct {
	Offset int // byte offset of the word in the buffer
	Seq    int // index of the record within the pass

	Coarse uint64
	Fine   uint32
	Time   float64

	// CoarseDelta wraps when the counter goes backwards; the huge value is
	// left visible on purpose.
	CoarseDelta uint64
	FineDelta   int64
	TimeDelta   float64
}

// Decoder walks a byte buffer and yields one Record per training-aligned
// word. A Decoder is a single pass: once exhausted it stays exhausted.
type Decoder struct {
	buf    []byte
	layout Layout
	tb     Timebase

	pos    int
	seq    int
	misses int

	prevCoarse uint64
	prevFine   uint32
	prevTime   float64
}

// NewDecoder prepares a pass over buf. The layout and timebase are checked
// up front so Next never fails.
func NewDecoder(buf []byte, layout Layout, tb Timebase) (*Decoder, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if err := tb.Validate(); err != nil {
		return nil, err
	}
	return &Decoder{buf: buf, layout: layout, tb: tb}, nil
}

// Next returns the next valid record. It reports false once fewer than one
// word of bytes remain.
//
// A word whose training field does not match is not an error: the cursor
// slides forward a single byte and the scan continues, so a stream that lost
// one byte of alignment recovers within WordBytes-1 bytes.
func (d *Decoder) Next() (Record, bool) {
	w := d.layout.WordBytes
	for d.pos+w <= len(d.buf) {
		word := d.buf[d.pos : d.pos+w]
		if glog.V(3) {
			glog.Infof("tdc: offset %d word %s", d.pos, hex.EncodeToString(word))
		}

		r := bitfield.NewReader(word)
		// Widths were validated in NewDecoder, the reads cannot fail.
		train, _ := r.ReadBits(d.layout.TrainBits)
		if train != d.layout.TrainPattern {
			d.misses++
			if glog.V(2) {
				glog.Infof("tdc: training miss at offset %d (got %#x)", d.pos, train)
			}
			d.pos++
			continue
		}
		coarse, _ := r.ReadBits(d.layout.CoarseBits)
		fine64, _ := r.ReadBits(d.layout.FineBits)
		fine := uint32(fine64)

		t := d.tb.Time(coarse, fine)
		rec := Record{
			Offset:      d.pos,
			Seq:         d.seq,
			Coarse:      coarse,
			Fine:        fine,
			Time:        t,
			CoarseDelta: coarse - d.prevCoarse,
			FineDelta:   int64(fine) - int64(d.prevFine),
			TimeDelta:   t - d.prevTime,
		}

		d.prevCoarse, d.prevFine, d.prevTime = coarse, fine, t
		d.pos += w
		d.seq++
		return rec, true
	}
	return Record{}, false
}

// All yields the remaining records of the pass. Ranging over it a second
// time yields nothing.
func (d *Decoder) All() iter.Seq[Record] {
	return func(yield func(Record) bool) {
		for {
			rec, ok := d.Next()
			if !ok || !yield(rec) {
				return
			}
		}
	}
}

// Misses reports how many single-byte resynchronization steps were taken.
func (d *Decoder) Misses() int { return d.misses }

// Offset reports the byte offset of the cursor.
func (d *Decoder) Offset() int { return d.pos }

// Decode runs a full pass over buf and returns the records and the number
// of training misses.
func Decode(buf []byte, layout Layout, tb Timebase) ([]Record, int, error) {
	d, err := NewDecoder(buf, layout, tb)
	if err != nil {
		return nil, 0, err
	}
	var out []Record
	for rec := range d.All() {
		out = append(out, rec)
	}
	return out, d.Misses(), nil
}
