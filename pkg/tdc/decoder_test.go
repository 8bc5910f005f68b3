package tdc

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	coarse uint64
	fine   uint32
}

func encodeWords(t *testing.T, layout Layout, samples ...sample) []byte {
	t.Helper()
	buf := make([]byte, len(samples)*layout.WordBytes)
	for i, s := range samples {
		require.NoError(t, layout.Encode(buf[i*layout.WordBytes:], s.coarse, s.fine))
	}
	return buf
}

func TestDecodeShortBuffer(t *testing.T) {
	for n := 0; n < DefaultLayout.WordBytes; n++ {
		buf := make([]byte, n)
		for i := range buf {
			buf[i] = 0x6A
		}
		recs, misses, err := Decode(buf, DefaultLayout, DefaultTimebase)
		require.NoError(t, err)
		assert.Emptyf(t, recs, "len %d", n)
		assert.Zero(t, misses)
	}
}

func TestDecodeConsecutiveWords(t *testing.T) {
	samples := []sample{{10, 1}, {20, 2}, {35, 512}, {36, 0}, {100, 1023}}
	buf := encodeWords(t, DefaultLayout, samples...)

	recs, misses, err := Decode(buf, DefaultLayout, DefaultTimebase)
	require.NoError(t, err)
	require.Len(t, recs, len(samples))
	assert.Zero(t, misses)

	for i, rec := range recs {
		assert.Equal(t, i, rec.Seq)
		assert.Equal(t, i*DefaultLayout.WordBytes, rec.Offset)
		assert.Equal(t, samples[i].coarse, rec.Coarse)
		assert.Equal(t, samples[i].fine, rec.Fine)
	}
	assert.Equal(t, uint64(10), recs[0].CoarseDelta)
	assert.Equal(t, uint64(15), recs[2].CoarseDelta)
}

func TestDecodeTimeUntrained(t *testing.T) {
	layout := Layout{WordBytes: 8, CoarseBits: 54, FineBits: 10}
	tb := Timebase{ReferenceHz: 120_000_000, FineResolution: 15e-12}

	recs, _, err := Decode(make([]byte, 8), layout, tb)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Zero(t, recs[0].Coarse)
	assert.Zero(t, recs[0].Fine)
	assert.InDelta(t, 8.333e-9, recs[0].Time, 1e-12)
	assert.Equal(t, 1/120_000_000.0, recs[0].Time)
}

func TestDecodeTime(t *testing.T) {
	buf := encodeWords(t, DefaultLayout, sample{coarse: 119, fine: 100})
	recs, _, err := Decode(buf, DefaultLayout, DefaultTimebase)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.InDelta(t, 1e-6-1.5e-9, recs[0].Time, 1e-15)
	assert.Equal(t, recs[0].Time, recs[0].TimeDelta)
}

func TestDecodeSignedFineDelta(t *testing.T) {
	buf := encodeWords(t, DefaultLayout, sample{1, 3}, sample{2, 1020}, sample{3, 3})

	recs, _, err := Decode(buf, DefaultLayout, DefaultTimebase)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, int64(3), recs[0].FineDelta)
	assert.Equal(t, int64(1017), recs[1].FineDelta)
	assert.Equal(t, int64(-1017), recs[2].FineDelta)
}

func TestDecodeCoarseDeltaWraps(t *testing.T) {
	buf := encodeWords(t, DefaultLayout, sample{50, 0}, sample{40, 0})

	recs, _, err := Decode(buf, DefaultLayout, DefaultTimebase)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, ^uint64(0)-9, recs[1].CoarseDelta)
}

func TestDecodeCorruptedTraining(t *testing.T) {
	samples := []sample{{1, 1}, {2, 2}, {3, 3}, {4, 4}, {5, 5}}
	buf := encodeWords(t, DefaultLayout, samples...)
	buf[2*DefaultLayout.WordBytes] = 0x00

	recs, misses, err := Decode(buf, DefaultLayout, DefaultTimebase)
	require.NoError(t, err)

	var got []uint64
	for _, rec := range recs {
		got = append(got, rec.Coarse)
	}
	assert.Equal(t, []uint64{1, 2, 4, 5}, got)
	// The damaged word and its remaining bytes are each tried once.
	assert.Equal(t, DefaultLayout.WordBytes, misses)
	assert.Equal(t, 3*DefaultLayout.WordBytes, recs[2].Offset)
	assert.Equal(t, uint64(2), recs[2].CoarseDelta)
}

func TestDecodeSingleByteSlip(t *testing.T) {
	samples := []sample{{7, 9}, {8, 10}, {9, 11}}
	buf := append([]byte{0x00}, encodeWords(t, DefaultLayout, samples...)...)

	recs, misses, err := Decode(buf, DefaultLayout, DefaultTimebase)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, 1, misses)
	for i, rec := range recs {
		assert.Equal(t, 1+i*DefaultLayout.WordBytes, rec.Offset)
		assert.Equal(t, samples[i].coarse, rec.Coarse)
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	layouts := map[string]Layout{
		"default":      DefaultLayout,
		"untrained":    {WordBytes: 8, CoarseBits: 54, FineBits: 10},
		"unaligned":    {WordBytes: 6, TrainBits: 5, CoarseBits: 30, FineBits: 13, TrainPattern: 0x15},
		"wide train":   {WordBytes: 12, TrainBits: 16, CoarseBits: 64, FineBits: 16, TrainPattern: 0xA55A},
		"fine only":    {WordBytes: 4, TrainBits: 0, CoarseBits: 0, FineBits: 32},
		"three byte":   {WordBytes: 3, TrainBits: 4, CoarseBits: 13, FineBits: 7, TrainPattern: 0x9},
		"byte aligned": {WordBytes: 8, TrainBits: 8, CoarseBits: 40, FineBits: 16, TrainPattern: 0xC3},
	}

	rng := rand.New(rand.NewSource(42))
	for name, layout := range layouts {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 200; i++ {
				coarse := rng.Uint64() & layout.MaxCoarse()
				fine := uint32(rng.Uint64()) & layout.MaxFine()

				buf := encodeWords(t, layout, sample{coarse, fine})
				recs, misses, err := Decode(buf, layout, DefaultTimebase)
				require.NoError(t, err)
				require.Zero(t, misses)
				require.Len(t, recs, 1)
				require.Equal(t, coarse, recs[0].Coarse)
				require.Equal(t, fine, recs[0].Fine)
			}
		})
	}
}

func TestDecoderIsSinglePass(t *testing.T) {
	buf := encodeWords(t, DefaultLayout, sample{1, 1}, sample{2, 2})
	dec, err := NewDecoder(buf, DefaultLayout, DefaultTimebase)
	require.NoError(t, err)

	n := 0
	for range dec.All() {
		n++
	}
	assert.Equal(t, 2, n)

	for range dec.All() {
		t.Fatal("exhausted decoder yielded a record")
	}
	_, ok := dec.Next()
	assert.False(t, ok)
	assert.Equal(t, len(buf), dec.Offset())
}

func TestDecoderEarlyBreak(t *testing.T) {
	buf := encodeWords(t, DefaultLayout, sample{1, 1}, sample{2, 2}, sample{3, 3})
	dec, err := NewDecoder(buf, DefaultLayout, DefaultTimebase)
	require.NoError(t, err)

	for rec := range dec.All() {
		require.Equal(t, uint64(1), rec.Coarse)
		break
	}
	rec, ok := dec.Next()
	require.True(t, ok)
	assert.Equal(t, uint64(2), rec.Coarse)
	assert.Equal(t, uint64(1), rec.CoarseDelta)
}

func TestNewDecoderRejectsBadConfig(t *testing.T) {
	_, err := NewDecoder(nil, Layout{WordBytes: 8, CoarseBits: 10}, DefaultTimebase)
	assert.Error(t, err)

	_, err = NewDecoder(nil, DefaultLayout, Timebase{})
	assert.Error(t, err)
}

// legacyDecode is the per-field byte loop used by the first capture tool,
// hard-wired to the default 8/46/10 framing. The generic decoder must agree
// with it bit for bit.
func legacyDecode(in []byte) []Record {
	const (
		wBytes    = 8
		fineBits  = 10
		trainBits = 8
		trainSeq  = 0x6A
	)
	coarseBits := wBytes*8 - fineBits - trainBits

	var out []Record
	var prevCoarse uint64
	var prevFine uint32
	var prevTime float64
	for i := 0; i+wBytes <= len(in); i += wBytes {
		j := 0
		for ; j*8 < trainBits; j++ {
			if in[i+j] != trainSeq {
				break
			}
		}
		if j*8 < trainBits {
			i -= wBytes - 1
			continue
		}

		var coarse uint64
		for j = trainBits >> 3; (j+1)*8 <= coarseBits+trainBits; j++ {
			coarse = coarse<<8 | uint64(in[i+j])
		}
		if left := (coarseBits + trainBits) & 7; left != 0 {
			coarse = coarse<<uint(left) | uint64(in[i+(coarseBits+trainBits)>>3]>>uint(8-left))
		}

		var fine uint32
		for j = 0; (j+1)*8 <= fineBits; j++ {
			fine |= uint32(in[i+wBytes-1-j]) << uint(j*8)
		}
		if left := fineBits & 7; left != 0 {
			fine |= uint32(in[i+wBytes-1-(fineBits>>3)]&byte(1<<uint(left)-1)) << uint(fineBits&^7)
		}

		tm := float64(coarse+1)/120000000.0 - float64(fine)*0.000000000015
		out = append(out, Record{
			Offset:      i,
			Seq:         len(out),
			Coarse:      coarse,
			Fine:        fine,
			Time:        tm,
			CoarseDelta: coarse - prevCoarse,
			FineDelta:   int64(fine) - int64(prevFine),
			TimeDelta:   tm - prevTime,
		})
		prevCoarse, prevFine, prevTime = coarse, fine, tm
	}
	return out
}

func TestDecodeMatchesLegacyLoop(t *testing.T) {
	gen := NewGenerator(DefaultLayout, 7)
	gen.CorruptEvery = 5
	buf := make([]byte, 4096)
	_, err := gen.Fill(buf)
	require.NoError(t, err)

	// Shift the stream by a few bytes part way through.
	buf = append(buf[:1000:1000], buf[1003:]...)

	got, _, err := Decode(buf, DefaultLayout, DefaultTimebase)
	require.NoError(t, err)
	want := legacyDecode(buf)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Decode mismatch (-legacy +got):\n%s", diff)
	}
}
