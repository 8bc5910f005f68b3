package tdc

import (
	"fmt"
	"math/rand"
)

// Generator produces a synthetic stream of encoded timing words, as the
// capture logic would for a periodic input. It keeps its state across calls
// so consecutive buffers continue the same stream.
type Generator struct {
	Layout Layout

	// Step is the coarse increment between words. Zero picks a random
	// increment in [1, 16].
	Step uint64

	// CorruptEvery, when positive, flips the first byte of every Nth word so
	// its training field no longer matches.
	CorruptEvery int

	rng    *rand.Rand
	coarse uint64
	words  int
}

// NewGenerator returns a generator seeded with seed.
func NewGenerator(layout Layout, seed int64) *Generator {
	return &Generator{Layout: layout, rng: rand.New(rand.NewSource(seed))}
}

// Fill writes as many whole words as fit into buf and returns how many were
// written. Trailing bytes that do not make up a word are zeroed.
func (g *Generator) Fill(buf []byte) (int, error) {
	if err := g.Layout.Validate(); err != nil {
		return 0, err
	}
	w := g.Layout.WordBytes
	n := 0
	for off := 0; off+w <= len(buf); off += w {
		step := g.Step
		if step == 0 {
			step = uint64(g.rng.Intn(16) + 1)
		}
		g.coarse = (g.coarse + step) & g.Layout.MaxCoarse()
		fine := uint32(g.rng.Int63()) & g.Layout.MaxFine()

		if err := g.Layout.Encode(buf[off:off+w], g.coarse, fine); err != nil {
			return n, fmt.Errorf("tdc: generate word %d: %w", g.words, err)
		}
		g.words++
		if g.CorruptEvery > 0 && g.words%g.CorruptEvery == 0 {
			buf[off] = ^buf[off]
		}
		n++
	}
	clear(buf[n*w:])
	return n, nil
}
