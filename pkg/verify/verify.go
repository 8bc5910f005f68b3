// Package verify checks data returned by a loopback transfer.
package verify

import (
	"fmt"
	"math/rand"
)

// Fill overwrites buf with pseudo-random bytes derived from seed.
func Fill(buf []byte, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for i := range buf {
		buf[i] = byte(rng.Intn(256))
	}
}

// Mismatch is one byte that came back different from what was sent.
type Mismatch struct {
	Offset int
	Want   byte
	Got    byte
}

func (m Mismatch) String() string {
	return fmt.Sprintf("byte %d: want 0x%02x, got 0x%02x", m.Offset, m.Want, m.Got)
}

// Compare returns every offset at which got differs from want. Bytes of
// want past the end of got count as mismatches with Got zero.
func Compare(want, got []byte) []Mismatch {
	var out []Mismatch
	for i, w := range want {
		var g byte
		if i < len(got) {
			g = got[i]
		}
		if i >= len(got) || g != w {
			out = append(out, Mismatch{Offset: i, Want: w, Got: g})
		}
	}
	return out
}
