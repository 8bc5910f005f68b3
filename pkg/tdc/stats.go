package tdc

import (
	"math"
	"math/rand"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// SampleSize bounds the number of time deltas Stats keeps for the median
// and the histogram. The other summary fields are exact running values.
const SampleSize = 4096

// Stats accumulates decoded records across passes in constant memory.
type Stats struct {
	records int
	misses  int

	// Running moments of the time deltas (Welford).
	n        int
	mean     float64
	m2       float64
	min, max float64

	// Uniform reservoir sample of the deltas seen so far.
	sample []float64
	rng    *rand.Rand
}

// Add counts rec. The time delta of the first record of a pass is measured
// against zero and is left out of the delta summary.
func (s *Stats) Add(rec Record) {
	s.records++
	if rec.Seq == 0 {
		return
	}
	d := rec.TimeDelta

	s.n++
	delta := d - s.mean
	s.mean += delta / float64(s.n)
	s.m2 += delta * (d - s.mean)
	if s.n == 1 {
		s.min, s.max = d, d
	} else {
		s.min = math.Min(s.min, d)
		s.max = math.Max(s.max, d)
	}

	if s.sample == nil {
		s.sample = make([]float64, 0, SampleSize)
		s.rng = rand.New(rand.NewSource(1))
	}
	if len(s.sample) < SampleSize {
		s.sample = append(s.sample, d)
	} else if j := s.rng.Int63n(int64(s.n)); j < SampleSize {
		s.sample[j] = d
	}
}

// AddMisses counts training misses reported by a decoder.
func (s *Stats) AddMisses(n int) {
	s.misses += n
}

// Summary describes the spread of time deltas between consecutive records.
// Median is estimated from the retained sample once more than SampleSize
// deltas have been seen.
type Summary struct {
	Records int
	Misses  int
	Deltas  int
	Mean    float64
	StdDev  float64
	Min     float64
	Max     float64
	Median  float64
}

// Summary computes the current summary. Delta fields are zero until two
// records of the same pass have been seen.
func (s *Stats) Summary() Summary {
	sum := Summary{Records: s.records, Misses: s.misses, Deltas: s.n}
	if s.n == 0 {
		return sum
	}
	sum.Mean, sum.Min, sum.Max = s.mean, s.min, s.max
	if s.n > 1 {
		sum.StdDev = math.Sqrt(s.m2 / float64(s.n-1))
	}
	sorted := slices.Clone(s.sample)
	slices.Sort(sorted)
	sum.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	return sum
}
