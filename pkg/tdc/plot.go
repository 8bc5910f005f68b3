package tdc

import (
	"errors"
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotDeltas saves a histogram of the retained sample of time deltas. The
// image format follows the extension of path (.png, .svg, .pdf).
func (s *Stats) PlotDeltas(path string, bins int) error {
	if len(s.sample) == 0 {
		return errors.New("tdc: no time deltas to plot")
	}
	if bins <= 0 {
		return fmt.Errorf("tdc: invalid bin count %d", bins)
	}

	p := plot.New()
	p.Title.Text = "Time between consecutive records"
	p.X.Label.Text = "delta (s)"
	p.Y.Label.Text = "count"

	h, err := plotter.NewHist(plotter.Values(s.sample), bins)
	if err != nil {
		return fmt.Errorf("tdc: histogram: %w", err)
	}
	p.Add(h)

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("tdc: save plot: %w", err)
	}
	return nil
}
