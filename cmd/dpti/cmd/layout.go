package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceDPTI/pkg/tdc"
)

// layoutOptions binds the word format and timebase flags shared by the
// capture and decode commands.
type layoutOptions struct {
	train      int
	coarse     int
	fine       int
	pattern    uint64
	freq       float64
	resolution float64
}

func (o *layoutOptions) register(cmd *cobra.Command) {
	lo, tb := tdc.DefaultLayout, tdc.DefaultTimebase
	cmd.Flags().IntVar(&o.train, "train", lo.TrainBits, "training field width in bits")
	cmd.Flags().IntVar(&o.coarse, "coarse", lo.CoarseBits, "coarse counter width in bits")
	cmd.Flags().IntVar(&o.fine, "fine", lo.FineBits, "fine counter width in bits")
	cmd.Flags().Uint64Var(&o.pattern, "pattern", lo.TrainPattern, "training pattern, ignored when --train is 0")
	cmd.Flags().Float64Var(&o.freq, "freq", tb.ReferenceHz, "coarse counter reference frequency in Hz")
	cmd.Flags().Float64Var(&o.resolution, "resolution", tb.FineResolution, "fine counter resolution in seconds")
}

func (o *layoutOptions) build() (tdc.Layout, tdc.Timebase, error) {
	bits := o.train + o.coarse + o.fine
	if bits <= 0 || bits%8 != 0 {
		return tdc.Layout{}, tdc.Timebase{}, fmt.Errorf("word of %d bits is not a whole number of bytes", bits)
	}
	layout := tdc.Layout{
		WordBytes:    bits / 8,
		TrainBits:    o.train,
		CoarseBits:   o.coarse,
		FineBits:     o.fine,
		TrainPattern: o.pattern,
	}
	if layout.TrainBits == 0 {
		layout.TrainPattern = 0
	}
	if err := layout.Validate(); err != nil {
		return tdc.Layout{}, tdc.Timebase{}, err
	}
	tb := tdc.Timebase{ReferenceHz: o.freq, FineResolution: o.resolution}
	if err := tb.Validate(); err != nil {
		return tdc.Layout{}, tdc.Timebase{}, err
	}
	return layout, tb, nil
}

func printRecord(w io.Writer, rec tdc.Record) {
	fmt.Fprintf(w, "Coarse: %d, fine: %d, time: %f\n", rec.Coarse, rec.Fine, rec.Time)
	fmt.Fprintf(w, "CDiff: %d, FDiff: %d, TDiff: %e\n", rec.CoarseDelta, rec.FineDelta, rec.TimeDelta)
}

func printSummary(w io.Writer, sum tdc.Summary) {
	fmt.Fprintf(w, "\nDecoded %d record(s), %d training miss(es)\n", sum.Records, sum.Misses)
	if sum.Deltas == 0 {
		return
	}
	fmt.Fprintf(w, "Time delta over %d pair(s):\n", sum.Deltas)
	fmt.Fprintf(w, "  Mean:   %e s\n", sum.Mean)
	fmt.Fprintf(w, "  StdDev: %e s\n", sum.StdDev)
	fmt.Fprintf(w, "  Min:    %e s\n", sum.Min)
	fmt.Fprintf(w, "  Max:    %e s\n", sum.Max)
	fmt.Fprintf(w, "  Median: %e s\n", sum.Median)
}

// plotBins is the histogram resolution used by --plot.
const plotBins = 50

func savePlot(w io.Writer, stats *tdc.Stats, path string) error {
	if path == "" {
		return nil
	}
	if err := stats.PlotDeltas(path, plotBins); err != nil {
		return err
	}
	fmt.Fprintf(w, "Histogram written to %s\n", path)
	return nil
}
