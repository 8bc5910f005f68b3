package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceDPTI/pkg/tdc"
)

type decodeOptions struct {
	output string
	quiet  bool
	plot   string
	layout layoutOptions
}

func newDecodeCmd() *cobra.Command {
	var opts decodeOptions

	decodeCmd := &cobra.Command{
		Use:   "decode <raw-file>",
		Short: "Decode a raw TDC capture",
		Long: `Decode timing words from a file of raw bytes as received from the TDC
logic. The whole file is decoded as a single pass, so deltas run across the
entire capture.

Examples:
  dpti decode capture.bin
  dpti decode -q -o capture.csv --plot deltas.png capture.bin
  dpti decode --train 0 --coarse 54 --fine 10 untrained.bin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(cmd, args[0], &opts)
		},
	}

	decodeCmd.Flags().StringVarP(&opts.output, "output", "o", "", "write records as CSV to this file")
	decodeCmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "do not print decoded records")
	decodeCmd.Flags().StringVar(&opts.plot, "plot", "", "save a time delta histogram to this image file")
	opts.layout.register(decodeCmd)
	return decodeCmd
}

func runDecode(cmd *cobra.Command, path string, opts *decodeOptions) error {
	layout, tb, err := opts.layout.build()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read capture: %w", err)
	}

	dec, err := tdc.NewDecoder(data, layout, tb)
	if err != nil {
		return err
	}

	var csvw *tdc.CSVWriter
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		csvw = tdc.NewCSVWriter(f)
	}

	out := cmd.OutOrStdout()
	var stats tdc.Stats
	for rec := range dec.All() {
		stats.Add(rec)
		if !opts.quiet {
			printRecord(out, rec)
		}
		if csvw != nil {
			if err := csvw.Write(rec); err != nil {
				return err
			}
		}
	}
	stats.AddMisses(dec.Misses())

	if csvw != nil {
		if err := csvw.Flush(); err != nil {
			return fmt.Errorf("failed to write %s: %w", opts.output, err)
		}
	}
	printSummary(out, stats.Summary())
	return savePlot(out, &stats, opts.plot)
}
