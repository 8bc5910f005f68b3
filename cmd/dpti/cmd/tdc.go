package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceDPTI/pkg/capture"
	"github.com/OpenTraceLab/OpenTraceDPTI/pkg/tdc"
)

type tdcOptions struct {
	device     string
	port       string
	output     string
	bytes      int
	iterations int
	quiet      bool
	plot       string
	layout     layoutOptions
}

func newTDCCmd() *cobra.Command {
	var opts tdcOptions
	defaults := capture.DefaultConfig()

	tdcCmd := &cobra.Command{
		Use:   "tdc",
		Short: "Capture timestamp words from the TDC logic",
		Long: `Repeatedly request a block of bytes from the TDC logic over a DPTI port,
decode the timing words in it and append one CSV line per word to the
output file. The decoder resynchronizes byte by byte on training mismatches.

Ctrl-C stops the capture after the transfer in progress; the port is
disabled and the device closed on every exit path. A second Ctrl-C ends the
process at once.

Examples:
  # Capture against the simulated TDC stream
  dpti tdc -d sim:tdc -i 100 -q

  # Capture from hardware with a 54-bit coarse counter and no training field
  dpti tdc -d Nexys4 --train 0 --coarse 54 --fine 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTDC(cmd, &opts)
		},
	}

	tdcCmd.Flags().StringVarP(&opts.device, "device", "d", "",
		"device user name, alias or connection string")
	tdcCmd.Flags().StringVarP(&opts.port, "port", "p", "0", "DPTI port number")
	tdcCmd.Flags().StringVarP(&opts.output, "output", "o", "/tmp/tdc.dat", "CSV output file")
	tdcCmd.Flags().IntVarP(&opts.bytes, "bytes", "n", defaults.RequestBytes,
		"bytes requested per iteration (1-255)")
	tdcCmd.Flags().IntVarP(&opts.iterations, "iterations", "i", defaults.Iterations,
		"number of requests (0 = until interrupted)")
	tdcCmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "do not print decoded records")
	tdcCmd.Flags().StringVar(&opts.plot, "plot", "", "save a time delta histogram to this image file")
	opts.layout.register(tdcCmd)

	tdcCmd.MarkFlagRequired("device")
	return tdcCmd
}

func runTDC(cmd *cobra.Command, opts *tdcOptions) error {
	layout, tb, err := opts.layout.build()
	if err != nil {
		return err
	}
	cfg := capture.Config{
		RequestBytes: opts.bytes,
		Iterations:   opts.iterations,
		Layout:       layout,
		Timebase:     tb,
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	port, err := parseDigits(opts.port, "DPTI port number")
	if err != nil {
		return err
	}

	sess, err := openSession(opts.device, port, layout)
	if err != nil {
		return err
	}
	defer sess.Close()

	// Opened only once the port is enabled, so a bad -d or -p leaves a
	// previous capture in place.
	f, err := os.Create(opts.output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	out := cmd.OutOrStdout()
	if sess.Properties().Asynchronous() {
		fmt.Fprintf(out, "Port %d is asynchronous\n", sess.Port())
	} else {
		fmt.Fprintf(out, "Port %d is synchronous\n", sess.Port())
	}

	ctx, stop := interruptContext(cmd.Context())
	defer stop()

	csvw := tdc.NewCSVWriter(f)
	var stats tdc.Stats
	res, runErr := capture.Run(ctx, sess, cfg, func(rec tdc.Record) error {
		stats.Add(rec)
		if !opts.quiet {
			printRecord(out, rec)
		}
		return csvw.Write(rec)
	})
	stats.AddMisses(res.Misses)
	glog.V(1).Infof("tdc: %d iteration(s), %d record(s), %d miss(es)", res.Iterations, res.Records, res.Misses)

	if err := csvw.Flush(); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to write %s: %w", opts.output, err)
	}
	printSummary(out, stats.Summary())

	if errors.Is(runErr, context.Canceled) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Ctrl-C pressed, exiting...")
		sess.Close()
		return errors.New("capture interrupted")
	}
	if runErr != nil {
		return runErr
	}
	if err := savePlot(out, &stats, opts.plot); err != nil {
		return err
	}
	if err := sess.Close(); err != nil {
		return err
	}
	return f.Close()
}

// interruptContext is cancelled by the first SIGINT or SIGTERM. The default
// handlers are then restored so a second signal ends the process even while
// a transfer is blocked in the runtime.
func interruptContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		stop()
	}()
	return ctx, stop
}
