package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	logLevel int
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dpti",
		Short: "Digilent DPTI transfer demo and TDC capture tool",
		Long: `A tool for exercising the DPTI parallel interface of Digilent FPGA boards.

It can stream a buffer through a loopback design and report the transfer rate,
capture timestamp words from the TDC logic, and decode raw captures offline.

Examples:
  dpti devices                                  # List attached boards
  dpti demo -d sim -c 4096 -v                   # Loopback demo against the simulator
  dpti tdc -d Nexys4 -p 0 -o /tmp/tdc.dat       # Capture TDC words to CSV
  dpti decode capture.bin -o capture.csv        # Decode a raw dump`,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel)
		},
	}

	root.PersistentFlags().IntVar(&logLevel, "log-level", 0,
		"diagnostic log verbosity (0 = off, 3 = per-word dumps)")

	root.AddCommand(newDemoCmd())
	root.AddCommand(newTDCCmd())
	root.AddCommand(newDecodeCmd())
	root.AddCommand(newDevicesCmd())
	return root
}

// setupLogging points glog at stderr with the requested verbosity. glog's
// flags stay on the standard flag set so they do not clash with -v.
func setupLogging(level int) error {
	if !flag.Parsed() {
		if err := flag.CommandLine.Parse(nil); err != nil {
			return err
		}
	}
	if err := flag.Set("logtostderr", "true"); err != nil {
		return err
	}
	return flag.Set("v", strconv.Itoa(level))
}

// normalizeArgs accepts the single-dash long help spelling.
func normalizeArgs(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if a == "-help" {
			a = "--help"
		}
		out[i] = a
	}
	return out
}

// run executes the command tree and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	logLevel = 0
	root := newRootCmd()
	root.SetArgs(normalizeArgs(args))
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	glog.Flush()
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %s\n", err)
		return 1
	}
	return 0
}

// Execute runs the root command
func Execute() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
