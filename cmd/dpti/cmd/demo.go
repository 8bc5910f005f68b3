package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceDPTI/pkg/dpti"
	"github.com/OpenTraceLab/OpenTraceDPTI/pkg/tdc"
	"github.com/OpenTraceLab/OpenTraceDPTI/pkg/verify"
)

type demoOptions struct {
	device string
	count  string
	port   string
	verify bool
}

func newDemoCmd() *cobra.Command {
	var opts demoOptions

	demoCmd := &cobra.Command{
		Use:   "demo",
		Short: "Stream a buffer through a DPTI loopback design",
		Long: `Open a device, enable one of its DPTI ports and perform a single
simultaneous send/receive transfer, reporting the elapsed time and transfer
rate. The FPGA is expected to run a design that echoes every byte it
receives.

Examples:
  # Transfer 10240 bytes over port 0 of the simulator
  dpti demo -d sim

  # Transfer 1 MiB over port 1 and check the echoed data
  dpti demo -d Nexys4 -p 1 -c 1048576 -v`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd, &opts)
		},
	}

	demoCmd.Flags().StringVarP(&opts.device, "device", "d", "",
		"device user name, alias or connection string")
	demoCmd.Flags().StringVarP(&opts.count, "count", "c", "10240",
		"number of bytes to transfer")
	demoCmd.Flags().StringVarP(&opts.port, "port", "p", "0",
		"DPTI port number")
	demoCmd.Flags().BoolVarP(&opts.verify, "verify", "v", false,
		"send a pseudo-random pattern and verify the echoed data")
	demoCmd.Flags().BoolP("help", "?", false, "print usage, supported arguments, and options")

	demoCmd.MarkFlagRequired("device")
	return demoCmd
}

// parseDigits accepts decimal digits only, matching the board tools'
// argument rules (no sign, no prefix).
func parseDigits(s, what string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("no %s was specified", what)
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("invalid character detected in %s string: %c", what, c)
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", what, err)
	}
	return n, nil
}

func runDemo(cmd *cobra.Command, opts *demoOptions) error {
	count, err := parseDigits(opts.count, "byte count")
	if err != nil {
		return err
	}
	port, err := parseDigits(opts.port, "DPTI port number")
	if err != nil {
		return err
	}

	sess, err := openSession(opts.device, port, tdc.DefaultLayout)
	if err != nil {
		return err
	}
	defer sess.Close()

	out := cmd.OutOrStdout()
	if sess.Properties().Asynchronous() {
		fmt.Fprintln(out, "Asynchronous DPTI Port Enabled")
	} else {
		fmt.Fprintln(out, "Synchronous DPTI Port Enabled")
	}

	send := make([]byte, count)
	recv := make([]byte, count)
	if opts.verify {
		verify.Fill(send, time.Now().UnixNano())
	}

	fmt.Fprintln(out, "beginning data transfer...")
	start := time.Now()
	err = sess.Transfer(send, recv)
	ms := time.Since(start).Milliseconds()
	if ms == 0 {
		ms = 1
	}
	secs := float64(ms) / 1000
	if err != nil {
		if errors.Is(err, dpti.ErrTimeout) {
			return fmt.Errorf("data transfer timed out after %f seconds", secs)
		}
		return fmt.Errorf("DptiIO failed: %w", err)
	}

	bps := float64(count) / secs
	fmt.Fprintf(out, "transferred %d bytes in %f seconds, transfer rate = %f B/sec, %f KB/sec, %f MB/sec\n",
		count, secs, bps, bps/1024, bps/1024/1024)

	if opts.verify {
		if diff := verify.Compare(send, recv); len(diff) > 0 {
			for _, m := range diff {
				fmt.Fprintf(out, "data verification failed on %s\n", m)
			}
			return fmt.Errorf("data verification failed: %d of %d bytes differ", len(diff), count)
		}
		fmt.Fprintln(out, "data verified")
	}

	return sess.Close()
}
