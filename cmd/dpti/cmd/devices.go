package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceDPTI/pkg/dpti"
)

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List attached Digilent boards",
		Long: `List Digilent boards found on the USB bus together with the simulator
names accepted by -d. Boards without a serial number can still be opened by
their Adept user name or alias.`,
		Args: cobra.NoArgs,
		RunE: runDevices,
	}
}

func runDevices(cmd *cobra.Command, args []string) error {
	devices, err := dpti.Discover(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to enumerate devices: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Found %d device(s):\n", len(devices))
	for _, d := range devices {
		name := d.Name
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(out, "  %-20s %-10s %s\n", name, d.Kind, d.Label())
		if d.Kind == dpti.DeviceKindAdept {
			fmt.Fprintf(out, "  %-20s bus %d, address %d\n", "", d.Bus, d.Address)
		}
	}
	return nil
}
