package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var deviceCmd = &cobra.Command{
	Use:   "device [name]",
	Short: "Show the pins of a device and their capabilities",
	Long: `Print every pin of a device with its capability tags and aliases.
The device defaults to esp32; --device-file replaces the built-in
description.

Examples:
  pinmap device
  pinmap device --device-file esp32-pico.sexp esp32`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDevice,
}

func init() {
	rootCmd.AddCommand(deviceCmd)
}

func runDevice(cmd *cobra.Command, args []string) error {
	name := ""
	if len(args) == 1 {
		name = args[0]
	}
	reg, err := loadRegistry(name)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Device: %s (%d pins)\n\n", reg.Device(), reg.Len())
	for _, id := range reg.IDs() {
		res, err := reg.Resource(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  %-8s %s", res.Name, res.Caps)
		if len(res.Aliases) > 0 {
			fmt.Fprintf(out, "  aka %s", strings.Join(res.Aliases, ", "))
		}
		fmt.Fprintln(out)
	}
	return nil
}
