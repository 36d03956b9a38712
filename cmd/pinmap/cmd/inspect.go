package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/pinmap/pkg/bdl"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <board-file>",
	Short: "Parse and validate a board description file",
	Long: `Parse a .board file and print every board it declares. Syntax
errors, duplicate roles and roles without a capability are reported with
their position.

Examples:
  pinmap inspect boards/synth_proto.board`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	filename := args[0]
	logger().Debug("parsing board file", "file", filename)

	parser, err := bdl.NewParser()
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}
	file, err := parser.ParseFile(filename)
	if err != nil {
		return fmt.Errorf("failed to parse file: %w", err)
	}
	ds, err := file.Descriptors()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, d := range ds {
		if i > 0 {
			fmt.Fprintln(out)
		}
		printBoard(out, d, filename)
	}
	return nil
}
