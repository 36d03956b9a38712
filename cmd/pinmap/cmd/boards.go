package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/pinmap/pkg/board"
)

var boardsCmd = &cobra.Command{
	Use:   "boards [board]",
	Short: "List known boards or show one board's bindings",
	Long: `Without arguments, list the built-in boards and those found in
--boards-dir. With a board name, print its traits, bindings (with the
features that gate them) and declared shared pins.

Examples:
  pinmap boards
  pinmap boards ml-v1
  pinmap boards --boards-dir ./boards synth-proto`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBoards,
}

func init() {
	rootCmd.AddCommand(boardsCmd)
}

func runBoards(cmd *cobra.Command, args []string) error {
	repo, err := loadRepository()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		d, err := repo.Lookup(args[0])
		if err != nil {
			return err
		}
		printBoard(out, d, repo.Source(d.Name()))
		return nil
	}

	fmt.Fprintf(out, "%-20s %-8s %s\n", "BOARD", "DEVICE", "DESCRIPTION")
	for _, name := range repo.Names() {
		d, _ := repo.Lookup(name)
		fmt.Fprintf(out, "%-20s %-8s %s\n", name, d.Device(), d.Doc())
		if verbose() {
			fmt.Fprintf(out, "  source: %s\n", repo.Source(name))
		}
	}
	return nil
}

func printBoard(out io.Writer, d *board.Descriptor, source string) {
	fmt.Fprintf(out, "Board:  %s\n", d.Name())
	fmt.Fprintf(out, "Device: %s\n", d.Device())
	if d.Doc() != "" {
		fmt.Fprintf(out, "Doc:    %s\n", d.Doc())
	}
	if source != "" {
		fmt.Fprintf(out, "Source: %s\n", source)
	}
	if traits := d.Traits(); len(traits) > 0 {
		fmt.Fprintf(out, "Traits: %s\n", strings.Join(traits, ", "))
	}
	if defaults := d.Defaults(); len(defaults) > 0 {
		names := make([]string, 0, len(defaults))
		for name, v := range defaults {
			names = append(names, name+" = "+v)
		}
		sort.Strings(names)
		fmt.Fprintf(out, "Defaults: %s\n", strings.Join(names, ", "))
	}

	fmt.Fprintf(out, "\nBindings:\n")
	for _, b := range d.Bindings() {
		var gates []string
		if b.Role.Feature != "" {
			gates = append(gates, "if "+b.Role.Feature)
		}
		if b.When != nil {
			gates = append(gates, "when "+b.When.String())
		}
		fmt.Fprintf(out, "  %-16s -> %-10s %-10s %s\n", b.Role.Name, b.Resource, b.Role.Requires, strings.Join(gates, ", "))
	}

	if groups := d.Shared(); len(groups) > 0 {
		fmt.Fprintf(out, "\nShared:\n")
		for _, g := range groups {
			name := g.Name
			if name == "" {
				name = "-"
			}
			at := ""
			if g.Resource != "" {
				at = " at " + string(g.Resource)
			}
			fmt.Fprintf(out, "  %-12s %s%s\n", name, strings.Join(g.Roles, ", "), at)
		}
	}
}
