package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/pinmap/pkg/board"
	"github.com/OpenTraceLab/pinmap/pkg/feature"
)

var showRoles bool

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "List project features and board selectors",
	Long: `List every feature a project file may set, with its kind, default
and allowed values. Board selectors (board-<name>) are derived from the
known boards.

Examples:
  pinmap features
  pinmap features --roles`,
	Args: cobra.NoArgs,
	RunE: runFeatures,
}

func init() {
	rootCmd.AddCommand(featuresCmd)

	featuresCmd.Flags().BoolVar(&showRoles, "roles", false,
		"also list the standard roles and the capability each needs")
}

func runFeatures(cmd *cobra.Command, args []string) error {
	repo, err := loadRepository()
	if err != nil {
		return err
	}
	catalog, err := repo.Catalog(feature.Standard())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "%-26s %-6s %-8s %s\n", "FEATURE", "KIND", "DEFAULT", "DESCRIPTION")
	for _, d := range catalog.Declarations() {
		doc := d.Doc
		if d.Kind == feature.Enum {
			doc = strings.TrimSpace(fmt.Sprintf("%s (one of %s)", doc, strings.Join(d.Values, ", ")))
		}
		fmt.Fprintf(out, "%-26s %-6s %-8s %s\n", d.Name, d.Kind, d.Default, doc)
	}

	if showRoles {
		fmt.Fprintf(out, "\n%-16s %-10s %s\n", "ROLE", "REQUIRES", "FEATURE")
		for _, r := range board.StandardRoles() {
			fmt.Fprintf(out, "%-16s %-10s %s\n", r.Name, r.Requires, r.Feature)
		}
	}
	return nil
}
