package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/OpenTraceLab/pinmap/pkg/project"
	"github.com/OpenTraceLab/pinmap/pkg/resolve"
)

var outputFormat string

var resolveCmd = &cobra.Command{
	Use:   "resolve <project.yaml>",
	Short: "Resolve a project's pin map",
	Long: `Load a project file, select its board, apply features and overrides,
and print the resulting pin map. Every conflict, unknown pin and
capability mismatch is reported; the command then exits with status 1.

Examples:
  pinmap resolve project.yaml
  pinmap resolve -o yaml project.yaml > pins.yaml
  pinmap resolve -v --boards-dir boards/ proto.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

var checkCmd = &cobra.Command{
	Use:   "check <project.yaml>",
	Short: "Check that a project resolves, printing only problems",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, err := resolveProject(args[0])
		return err
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(checkCmd)

	resolveCmd.Flags().StringVarP(&outputFormat, "output", "o", "text",
		"output format: text or yaml")
}

func resolveProject(path string) (*project.Project, *resolve.Config, error) {
	log := logger()
	f, err := project.Load(path)
	if err != nil {
		return nil, nil, err
	}
	repo, err := loadRepository()
	if err != nil {
		return nil, nil, err
	}
	p, err := f.Build(repo)
	if err != nil {
		return nil, nil, err
	}
	log.Debug("project", "file", path, "board", p.Board.Name(), "overrides", len(p.Overrides))

	reg, err := loadRegistry(p.Board.Device())
	if err != nil {
		return nil, nil, err
	}
	cfg, err := p.Resolve(reg, log)
	if err != nil {
		return p, nil, err
	}
	return p, cfg, nil
}

func runResolve(cmd *cobra.Command, args []string) error {
	if outputFormat != "text" && outputFormat != "yaml" {
		return fmt.Errorf("unknown output format %q (want text or yaml)", outputFormat)
	}
	p, cfg, err := resolveProject(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if outputFormat == "yaml" {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode: %w", err)
		}
		return enc.Close()
	}
	printConfig(out, p, cfg)
	return nil
}

func printConfig(out io.Writer, p *project.Project, cfg *resolve.Config) {
	fmt.Fprintf(out, "Board: %s on %s\n", cfg.Board(), cfg.Device())
	fmt.Fprintf(out, "Settings: serial %d baud, %d samples per buffer, %d Hz\n",
		p.Settings.SerialBaudRate, p.Settings.SampleBufferSize, p.Settings.SampleRate)

	if verbose() {
		fmt.Fprintf(out, "\nFeatures:\n")
		for _, fs := range p.Features() {
			mark := " "
			if fs.Changed() {
				mark = "*"
			}
			fmt.Fprintf(out, " %s %-26s %s\n", mark, fs.Name, fs.Value)
		}
	}

	fmt.Fprintf(out, "\nPins:\n")
	for _, b := range cfg.Bindings() {
		fmt.Fprintf(out, "  %-16s -> %-8s %-10s %s\n", b.Role.Name, b.Resource.Name, b.Role.Requires, b.Origin)
	}
}
