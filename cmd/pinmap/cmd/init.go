package cmd

import (
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/pinmap/pkg/feature"
	"github.com/OpenTraceLab/pinmap/pkg/project"
)

var initCmd = &cobra.Command{
	Use:   "init <board>",
	Short: "Print a starting project file for a board",
	Long: `Print a project file selecting the board, with every enum feature
at its default, the features the board turns on by default, and the
board-dependent settings filled in.

Examples:
  pinmap init audio-kit-es8388 > project.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	repo, err := loadRepository()
	if err != nil {
		return err
	}
	f := &project.File{Board: args[0], Features: map[string]project.Value{}}
	p, err := f.Build(repo)
	if err != nil {
		return err
	}
	for _, fs := range p.Features() {
		if fs.Kind == feature.Enum {
			f.Features[fs.Name] = project.Value(fs.Value)
		}
	}
	for name := range p.Board.Defaults() {
		v, err := p.Toggles.ValueOf(name)
		if err != nil {
			return err
		}
		f.Features[name] = project.Value(v)
	}
	f.Settings = p.Settings

	data, err := f.Marshal()
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
