package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/OpenTraceLab/pinmap/pkg/boards"
	"github.com/OpenTraceLab/pinmap/pkg/resource"
)

var rootCmd = &cobra.Command{
	Use:   "pinmap",
	Short: "Board pin map resolver",
	Long: `Resolve the pin map of a synthesizer project: select one board, apply
the project features and overrides, and check that no pin is claimed twice
and every pin can do what its role needs.

Settings may also come from the environment (PINMAP_VERBOSE,
PINMAP_BOARDS_DIR, PINMAP_DEVICE_FILE).

Examples:
  pinmap boards                                  # List known boards
  pinmap boards audio-kit-es8388                 # Show one board's bindings
  pinmap resolve project.yaml                    # Resolve a project
  pinmap resolve -o yaml project.yaml            # Resolve and print YAML
  pinmap check --boards-dir boards/ project.yaml # Exit status only`,
	Version:       "0.9.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("boards-dir", "", "directory with additional .board files")
	rootCmd.PersistentFlags().String("device-file", "", "device description (s-expression) replacing the built-in one")

	for _, name := range []string{"verbose", "boards-dir", "device-file"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}
	viper.SetEnvPrefix("pinmap")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func verbose() bool { return viper.GetBool("verbose") }

// logger returns the debug logger: silent unless --verbose is set.
func logger() *slog.Logger {
	if !verbose() {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// loadRepository returns the built-in boards plus those of --boards-dir.
func loadRepository() (*boards.Repository, error) {
	repo, err := boards.Builtin()
	if err != nil {
		return nil, err
	}
	if dir := viper.GetString("boards-dir"); dir != "" {
		if err := repo.LoadDir(dir); err != nil {
			return nil, fmt.Errorf("failed to load boards: %w", err)
		}
		logger().Debug("loaded boards", "dir", dir, "total", len(repo.Names()))
	}
	return repo, nil
}

// loadRegistry returns the pin registry for a device, preferring
// --device-file when it describes that device.
func loadRegistry(device string) (*resource.Registry, error) {
	if path := viper.GetString("device-file"); path != "" {
		reg, err := resource.ParseDeviceFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load device: %w", err)
		}
		if device == "" || reg.Device() == device {
			return reg, nil
		}
		logger().Debug("device file ignored", "file", path, "describes", reg.Device(), "want", device)
	}
	if device == "" {
		device = "esp32"
	}
	reg, ok := resource.Builtin(device)
	if !ok {
		return nil, fmt.Errorf("no description for device %s (use --device-file)", device)
	}
	return reg, nil
}
