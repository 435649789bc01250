package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Aanishnithin07/Project-Aura/cmd/benchmark"
	"github.com/Aanishnithin07/Project-Aura/cmd/file"
	"github.com/Aanishnithin07/Project-Aura/cmd/realtime"
	"github.com/Aanishnithin07/Project-Aura/internal/conf"
	"github.com/Aanishnithin07/Project-Aura/internal/logging"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "aurascan",
		Short:   "AuraScan camera-based heart rate monitor",
		Version: settings.Version,
	}

	// Set up the global flags for the root command.
	setupFlags(rootCmd, settings)

	// Add sub-commands to the root command.
	subcommands := []*cobra.Command{
		realtime.Command(settings),
		file.Command(settings),
		benchmark.Command(settings),
	}
	rootCmd.AddCommand(subcommands...)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// The debug flag is only parsed now, raise log verbosity here.
		if settings.Debug {
			logging.SetLevel(slog.LevelDebug)
		}
		return nil
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
