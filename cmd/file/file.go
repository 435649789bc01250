package file

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Aanishnithin07/Project-Aura/internal/analysis"
	"github.com/Aanishnithin07/Project-Aura/internal/conf"
)

// Command creates a new file command for analyzing a recorded trace.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file [trace.csv]",
		Short: "Analyze a recorded sample trace",
		Long:  "Run the estimator over a recorded trace file and print the per-second vitals timeline.",
		Args:  cobra.ExactArgs(1), // the command expects exactly one argument
		RunE: func(cmd *cobra.Command, args []string) error {
			settings.Input.Path = args[0]
			return analysis.TraceAnalysis(settings)
		},
	}

	// Set up flags specific to the 'file' command
	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the file command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVarP(&settings.Output.File.Path, "output", "o", viper.GetString("output.file.path"), "Path to output directory")
	cmd.Flags().StringVarP(&settings.Output.File.Type, "type", "t", viper.GetString("output.file.type"), "Output type: table or csv")
	cmd.Flags().BoolVar(&settings.Output.File.Enabled, "export", viper.GetBool("output.file.enabled"), "Write results to the output directory instead of stdout")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
