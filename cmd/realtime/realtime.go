package realtime

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Aanishnithin07/Project-Aura/internal/analysis"
	"github.com/Aanishnithin07/Project-Aura/internal/conf"
)

// Command creates a new command for realtime heart rate monitoring.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "realtime",
		Short: "Monitor heart rate in realtime mode",
		Long:  "Start the estimation pipeline fed by the configured sample source and serve the vitals API.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return analysis.RealtimeAnalysis(settings)
		},
	}

	// Set up flags specific to the 'realtime' command
	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the realtime command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.Realtime.Source.Type, "source", viper.GetString("realtime.source.type"), "Sample source (\"synthetic\", \"stdin\" or \"trace\")")
	cmd.Flags().StringVar(&settings.Realtime.Source.Path, "tracepath", viper.GetString("realtime.source.path"), "Trace file to replay when source is \"trace\"")
	cmd.Flags().Float64Var(&settings.Realtime.Source.Synthetic.BPM, "bpm", viper.GetFloat64("realtime.source.synthetic.bpm"), "Heart rate of the synthetic source in BPM")
	cmd.Flags().StringVar(&settings.WebServer.Port, "port", viper.GetString("webserver.port"), "Web server listen port")
	cmd.Flags().BoolVar(&settings.Realtime.Telemetry.Enabled, "telemetry", viper.GetBool("realtime.telemetry.enabled"), "Enable Prometheus telemetry endpoint")
	cmd.Flags().StringVar(&settings.Realtime.Telemetry.Listen, "listen", viper.GetString("realtime.telemetry.listen"), "Listen address and port of telemetry endpoint")

	// Bind flags to the viper settings
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
