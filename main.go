package main

import (
	"os"
	"time"

	"github.com/Aanishnithin07/Project-Aura/cmd"
	"github.com/Aanishnithin07/Project-Aura/internal/buildinfo"
	"github.com/Aanishnithin07/Project-Aura/internal/conf"
	"github.com/Aanishnithin07/Project-Aura/internal/logging"
	"github.com/Aanishnithin07/Project-Aura/internal/telemetry"
)

// Build-time variables, injected with -ldflags:
//
//	go build -ldflags "-X main.version=$(git describe --tags) -X main.buildDate=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	version   = ""
	buildDate = ""
)

func main() {
	logging.Init()

	build := buildinfo.NewContext(version, buildDate)

	settings, err := conf.Load()
	if err != nil {
		logging.Fatal("error loading configuration", "error", err)
	}
	settings.Version = build.GetVersion()
	settings.BuildDate = build.GetBuildDate()

	if err := telemetry.InitSentry(settings); err != nil {
		logging.Warn("error initializing telemetry", "error", err)
	}

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		telemetry.Flush(3 * time.Second)
		os.Exit(1)
	}
	telemetry.Flush(3 * time.Second)
}
