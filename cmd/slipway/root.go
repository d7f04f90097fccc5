package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/iver-wharf/wharf-core/v2/pkg/app"
	"github.com/iver-wharf/wharf-core/v2/pkg/logger"
	"github.com/iver-wharf/wharf-core/v2/pkg/logger/consolepretty"
	"github.com/slipway-ci/slipway-cmd/internal/flagtypes"
	"github.com/slipway-ci/slipway-cmd/pkg/nestedbuild"
	"github.com/spf13/cobra"
)

var log = logger.NewScoped("SLIPWAY")

var isLoggingInitialized bool
var loglevel = flagtypes.LogLevel(logger.LevelInfo)

var rootCmd = &cobra.Command{
	SilenceErrors: true,
	SilenceUsage:  true,
	Use:           "slipway",
	Short:         "CI build runner that executes .slipway.yml files in throwaway Docker containers",
	Long: `Slipway runs project builds inside rootless Docker containers on the
local machine, using a .slipway.yml file found in the project directory.`,
}

func execute(version app.Version) {
	rootCmd.Version = versionString(version)
	if err := rootCmd.Execute(); err != nil {
		initLoggingIfNeeded()
		log.Error().Message(err.Error())
		os.Exit(1)
	}
}

func versionString(v app.Version) string {
	var sb strings.Builder
	if v.Version != "" {
		sb.WriteString(v.Version)
	} else {
		sb.WriteString("v0.0.0")
	}
	if v.BuildRef != 0 {
		fmt.Fprintf(&sb, " #%d", v.BuildRef)
	}
	if v.BuildGitCommit != "" && v.BuildGitCommit != "HEAD" {
		fmt.Fprintf(&sb, " (%s)", v.BuildGitCommit)
	}
	if v.BuildDate != (time.Time{}) {
		sb.WriteString(" built ")
		sb.WriteString(v.BuildDate.Format(time.RFC1123))
	}
	return sb.String()
}

func init() {
	cobra.OnInitialize(initLogging)
	rootCmd.InitDefaultVersionFlag()
	rootCmd.PersistentFlags().Var(&loglevel, "loglevel", "Logging verbosity (debug, info, warn, error)")
	rootCmd.RegisterFlagCompletionFunc("loglevel", flagtypes.CompleteLogLevel)
}

func initLoggingIfNeeded() {
	if !isLoggingInitialized {
		initLogging()
	}
}

func initLogging() {
	level := loglevel.Level()
	logConfig := consolepretty.DefaultConfig
	if level != logger.LevelDebug {
		logConfig.DisableCaller = true
		logConfig.DisableDate = true
		logConfig.ScopeMinLengthAuto = false
	}
	logger.AddOutput(level, consolepretty.New(logConfig))
	log.Debug().WithStringer("loglevel", level).Message("Setting log-level.")
	isLoggingInitialized = true
}

// buildDepth is read once at startup. Nested builds see their parent's depth
// plus one via the environment of the spawned process.
var buildDepth = nestedbuild.DepthFromEnv()
