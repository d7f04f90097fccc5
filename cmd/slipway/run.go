package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/slipway-ci/slipway-cmd/internal/flagtypes"
	"github.com/slipway-ci/slipway-cmd/internal/lastbuild"
	"github.com/slipway-ci/slipway-cmd/internal/pathutil"
	"github.com/slipway-ci/slipway-cmd/pkg/build"
	"github.com/slipway-ci/slipway-cmd/pkg/config"
	"github.com/slipway-ci/slipway-cmd/pkg/profile"
	"github.com/slipway-ci/slipway-cmd/pkg/workflow"
	"github.com/spf13/cobra"
	"gopkg.in/typ.v4/slices"
)

const cancelGracePeriod = 10 * time.Second

var runFlags = struct {
	profiles []string
	cold     bool
	docker   bool
	image    string
	retain   bool
	env      flagtypes.KeyValueArray
	buildID  uint
}{}

var runCmd = &cobra.Command{
	Use:   "run [path]",
	Short: "Runs a build from a .slipway.yml file",
	Long: `Runs a build based on a .slipway.yml file.

Use the optional "path" argument to specify a .slipway.yml file or a
directory containing a .slipway.yml file. Defaults to current directory ("./")

Steps run in declaration order inside a build container, and the first
failing step aborts the build. Steps marked "host: true" run on the host
machine instead, for tools whose credentials live there.`,
	Args: cobra.MaximumNArgs(1),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"yml"}, cobra.ShellCompDirectiveFilterFileExt
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		projectDir, err := parseCurrentDir(slices.SafeGet(args, 0))
		if err != nil {
			return err
		}
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		buildID := runFlags.buildID
		if buildID == 0 {
			buildID, err = lastbuild.Next()
			if err != nil {
				return err
			}
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go handleCancelSignals(func() {
			time.AfterFunc(cancelGracePeriod, func() {
				log.Warn().Message("Failed to cancel within grace period. Force quitting now.")
				os.Exit(3)
			})
			cancel()
		})

		log.Info().
			WithUint("buildId", buildID).
			WithString("project", pathutil.ShorthandHome(projectDir)).
			Message("Starting build.")

		b := build.New(cfg)
		result, err := b.Run(ctx, build.Options{
			ProjectDir: projectDir,
			BuildID:    buildID,
			Depth:      buildDepth,
			Profiles:   runFlags.profiles,
			ExtraEnv:   runFlags.env.Map(),
			ForceCold:  runFlags.cold,
			NoDocker:   !runFlags.docker,
			Image:      runFlags.image,
			Retain:     runFlags.retain,
			LogLevel:   loglevel.Flag(),
		})
		if err != nil {
			return err
		}
		log.Info().
			WithDuration("dur", result.Duration.Truncate(time.Second)).
			WithStringer("status", result.Status).
			Message("Done with build.")
		if result.Status != workflow.StatusSuccess {
			return errors.New("build failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.StringArrayVarP(&runFlags.profiles, "profile", "p", nil, "Profile env files to activate, can be set multiple times")
	flags.BoolVar(&runFlags.cold, "cold", false, "Discard any existing build container and start from a fresh one")
	flags.BoolVar(&runFlags.docker, "docker", true, "Run steps inside a build container; --docker=false runs them on the host")
	flags.StringVar(&runFlags.image, "image", "", "Override the build container image")
	flags.BoolVar(&runFlags.retain, "retain", false, "Keep the build container alive after the build")
	flags.VarP(&runFlags.env, "env", "e", "Extra step environment variables (--env key=value), can be set multiple times")

	buildIDHelp := "Overrides the automatic build ID"
	if path, err := lastbuild.Path(); err == nil {
		if nextGuess, err := lastbuild.GuessNext(); err == nil {
			buildIDHelp = fmt.Sprintf("%s (default %d, via %q)",
				buildIDHelp, nextGuess, pathutil.ShorthandHome(path))
		}
	}
	flags.UintVar(&runFlags.buildID, "build-id", 0, buildIDHelp)

	runCmd.RegisterFlagCompletionFunc("profile", completeProfile)
}

func completeProfile(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	projectDir, err := parseCurrentDir(slices.SafeGet(args, 0))
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		cfg = config.DefaultConfig
	}
	names, err := profile.List(filepath.Join(projectDir, cfg.Build.ProfilesDir))
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
