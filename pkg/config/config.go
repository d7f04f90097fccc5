// Package config holds all configurable settings for slipway.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/iver-wharf/wharf-core/v2/pkg/config"
	"github.com/slipway-ci/slipway-cmd/pkg/profile"
)

// Config holds all configurable settings for slipway.
//
// The config is read in the following order:
//
// 1. File: ~/.config/slipway/slipway-config.yml
//
// 2. File: ./.slipway-config.yml
//
// 3. File from environment variable: SLIPWAY_CONFIG
//
// 4. Environment variables, prefixed with SLIPWAY
//
// Each inner struct is represented as a deeper field in the different
// configurations. For YAML they represent deeper nested maps. For environment
// variables they are joined together by underscores.
//
// All environment variables must be uppercased, while YAML files are
// case-insensitive. Keeping camelCasing in YAML config files is recommended
// for consistency.
type Config struct {
	Docker DockerConfig
	Build  BuildConfig
}

// DockerConfig holds settings for the build container.
type DockerConfig struct {
	// Image is the default container image used for build containers when
	// the build file does not specify one.
	Image string

	// Workspace is the directory inside the build container that the
	// project is copied into.
	Workspace string

	// ForceCold discards any existing build container instead of reusing
	// it.
	ForceCold bool

	// Retain keeps the build container alive after the build, for
	// inspection and for faster warm starts.
	Retain bool
}

// BuildConfig holds settings for build execution.
type BuildConfig struct {
	// Timeout is the default timeout applied to each step that does not
	// declare its own.
	Timeout time.Duration

	// ProfilesDir is the directory, relative to the project, holding
	// profile env files.
	ProfilesDir string
}

// DefaultConfig is the hard-coded default values for slipway's configs.
var DefaultConfig = Config{
	Docker: DockerConfig{
		Image:     "docker.io/library/ubuntu:22.04",
		Workspace: "/workspace",
	},
	Build: BuildConfig{
		Timeout:     10 * time.Minute,
		ProfilesDir: profile.DefaultDir,
	},
}

// LoadConfig looks for, parses, and merges configs from the known config
// sources.
func LoadConfig() (Config, error) {
	cfgBuilder := config.NewBuilder(DefaultConfig)

	cfgBuilder.AddConfigYAMLFile("~/.config/slipway/slipway-config.yml")
	cfgBuilder.AddConfigYAMLFile(".slipway-config.yml")
	if cfgFile, ok := os.LookupEnv("SLIPWAY_CONFIG"); ok {
		cfgBuilder.AddConfigYAMLFile(cfgFile)
	}
	cfgBuilder.AddEnvironmentVariables("SLIPWAY")

	var cfg Config
	if err := cfgBuilder.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg *Config) validate() error {
	if cfg.Docker.Image == "" {
		return fmt.Errorf("docker.image: must not be empty")
	}
	if cfg.Docker.Workspace == "" {
		return fmt.Errorf("docker.workspace: must not be empty")
	}
	if cfg.Build.Timeout < 0 {
		return fmt.Errorf("build.timeout: must not be negative")
	}
	return nil
}
