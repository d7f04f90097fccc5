package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		cfg    Config
		wantOK bool
	}{
		{
			name:   "defaults are valid",
			cfg:    DefaultConfig,
			wantOK: true,
		},
		{
			name: "empty image",
			cfg: Config{
				Docker: DockerConfig{Image: "", Workspace: "/workspace"},
			},
			wantOK: false,
		},
		{
			name: "empty workspace",
			cfg: Config{
				Docker: DockerConfig{Image: "docker.io/library/ubuntu:22.04"},
			},
			wantOK: false,
		},
		{
			name: "negative timeout",
			cfg: Config{
				Docker: DefaultConfig.Docker,
				Build:  BuildConfig{Timeout: -time.Second},
			},
			wantOK: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.validate()
			if tc.wantOK {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
