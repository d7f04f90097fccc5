package buildfile

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	const content = `
image: docker.io/library/golang:1.18
workspace: /src
steps:
  - name: test
    command: go
    args: [test, ./...]
    env:
      CGO_ENABLED: "0"
  - name: build
    context: compile
    command: go
    args: [build, -o, dist/app]
    workdir: cmd/app
    timeout: 90s
  - name: publish
    command: docker
    args: [push, myimage]
    host: true
artifacts:
  - from: dist
    to: ./out
  - from: coverage.html
    to: reports
    zipped: true
builds:
  - path: child
    profiles: [ci]
    cold: true
`
	def, err := Parse(strings.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, "docker.io/library/golang:1.18", def.Image)
	assert.Equal(t, "/src", def.Workspace)

	require.Len(t, def.Steps, 3)
	assert.Equal(t, "test", def.Steps[0].Name)
	assert.Equal(t, []string{"test", "./..."}, def.Steps[0].Args)
	assert.Equal(t, map[string]string{"CGO_ENABLED": "0"}, def.Steps[0].Env)
	assert.Equal(t, "compile", def.Steps[1].Context)
	assert.Equal(t, "cmd/app", def.Steps[1].WorkDir)
	assert.Equal(t, 90*time.Second, def.Steps[1].Timeout.Std())
	assert.True(t, def.Steps[2].Host)

	require.Len(t, def.Artifacts, 2)
	assert.Equal(t, Artifact{From: "dist", To: "./out"}, def.Artifacts[0])
	assert.True(t, def.Artifacts[1].Zipped)

	require.Len(t, def.Builds, 1)
	assert.Equal(t, "child", def.Builds[0].Path)
	assert.Equal(t, []string{"ci"}, def.Builds[0].Profiles)
	assert.True(t, def.Builds[0].Cold)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse(strings.NewReader(`
steps:
  - name: test
    command: go
    arguments: [test]
`))
	assert.Error(t, err)
}

func TestParseEmpty(t *testing.T) {
	_, err := Parse(strings.NewReader(""))
	assert.Error(t, err)
}

func TestParseInvalidDuration(t *testing.T) {
	_, err := Parse(strings.NewReader(`
steps:
  - name: slow
    command: sleep
    timeout: banana
`))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "step missing name",
			content: `
steps:
  - command: go
`,
		},
		{
			name: "step missing command",
			content: `
steps:
  - name: build
`,
		},
		{
			name: "duplicate step name",
			content: `
steps:
  - name: build
    command: go
  - name: build
    command: make
`,
		},
		{
			name: "artifact missing from",
			content: `
artifacts:
  - to: out
`,
		},
		{
			name: "artifact missing to",
			content: `
artifacts:
  - from: dist
`,
		},
		{
			name: "nested build missing path",
			content: `
builds:
  - profiles: [ci]
`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.content))
			assert.Error(t, err)
		})
	}
}
