// Package buildfile parses the declarative .slipway.yml build file. The file
// is a thin frontend: every entry maps onto the step registry and artifact
// registration primitives.
package buildfile

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the well-known name of the build file.
const FileName = ".slipway.yml"

// Definition is a parsed build file.
type Definition struct {
	// Image overrides the configured default container image.
	Image string `yaml:"image"`
	// Workspace overrides the configured container workspace directory.
	Workspace string `yaml:"workspace"`
	// Steps run in declaration order.
	Steps []Step `yaml:"steps"`
	// Artifacts are copied out of the container after a successful build.
	Artifacts []Artifact `yaml:"artifacts"`
	// Builds are nested child builds, run after the steps.
	Builds []NestedBuild `yaml:"builds"`
}

// Step is a single named command to run.
type Step struct {
	Name    string            `yaml:"name"`
	Context string            `yaml:"context"`
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args"`
	WorkDir string            `yaml:"workdir"`
	Env     map[string]string `yaml:"env"`
	// Host runs the command on the host instead of inside the build
	// container, for tools whose credentials live on the host.
	Host        bool     `yaml:"host"`
	Interactive bool     `yaml:"interactive"`
	Timeout     Duration `yaml:"timeout"`
}

// Artifact is a single container-to-host copy request.
type Artifact struct {
	From   string `yaml:"from"`
	To     string `yaml:"to"`
	Zipped bool   `yaml:"zipped"`
}

// NestedBuild launches a fully independent child build as a host subprocess.
type NestedBuild struct {
	Path     string   `yaml:"path"`
	Profiles []string `yaml:"profiles"`
	Cold     bool     `yaml:"cold"`
	NoDocker bool     `yaml:"noDocker"`
	Image    string   `yaml:"image"`
}

// Duration wraps time.Duration with YAML unmarshalling from strings like
// "90s" or "10m".
type Duration time.Duration

// Std converts this duration to the time.Duration type.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var str string
	if err := value.Decode(&str); err != nil {
		return err
	}
	dur, err := time.ParseDuration(str)
	if err != nil {
		return fmt.Errorf("parse duration: %w", err)
	}
	*d = Duration(dur)
	return nil
}

// ParseFile parses and validates a build file from disk.
func ParseFile(path string) (Definition, error) {
	file, err := os.Open(path)
	if err != nil {
		return Definition{}, err
	}
	defer file.Close()
	def, err := Parse(file)
	if err != nil {
		return Definition{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return def, nil
}

// Parse parses and validates a build file.
func Parse(reader io.Reader) (Definition, error) {
	var def Definition
	dec := yaml.NewDecoder(reader)
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		if err == io.EOF {
			return Definition{}, fmt.Errorf("build file is empty")
		}
		return Definition{}, err
	}
	if err := def.validate(); err != nil {
		return Definition{}, err
	}
	return def, nil
}

func (def Definition) validate() error {
	names := make(map[string]struct{}, len(def.Steps))
	for i, step := range def.Steps {
		if step.Name == "" {
			return fmt.Errorf("steps[%d]: missing name", i)
		}
		if step.Command == "" {
			return fmt.Errorf("step %q: missing command", step.Name)
		}
		if _, ok := names[step.Name]; ok {
			return fmt.Errorf("step %q: duplicate name", step.Name)
		}
		names[step.Name] = struct{}{}
	}
	for i, art := range def.Artifacts {
		if art.From == "" {
			return fmt.Errorf("artifacts[%d]: missing from", i)
		}
		if art.To == "" {
			return fmt.Errorf("artifacts[%d]: missing to", i)
		}
	}
	for i, nested := range def.Builds {
		if nested.Path == "" {
			return fmt.Errorf("builds[%d]: missing path", i)
		}
	}
	return nil
}
