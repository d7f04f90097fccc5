// Package artifact registers container-to-host copy requests during build
// script evaluation and executes them once, after a successful build, in
// registration order.
package artifact

import (
	"path"

	"github.com/iver-wharf/wharf-core/v2/pkg/logger"
)

var log = logger.NewScoped("ARTIFACT")

// Entry is a single registered copy-out request. Entries are created during
// script evaluation, consumed once after a successful build, and never
// mutated afterward.
type Entry struct {
	// ContainerPath is the normalized, always absolute, path inside the
	// container to copy out.
	ContainerPath string
	// HostPath is the destination on the host. Relative paths are resolved
	// against the invoking build's project root.
	HostPath string
	// Zipped archives the container path inside the container before
	// copying the single archive file out.
	Zipped bool
}

// Registry accumulates copy requests for one build. It is owned exclusively
// by a single workflow run.
type Registry struct {
	workspaceDir string
	entries      []Entry
}

// NewRegistry returns a registry that roots relative container paths at the
// given container workspace directory.
func NewRegistry(workspaceDir string) *Registry {
	return &Registry{workspaceDir: workspaceDir}
}

// CopyToHost registers a plain copy of a container path to a host path.
func (r *Registry) CopyToHost(containerPath, hostPath string) {
	r.entries = append(r.entries, Entry{
		ContainerPath: r.normalize(containerPath),
		HostPath:      hostPath,
	})
}

// CopyZippedToHost registers a copy where the container path is archived
// inside the container first. The archive format is tar.gz, or zip when the
// host destination name ends in ".zip". A destination without an archive
// extension is treated as a directory that receives a file named
// "artifacts.tar.gz".
func (r *Registry) CopyZippedToHost(containerPath, hostPath string) {
	r.entries = append(r.entries, Entry{
		ContainerPath: r.normalize(containerPath),
		HostPath:      hostPath,
		Zipped:        true,
	})
}

// Entries returns the registered entries in registration order.
func (r *Registry) Entries() []Entry {
	return r.entries
}

// Container paths are always Unix paths, regardless of the host OS.
func (r *Registry) normalize(containerPath string) string {
	if !path.IsAbs(containerPath) {
		return path.Join(r.workspaceDir, containerPath)
	}
	return path.Clean(containerPath)
}
