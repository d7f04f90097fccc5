// Package workspace stages a project's file tree into a tarball, ready to be
// copied into a build container. The container workspace is deliberately
// never bind-mounted, so the full tree has to be transferred.
package workspace

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/iver-wharf/wharf-core/v2/pkg/logger"
	"github.com/slipway-ci/slipway-cmd/internal/filecopy"
	"github.com/slipway-ci/slipway-cmd/internal/gitutil"
	"github.com/slipway-ci/slipway-cmd/internal/ignorer"
	"github.com/slipway-ci/slipway-cmd/internal/tarutil"
	"gopkg.in/typ.v4/sync2"
)

var log = logger.NewScoped("WORKSPACE")

const dirFileMode fs.FileMode = 0775

// Tarball is an identifier for a tarball file containing a staged workspace.
type Tarball string

// Open creates a file handle to the tarball.
func (t Tarball) Open() (io.ReadCloser, error) {
	return os.Open(string(t))
}

// Stager is an interface for staging and tar'ing project trees.
type Stager interface {
	io.Closer

	// PreparedTarball stages the project tree and returns its tarball.
	// Repeated calls with the same id return the same tarball, staged only
	// once.
	PreparedTarball(copier filecopy.Copier, ign ignorer.Ignorer, id string) (Tarball, error)
}

// NewStager creates a new Stager with a given directory path as the project
// root.
func NewStager(srcPath string) (Stager, error) {
	tmpPath, err := os.MkdirTemp("", "slipway-workspace-")
	if err != nil {
		return nil, err
	}
	return &stager{
		tmpPath: tmpPath,
		srcPath: srcPath,
	}, nil
}

type stager struct {
	tmpPath string
	srcPath string
	onceMap sync2.Map[string, *sync2.Once2[Tarball, error]]
}

func (s *stager) Close() error {
	return os.RemoveAll(s.tmpPath)
}

func (s *stager) PreparedTarball(copier filecopy.Copier, ign ignorer.Ignorer, id string) (Tarball, error) {
	if id == "" {
		return "", errors.New("tarball name cannot be empty")
	}
	once, _ := s.onceMap.LoadOrStore(id, new(sync2.Once2[Tarball, error]))
	return once.Do(func() (Tarball, error) {
		return s.prepare(copier, ign, id)
	})
}

func (s *stager) prepare(copier filecopy.Copier, ign ignorer.Ignorer, id string) (Tarball, error) {
	dstPath := filepath.Join(s.tmpPath, id)
	if err := os.MkdirAll(dstPath, dirFileMode); err != nil {
		return "", err
	}
	log.Info().
		WithString("src", s.srcPath).
		WithString("dst", dstPath).
		Message("Copying files.")
	if err := filecopy.CopyDirIgnorer(dstPath, s.srcPath, copier, ign); err != nil {
		return "", err
	}
	log.Debug().
		WithString("src", s.srcPath).
		WithString("dst", dstPath).
		Message("Done copying files.")
	tarPath := filepath.Join(s.tmpPath, id+".tar")
	tarFile, err := os.Create(tarPath)
	if err != nil {
		return "", err
	}
	defer tarFile.Close()
	log.Info().
		WithString("path", tarPath).
		Message("Creating workspace tarball.")
	if err := tarutil.Dir(tarFile, tarutil.Options{Path: dstPath}); err != nil {
		return "", err
	}
	log.Debug().
		WithString("path", tarPath).
		Message("Done creating workspace tarball.")
	return Tarball(tarPath), nil
}

// DefaultIgnorer returns the ignorer used when staging a workspace: the
// project's .gitignore rules (when the project is inside a Git repository)
// plus the .git directory itself.
func DefaultIgnorer(projectDir string) ignorer.Ignorer {
	ignorers := []ignorer.Ignorer{ignorer.NewDirNames(".git")}
	isRepo, err := gitutil.IsGitRepo(projectDir)
	if err == nil && isRepo {
		gitIgn, err := gitutil.NewIgnorer(projectDir)
		if err != nil {
			log.Warn().WithError(err).
				Message("Failed to read .gitignore rules. Staging all files.")
		} else {
			ignorers = append(ignorers, gitIgn)
		}
	}
	return ignorer.NewAny(ignorers...)
}
