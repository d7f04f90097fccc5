package artifact

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/slipway-ci/slipway-cmd/pkg/commandexec"
)

const (
	// DefaultArchiveName is the file name used when a zipped destination is
	// a directory rather than an archive file path.
	DefaultArchiveName = "artifacts.tar.gz"

	copyTimeout    = 10 * time.Minute
	archiveTimeout = 10 * time.Minute
	cleanupTimeout = time.Minute
)

var archiveExts = []string{".zip", ".tar.gz", ".tgz", ".tar"}

// Transferer executes registered copy requests against a build container.
type Transferer struct {
	// Host runs the docker CLI on the host.
	Host commandexec.Executor
	// Container runs archiving commands inside the build container.
	Container commandexec.Executor
	// ContainerName is the Docker name of the build container.
	ContainerName string
	// ProjectDir is the host directory that relative destinations resolve
	// against.
	ProjectDir string
}

// Transfer copies all entries out of the container in registration order.
// Individual copy failures are logged as warnings and do not fail the build:
// artifacts are best-effort delivery, not a build-correctness gate. Returns
// the number of entries that failed.
func (t Transferer) Transfer(ctx context.Context, entries []Entry) int {
	var failed int
	for _, entry := range entries {
		var err error
		if entry.Zipped {
			err = t.transferZipped(ctx, entry)
		} else {
			err = t.transferPlain(ctx, entry)
		}
		if err != nil {
			failed++
			log.Warn().
				WithError(err).
				WithString("container", entry.ContainerPath).
				WithString("host", entry.HostPath).
				Message("Failed to copy artifact. The build is still considered successful.")
		}
	}
	return failed
}

func (t Transferer) transferPlain(ctx context.Context, entry Entry) error {
	dst := t.hostDest(entry.HostPath)
	// docker cp merges into an existing directory instead of replacing it,
	// so the destination is deleted first to get replace-not-merge
	// semantics.
	if err := os.RemoveAll(dst); err != nil {
		return fmt.Errorf("remove existing destination: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0775); err != nil {
		return fmt.Errorf("create destination parent dir: %w", err)
	}
	res := t.Host.Exec(ctx, "docker",
		[]string{"cp", t.ContainerName + ":" + entry.ContainerPath, dst},
		commandexec.Options{Timeout: copyTimeout})
	if !res.Success {
		return fmt.Errorf("docker cp: %s", strings.TrimSpace(res.Stderr))
	}
	log.Info().
		WithString("container", entry.ContainerPath).
		WithString("host", dst).
		Message("Copied artifact to host.")
	return nil
}

func (t Transferer) transferZipped(ctx context.Context, entry Entry) error {
	dst := t.hostDest(entry.HostPath)
	useZip := strings.HasSuffix(strings.ToLower(dst), ".zip")
	if !hasArchiveExt(dst) {
		dst = filepath.Join(dst, DefaultArchiveName)
	}
	tmp := tempArchivePath(useZip)
	// The temporary archive is cleaned up on every exit path, including
	// failed archiving and failed copy-out.
	defer t.cleanupTemp(tmp)

	srcDir, srcBase := path.Split(entry.ContainerPath)
	var res commandexec.Result
	if useZip {
		res = t.Container.Exec(ctx, "sh",
			[]string{"-c", fmt.Sprintf("cd %q && zip -qr %q %q", srcDir, tmp, srcBase)},
			commandexec.Options{Timeout: archiveTimeout})
	} else {
		res = t.Container.Exec(ctx, "tar",
			[]string{"-czf", tmp, "-C", srcDir, srcBase},
			commandexec.Options{Timeout: archiveTimeout})
	}
	if !res.Success {
		return fmt.Errorf("archive %q inside container: %s",
			entry.ContainerPath, strings.TrimSpace(res.Stderr))
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0775); err != nil {
		return fmt.Errorf("create destination parent dir: %w", err)
	}
	res = t.Host.Exec(ctx, "docker",
		[]string{"cp", t.ContainerName + ":" + tmp, dst},
		commandexec.Options{Timeout: copyTimeout})
	if !res.Success {
		return fmt.Errorf("docker cp: %s", strings.TrimSpace(res.Stderr))
	}
	// Container-origin copies land root-owned on Unix hosts.
	if runtime.GOOS != "windows" {
		if err := os.Chown(dst, os.Getuid(), os.Getgid()); err != nil {
			log.Debug().
				WithError(err).
				WithString("path", dst).
				Message("Could not correct artifact ownership.")
		}
	}
	log.Info().
		WithString("container", entry.ContainerPath).
		WithString("host", dst).
		Message("Copied zipped artifact to host.")
	return nil
}

func (t Transferer) cleanupTemp(tmp string) {
	res := t.Container.Exec(context.Background(), "rm", []string{"-f", tmp},
		commandexec.Options{Timeout: cleanupTimeout})
	if !res.Success {
		log.Debug().
			WithString("path", tmp).
			Message("Could not remove temporary archive in container.")
	}
}

func (t Transferer) hostDest(hostPath string) string {
	if filepath.IsAbs(hostPath) {
		return filepath.Clean(hostPath)
	}
	return filepath.Join(t.ProjectDir, hostPath)
}

func hasArchiveExt(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range archiveExts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// Temp archive names are randomized so concurrent builds sharing an image
// never collide.
func tempArchivePath(useZip bool) string {
	var buf [8]byte
	var unique string
	if _, err := rand.Read(buf[:]); err == nil {
		unique = hex.EncodeToString(buf[:])
	} else {
		unique = fmt.Sprintf("%d", time.Now().UnixNano())
	}
	ext := ".tar.gz"
	if useZip {
		ext = ".zip"
	}
	return "/tmp/slipway-artifact-" + unique + ext
}
