package buildcontainer

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// Container reservations span processes: a nested build runs as a separate
// slipway process, and its Manager cannot see the parent's in-memory
// reservations. A reservation file named after the container holds the pid
// of the owning build process. A file owned by a dead process is stale and
// is taken over.

// reserve marks the container name as owned by this build. It reports false
// when the name is already owned by another running build, in this process
// or any other.
func (m *Manager) reserve(name string, buildID uint) bool {
	if _, loaded := m.reserved.LoadOrStore(name, buildID); loaded {
		return false
	}
	if !m.reserveFile(name) {
		m.reserved.Delete(name)
		return false
	}
	return true
}

// release frees the container name for other builds.
func (m *Manager) release(name string) {
	m.reserved.Delete(name)
	if err := os.Remove(m.reservationPath(name)); err != nil && !os.IsNotExist(err) {
		log.Warn().
			WithError(err).
			WithString("container", name).
			Message("Failed to remove container reservation file.")
	}
}

func (m *Manager) reserveFile(name string) bool {
	path := m.reservationPath(name)
	if err := os.MkdirAll(filepath.Dir(path), 0775); err != nil {
		log.Warn().
			WithError(err).
			Message("Failed to create container reservation dir. Skipping cross-process reservation.")
		return true
	}
	for {
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0664)
		if err == nil {
			fmt.Fprintf(file, "%d\n", os.Getpid())
			file.Close()
			return true
		}
		if !os.IsExist(err) {
			log.Warn().
				WithError(err).
				Message("Failed to create container reservation file. Skipping cross-process reservation.")
			return true
		}
		if ownerAlive(path) {
			return false
		}
		// Stale reservation from a dead build process. Take it over, then
		// race for the name again.
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return false
		}
	}
}

func (m *Manager) reservationPath(name string) string {
	dir := m.reservationDir
	if dir == "" {
		dir = defaultReservationDir()
	}
	return filepath.Join(dir, name+".pid")
}

func defaultReservationDir() string {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}
	return filepath.Join(cacheDir, "slipway", "containers")
}

func ownerAlive(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal 0 performs the permission and liveness checks without
	// delivering anything.
	return proc.Signal(syscall.Signal(0)) == nil
}
