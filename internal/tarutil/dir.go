// Package tarutil creates tarballs from directory trees.
package tarutil

import (
	"archive/tar"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/slipway-ci/slipway-cmd/internal/ignorer"
)

// Options controls how a directory is tarred.
type Options struct {
	// Path is the directory whose children are added to the tarball. The
	// directory itself is not included.
	Path string
	// Ignorer conditionally omits files or directory trees, and may be nil.
	Ignorer ignorer.Ignorer
}

// Dir will recursively tar the contents of an entire directory. Hidden files
// (files that start with a dot) are included. The name of the target directory
// is not included in the tarball, but instead only the children.
func Dir(w io.Writer, opt Options) error {
	rootDirPath, err := filepath.Abs(opt.Path)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(w)
	fileSys := os.DirFS(rootDirPath)
	err = fs.WalkDir(fileSys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == "." {
			return nil
		}
		absPath := filepath.Join(rootDirPath, path)
		info, err := os.Stat(absPath)
		if err != nil {
			return err
		}
		if opt.Ignorer != nil && opt.Ignorer.Ignore(absPath, path) {
			if info.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		name := filepath.ToSlash(path)
		isFile := info.Mode().Type() == 0
		var size int64
		if d.IsDir() {
			name += "/"
		} else if isFile {
			size = info.Size()
		}
		if err := tw.WriteHeader(&tar.Header{
			Name:    name,
			Mode:    int64(info.Mode()),
			Size:    size,
			ModTime: info.ModTime(),
		}); err != nil {
			return err
		}
		if isFile {
			file, err := os.Open(absPath)
			if err != nil {
				return err
			}
			defer file.Close()
			if _, err := io.Copy(tw, file); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return tw.Close()
}
