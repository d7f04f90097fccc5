// Package profile loads named environment profiles from dotenv files inside
// the project's profiles directory.
package profile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// DefaultDir is the default profiles directory, relative to the project
// directory.
const DefaultDir = ".slipway-profiles"

// Load reads the named profiles from dir and merges them into a single
// environment map. Later profiles override earlier ones on key collisions.
func Load(dir string, names []string) (map[string]string, error) {
	merged := make(map[string]string)
	for _, name := range names {
		path := filepath.Join(dir, name+".env")
		env, err := godotenv.Read(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("profile %q: no such file: %s", name, path)
			}
			return nil, fmt.Errorf("profile %q: %w", name, err)
		}
		for k, v := range env {
			merged[k] = v
		}
	}
	return merged, nil
}

// List returns the names of all profiles found in dir, without the .env
// suffix. A missing directory yields an empty list.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if ext := filepath.Ext(name); ext == ".env" {
			names = append(names, name[:len(name)-len(ext)])
		}
	}
	return names, nil
}
