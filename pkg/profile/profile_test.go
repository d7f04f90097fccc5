package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProfile(t *testing.T, dir, name, content string) {
	t.Helper()
	err := os.WriteFile(filepath.Join(dir, name+".env"), []byte(content), 0644)
	require.NoError(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "base", "REGISTRY=docker.io\nTAG=latest\n")
	writeProfile(t, dir, "ci", "TAG=ci\nCI=true\n")

	env, err := Load(dir, []string{"base", "ci"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"REGISTRY": "docker.io",
		"TAG":      "ci",
		"CI":       "true",
	}, env)
}

func TestLoadMissingProfile(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(dir, []string{"nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `profile "nope"`)
}

func TestLoadNoProfiles(t *testing.T) {
	env, err := Load(t.TempDir(), nil)
	require.NoError(t, err)
	assert.Empty(t, env)
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "base", "")
	writeProfile(t, dir, "ci", "")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("x"), 0644))

	names, err := List(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"base", "ci"}, names)
}

func TestListMissingDir(t *testing.T) {
	names, err := List(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Empty(t, names)
}
