package artifact

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/slipway-ci/slipway-cmd/pkg/commandexec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type execCall struct {
	command string
	args    []string
}

type mockExecutor struct {
	calls   []execCall
	results map[string]commandexec.Result
}

func (m *mockExecutor) Exec(_ context.Context, command string, args []string, _ commandexec.Options) commandexec.Result {
	m.calls = append(m.calls, execCall{command, args})
	key := command
	if len(args) > 0 {
		key = command + " " + args[0]
	}
	if res, ok := m.results[key]; ok {
		return res
	}
	return commandexec.Result{Success: true}
}

func (m *mockExecutor) callsMatching(command, firstArg string) []execCall {
	var out []execCall
	for _, call := range m.calls {
		if call.command == command && len(call.args) > 0 && call.args[0] == firstArg {
			out = append(out, call)
		}
	}
	return out
}

func newTransferer(host, container *mockExecutor, projectDir string) Transferer {
	return Transferer{
		Host:          host,
		Container:     container,
		ContainerName: "slipway-abc123",
		ProjectDir:    projectDir,
	}
}

func TestTransfer_plainCopy(t *testing.T) {
	projectDir := t.TempDir()
	host := &mockExecutor{}
	container := &mockExecutor{}
	tr := newTransferer(host, container, projectDir)

	r := NewRegistry("/workspace")
	r.CopyToHost("dist", "./out")
	failed := tr.Transfer(context.Background(), r.Entries())
	assert.Zero(t, failed)

	cps := host.callsMatching("docker", "cp")
	require.Len(t, cps, 1)
	assert.Equal(t, []string{
		"cp",
		"slipway-abc123:/workspace/dist",
		filepath.Join(projectDir, "out"),
	}, cps[0].args)
}

func TestTransfer_plainCopyReplacesExistingDestination(t *testing.T) {
	projectDir := t.TempDir()
	existing := filepath.Join(projectDir, "out")
	require.NoError(t, os.MkdirAll(existing, 0775))
	require.NoError(t, os.WriteFile(filepath.Join(existing, "stale.txt"), []byte("stale"), 0664))

	host := &mockExecutor{}
	container := &mockExecutor{}
	tr := newTransferer(host, container, projectDir)

	r := NewRegistry("/workspace")
	r.CopyToHost("dist", "./out")
	failed := tr.Transfer(context.Background(), r.Entries())
	assert.Zero(t, failed)

	_, err := os.Stat(existing)
	assert.True(t, os.IsNotExist(err), "existing destination must be deleted, not merged into")
}

func TestTransfer_zippedDefaultsToTarGzInDir(t *testing.T) {
	projectDir := t.TempDir()
	host := &mockExecutor{}
	container := &mockExecutor{}
	tr := newTransferer(host, container, projectDir)

	r := NewRegistry("/workspace")
	r.CopyZippedToHost("/workspace/dist", "./out")
	failed := tr.Transfer(context.Background(), r.Entries())
	assert.Zero(t, failed)

	tars := container.callsMatching("tar", "-czf")
	require.Len(t, tars, 1, "archive must be created inside the container")
	assert.True(t, strings.HasSuffix(tars[0].args[1], ".tar.gz"))

	cps := host.callsMatching("docker", "cp")
	require.Len(t, cps, 1)
	assert.Equal(t, filepath.Join(projectDir, "out", "artifacts.tar.gz"), cps[0].args[2])
}

func TestTransfer_zippedZipDestination(t *testing.T) {
	projectDir := t.TempDir()
	host := &mockExecutor{}
	container := &mockExecutor{}
	tr := newTransferer(host, container, projectDir)

	r := NewRegistry("/workspace")
	r.CopyZippedToHost("/workspace/dist", "./out/bundle.zip")
	failed := tr.Transfer(context.Background(), r.Entries())
	assert.Zero(t, failed)

	zips := container.callsMatching("sh", "-c")
	require.Len(t, zips, 1)
	assert.Contains(t, zips[0].args[1], "zip -qr")

	cps := host.callsMatching("docker", "cp")
	require.Len(t, cps, 1)
	assert.Equal(t, filepath.Join(projectDir, "out", "bundle.zip"), cps[0].args[2])
	assert.True(t, strings.HasSuffix(cps[0].args[1], ".zip"), "container temp archive must be a zip")
}

func TestTransfer_zippedCleansUpTempOnSuccess(t *testing.T) {
	projectDir := t.TempDir()
	host := &mockExecutor{}
	container := &mockExecutor{}
	tr := newTransferer(host, container, projectDir)

	r := NewRegistry("/workspace")
	r.CopyZippedToHost("/workspace/dist", "./out")
	tr.Transfer(context.Background(), r.Entries())

	rms := container.callsMatching("rm", "-f")
	require.Len(t, rms, 1)
	assert.True(t, strings.HasPrefix(rms[0].args[1], "/tmp/slipway-artifact-"))
}

func TestTransfer_zippedCleansUpTempOnCopyFailure(t *testing.T) {
	projectDir := t.TempDir()
	host := &mockExecutor{results: map[string]commandexec.Result{
		"docker cp": {Success: false, Stderr: "copy exploded"},
	}}
	container := &mockExecutor{}
	tr := newTransferer(host, container, projectDir)

	r := NewRegistry("/workspace")
	r.CopyZippedToHost("/workspace/dist", "./out")
	failed := tr.Transfer(context.Background(), r.Entries())
	assert.Equal(t, 1, failed)

	rms := container.callsMatching("rm", "-f")
	assert.Len(t, rms, 1, "temp archive cleanup must run on failure too")
}

func TestTransfer_zippedCleansUpTempOnArchiveFailure(t *testing.T) {
	projectDir := t.TempDir()
	host := &mockExecutor{}
	container := &mockExecutor{results: map[string]commandexec.Result{
		"tar -czf": {Success: false, Stderr: "no space left"},
	}}
	tr := newTransferer(host, container, projectDir)

	r := NewRegistry("/workspace")
	r.CopyZippedToHost("/workspace/dist", "./out")
	failed := tr.Transfer(context.Background(), r.Entries())
	assert.Equal(t, 1, failed)

	rms := container.callsMatching("rm", "-f")
	assert.Len(t, rms, 1)
	assert.Empty(t, host.callsMatching("docker", "cp"), "failed archive must not be copied out")
}

func TestTransfer_copyFailureIsSoft(t *testing.T) {
	projectDir := t.TempDir()
	host := &mockExecutor{results: map[string]commandexec.Result{
		"docker cp": {Success: false, Stderr: "no such path"},
	}}
	container := &mockExecutor{}
	tr := newTransferer(host, container, projectDir)

	r := NewRegistry("/workspace")
	r.CopyToHost("missing", "./out")
	r.CopyToHost("also-missing", "./out2")
	failed := tr.Transfer(context.Background(), r.Entries())

	assert.Equal(t, 2, failed)
	assert.Len(t, host.callsMatching("docker", "cp"), 2,
		"one failed copy must not stop the remaining copies")
}

func TestTransfer_absoluteHostDestination(t *testing.T) {
	projectDir := t.TempDir()
	absDest := filepath.Join(t.TempDir(), "abs-out")
	host := &mockExecutor{}
	container := &mockExecutor{}
	tr := newTransferer(host, container, projectDir)

	r := NewRegistry("/workspace")
	r.CopyToHost("dist", absDest)
	failed := tr.Transfer(context.Background(), r.Entries())
	assert.Zero(t, failed)

	cps := host.callsMatching("docker", "cp")
	require.Len(t, cps, 1)
	assert.Equal(t, absDest, cps[0].args[2])
}

func TestHasArchiveExt(t *testing.T) {
	assert.True(t, hasArchiveExt("bundle.zip"))
	assert.True(t, hasArchiveExt("bundle.tar.gz"))
	assert.True(t, hasArchiveExt("bundle.tgz"))
	assert.True(t, hasArchiveExt("BUNDLE.ZIP"))
	assert.False(t, hasArchiveExt("out"))
	assert.False(t, hasArchiveExt("out.txt"))
}

func TestTempArchivePath(t *testing.T) {
	first := tempArchivePath(false)
	second := tempArchivePath(false)
	assert.NotEqual(t, first, second, "names must differ per operation")
	assert.NotContains(t, first, "0000000000000000", "name must never be the zero value")
	assert.True(t, strings.HasSuffix(first, ".tar.gz"))
	assert.True(t, strings.HasSuffix(tempArchivePath(true), ".zip"))
}
