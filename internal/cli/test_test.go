package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const harnessScenarios = "../harness/testdata/scenarios"

func runTestCommand(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: format}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// copyScenario copies one harness scenario into a fresh directory.
func copyScenario(t *testing.T, name string) string {
	t.Helper()
	dir := t.TempDir()
	data, err := os.ReadFile(filepath.Join(harnessScenarios, name+".yaml"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".yaml"), data, 0o644))
	return dir
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := runTestCommand(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, err := runTestCommand(t, "text", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyDir(t *testing.T) {
	out, err := runTestCommand(t, "text", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommandRunsHarnessScenarios(t *testing.T) {
	out, err := runTestCommand(t, "text", harnessScenarios)
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ ticket_lifecycle")
	assert.Contains(t, out, "✓ split_payment_fallback")
	assert.Contains(t, out, "Test Summary: 5 passed, 0 failed, 5 total")
}

func TestTestCommandFilter(t *testing.T) {
	out, err := runTestCommand(t, "json", harnessScenarios, "--filter", "*_local")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, "unconfigured_local", resp.Data.Scenarios[0].Name)
	assert.True(t, resp.Data.Scenarios[0].Pass)
}

func TestTestCommandInvalidFilter(t *testing.T) {
	_, err := runTestCommand(t, "text", harnessScenarios, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandUpdateThenCompare(t *testing.T) {
	dir := copyScenario(t, "unconfigured_local")

	out, err := runTestCommand(t, "text", dir, "--update")
	require.NoError(t, err, out)

	goldenPath := filepath.Join(dir, "golden", "unconfigured_local.golden")
	written, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	expected, err := os.ReadFile("../harness/testdata/golden/unconfigured_local.golden")
	require.NoError(t, err)
	assert.Equal(t, string(expected), string(written))

	out, err = runTestCommand(t, "text", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "1 passed")

	require.NoError(t, os.WriteFile(goldenPath, []byte("# stale\n"), 0o644))
	out, err = runTestCommand(t, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommandFailingScenario(t *testing.T) {
	dir := t.TempDir()
	scenario := `name: wrong_expectation
description: "Expects a push to fail without settings, but it succeeds"
steps:
  - op: push
    expect: { error: CONFIG_MISSING }
assertions:
  - type: trace_count
    call: "clear Tables!A:Z"
    count: 1
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong.yaml"), []byte(scenario), 0o644))

	out, err := runTestCommand(t, "json", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp Envelope
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "TEST_FAILED", resp.Error.Code)
}

func TestTestCommandLoadError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: [\n"), 0o644))

	out, err := runTestCommand(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}
