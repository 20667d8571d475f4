package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
version: v1
reports:
  - id: confirmed-verified
    description: bugs confirmed or verified
    kind: transitions
    identities: [a@x.com]
    rules:
      - {label: confirmed, field: status, removed: UNCONFIRMED}
  - id: reported
    kind: bug_attributes
    identities: [a@x.com]
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestListCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o644))

	out, err := execute(t, "list", "--config", path, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "confirmed-verified")
	assert.Contains(t, out, "bugs confirmed or verified")
	assert.Contains(t, out, "bug_attributes")
}

func TestCommands_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.yaml")
	require.NoError(t, os.WriteFile(path, []byte("reports:\n  - id: x\n    kind: nope\n"), 0o644))

	_, err := execute(t, "list", "--config", path, "--log-level", "error")
	require.Error(t, err)
}

func TestRunCommand_UnknownReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o644))

	_, err := execute(t, "run", "missing", "--config", path, "--log-level", "error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestSetupLogging(t *testing.T) {
	assert.NoError(t, setupLogging("debug"))
	assert.NoError(t, setupLogging("WARN"))
	assert.Error(t, setupLogging("loud"))
}
