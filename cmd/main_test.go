// File: cmd/main_test.go
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/exitscope/internal/config"
	"github.com/xkilldash9x/exitscope/internal/observability"
)

// resetForTest provides the single source of truth for resetting global
// state between command executions.
func resetForTest(t *testing.T) {
	t.Helper()

	// Viper carries defaults, bindings, and any config file read by a
	// previous test run.
	viper.Reset()

	// Package-level flag storage from root.go.
	cfgFile = ""

	// Quiet logger; tests assert on command output, not on log lines. The
	// once guard then swallows the re-initialization in PersistentPreRunE.
	observability.ResetForTest()
	observability.InitializeLogger(config.LoggingConfig{Level: "fatal", Format: "console", ServiceName: "test"})
}

// executeCommand runs a pristine root command with the given args and returns
// everything written to its combined output stream.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetForTest(t)

	root := newRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

// writeTempConfig writes a YAML config file into a per-test directory.
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// writeTempDataset writes a raw dataset file into a per-test directory.
func writeTempDataset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dataset.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
