package root_test

import (
	"os"
	"path/filepath"
	"testing"

	"fjacquet/stmt-ingest/cmd/root"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	root.Init()
}

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GEMINI_API_KEY", "")
	t.Chdir(t.TempDir())
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "stmt-ingest", root.Cmd.Use)
	assert.Contains(t, root.Cmd.Short, "bank statement CSV exports")
	assert.NotNil(t, root.Cmd.Run)
	assert.NotNil(t, root.Cmd.PersistentPreRunE)
}

func TestRootCommand_Flags(t *testing.T) {
	assert.NotNil(t, root.Cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, root.Cmd.PersistentFlags().Lookup("log-level"))
}

func TestRootCommand_LoadsConfig(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  driver: memory\npipeline:\n  batch_size: 3\n"), 0600))

	root.Cmd.SetArgs([]string{"--config", path, "--log-level", "warn"})
	require.NoError(t, root.Cmd.Execute())

	require.NotNil(t, root.Cfg)
	assert.Equal(t, "memory", root.Cfg.Store.Driver)
	assert.Equal(t, 3, root.Cfg.Pipeline.BatchSize)
	assert.Equal(t, "warn", root.Cfg.Log.Level)
}

func TestRootCommand_BadConfig(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  driver: postgres\n"), 0600))

	root.Cmd.SetArgs([]string{"--config", path, "--log-level", ""})
	assert.Error(t, root.Cmd.Execute())
}
