package columns_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"fjacquet/stmt-ingest/cmd/columns"
	"fjacquet/stmt-ingest/cmd/root"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	root.Init()
	root.Cmd.AddCommand(columns.Cmd)
}

func TestColumnsCommand(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GEMINI_API_KEY", "")
	t.Chdir(t.TempDir())

	cfg := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("pipeline:\n  delimiter: \";\"\n"), 0600))

	in := filepath.Join(t.TempDir(), "bank.csv")
	require.NoError(t, os.WriteFile(in, []byte("Posting Date;Payee;Debit Amount;Credit Amount\n2024-01-01;SHOP;5.00;\n"), 0600))

	var buf bytes.Buffer
	root.Cmd.SetOut(&buf)
	root.Cmd.SetArgs([]string{"--config", cfg, "columns", in})
	require.NoError(t, root.Cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "date      Posting Date")
	assert.Contains(t, out, "debit     Debit Amount")
	assert.Contains(t, out, "credit    Credit Amount")
	assert.Contains(t, out, "merchant  Payee")
	assert.NotContains(t, out, "inferred")
}

func TestColumnsCommand_MissingColumns(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GEMINI_API_KEY", "")
	t.Chdir(t.TempDir())

	cfg := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("log:\n  level: error\n"), 0600))

	in := filepath.Join(t.TempDir(), "odd.csv")
	require.NoError(t, os.WriteFile(in, []byte("Foo,Bar\n1,2\n"), 0600))

	root.Cmd.SetArgs([]string{"--config", cfg, "columns", in})
	err := root.Cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing essential columns")
	assert.Contains(t, err.Error(), "set ai.enabled")
}

func TestColumnsCommand_Args(t *testing.T) {
	assert.Error(t, columns.Cmd.Args(columns.Cmd, nil))
	assert.NoError(t, columns.Cmd.Args(columns.Cmd, []string{"a.csv"}))
}
