package categorize_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fjacquet/stmt-ingest/cmd/categorize"
	"fjacquet/stmt-ingest/cmd/root"
	"fjacquet/stmt-ingest/internal/taxonomy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	root.Init()
	root.Cmd.AddCommand(categorize.Cmd)
}

func TestCategorizeCommand_Metadata(t *testing.T) {
	assert.Equal(t, "categorize", categorize.Cmd.Use)
	assert.Contains(t, categorize.Cmd.Short, "Categorize")
	assert.NotNil(t, categorize.Cmd.RunE)
}

func TestCategorizeCommand_Flags(t *testing.T) {
	merchantFlag := categorize.Cmd.Flags().Lookup("merchant")
	require.NotNil(t, merchantFlag)
	assert.Equal(t, "m", merchantFlag.Shorthand)
	assert.Contains(t, merchantFlag.Usage, "Merchant")

	amountFlag := categorize.Cmd.Flags().Lookup("amount")
	require.NotNil(t, amountFlag)
	assert.Equal(t, "a", amountFlag.Shorthand)
	assert.Equal(t, "0", amountFlag.DefValue)
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runWithConfig(t, "log:\n  level: error\n", args...)
}

func runWithConfig(t *testing.T, config string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GEMINI_API_KEY", "")
	t.Chdir(t.TempDir())
	require.NoError(t, categorize.Cmd.Flags().Set("save", "false"))

	cfg := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(config), 0600))

	var buf bytes.Buffer
	root.Cmd.SetOut(&buf)
	root.Cmd.SetArgs(append([]string{"--config", cfg, "categorize"}, args...))
	err := root.Cmd.Execute()
	return strings.TrimSpace(buf.String()), err
}

func TestCategorizeCommand_Heuristic(t *testing.T) {
	out, err := run(t, "--merchant", "Card Payment to CITY PARKING 000123456", "--amount", "-8.00")
	require.NoError(t, err)
	assert.Equal(t, taxonomy.Transportation, out)
}

func TestCategorizeCommand_BadInput(t *testing.T) {
	_, err := run(t, "--merchant", "ACME", "--amount", "twelve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid amount")

	_, err = run(t, "--merchant", "   ", "--amount", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "merchant is empty")
}

func TestCategorizeCommand_SaveRule(t *testing.T) {
	rulesFile := filepath.Join(t.TempDir(), "rules", "keywords.yaml")
	config := "log:\n  level: error\ntaxonomy:\n  keywords_file: " + rulesFile + "\n"

	for i := 0; i < 2; i++ {
		out, err := runWithConfig(t, config, "--merchant", "ZEBRA WIDGETS", "--save")
		require.NoError(t, err)
		assert.Equal(t, taxonomy.Other, out)
	}

	rules, err := taxonomy.NewStore(rulesFile, nil).LoadRules()
	require.NoError(t, err)
	require.Len(t, rules, 1, "a rule giving the same answer is not saved twice")
	assert.Equal(t, "zebra widgets", rules[0].Keyword)
	assert.Equal(t, taxonomy.Other, rules[0].Category)
}

func TestCategorizeCommand_SaveNeedsRulesFile(t *testing.T) {
	_, err := run(t, "--merchant", "ZEBRA WIDGETS", "--save")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no keyword rules file configured")
}
