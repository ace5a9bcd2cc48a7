// Package columns shows how a statement file's headers map to column roles.
package columns

import (
	"errors"
	"fmt"

	"fjacquet/stmt-ingest/cmd/root"
	"fjacquet/stmt-ingest/internal/columnmap"
	"fjacquet/stmt-ingest/internal/container"
	"fjacquet/stmt-ingest/internal/parsererror"
	"fjacquet/stmt-ingest/internal/source"
	"fjacquet/stmt-ingest/internal/store"

	"github.com/spf13/cobra"
)

// Cmd represents the columns command
var Cmd = &cobra.Command{
	Use:   "columns <file>",
	Short: "Show the detected column mapping of a file",
	Long: `Read the header row and first data row of a file and print which
header holds each role. Roles resolved by the model are marked.`,
	Args: cobra.ExactArgs(1),
	RunE: columnsFunc,
}

func columnsFunc(cmd *cobra.Command, args []string) error {
	c, err := root.NewContainer(cmd.Context(), container.WithBackend(store.NewMemoryStore()))
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	table, err := source.LoadDelimited(cmd.Context(), c.GetOpener(), args[0], root.Cfg.DelimiterRune())
	if err != nil {
		return err
	}

	mapping, err := c.GetMapper().MapTable(cmd.Context(), table)
	if err != nil {
		if errors.Is(err, parsererror.ErrMissingEssentialColumns) && c.GetAIClient() == nil {
			return fmt.Errorf("%w (set ai.enabled to infer unrecognised headers)", err)
		}
		return err
	}

	out := cmd.OutOrStdout()
	for _, role := range columnmap.Roles {
		if !mapping.Has(role) {
			continue
		}
		line := fmt.Sprintf("%-9s %s", role, mapping.Header(role))
		if mapping.Inferred(role) {
			line += " (inferred)"
		}
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}
