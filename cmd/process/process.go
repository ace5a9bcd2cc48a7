// Package process runs the ingestion pipeline over statement files.
package process

import (
	"fmt"

	"fjacquet/stmt-ingest/cmd/root"
	"fjacquet/stmt-ingest/internal/container"
	"fjacquet/stmt-ingest/internal/fileutils"
	"fjacquet/stmt-ingest/internal/logging"
	"fjacquet/stmt-ingest/internal/report"
	"fjacquet/stmt-ingest/internal/store"

	"github.com/spf13/cobra"
)

var (
	reportFormat string
	dryRun       bool
)

// Cmd represents the process command
var Cmd = &cobra.Command{
	Use:   "process <file|dir|gs://bucket/object>...",
	Short: "Ingest statement files into categorized transactions",
	Long: `Ingest one or more delimited statement files. Directories are expanded
to the .csv files they contain. Files whose essential columns cannot be
found are reported and skipped; the others are categorized, deduplicated
and stored with the configured backend.`,
	Args: cobra.MinimumNArgs(1),
	RunE: processFunc,
}

func init() {
	Cmd.Flags().StringVarP(&reportFormat, "report", "r", "", "Print a run report (text, json or yaml)")
	Cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run the pipeline without storing anything")
}

func processFunc(cmd *cobra.Command, args []string) error {
	files, err := fileutils.ExpandInputs(args, ".csv")
	if err != nil {
		return err
	}

	format := reportFormat
	if format == "" && root.Cfg.Pipeline.Report {
		format = report.FormatText
	}

	var opts []container.Option
	if dryRun {
		opts = append(opts, container.WithBackend(store.NewMemoryStore()))
	}
	c, err := root.NewContainer(cmd.Context(), opts...)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	log := c.GetLogger()
	log.Info("Processing files", logging.F(logging.FieldCount, len(files)))

	r, runErr := c.GetPipeline().Run(cmd.Context(), files)
	if r != nil {
		for _, fe := range r.FileErrors {
			log.Warn("File skipped",
				logging.F(logging.FieldFile, fe.Path),
				logging.F(logging.FieldError, fe.Error))
		}
		if format != "" {
			out, err := report.NewGenerator(log).Render(r, format)
			if err != nil {
				return err
			}
			if _, err := cmd.OutOrStdout().Write(out); err != nil {
				return err
			}
		}
	}
	if runErr != nil {
		return fmt.Errorf("processing failed: %w", runErr)
	}

	if dryRun {
		if mem, ok := c.GetStore().(*store.MemoryStore); ok {
			held := mem.Transactions()
			for _, tx := range held {
				log.Debug("Would store transaction",
					logging.F("date", tx.Date),
					logging.F(logging.FieldMerchant, tx.Description),
					logging.F("amount", tx.Amount.StringFixed(2)),
					logging.F(logging.FieldCategory, tx.Category))
			}
			log.Info("Dry run, nothing stored", logging.F(logging.FieldCount, len(held)))
		}
	}

	log.Info("Processing complete",
		logging.F("persisted", r.Persisted),
		logging.F("already_present", r.AlreadyPresent))
	return nil
}
