package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fjacquet/stmt-ingest/cmd/categorize"
	"fjacquet/stmt-ingest/cmd/columns"
	"fjacquet/stmt-ingest/cmd/process"
	"fjacquet/stmt-ingest/cmd/root"
)

func init() {
	root.Init()

	root.Cmd.AddCommand(process.Cmd)
	root.Cmd.AddCommand(columns.Cmd)
	root.Cmd.AddCommand(categorize.Cmd)
}

func main() {
	// Cancel the run between files or batches on Ctrl-C.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.Cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
