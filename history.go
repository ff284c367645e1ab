package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jkoski/dropship-go/internal/transfer"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent uploads from the local transfer ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of transfers to show")

	return cmd
}

func runHistory(cmd *cobra.Command, limit int) error {
	logger := buildLogger()
	ctx := cmd.Context()

	history, err := transfer.OpenHistory(ctx, cfg.HistoryPath, logger)
	if err != nil {
		return err
	}
	defer history.Close()

	records, err := history.List(ctx, limit)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No transfers recorded yet.")
		return nil
	}

	for _, rec := range records {
		line := fmt.Sprintf("%s  %9s  %s",
			rec.UploadedAt.Local().Format("2006-01-02 15:04"),
			humanize.Bytes(uint64(rec.Size)),
			rec.DropboxPath,
		)

		if rec.URL != "" {
			line += "  " + rec.URL
		}

		fmt.Fprintln(cmd.OutOrStdout(), line)
	}

	return nil
}
