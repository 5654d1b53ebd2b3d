// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/slashwrite/internal/history"
	"github.com/jeranaias/slashwrite/internal/util"
)

// previewWidth bounds source and proposed text in the listing.
const previewWidth = 40

func (a *app) newHistoryCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent suggestion outcomes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return &ValidationError{Field: "limit", Value: fmt.Sprint(limit), Reason: "must not be negative"}
			}
			path, err := a.cfg.HistoryPath()
			if err != nil {
				return err
			}
			journal, err := history.Open(path, history.WithLogger(a.logger))
			if err != nil {
				return NewCommandError("history", "open", "could not open journal", err)
			}
			defer journal.Close()

			ctx := cmd.Context()
			entries, err := journal.Recent(ctx, limit)
			if err != nil {
				return err
			}
			counts, err := journal.Counts(ctx)
			if err != nil {
				return err
			}

			data := HistoryData{
				Entries: make([]HistoryEntryData, 0, len(entries)),
				Counts:  make(map[string]int, len(counts)),
				Path:    path,
			}
			for outcome, n := range counts {
				data.Counts[string(outcome)] = n
			}
			for _, e := range entries {
				data.Entries = append(data.Entries, HistoryEntryData{
					ID:        e.ID,
					RequestID: e.RequestID,
					Surface:   e.SurfaceID,
					Kind:      string(e.Kind),
					Outcome:   string(e.Outcome),
					Source:    e.Source,
					Proposed:  e.Proposed,
					CreatedAt: e.CreatedAt.Format(time.RFC3339),
				})
			}
			return a.respond("history", data, func(w io.Writer) error {
				return printHistory(w, data)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", history.DefaultLimit, "Number of entries to show")
	return cmd
}

func printHistory(w io.Writer, data HistoryData) error {
	if len(data.Entries) == 0 {
		_, err := fmt.Fprintln(w, DimStyle.Render("no suggestions recorded yet"))
		return err
	}

	for _, e := range data.Entries {
		created, _ := time.Parse(time.RFC3339, e.CreatedAt)
		fmt.Fprintf(w, "%s %-12s %-9s %s\n",
			DimStyle.Render(created.Local().Format("2006-01-02 15:04")),
			RenderOutcome(e.Outcome),
			e.Kind,
			ValueStyle.Render(util.Preview(e.Source, previewWidth)+" -> "+util.Preview(e.Proposed, previewWidth)),
		)
	}

	outcomes := make([]string, 0, len(data.Counts))
	for outcome := range data.Counts {
		outcomes = append(outcomes, outcome)
	}
	sort.Strings(outcomes)
	fmt.Fprintln(w)
	for _, outcome := range outcomes {
		fmt.Fprintf(w, "%s%d\n", RenderLabel(outcome), data.Counts[outcome])
	}
	return nil
}
