package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"skyline-detector/internal/config"
	"skyline-detector/internal/repository/sqlite"

	"github.com/spf13/cobra"
)

func newHistoryCommand(opts *options) *cobra.Command {
	var (
		dbPath string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs with their per-folder success rates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runHistory(cmd.OutOrStdout(), opts, dbPath, limit); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "results-db", "", "SQLite database written by earlier runs")
	cmd.Flags().IntVar(&limit, "limit", 10, "number of most recent runs to show")
	return cmd
}

func runHistory(w io.Writer, opts *options, dbPath string, limit int) error {
	if dbPath == "" {
		cfg, err := config.Load(opts.configPath, opts.envFile)
		if err != nil {
			return err
		}
		dbPath = cfg.ResultsDB
	}
	if dbPath == "" {
		return errors.New("no results database: set --results-db, results_db or SKYLINE_RESULTS_DB")
	}
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("results database: %w", err)
	}

	db, err := sqlite.New(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	return printHistory(w, sqlite.NewRunRepository(db), limit)
}

func printHistory(w io.Writer, runs *sqlite.RunRepository, limit int) error {
	list, err := runs.ListRuns(limit)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "no runs recorded")
		return err
	}

	for _, run := range list {
		images, err := runs.ImageCount(run.ID)
		if err != nil {
			return err
		}
		rates, err := runs.FolderRates(run.ID)
		if err != nil {
			return err
		}

		status := ""
		if run.Cancelled {
			status = " (cancelled)"
		}
		fmt.Fprintf(w, "run %d  %s  %s  %d/%d successes, %d images stored%s\n",
			run.ID,
			run.StartedAt.Local().Format(time.DateTime),
			run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond),
			run.Successes, run.TotalImages, images, status)

		folders := make([]string, 0, len(rates))
		for name := range rates {
			folders = append(folders, name)
		}
		sort.Strings(folders)
		for _, name := range folders {
			fmt.Fprintf(w, "  %-24s %6.2f%%\n", name, rates[name])
		}
	}
	return nil
}
