package main

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"skyline-detector/internal/pipeline"
	"skyline-detector/internal/repository/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedRuns(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runs.db")
	db, err := sqlite.New(path)
	require.NoError(t, err)
	defer db.Close()

	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	_, err = sqlite.NewRunRepository(db).SaveRun(pipeline.Report{
		StartedAt:  start,
		FinishedAt: start.Add(2 * time.Second),
		Folders: []pipeline.FolderReport{
			{
				Name: "harbour", Total: 2, Successes: 1,
				Results: []pipeline.Result{
					{Image: "a.png", Success: true, Metrics: pipeline.MaskMetrics{Accuracy: 95}},
					{Image: "b.png", Metrics: pipeline.MaskMetrics{Accuracy: 60}},
				},
			},
		},
	})
	require.NoError(t, err)
	return path
}

func TestHistoryCommand_ListsRuns(t *testing.T) {
	path := seedRuns(t)

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"history", "--results-db", path, "--env-file", ""})
	require.NoError(t, cmd.Execute())

	text := out.String()
	assert.Contains(t, text, "run 1")
	assert.Contains(t, text, "2s")
	assert.Contains(t, text, "1/2 successes, 2 images stored")
	assert.Contains(t, text, "harbour")
	assert.Contains(t, text, "50.00%")
	assert.NotContains(t, text, "cancelled")
}

func TestHistoryCommand_MissingDatabase(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"history", "--results-db", filepath.Join(t.TempDir(), "absent.db"), "--env-file", ""})
	assert.Error(t, cmd.Execute())
}

func TestPrintHistory_Empty(t *testing.T) {
	db, err := sqlite.New(filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	defer db.Close()

	var out bytes.Buffer
	require.NoError(t, printHistory(&out, sqlite.NewRunRepository(db), 5))
	assert.Equal(t, "no runs recorded\n", out.String())
}
