package sqlite

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"skyline-detector/internal/pipeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	db, err := New(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = os.Stat(dbPath)
	require.NoError(t, err)
	return db
}

func TestNew_MigrationIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.migrate())
}

func TestRunRepository_SaveAndList(t *testing.T) {
	repo := NewRunRepository(newTestDB(t))

	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	report := pipeline.Report{
		StartedAt:  start,
		FinishedAt: start.Add(time.Minute),
		Folders: []pipeline.FolderReport{
			{
				Name: "city", Total: 2, Successes: 1, Night: 1,
				Results: []pipeline.Result{
					{Image: "a.png", Night: true, Metrics: pipeline.MaskMetrics{Accuracy: 97.5, IoU: 0.9, Dice: 0.94}, Success: true, Duration: 40 * time.Millisecond},
					{Image: "b.png", Err: errors.New("decode failed")},
				},
			},
			{Name: "forest", Err: pipeline.ErrGroundTruth},
		},
	}

	id, err := repo.SaveRun(report)
	require.NoError(t, err)
	assert.Positive(t, id)

	second, err := repo.SaveRun(pipeline.Report{StartedAt: start, FinishedAt: start, Cancelled: true})
	require.NoError(t, err)

	runs, err := repo.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second, runs[0].ID)
	assert.True(t, runs[0].Cancelled)
	assert.Equal(t, 2, runs[1].TotalImages)
	assert.Equal(t, 1, runs[1].Successes)

	rates, err := repo.FolderRates(id)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"city": 50, "forest": 0}, rates)

	n, err := repo.ImageCount(id)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
