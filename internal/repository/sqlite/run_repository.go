package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"skyline-detector/internal/pipeline"
)

// RunSummary is one stored batch run.
type RunSummary struct {
	ID          int64
	StartedAt   time.Time
	FinishedAt  time.Time
	TotalImages int
	Successes   int
	Cancelled   bool
}

type RunRepository struct {
	db *DB
}

func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

// SaveRun stores a report with its folders and images in one transaction.
func (r *RunRepository) SaveRun(report pipeline.Report) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO runs (started_at, finished_at, total_images, successes, cancelled)
		VALUES (?, ?, ?, ?, ?)
	`, report.StartedAt, report.FinishedAt, report.TotalImages(), report.TotalSuccesses(), report.Cancelled)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	folderStmt, err := tx.Prepare(`
		INSERT INTO folder_results (run_id, folder, total, successes, night, success_rate, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer folderStmt.Close()

	imageStmt, err := tx.Prepare(`
		INSERT INTO image_results (run_id, folder, image, night, accuracy, iou, dice, success, output_path, duration_ms, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer imageStmt.Close()

	for _, f := range report.Folders {
		if _, err := folderStmt.Exec(runID, f.Name, f.Total, f.Successes, f.Night, f.SuccessRate(), nullableError(f.Err)); err != nil {
			return 0, fmt.Errorf("failed to insert folder result: %w", err)
		}
		for _, img := range f.Results {
			if _, err := imageStmt.Exec(
				runID, f.Name, img.Image, img.Night,
				img.Metrics.Accuracy, img.Metrics.IoU, img.Metrics.Dice,
				img.Success, img.OutputPath, img.Duration.Milliseconds(), nullableError(img.Err),
			); err != nil {
				return 0, fmt.Errorf("failed to insert image result: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// ListRuns returns the most recent runs first.
func (r *RunRepository) ListRuns(limit int) ([]RunSummary, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, started_at, finished_at, total_images, successes, cancelled
		FROM runs ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var run RunSummary
		if err := rows.Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.TotalImages, &run.Successes, &run.Cancelled); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// FolderRates returns the stored success rate per folder of one run.
func (r *RunRepository) FolderRates(runID int64) (map[string]float64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	rows, err := r.db.Conn().Query(`SELECT folder, success_rate FROM folder_results WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query folder results: %w", err)
	}
	defer rows.Close()

	rates := make(map[string]float64)
	for rows.Next() {
		var folder string
		var rate float64
		if err := rows.Scan(&folder, &rate); err != nil {
			return nil, fmt.Errorf("failed to scan folder result: %w", err)
		}
		rates[folder] = rate
	}
	return rates, rows.Err()
}

// ImageCount returns how many image results a run stored.
func (r *RunRepository) ImageCount(runID int64) (int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var n int
	err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM image_results WHERE run_id = ?`, runID).Scan(&n)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return n, err
}

func nullableError(err error) sql.NullString {
	if err == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: err.Error(), Valid: true}
}
