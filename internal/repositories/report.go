package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/ibup/internal/models"
)

// RunSummary is one row of the run history.
type RunSummary struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Roots      []string  `json:"roots"`
	Uploaded   int       `json:"uploaded"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
}

// ReportRepository appends upload runs to a report database and reads them back for the history command.
//
// The uploader itself never reads from it.
type ReportRepository struct {
	db *sql.DB
}

// NewReportRepository creates a new ReportRepository with the given database connection
func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// SaveRun inserts the run and every per-file result in a single transaction.
func (r *ReportRepository) SaveRun(run *models.Run) error {
	if run.ID == "" {
		return fmt.Errorf("validation failed: run id is required")
	}

	roots, err := encodeJSON(run.Roots, len(run.Roots) == 0)
	if err != nil {
		return fmt.Errorf("failed to encode roots: %w", err)
	}
	tags, err := encodeJSON(run.Tags, len(run.Tags) == 0)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}
	playlists, err := encodeJSON(run.Playlists, len(run.Playlists) == 0)
	if err != nil {
		return fmt.Errorf("failed to encode playlists: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO runs (
			id, started_at, finished_at, roots, tags, playlists,
			skip_duplicates, parallel, uploaded, skipped, failed
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.Exec(query,
		run.ID,
		run.StartedAt,
		run.FinishedAt,
		roots,
		tags,
		playlists,
		run.SkipDuplicates,
		run.Parallel,
		len(run.Uploaded),
		len(run.Skipped),
		len(run.Errors),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO results (run_id, path, outcome, stage, track_id, fingerprint, summary, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare result insert: %w", err)
	}
	defer stmt.Close()

	for _, res := range run.Results() {
		detail, err := encodeJSON(res.Detail, len(res.Detail) == 0)
		if err != nil {
			return fmt.Errorf("failed to encode detail of %s: %w", res.Path, err)
		}

		var trackID any
		if res.TrackID != 0 {
			trackID = res.TrackID
		}

		if _, err := stmt.Exec(run.ID, res.Path, res.Outcome.String(), res.Stage.String(),
			trackID, res.Fingerprint, res.Summary, detail); err != nil {
			return fmt.Errorf("failed to insert result %s: %w", res.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// GetRun retrieves a run with its results placed back into their outcome buckets.
func (r *ReportRepository) GetRun(id string) (*models.Run, error) {
	query := `
		SELECT id, started_at, finished_at, roots, tags, playlists, skip_duplicates, parallel
		FROM runs
		WHERE id = ?
	`

	var (
		run                      models.Run
		roots, tags, playlists   string
		skipDuplicates, parallel bool
	)
	err := r.db.QueryRow(query, id).Scan(
		&run.ID, &run.StartedAt, &run.FinishedAt, &roots, &tags, &playlists, &skipDuplicates, &parallel,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	run.SkipDuplicates, run.Parallel = skipDuplicates, parallel

	if run.Roots, err = decodeJSON[[]string](roots); err != nil {
		return nil, fmt.Errorf("failed to decode roots: %w", err)
	}
	if run.Tags, err = decodeJSON[[]string](tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	if run.Playlists, err = decodeJSON[[]string](playlists); err != nil {
		return nil, fmt.Errorf("failed to decode playlists: %w", err)
	}

	results, err := r.ListResults(id)
	if err != nil {
		return nil, err
	}
	for _, res := range results {
		switch res.Outcome {
		case models.Uploaded:
			run.Uploaded = append(run.Uploaded, res)
		case models.Skipped:
			run.Skipped = append(run.Skipped, res)
		default:
			run.Errors = append(run.Errors, res)
		}
	}

	return &run, nil
}

// ListRuns returns the recorded runs, newest first.
func (r *ReportRepository) ListRuns() ([]RunSummary, error) {
	query := `
		SELECT id, started_at, finished_at, roots, uploaded, skipped, failed
		FROM runs
		ORDER BY started_at DESC, id
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var (
			s     RunSummary
			roots string
		)
		if err := rows.Scan(&s.ID, &s.StartedAt, &s.FinishedAt, &roots, &s.Uploaded, &s.Skipped, &s.Failed); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if s.Roots, err = decodeJSON[[]string](roots); err != nil {
			return nil, fmt.Errorf("failed to decode roots: %w", err)
		}
		runs = append(runs, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// ListResults returns the results of a run ordered by path.
func (r *ReportRepository) ListResults(runID string) ([]models.Result, error) {
	query := `
		SELECT path, outcome, stage, track_id, fingerprint, summary, detail
		FROM results
		WHERE run_id = ?
		ORDER BY path
	`

	rows, err := r.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var results []models.Result
	for rows.Next() {
		res, err := r.scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating results: %w", err)
	}

	return results, nil
}

// DeleteRun removes a run and, through the foreign key, its results.
func (r *ReportRepository) DeleteRun(id string) error {
	result, err := r.db.Exec("DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// scanResult scans a row from [sql.Rows] into a [models.Result]
func (r *ReportRepository) scanResult(rows *sql.Rows) (models.Result, error) {
	var (
		res            models.Result
		outcome, stage string
		trackID        sql.NullInt64
		detail         string
	)

	if err := rows.Scan(&res.Path, &outcome, &stage, &trackID, &res.Fingerprint, &res.Summary, &detail); err != nil {
		return res, fmt.Errorf("failed to scan result: %w", err)
	}

	var ok bool
	if res.Outcome, ok = outcomes[outcome]; !ok {
		return res, fmt.Errorf("unknown outcome %q for %s", outcome, res.Path)
	}
	if res.Stage, ok = stages[stage]; !ok {
		return res, fmt.Errorf("unknown stage %q for %s", stage, res.Path)
	}
	if trackID.Valid {
		res.TrackID = trackID.Int64
	}

	d, err := decodeJSON[map[string]string](detail)
	if err != nil {
		return res, fmt.Errorf("failed to decode detail of %s: %w", res.Path, err)
	}
	res.Detail = d

	return res, nil
}
