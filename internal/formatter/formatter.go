// package formatter renders upload runs: the console summary and report files (JSON, CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/ibup/internal/models"
	"github.com/desertthunder/ibup/internal/shared"
)

// Format is a report output format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
	FormatSQLite   Format = "sqlite"
)

// ParseFormat maps a user-supplied name to a [Format]. "md" and "text" are accepted as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	case "sqlite", "sqlite3", "db":
		return FormatSQLite, nil
	default:
		return "", fmt.Errorf("%w: unknown report format %q", shared.ErrInvalidArgument, s)
	}
}

type runReport struct {
	ID             string         `json:"id"`
	StartedAt      time.Time      `json:"started_at"`
	FinishedAt     time.Time      `json:"finished_at"`
	Seconds        int64          `json:"seconds"`
	Roots          []string       `json:"roots"`
	Tags           []string       `json:"tags"`
	Playlists      []string       `json:"playlists"`
	SkipDuplicates bool           `json:"skip_duplicates"`
	Parallel       bool           `json:"parallel"`
	Totals         map[string]int `json:"totals"`
	Results        []resultReport `json:"results"`
}

type resultReport struct {
	Path        string            `json:"path"`
	Outcome     string            `json:"outcome"`
	Stage       string            `json:"stage"`
	TrackID     int64             `json:"track_id,omitempty"`
	Fingerprint string            `json:"fingerprint,omitempty"`
	Summary     string            `json:"summary,omitempty"`
	Detail      map[string]string `json:"detail,omitempty"`
}

func newRunReport(run *models.Run) runReport {
	report := runReport{
		ID:             run.ID,
		StartedAt:      run.StartedAt,
		FinishedAt:     run.FinishedAt,
		Seconds:        Seconds(run.Duration()),
		Roots:          nonNil(run.Roots),
		Tags:           nonNil(run.Tags),
		Playlists:      nonNil(run.Playlists),
		SkipDuplicates: run.SkipDuplicates,
		Parallel:       run.Parallel,
		Totals: map[string]int{
			models.Uploaded.String(): len(run.Uploaded),
			models.Skipped.String():  len(run.Skipped),
			models.Failed.String():   len(run.Errors),
		},
		Results: []resultReport{},
	}

	for _, r := range run.Results() {
		report.Results = append(report.Results, resultReport{
			Path:        r.Path,
			Outcome:     r.Outcome.String(),
			Stage:       r.Stage.String(),
			TrackID:     r.TrackID,
			Fingerprint: r.Fingerprint,
			Summary:     r.Summary,
			Detail:      r.Detail,
		})
	}
	return report
}

// ExportToJSON encodes the run with its options, totals and per-file results.
func ExportToJSON(run *models.Run) ([]byte, error) {
	data, err := shared.MarshalJSON(newRunReport(run), true)
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON report: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToCSV writes one row per file with columns: Path, Outcome, Stage, Track ID, Fingerprint, Summary, Detail
func ExportToCSV(run *models.Run) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Path", "Outcome", "Stage", "Track ID", "Fingerprint", "Summary", "Detail"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, r := range run.Results() {
		trackID := ""
		if r.TrackID != 0 {
			trackID = strconv.FormatInt(r.TrackID, 10)
		}
		record := []string{
			r.Path,
			r.Outcome.String(),
			r.Stage.String(),
			trackID,
			r.Fingerprint,
			r.Summary,
			FormatDetail(r),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders the run as a Markdown document with one section per outcome.
func ExportToMarkdown(run *models.Run) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# Upload run %s\n\n", run.ID)
	fmt.Fprintf(&buf, "**Started**: %s\n", run.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&buf, "**Duration**: %d seconds\n", Seconds(run.Duration()))
	fmt.Fprintf(&buf, "**Directories**: %s\n", joinOr(run.Roots, "-"))
	if len(run.Tags) > 0 {
		fmt.Fprintf(&buf, "**Tags**: %s\n", strings.Join(run.Tags, ", "))
	}
	if len(run.Playlists) > 0 {
		fmt.Fprintf(&buf, "**Playlists**: %s\n", strings.Join(run.Playlists, ", "))
	}
	fmt.Fprintf(&buf, "**Totals**: %d uploaded, %d skipped, %d failed\n",
		len(run.Uploaded), len(run.Skipped), len(run.Errors))

	if len(run.Uploaded) > 0 {
		buf.WriteString("\n## Uploaded\n\n")
		for i, r := range sorted(run.Uploaded) {
			fmt.Fprintf(&buf, "%d. `%s` (%d)\n", i+1, r.Path, r.TrackID)
		}
	}

	if len(run.Skipped) > 0 {
		buf.WriteString("\n## Skipped\n\n")
		for i, r := range sorted(run.Skipped) {
			fmt.Fprintf(&buf, "%d. `%s`\n", i+1, r.Path)
		}
	}

	if len(run.Errors) > 0 {
		buf.WriteString("\n## Failed\n\n")
		for i, r := range sorted(run.Errors) {
			fmt.Fprintf(&buf, "%d. `%s`: %s (%s)\n", i+1, r.Path, r.Summary, r.Stage)
		}
	}

	return buf.Bytes(), nil
}

// ExportToText renders the run as plain text.
func ExportToText(run *models.Run) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Run: %s\n", run.ID)
	fmt.Fprintf(&buf, "Started: %s\n", run.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&buf, "Directories: %s\n\n", joinOr(run.Roots, "-"))

	for _, r := range run.Results() {
		switch r.Outcome {
		case models.Uploaded:
			fmt.Fprintf(&buf, "uploaded  %s (%d)\n", r.Path, r.TrackID)
		case models.Skipped:
			fmt.Fprintf(&buf, "skipped   %s\n", r.Path)
		default:
			fmt.Fprintf(&buf, "failed    %s: %s\n", r.Path, r.Summary)
		}
	}

	fmt.Fprintf(&buf, "\nUploaded: %d, Skipped: %d, Failed: %d, Time: %d seconds\n",
		len(run.Uploaded), len(run.Skipped), len(run.Errors), Seconds(run.Duration()))

	return buf.Bytes(), nil
}

// Export renders run in format. [FormatSQLite] is not a file format and is rejected.
func Export(run *models.Run, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return ExportToJSON(run)
	case FormatCSV:
		return ExportToCSV(run)
	case FormatMarkdown:
		return ExportToMarkdown(run)
	case FormatText:
		return ExportToText(run)
	default:
		return nil, fmt.Errorf("%w: %q is not a file report format", shared.ErrInvalidArgument, format)
	}
}

// WriteReport renders run in format and writes it to path, creating parent directories.
func WriteReport(run *models.Run, path string, format Format) error {
	if path == "" {
		return fmt.Errorf("%w: report path", shared.ErrMissingArgument)
	}

	data, err := Export(run, format)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// FormatDetail flattens a result's diagnostics to "key=value" pairs in key order.
func FormatDetail(r models.Result) string {
	pairs := make([]string, 0, len(r.Detail))
	for _, k := range r.DetailKeys() {
		pairs = append(pairs, fmt.Sprintf("%s=%s", k, r.Detail[k]))
	}
	return strings.Join(pairs, ", ")
}

// Seconds truncates d to whole seconds.
func Seconds(d time.Duration) int64 {
	return int64(d / time.Second)
}

func sorted(results []models.Result) []models.Result {
	out := append([]models.Result(nil), results...)
	models.SortByPath(out)
	return out
}

func joinOr(values []string, empty string) string {
	if len(values) == 0 {
		return empty
	}
	return strings.Join(values, ", ")
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
