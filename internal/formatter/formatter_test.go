package formatter

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/ibup/internal/models"
	"github.com/desertthunder/ibup/internal/shared"
	tu "github.com/desertthunder/ibup/internal/testing"
)

func sampleRun() *models.Run {
	started := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	return &models.Run{
		ID:             "run-1",
		StartedAt:      started,
		FinishedAt:     started.Add(2700 * time.Millisecond),
		Roots:          []string{"/music"},
		Tags:           []string{"fresh"},
		Playlists:      []string{"Inbox"},
		SkipDuplicates: true,
		Parallel:       true,
		Uploaded:       []models.Result{models.UploadedResult("/music/a.mp3", 1001)},
		Skipped: []models.Result{
			models.SkippedResult("/music/c.mp3", "ccc"),
			models.SkippedResult("/music/b.mp3", "bbb"),
		},
		Errors: []models.Result{
			models.FailedResult("/music/d.mp3", models.StageUploading, 0, "File upload failed.", nil, map[string]string{"status": "503"}),
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"json", FormatJSON},
		{"", FormatJSON},
		{"CSV", FormatCSV},
		{"md", FormatMarkdown},
		{"markdown", FormatMarkdown},
		{"text", FormatText},
		{"txt", FormatText},
		{" sqlite ", FormatSQLite},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if err != nil {
			t.Errorf("ParseFormat(%q) returned error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if _, err := ParseFormat("yaml"); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(sampleRun())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var report struct {
			ID      string         `json:"id"`
			Seconds int64          `json:"seconds"`
			Totals  map[string]int `json:"totals"`
			Results []struct {
				Path    string            `json:"path"`
				Outcome string            `json:"outcome"`
				TrackID int64             `json:"track_id"`
				Detail  map[string]string `json:"detail"`
			} `json:"results"`
		}
		if err := json.Unmarshal(data, &report); err != nil {
			t.Fatalf("report is not valid JSON: %v", err)
		}

		if report.ID != "run-1" || report.Seconds != 2 {
			t.Errorf("unexpected header %+v", report)
		}
		if report.Totals["uploaded"] != 1 || report.Totals["skipped"] != 2 || report.Totals["error"] != 1 {
			t.Errorf("unexpected totals %v", report.Totals)
		}
		if len(report.Results) != 4 {
			t.Fatalf("expected 4 results, got %d", len(report.Results))
		}
		if report.Results[0].Path != "/music/a.mp3" || report.Results[0].TrackID != 1001 {
			t.Errorf("expected results sorted by path, got %+v", report.Results[0])
		}
		if report.Results[3].Outcome != "error" || report.Results[3].Detail["status"] != "503" {
			t.Errorf("unexpected failure %+v", report.Results[3])
		}
	})

	t.Run("ExportToJSON Empty Run", func(t *testing.T) {
		data, err := ExportToJSON(&models.Run{ID: "empty"})
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}
		if !strings.Contains(string(data), `"results": []`) || !strings.Contains(string(data), `"roots": []`) {
			t.Errorf("expected empty arrays, got %s", data)
		}
	})

	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleRun())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("report is not valid CSV: %v", err)
		}
		if len(records) != 5 {
			t.Fatalf("expected header and 4 rows, got %d", len(records))
		}
		if strings.Join(records[0], ",") != "Path,Outcome,Stage,Track ID,Fingerprint,Summary,Detail" {
			t.Errorf("unexpected headers %v", records[0])
		}
		if records[1][0] != "/music/a.mp3" || records[1][3] != "1001" {
			t.Errorf("unexpected first row %v", records[1])
		}
		if records[2][3] != "" || records[2][4] != "bbb" {
			t.Errorf("skipped rows have no track id, got %v", records[2])
		}
		if records[4][5] != "File upload failed." || records[4][6] != "status=503" {
			t.Errorf("unexpected failure row %v", records[4])
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(sampleRun())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Upload run run-1",
			"**Duration**: 2 seconds",
			"**Tags**: fresh",
			"**Playlists**: Inbox",
			"**Totals**: 1 uploaded, 2 skipped, 1 failed",
			"## Uploaded\n\n1. `/music/a.mp3` (1001)",
			"## Skipped\n\n1. `/music/b.mp3`\n2. `/music/c.mp3`",
			"## Failed\n\n1. `/music/d.mp3`: File upload failed. (uploading)",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("ExportToMarkdown Without Metadata", func(t *testing.T) {
		run := sampleRun()
		run.Tags, run.Playlists, run.Errors = nil, nil, nil

		data, _ := ExportToMarkdown(run)
		if strings.Contains(string(data), "**Tags**") || strings.Contains(string(data), "## Failed") {
			t.Errorf("unexpected sections in:\n%s", data)
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(sampleRun())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"Run: run-1\n",
			"uploaded  /music/a.mp3 (1001)\nskipped   /music/b.mp3\nskipped   /music/c.mp3\nfailed    /music/d.mp3: File upload failed.\n",
			"Uploaded: 1, Skipped: 2, Failed: 1, Time: 2 seconds",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("text missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("Export Rejects SQLite", func(t *testing.T) {
		if _, err := Export(sampleRun(), FormatSQLite); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestWriteReport(t *testing.T) {
	t.Run("Creates Parent Directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "reports", "nested", "run.md")
		if err := WriteReport(sampleRun(), path, FormatMarkdown); err != nil {
			t.Fatalf("WriteReport failed: %v", err)
		}

		tu.AssertFileExists(t, path)
		if !strings.HasPrefix(tu.MustReadFile(t, path), "# Upload run run-1") {
			t.Error("expected a Markdown report")
		}
	})

	t.Run("Missing Path", func(t *testing.T) {
		if err := WriteReport(sampleRun(), "", FormatJSON); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Unwritable Path", func(t *testing.T) {
		dir := t.TempDir()
		blocker := tu.MustWriteFile(t, filepath.Join(dir, "file"), "x")

		if err := WriteReport(sampleRun(), filepath.Join(blocker, "run.json"), FormatJSON); err == nil {
			t.Error("expected an error when the parent is a file")
		}
	})
}

func TestSummary(t *testing.T) {
	t.Run("Full Run", func(t *testing.T) {
		var b strings.Builder
		if err := (Summary{}).Write(&b, sampleRun()); err != nil {
			t.Fatalf("Write failed: %v", err)
		}

		want := "\nSkipped tracks:\n- /music/b.mp3\n- /music/c.mp3\n" +
			"\nFailed to upload:\n- /music/d.mp3\n  Error: File upload failed.\n" +
			"\nTotal uploaded: 1\nTotal skipped: 2\nTotal failed: 1\nTotal time: 2 seconds\n"
		if b.String() != want {
			t.Errorf("unexpected summary:\n%q\nwant:\n%q", b.String(), want)
		}
	})

	t.Run("Debug Info", func(t *testing.T) {
		run := sampleRun()
		run.Errors = []models.Result{
			models.FailedResult("/music/d.mp3", models.StageTagging, 1002, "Failed to apply tag.", nil,
				map[string]string{"tag": "fresh", "tag_id": "7"}),
		}

		var b strings.Builder
		(Summary{Debug: true}).Write(&b, run)
		if !strings.Contains(b.String(), "  Error: Failed to apply tag.\n  Debug info: tag=fresh, tag_id=7\n") {
			t.Errorf("expected debug info, got:\n%s", b.String())
		}
	})

	t.Run("Colored Headings", func(t *testing.T) {
		var b strings.Builder
		if err := (Summary{Color: true}).Write(&b, sampleRun()); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		for _, want := range []string{"Skipped tracks:", "Failed to upload:", "Total uploaded: 1\n"} {
			if !strings.Contains(b.String(), want) {
				t.Errorf("expected %q in:\n%s", want, b.String())
			}
		}
	})

	t.Run("Without Dedup Or Failures", func(t *testing.T) {
		run := sampleRun()
		run.SkipDuplicates = false
		run.Skipped, run.Errors = nil, nil

		var b strings.Builder
		(Summary{}).Write(&b, run)

		want := "\nTotal uploaded: 1\nTotal time: 2 seconds\n"
		if b.String() != want {
			t.Errorf("unexpected summary %q", b.String())
		}
	})

	t.Run("Write Error", func(t *testing.T) {
		if err := (Summary{}).Write(&tu.FWriter{}, sampleRun()); err == nil {
			t.Error("expected the writer error")
		}
	})
}

func TestProgressLines(t *testing.T) {
	at := time.Unix(1700000000, 0)

	if got := UploadingLine(at, "/music/a.mp3"); got != "[1700000000] Uploading /music/a.mp3..." {
		t.Errorf("UploadingLine() = %q", got)
	}
	if got := FinishedLine(at, "/music/a.mp3", 1001); got != "[1700000000] Finished /music/a.mp3 (1001)" {
		t.Errorf("FinishedLine() = %q", got)
	}
}
