package formatter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/desertthunder/ibup/internal/models"
	"github.com/desertthunder/ibup/internal/ui"
)

// Summary writes the end-of-run console report.
//
// Debug adds each failure's diagnostics. Color renders section headings with the ui palette.
type Summary struct {
	Debug bool
	Color bool
}

// Write prints skipped files, failed files and the totals of run to w.
// "Total skipped" is only printed when duplicates were skipped, "Total failed" only when something failed.
func (s Summary) Write(w io.Writer, run *models.Run) error {
	var b strings.Builder

	if len(run.Skipped) > 0 {
		fmt.Fprintf(&b, "\n%s\n", s.heading("Skipped tracks:", ui.Warn))
		for _, r := range sorted(run.Skipped) {
			fmt.Fprintf(&b, "- %s\n", r.Path)
		}
	}

	if len(run.Errors) > 0 {
		fmt.Fprintf(&b, "\n%s\n", s.heading("Failed to upload:", ui.Err))
		for _, r := range sorted(run.Errors) {
			fmt.Fprintf(&b, "- %s\n", r.Path)
			fmt.Fprintf(&b, "  Error: %s\n", r.Summary)
			if s.Debug {
				fmt.Fprintf(&b, "  Debug info: %s\n", FormatDetail(r))
			}
		}
	}

	fmt.Fprintf(&b, "\nTotal uploaded: %d\n", len(run.Uploaded))
	if run.SkipDuplicates {
		fmt.Fprintf(&b, "Total skipped: %d\n", len(run.Skipped))
	}
	if len(run.Errors) > 0 {
		fmt.Fprintf(&b, "Total failed: %d\n", len(run.Errors))
	}
	fmt.Fprintf(&b, "Total time: %d seconds\n", Seconds(run.Duration()))

	_, err := io.WriteString(w, b.String())
	return err
}

func (s Summary) heading(text string, style func(string) string) string {
	if s.Color {
		return style(text)
	}
	return text
}

// UploadingLine is the progress line printed when a file starts uploading.
func UploadingLine(at time.Time, path string) string {
	return fmt.Sprintf("[%d] Uploading %s...", at.Unix(), path)
}

// FinishedLine is the progress line printed when a file went through every step.
func FinishedLine(at time.Time, path string, trackID int64) string {
	return fmt.Sprintf("[%d] Finished %s (%d)", at.Unix(), path, trackID)
}
