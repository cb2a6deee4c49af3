package tasks

import (
	"fmt"

	"github.com/desertthunder/ibup/internal/models"
)

// ProgressUpdate represents a progress event during a run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data, [FileProgress] for [UploadFiles]
}

// updatesPerFile is the most updates one file produces: uploading, uploaded,
// tagging, playlist appending and its result.
const updatesPerFile = 5

// ProgressCapacity returns a buffer size that holds every update of a run over
// files with the given number of tag and playlist names, so a full run never
// drops an update even when nothing reads the channel until the end.
func ProgressCapacity(files, tags, playlists int) int {
	return updatesPerFile*files + tags + playlists + 2
}

// FileProgress is the per-file payload of [UploadFiles] updates.
type FileProgress struct {
	Path    string
	Stage   models.Stage
	TrackID int64
	Result  *models.Result // set once the file reached a terminal state
}

// Operation phase enumeration
type Phase int

const (
	FetchLibrary Phase = iota
	ResolveMetadata
	FetchFingerprints
	UploadFiles
)

func (p Phase) String() string {
	switch p {
	case FetchLibrary:
		return "fetch_library"
	case ResolveMetadata:
		return "resolve_metadata"
	case FetchFingerprints:
		return "fetch_fingerprints"
	case UploadFiles:
		return "upload_files"
	default:
		return ""
	}
}

func fetchLibraryUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchLibrary,
		Step:    1,
		Total:   1,
		Message: "Fetching library...",
	}
}

func createUpdate(kind, name string, step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveMetadata,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Creating %s %q...", kind, name),
	}
}

func fetchFingerprintsUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchFingerprints,
		Step:    1,
		Total:   1,
		Message: "Fetching fingerprints of the remote library...",
	}
}

func uploadingUpdate(step, total int, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadFiles,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Uploading %s...", path),
		Data:    FileProgress{Path: path, Stage: models.StageUploading},
	}
}

func stageUpdate(step, total int, path string, stage models.Stage, trackID int64) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadFiles,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("%s (%d): %s", path, trackID, stage),
		Data:    FileProgress{Path: path, Stage: stage, TrackID: trackID},
	}
}

func resultUpdate(step, total int, r models.Result) ProgressUpdate {
	var msg string
	switch r.Outcome {
	case models.Uploaded:
		msg = fmt.Sprintf("Finished %s (%d)", r.Path, r.TrackID)
	case models.Skipped:
		msg = fmt.Sprintf("Skipped %s", r.Path)
	default:
		msg = fmt.Sprintf("Failed %s: %s", r.Path, r.Summary)
	}

	return ProgressUpdate{
		Phase:   UploadFiles,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    FileProgress{Path: r.Path, Stage: r.Stage, TrackID: r.TrackID, Result: &r},
	}
}
