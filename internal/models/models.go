// package models defines the data model for an upload run
package models

import (
	"sort"
	"time"
)

// Extensions is the set of supported file extensions, including the leading dot (".mp3").
type Extensions map[string]struct{}

// NewExtensions builds an [Extensions] set from a list.
func NewExtensions(exts ...string) Extensions {
	set := make(Extensions, len(exts))
	for _, ext := range exts {
		set[ext] = struct{}{}
	}
	return set
}

// Has reports whether ext is in the set. Matching is exact and case-sensitive.
func (e Extensions) Has(ext string) bool {
	_, ok := e[ext]
	return ok
}

// Sorted returns the extensions in lexicographic order.
func (e Extensions) Sorted() []string {
	return sortedKeys(e)
}

// FingerprintSet holds the content hashes the remote library already knows.
type FingerprintSet map[string]struct{}

// NewFingerprintSet builds a [FingerprintSet] from a list of hex digests.
func NewFingerprintSet(hashes ...string) FingerprintSet {
	set := make(FingerprintSet, len(hashes))
	for _, h := range hashes {
		set[h] = struct{}{}
	}
	return set
}

// Contains reports whether hash is already present remotely.
func (f FingerprintSet) Contains(hash string) bool {
	_, ok := f[hash]
	return ok
}

// Outcome is the bucket a file's result lands in.
type Outcome int

const (
	Uploaded Outcome = iota
	Skipped
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Uploaded:
		return "uploaded"
	case Skipped:
		return "skipped"
	case Failed:
		return "error"
	default:
		return ""
	}
}

// Stage is a step of the per-file pipeline.
//
//	Discovered → {Skipped | Uploading → Uploaded → Tagging → PlaylistAppending → Done} | Errored
type Stage int

const (
	StageDiscovered Stage = iota
	StageFingerprint
	StageSkipped
	StageUploading
	StageUploaded
	StageTagging
	StagePlaylistAppending
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageDiscovered:
		return "discovered"
	case StageFingerprint:
		return "fingerprint"
	case StageSkipped:
		return "skipped"
	case StageUploading:
		return "uploading"
	case StageUploaded:
		return "uploaded"
	case StageTagging:
		return "tagging"
	case StagePlaylistAppending:
		return "playlist_appending"
	case StageDone:
		return "done"
	default:
		return ""
	}
}

// Result is the terminal state of a single file.
//
// For [Failed] results, Stage is where the pipeline stopped, Summary is the
// human-readable reason and Detail carries raw diagnostics (server responses,
// the id extraction pattern, the tag or playlist involved).
type Result struct {
	Path        string
	Outcome     Outcome
	Stage       Stage
	TrackID     int64
	Fingerprint string
	Summary     string
	Err         error
	Detail      map[string]string
}

// UploadedResult builds the result for a file that went through every step.
func UploadedResult(path string, trackID int64) Result {
	return Result{Path: path, Outcome: Uploaded, Stage: StageDone, TrackID: trackID}
}

// SkippedResult builds the result for a file whose content is already in the remote library.
func SkippedResult(path, fingerprint string) Result {
	return Result{Path: path, Outcome: Skipped, Stage: StageSkipped, Fingerprint: fingerprint}
}

// FailedResult builds the result for a file that stopped at stage.
// The track id is kept when the upload itself went through.
func FailedResult(path string, stage Stage, trackID int64, summary string, err error, detail map[string]string) Result {
	if detail == nil {
		detail = map[string]string{}
	}
	if err != nil {
		detail["message"] = err.Error()
	}
	return Result{
		Path:    path,
		Outcome: Failed,
		Stage:   stage,
		TrackID: trackID,
		Summary: summary,
		Err:     err,
		Detail:  detail,
	}
}

// DetailKeys returns the keys of Detail in sorted order.
func (r Result) DetailKeys() []string {
	return sortedKeys(r.Detail)
}

// Run is one orchestration run, as written to reports.
type Run struct {
	ID             string
	StartedAt      time.Time
	FinishedAt     time.Time
	Roots          []string
	Tags           []string
	Playlists      []string
	SkipDuplicates bool
	Parallel       bool
	Uploaded       []Result
	Skipped        []Result
	Errors         []Result
}

// Duration is the wall time of the run.
func (r *Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Results returns every result of the run sorted by path.
func (r *Run) Results() []Result {
	all := make([]Result, 0, len(r.Uploaded)+len(r.Skipped)+len(r.Errors))
	all = append(all, r.Uploaded...)
	all = append(all, r.Skipped...)
	all = append(all, r.Errors...)
	SortByPath(all)
	return all
}

// SortByPath orders results lexicographically by path.
func SortByPath(results []Result) {
	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
