// package tasks implements the upload run: metadata resolution and the worker pool that uploads files.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ibup/internal/files"
	"github.com/desertthunder/ibup/internal/models"
	"github.com/desertthunder/ibup/internal/services"
	"github.com/desertthunder/ibup/internal/shared"
	"golang.org/x/sync/errgroup"
)

// UploadClient is the part of [services.Client] the upload engine needs.
type UploadClient interface {
	RemoteFingerprints(ctx context.Context, sess services.Session) (models.FingerprintSet, error)
	UploadFile(ctx context.Context, sess services.Session, path string, content io.Reader) (*services.Response, error)
	TagTracks(ctx context.Context, sess services.Session, tagID services.ID, trackIDs ...int64) (*services.Response, error)
	AppendPlaylist(ctx context.Context, sess services.Session, playlistID services.ID, trackIDs ...int64) (*services.Response, error)
}

// RunOpts configures one upload run.
type RunOpts struct {
	SkipDuplicates bool // fetch remote fingerprints and skip files already uploaded
	Parallel       bool // one worker per CPU instead of a single worker
}

// Workers returns the pool size for the options: [runtime.NumCPU] when parallel, otherwise 1.
func (o RunOpts) Workers() int {
	if o.Parallel {
		return max(runtime.NumCPU(), 1)
	}
	return 1
}

// RunResult contains the three result buckets of a run, each sorted by path.
type RunResult struct {
	Uploaded   []models.Result
	Skipped    []models.Result
	Errors     []models.Result
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration is the wall time spent dispatching and waiting for uploads.
func (r *RunResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Total is the number of files that reached a terminal state.
func (r *RunResult) Total() int {
	return len(r.Uploaded) + len(r.Skipped) + len(r.Errors)
}

// UploadEngine uploads files and applies tags and playlists to each new track.
type UploadEngine struct {
	client UploadClient
	sess   services.Session
	logger *log.Logger
}

// NewUploadEngine creates an engine for sess.
func NewUploadEngine(client UploadClient, sess services.Session, logger *log.Logger) *UploadEngine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &UploadEngine{client: client, sess: sess, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run uploads paths and returns every file's result.
//
// With SkipDuplicates the remote fingerprints are fetched once up front;
// failing to fetch them is the only error Run returns. Files whose content is
// already remote are skipped without taking a worker slot. Everything else
// goes through a pool of [RunOpts.Workers] workers; per-file failures end up
// in the Errors bucket and never stop the batch. Run returns once every
// submitted upload has finished.
func (e *UploadEngine) Run(ctx context.Context, progress chan<- ProgressUpdate, paths []string, meta Metadata, opts RunOpts) (*RunResult, error) {
	var remote models.FingerprintSet
	if opts.SkipDuplicates {
		sendProgress(progress, fetchFingerprintsUpdate())

		set, err := e.client.RemoteFingerprints(ctx, e.sess)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", shared.ErrFingerprintFetch, err)
		}
		remote = set
		e.logger.Debug("remote fingerprints fetched", "count", len(remote))
	}

	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)
	total := len(sorted)

	result := &RunResult{
		Uploaded:  []models.Result{},
		Skipped:   []models.Result{},
		Errors:    []models.Result{},
		StartedAt: time.Now(),
	}

	results := make(chan models.Result, total)

	var g errgroup.Group
	g.SetLimit(opts.Workers())

	go func() {
		for i, path := range sorted {
			if remote != nil {
				fp, err := files.Fingerprint(path)
				if err != nil {
					results <- models.FailedResult(path, models.StageFingerprint, 0, "Unable to read file.", err, nil)
					continue
				}
				if remote.Contains(fp) {
					results <- models.SkippedResult(path, fp)
					continue
				}
			}

			g.Go(func() error {
				results <- e.upload(ctx, progress, i+1, total, path, meta)
				return nil
			})
		}

		g.Wait()
		close(results)
	}()

	done := 0
	for r := range results {
		done++
		switch r.Outcome {
		case models.Uploaded:
			result.Uploaded = append(result.Uploaded, r)
		case models.Skipped:
			result.Skipped = append(result.Skipped, r)
		default:
			result.Errors = append(result.Errors, r)
			e.logger.Debug("upload failed", "path", r.Path, "stage", r.Stage, "error", r.Err)
		}
		sendProgress(progress, resultUpdate(done, total, r))
	}
	result.FinishedAt = time.Now()

	models.SortByPath(result.Uploaded)
	models.SortByPath(result.Skipped)
	models.SortByPath(result.Errors)

	return result, nil
}

// upload runs the whole pipeline for one file and always returns a terminal result.
func (e *UploadEngine) upload(ctx context.Context, progress chan<- ProgressUpdate, step, total int, path string, meta Metadata) models.Result {
	sendProgress(progress, uploadingUpdate(step, total, path))

	f, err := os.Open(path)
	if err != nil {
		return models.FailedResult(path, models.StageUploading, 0, "Unable to read file.", fmt.Errorf("%w: %w", shared.ErrFileRead, err), nil)
	}
	defer f.Close()

	resp, err := e.client.UploadFile(ctx, e.sess, path, f)
	if err != nil {
		return models.FailedResult(path, models.StageUploading, 0, "File upload request error.", err, responseDetail(resp))
	}
	if !resp.OK() {
		return models.FailedResult(path, models.StageUploading, 0, "File upload failed.",
			fmt.Errorf("%w: %s", shared.ErrUploadFailed, resp.Message), responseDetail(resp))
	}

	trackID, err := services.ParseTrackID(resp.Message)
	if err != nil {
		detail := responseDetail(resp)
		detail["regex"] = services.TrackIDPattern.String()
		return models.FailedResult(path, models.StageUploaded, 0, "Unexpected message format. Maybe it's changed?", err, detail)
	}

	sendProgress(progress, stageUpdate(step, total, path, models.StageUploaded, trackID))
	e.logger.Debug("uploaded", "path", path, "track", trackID)

	if len(meta.Tags) > 0 {
		sendProgress(progress, stageUpdate(step, total, path, models.StageTagging, trackID))
	}
	for _, name := range meta.TagNames() {
		id := meta.Tags[name]
		detail := map[string]string{"tag": name, "tag_id": id.String()}

		resp, err := e.client.TagTracks(ctx, e.sess, id, trackID)
		if err != nil {
			return models.FailedResult(path, models.StageTagging, trackID, "Tag track request error.",
				fmt.Errorf("%w: %w", shared.ErrTagFailed, err), mergeDetail(detail, responseDetail(resp)))
		}
		if !resp.OK() {
			return models.FailedResult(path, models.StageTagging, trackID, "Failed to apply tag.",
				fmt.Errorf("%w %q", shared.ErrTagFailed, name), mergeDetail(detail, responseDetail(resp)))
		}
	}

	if len(meta.Playlists) > 0 {
		sendProgress(progress, stageUpdate(step, total, path, models.StagePlaylistAppending, trackID))
	}
	for _, name := range meta.PlaylistNames() {
		id := meta.Playlists[name]
		detail := map[string]string{"playlist": name, "playlist_id": id.String()}

		resp, err := e.client.AppendPlaylist(ctx, e.sess, id, trackID)
		if err != nil {
			return models.FailedResult(path, models.StagePlaylistAppending, trackID, "Add to playlist request error.",
				fmt.Errorf("%w: %w", shared.ErrPlaylistFailed, err), mergeDetail(detail, responseDetail(resp)))
		}
		if !resp.OK() {
			return models.FailedResult(path, models.StagePlaylistAppending, trackID, "Failed to add to playlist.",
				fmt.Errorf("%w %q", shared.ErrPlaylistFailed, name), mergeDetail(detail, responseDetail(resp)))
		}
	}

	return models.UploadedResult(path, trackID)
}

// IsMessageFormat reports whether a result failed because the upload message no longer matches.
func IsMessageFormat(r models.Result) bool {
	return r.Err != nil && errors.Is(r.Err, shared.ErrMessageFormat)
}

func responseDetail(resp *services.Response) map[string]string {
	detail := map[string]string{}
	if resp != nil {
		detail["response"] = resp.String()
		detail["status"] = fmt.Sprint(resp.StatusCode)
	}
	return detail
}

func mergeDetail(dst, src map[string]string) map[string]string {
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
