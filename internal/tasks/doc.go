// Package tasks runs an upload against the locker with real-time progress reporting.
//
// # Core Operations
//
//  1. [Resolver.Resolve] : map tag and playlist names to ids
//     - Fetches the catalog once per resolver
//     - Creates each missing name exactly once and caches the new id
//
//  2. [UploadEngine.Run] : upload a set of files
//     - Fetches remote fingerprints once when duplicates are skipped
//     - Skips files whose md5 is already remote without taking a worker slot
//     - Uploads the rest through an [errgroup.Group] limited to [RunOpts.Workers]
//     - Tags and adds each new track to playlists, stopping at the first failure
//
// # Per-file States
//
//	Discovered → {Skipped | Uploading → Uploaded → Tagging → PlaylistAppending → Done} | Errored
//
// Each file ends in exactly one bucket of [RunResult]. Per-file errors never
// abort the batch; only setup failures (the fingerprint fetch, metadata
// resolution) are returned as errors.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking, so a slow reader may miss some.
package tasks
