// Package repositories implements SQLite persistence for run reports.
//
// A report database is an output artifact: each upload run appends one row to runs and one row per
// file to results. The history command reads it back. Schema versions are applied by
// [shared.OpenReportDatabase] from the embedded migrations.
//
// Key Implementations:
//   - [ReportRepository] : run and result persistence, history listing
//
// List columns (roots, tags, playlists) and result diagnostics are stored as JSON text.
package repositories
