// Package models defines the values that flow through an upload run.
//
// Sets built once during setup and shared read-only afterwards:
//   - [Extensions] : file extensions the service accepts, used as the discovery filter
//   - [FingerprintSet] : content hashes already present in the remote library
//
// Per-file outcomes:
//   - [Result] : terminal state of one file (uploaded, skipped or failed)
//   - [Stage] : the step of the per-file pipeline a result was produced at
//   - [Run] : one orchestration run with its options and results, used for reports
package models
