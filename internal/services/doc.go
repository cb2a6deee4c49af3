// Package services implements [Client], the HTTP/JSON client for the music locker.
//
// # API Surfaces
//
// The locker exposes three endpoints, each configured in the [service] section of config.toml:
//   - api: JSON POST calls selected by a "mode" field (login_token, status, createtag, ...)
//   - library: JSON POST returning the tag and playlist catalog
//   - upload: multipart form POST for files, and an empty form POST for the md5 list
//
// Every API call carries the client identification payload ([Identity]) and every
// request carries the configured User-Agent.
//
// # Sessions
//
// [Client.Login] exchanges a login token for a [Session]. The client keeps no
// credentials of its own; the session is passed by value into every other call.
//
// # Result Checking
//
// Replies share an envelope with a boolean "result" and a "message".
// Setup calls (login, status, library, createtag, createplaylist, md5) fail on a
// missing or false result. Upload, tagtracks and appendplaylist return the
// decoded [Response] and leave the decision to the caller, which keeps the raw
// body for diagnostics.
//
// # Errors
//
//   - [shared.ErrAuthFailed] : login token rejected
//   - [shared.ErrAccountInfo] : supported filetypes unavailable
//   - [shared.ErrLibraryFetch] : catalog unavailable or malformed
//   - [shared.ErrAPIRequest] : transport failure
//   - [shared.ErrUnexpectedStatus] : non-2xx reply
//   - [shared.ErrMissingResult], [shared.ErrRequestRejected] : checked call not successful
//   - [shared.ErrMessageFormat] : upload message no longer matches [TrackIDPattern]
package services
