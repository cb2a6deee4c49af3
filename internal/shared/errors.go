package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Setup errors, fatal before any file is touched
	ErrAuthFailed       = fmt.Errorf("login failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrAccountInfo      = fmt.Errorf("unable to fetch account info")
	ErrLibraryFetch     = fmt.Errorf("unable to fetch library")
	ErrMetadataResolve  = fmt.Errorf("unable to resolve tags and playlists")
	ErrFingerprintFetch = fmt.Errorf("unable to fetch remote fingerprints")

	// Transport and protocol errors
	ErrAPIRequest       = fmt.Errorf("API request failed")
	ErrUnexpectedStatus = fmt.Errorf("server returned bad status")
	ErrMissingResult    = fmt.Errorf("\"result\" key not found in the response")
	ErrRequestRejected  = fmt.Errorf("the server failed to perform the desired action")
	ErrMalformedBody    = fmt.Errorf("malformed response body")

	// Per-file errors, recorded on the file's result
	ErrFileRead            = fmt.Errorf("unable to read file")
	ErrUploadFailed        = fmt.Errorf("file upload failed")
	ErrMessageFormat       = fmt.Errorf("unexpected message format")
	ErrMetadataApplication = fmt.Errorf("metadata application failed")
	ErrTagFailed           = fmt.Errorf("%w: failed to apply tag", ErrMetadataApplication)
	ErrPlaylistFailed      = fmt.Errorf("%w: failed to add to playlist", ErrMetadataApplication)

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
