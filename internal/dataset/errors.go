package dataset

import "errors"

// Sentinel errors for the loader and validator. Callers match them
// with errors.Is; wrapped messages carry the detail.
var (
	// ErrNoURL means no dataset URL is configured and no cached
	// dataset exists. Configuration is required before first use.
	ErrNoURL = errors.New("no dataset url configured")
	// ErrInvalidURL means the URL failed the scheme/host allow-list.
	ErrInvalidURL = errors.New("invalid dataset url")
	// ErrFetchFailed covers network errors, non-2xx responses, and
	// timeouts.
	ErrFetchFailed = errors.New("dataset fetch failed")
	// ErrInvalidData means the JSON violated the dataset schema.
	ErrInvalidData = errors.New("invalid dataset")
)
