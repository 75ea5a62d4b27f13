package media

import "errors"

var (
	// ErrEmptyPublicID indicates a removal was requested without an asset id.
	ErrEmptyPublicID = errors.New("media: empty public id")
	// ErrEmptyPath indicates an upload was requested without a local file.
	ErrEmptyPath = errors.New("media: empty local path")
	// errJanitorClosed is returned when discarding after Shutdown.
	errJanitorClosed = errors.New("media: janitor closed")
)
