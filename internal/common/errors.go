package common

import "errors"

// Sentinel errors matched with errors.Is. Component boundaries wrap the
// underlying cause onto them with %w so both the category and the original
// diagnostic survive.
var (
	// Repository- and storage-level errors.
	ErrNotFound = errors.New("not found")

	// ErrArchiveCorrupt marks a template file that cannot be read or
	// rewritten as a slide archive. Fatal to the current operation.
	ErrArchiveCorrupt = errors.New("archive corrupt")

	// ErrStorageCorrupted marks a template record whose storage tier and
	// locator disagree (tier says blob but no object name, or tier says
	// local but no path). Detected lazily on read.
	ErrStorageCorrupted = errors.New("template storage corrupted")

	// ErrRenderFailed marks any failure during placeholder substitution or
	// repackaging. Partial output must be discarded.
	ErrRenderFailed = errors.New("render failed")

	// ErrUploadPersistenceFailed marks an artifact (template upload or
	// rendered certificate) whose bytes and database record could not both
	// be written.
	ErrUploadPersistenceFailed = errors.New("upload persistence failed")

	// Validation / request-shape errors.
	ErrValidation = errors.New("validation error")

	// ErrTemplateInUse blocks deletion of a template still referenced by
	// issued certificates.
	ErrTemplateInUse = errors.New("template referenced by certificates")

	// ErrUnsupportedFormat rejects uploads outside the accepted
	// presentation-package formats.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)
