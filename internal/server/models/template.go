// Package models defines the records persisted for templates and issued
// certificates.
package models

import "time"

// RenderKind selects the render path for a template.
type RenderKind string

const (
	// RenderKindTemplate substitutes placeholders inside an uploaded
	// presentation archive.
	RenderKindTemplate RenderKind = "presentation-template"
	// RenderKindCanvas draws the built-in default certificate layout.
	RenderKindCanvas RenderKind = "canvas-default"
)

// StorageTier names the backend currently holding an entity's bytes.
type StorageTier string

const (
	TierBlob  StorageTier = "blob"
	TierLocal StorageTier = "local"
)

// Template is a named certificate layout owned by one event.
type Template struct {
	ID      string
	EventID string
	Name    string
	Kind    RenderKind

	// StorageTier says which locator below is authoritative. Exactly one
	// of BlobObject/LocalPath is populated on a healthy record.
	StorageTier StorageTier
	// BlobObject is the blob-tier object name, empty on the local tier.
	BlobObject string
	// LocalPath is the local-tier object path, empty on the blob tier.
	LocalPath string

	// Placeholders is the scanner output captured at upload time,
	// deduplicated before storage. Advisory only.
	Placeholders []string
	// FieldMapping maps placeholder names to data-field catalog keys.
	// Replaced wholesale on update, never merged.
	FieldMapping map[string]string

	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Locator returns the object name for the template's current tier.
func (t *Template) Locator() string {
	if t.StorageTier == TierLocal {
		return t.LocalPath
	}
	return t.BlobObject
}

// StorageCorrupted reports a violated tier/locator invariant: the tier's
// own locator is empty, or both locators are populated at once.
func (t *Template) StorageCorrupted() bool {
	switch t.StorageTier {
	case TierBlob:
		return t.BlobObject == "" || t.LocalPath != ""
	case TierLocal:
		return t.LocalPath == "" || t.BlobObject != ""
	default:
		return true
	}
}
