// Package storage is the two-tier object layer behind templates and
// rendered certificates: an S3-compatible blob backend as the primary tier
// and a local-filesystem fallback. Both implement the same contract, so the
// services above pick a tier by policy instead of by field sniffing.
package storage

import (
	"context"
	"time"
)

// Metadata rides along with a Put. The blob backend maps it onto object
// attributes; the local backend ignores what it cannot represent.
type Metadata struct {
	ContentType      string
	OriginalFileName string
}

// ObjectStore is the uniform tier contract.
//
// Put may transform the object name (compression adds a suffix) and returns
// the name the bytes were actually stored under; callers persist that name
// as the record locator. Get accepts either the stored or the original
// name and reverses compression transparently.
//
// Delete is best-effort and idempotent: false on not-found or backend
// error, never an error value. ListPrefix exists for deterministic-name
// recovery probes, not for general enumeration.
type ObjectStore interface {
	Put(ctx context.Context, name string, data []byte, meta Metadata) (string, error)
	Get(ctx context.Context, name string) ([]byte, error)
	Delete(ctx context.Context, name string) bool
	SecureURL(ctx context.Context, name string, ttl time.Duration) (string, error)
	ListPrefix(ctx context.Context, prefix string) ([]string, error)
}
