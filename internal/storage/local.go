package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/eventara/certgen/internal/common"
	"github.com/eventara/certgen/internal/filex"
	"github.com/eventara/certgen/internal/logging"
)

// LocalStore is the filesystem fallback tier. It mirrors the blob tier's
// compression behavior so bytes migrate between tiers without rewriting.
// Its SecureURL degrades to a plain non-expiring file reference; callers
// must treat that mode as less secure than a signed link.
type LocalStore struct {
	root      string
	threshold int
	log       logging.Logger
}

var _ ObjectStore = (*LocalStore)(nil)

func NewLocalStore(rootDir string, compressThreshold int, log logging.Logger) (*LocalStore, error) {
	root, err := filex.EnsureDir(rootDir)
	if err != nil {
		return nil, fmt.Errorf("local store: %w", err)
	}

	if compressThreshold <= 0 {
		compressThreshold = DefaultCompressThreshold
	}

	return &LocalStore{root: root, threshold: compressThreshold, log: log}, nil
}

// Root returns the absolute directory the store writes under.
func (l *LocalStore) Root() string {
	return l.root
}

func (l *LocalStore) Put(ctx context.Context, name string, data []byte, meta Metadata) (string, error) {
	stored, payload, err := maybeCompress(name, data, l.threshold)
	if err != nil {
		return "", fmt.Errorf("local store: put %s: %w", name, err)
	}

	p, err := l.objectPath(stored)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o770); err != nil {
		return "", fmt.Errorf("local store: put %s: %w", stored, err)
	}
	if err := os.WriteFile(p, payload, 0o644); err != nil {
		return "", fmt.Errorf("local store: put %s: %w", stored, err)
	}

	return stored, nil
}

func (l *LocalStore) Get(ctx context.Context, name string) ([]byte, error) {
	if strings.HasSuffix(name, CompressedSuffix) {
		data, err := l.read(name)
		if err != nil {
			return nil, err
		}
		return decompress(data)
	}

	data, err := l.read(name)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	zdata, zerr := l.read(name + CompressedSuffix)
	if zerr != nil {
		return nil, err
	}
	return decompress(zdata)
}

func (l *LocalStore) read(name string) ([]byte, error) {
	p, err := l.objectPath(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", common.ErrNotFound, name)
		}
		return nil, fmt.Errorf("local store: read %s: %w", name, err)
	}
	return data, nil
}

func (l *LocalStore) Delete(ctx context.Context, name string) bool {
	deleted := false
	for _, candidate := range deleteCandidates(name) {
		p, err := l.objectPath(candidate)
		if err != nil {
			continue
		}
		if err := os.Remove(p); err != nil {
			if !os.IsNotExist(err) {
				l.log.Warn(ctx, "local delete failed", "object", candidate, "error", err)
			}
			continue
		}
		deleted = true
	}
	return deleted
}

// SecureURL has no signed equivalent on this tier; it resolves the stored
// file and returns a plain file reference that never expires.
func (l *LocalStore) SecureURL(ctx context.Context, name string, ttl time.Duration) (string, error) {
	stored := name
	if _, err := l.read(stored); err != nil {
		if !errors.Is(err, common.ErrNotFound) || strings.HasSuffix(name, CompressedSuffix) {
			return "", err
		}
		stored = name + CompressedSuffix
		if _, err := l.read(stored); err != nil {
			return "", fmt.Errorf("%w: %s", common.ErrNotFound, name)
		}
	}

	p, err := l.objectPath(stored)
	if err != nil {
		return "", err
	}
	return "file://" + filepath.ToSlash(p), nil
}

func (l *LocalStore) ListPrefix(ctx context.Context, prefix string) ([]string, error) {
	var names []string

	err := filepath.WalkDir(l.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(l.root, p)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("local store: list %s: %w", prefix, err)
	}

	return names, nil
}

// objectPath maps an object name onto the store root, refusing anything
// that would escape it.
func (l *LocalStore) objectPath(name string) (string, error) {
	clean := path.Clean("/" + name)
	if clean == "/" {
		return "", fmt.Errorf("local store: empty object name")
	}
	if strings.Contains(name, "..") || strings.Contains(name, "\\") {
		return "", fmt.Errorf("local store: unsafe object name %q", name)
	}
	return filepath.Join(l.root, filepath.FromSlash(clean)), nil
}
