// Package placeholder extracts {{token}} markers from template slide
// content. Extraction is advisory: a template that cannot be scanned is
// still a valid upload, it just carries an empty placeholder list.
package placeholder

import (
	"context"
	"regexp"
	"strings"

	"github.com/eventara/certgen/internal/archivex"
	"github.com/eventara/certgen/internal/logging"
)

var tokenPattern = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// Tokens scans text for double-curly-brace delimited runs of non-brace
// characters, trims whitespace inside the braces and returns the distinct
// names in first-seen order. Zero matches is a valid outcome.
func Tokens(text string) []string {
	var names []string
	seen := make(map[string]struct{})

	for _, m := range tokenPattern.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(m[1])
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	return names
}

// Scanner extracts placeholders from whole template archives.
type Scanner struct {
	log logging.Logger
}

func NewScanner(log logging.Logger) *Scanner {
	return &Scanner{log: log}
}

// ScanArchive unpacks data and collects the placeholder names found across
// all slide entries. Unpack failure degrades to an empty list with a warning
// instead of an error so that a scan problem never blocks an upload.
func (s *Scanner) ScanArchive(ctx context.Context, data []byte) []string {
	a, err := archivex.Unpack(data)
	if err != nil {
		s.log.Warn(ctx, "placeholder scan skipped, archive not readable", "error", err)
		return nil
	}

	var b strings.Builder
	for _, e := range a.Entries() {
		if archivex.IsSlideEntry(e.Name) {
			b.Write(e.Data)
		}
	}

	return Tokens(b.String())
}
