// Package render turns a template plus resolved data into certificate
// bytes. Both render paths are pure functions of their inputs so they can
// be tested without storage or network.
package render

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/eventara/certgen/internal/archivex"
	"github.com/eventara/certgen/internal/certdata"
	"github.com/eventara/certgen/internal/common"
)

var tokenPattern = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// xmlEscaper escapes substituted values before they are spliced into slide
// XML. Placeholder text that stays unsubstituted is left untouched.
var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// Template substitutes mapped placeholders across every slide entry of the
// archive and repacks it with the given deflate level.
//
// For each {{placeholder}} occurrence the mapping is consulted for a data
// field key and the resolved data for its value; if either lookup misses,
// the literal placeholder text stays in the output. An empty string is
// substituted only when the resolver itself produced one.
//
// Unpack or repack failure surfaces as common.ErrRenderFailed with the
// cause attached; partial output must not be persisted.
func Template(template []byte, mapping map[string]string, data certdata.CertificateData, level int) ([]byte, error) {
	a, err := archivex.Unpack(template)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrRenderFailed, err)
	}

	for _, e := range a.Entries() {
		if !archivex.IsSlideEntry(e.Name) {
			continue
		}
		a.SetEntry(e.Name, substitute(e.Data, mapping, data))
	}

	out, err := a.Pack(level)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrRenderFailed, err)
	}

	return out, nil
}

func substitute(slide []byte, mapping map[string]string, data certdata.CertificateData) []byte {
	return tokenPattern.ReplaceAllFunc(slide, func(match []byte) []byte {
		name := strings.TrimSpace(string(match[2 : len(match)-2]))

		fieldKey, mapped := mapping[name]
		if !mapped {
			return match
		}
		value, resolved := data[fieldKey]
		if !resolved {
			return match
		}

		return []byte(xmlEscaper.Replace(value))
	})
}
