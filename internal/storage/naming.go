package storage

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// SanitizeComponent makes a caller-supplied value safe to embed in an
// object name: path separators and exotic characters collapse to a dash
// and dot runs lose their traversal meaning. An empty or fully-unsafe
// input comes back as "x" rather than vanishing from the name.
func SanitizeComponent(s string) string {
	s = unsafeNameChars.ReplaceAllString(s, "-")
	for strings.Contains(s, "..") {
		s = strings.ReplaceAll(s, "..", ".")
	}
	s = strings.Trim(s, ".-")
	if s == "" {
		return "x"
	}
	return s
}

// TemplateObjectPrefix is the deterministic part of a template's object
// name. Recovery probes list this prefix to find the bytes again when a
// record has lost its locator.
func TemplateObjectPrefix(eventID, templateID string) string {
	return fmt.Sprintf("templates/%s/%s-", SanitizeComponent(eventID), SanitizeComponent(templateID))
}

// TemplateObjectName appends an upload timestamp so repeated uploads of
// the same template never collide, plus the original file extension.
func TemplateObjectName(eventID, templateID, ext string, now time.Time) string {
	return fmt.Sprintf("%s%d%s", TemplateObjectPrefix(eventID, templateID), now.Unix(), normalizeExt(ext))
}

// CertificateObjectName derives a certificate's object name from its code,
// which is already unique per issued certificate.
func CertificateObjectName(eventID, certificateCode, ext string) string {
	return fmt.Sprintf("certificates/%s/%s%s",
		SanitizeComponent(eventID), SanitizeComponent(certificateCode), normalizeExt(ext))
}

func normalizeExt(ext string) string {
	if ext == "" {
		return ""
	}
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return "." + SanitizeComponent(ext[1:])
}
