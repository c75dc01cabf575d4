// Package common contains shared constants and sentinel errors used across
// certgen components.
package common

// Accepted template upload formats. The platform's API layer enforces size
// and field-count limits; this core only checks the format pair.
const (
	TemplateExtPptx = ".pptx"
	TemplateExtPotx = ".potx"

	MIMEPptx = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	MIMEPotx = "application/vnd.openxmlformats-officedocument.presentationml.template"
)

// TemplateExtAllowed reports whether ext (lowercase, with leading dot) is one
// of the accepted presentation-package extensions.
func TemplateExtAllowed(ext string) bool {
	return ext == TemplateExtPptx || ext == TemplateExtPotx
}
