package models

import "time"

// Certificate is one issued certificate. Created once per successful
// render+store and immutable afterwards except for the email-sent flag;
// a regeneration produces a new record with fresh codes.
type Certificate struct {
	ID string

	// CertificateCode is the public, human-typable code printed on the
	// certificate.
	CertificateCode string
	// VerificationCode backs the public authenticity-lookup link. Kept
	// distinct from CertificateCode.
	VerificationCode string

	RegistrationID string
	EventID        string
	// TemplateID is nil for default canvas renders.
	TemplateID *string
	IssuedBy   string

	StorageTier   StorageTier
	StorageObject string

	EmailSent   bool
	EmailSentAt *time.Time
	CreatedAt   time.Time
}
