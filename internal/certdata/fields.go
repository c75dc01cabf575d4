// Package certdata defines the catalog of substitutable data fields and
// resolves participant, event and system values into the flat string map a
// render consumes. Resolution is pure: no storage, no network.
package certdata

import "strings"

// FieldCategory namespaces catalog keys by where the value comes from.
type FieldCategory string

const (
	CategoryParticipant  FieldCategory = "participant"
	CategoryEvent        FieldCategory = "event"
	CategoryRegistration FieldCategory = "registration"
	CategorySystem       FieldCategory = "system"
)

// FieldType is the primitive type of a catalog field, used by mapping UIs
// to hint at sensible placeholder assignments.
type FieldType string

const (
	TypeText   FieldType = "text"
	TypeEmail  FieldType = "email"
	TypePhone  FieldType = "phone"
	TypeDate   FieldType = "date"
	TypeNumber FieldType = "number"
)

// DataField describes one substitutable value. The catalog is static,
// defined once here and never persisted per tenant. Registration custom
// responses are not listed individually; they surface at resolve time under
// the custom_<key> namespace.
type DataField struct {
	Key         string
	Label       string
	Description string
	Category    FieldCategory
	Type        FieldType
	Example     string
}

// Keys of the static catalog. Placeholder mappings reference these.
const (
	FieldParticipantName         = "participant_name"
	FieldParticipantEmail        = "participant_email"
	FieldParticipantPhone        = "participant_phone"
	FieldParticipantOrganization = "participant_organization"
	FieldParticipantAttendedDate = "participant_attended_date"
	FieldEventTitle              = "event_title"
	FieldEventDate               = "event_date"
	FieldEventStartDate          = "event_start_date"
	FieldEventEndDate            = "event_end_date"
	FieldEventLocation           = "event_location"
	FieldRegistrationDate        = "registration_date"
	FieldCertificateCode         = "certificate_code"
	FieldCertificateSerial       = "certificate_serial"
	FieldCertificateURL          = "certificate_url"
	FieldIssueDate               = "issue_date"
)

// CustomFieldPrefix namespaces registration free-form answers so they can
// never shadow a catalog key.
const CustomFieldPrefix = "custom_"

var catalog = []DataField{
	{Key: FieldParticipantName, Label: "Participant name", Description: "Full name as registered", Category: CategoryParticipant, Type: TypeText, Example: "Jane Doe"},
	{Key: FieldParticipantEmail, Label: "Participant email", Description: "Registration email address", Category: CategoryParticipant, Type: TypeEmail, Example: "jane@example.com"},
	{Key: FieldParticipantPhone, Label: "Participant phone", Description: "Phone number, empty if not provided", Category: CategoryParticipant, Type: TypePhone, Example: "+1 555 0100"},
	{Key: FieldParticipantOrganization, Label: "Organization", Description: "Company or affiliation, empty if not provided", Category: CategoryParticipant, Type: TypeText, Example: "Acme Corp"},
	{Key: FieldParticipantAttendedDate, Label: "Attendance date", Description: "Check-in date, empty if the participant never checked in", Category: CategoryParticipant, Type: TypeDate, Example: "January 15, 2025"},
	{Key: FieldEventTitle, Label: "Event title", Description: "Display name of the event", Category: CategoryEvent, Type: TypeText, Example: "Launch Day"},
	{Key: FieldEventDate, Label: "Event date", Description: "Event date, collapsed to one day when start and end match", Category: CategoryEvent, Type: TypeDate, Example: "January 15, 2025"},
	{Key: FieldEventStartDate, Label: "Event start date", Description: "First day of the event", Category: CategoryEvent, Type: TypeDate, Example: "January 15, 2025"},
	{Key: FieldEventEndDate, Label: "Event end date", Description: "Last day of the event", Category: CategoryEvent, Type: TypeDate, Example: "January 17, 2025"},
	{Key: FieldEventLocation, Label: "Event location", Description: "Venue or city, empty for online events", Category: CategoryEvent, Type: TypeText, Example: "Riga"},
	{Key: FieldRegistrationDate, Label: "Registration date", Description: "Date the participant registered", Category: CategoryRegistration, Type: TypeDate, Example: "January 2, 2025"},
	{Key: FieldCertificateCode, Label: "Certificate code", Description: "Public human-typable certificate code", Category: CategorySystem, Type: TypeText, Example: "CERT-7K2M9P4X"},
	{Key: FieldCertificateSerial, Label: "Certificate serial", Description: "Sequential number within the event, zero-padded to three digits", Category: CategorySystem, Type: TypeNumber, Example: "007"},
	{Key: FieldCertificateURL, Label: "Verification link", Description: "Public link for verifying certificate authenticity", Category: CategorySystem, Type: TypeText, Example: "https://events.example.com/certificates/verify/a1b2c3d4e5f60718"},
	{Key: FieldIssueDate, Label: "Issue date", Description: "Date the certificate was generated", Category: CategorySystem, Type: TypeDate, Example: "February 1, 2025"},
}

// Catalog returns the static data-field catalog. Callers get a copy and may
// reorder or filter it freely.
func Catalog() []DataField {
	out := make([]DataField, len(catalog))
	copy(out, catalog)
	return out
}

// CatalogByCategory returns the catalog entries of one category, in catalog
// order.
func CatalogByCategory(c FieldCategory) []DataField {
	var out []DataField
	for _, f := range catalog {
		if f.Category == c {
			out = append(out, f)
		}
	}
	return out
}

// KnownField reports whether key names a static catalog entry or carries
// the custom-response prefix.
func KnownField(key string) bool {
	if strings.HasPrefix(key, CustomFieldPrefix) && len(key) > len(CustomFieldPrefix) {
		return true
	}
	for _, f := range catalog {
		if f.Key == key {
			return true
		}
	}
	return false
}
