package certdata

import (
	"fmt"
	"strings"
	"time"
)

// longDateLayout renders dates the way they appear on printed certificates.
const longDateLayout = "January 2, 2006"

// rangeSeparator joins the two ends of a multi-day event date.
const rangeSeparator = " - "

// Participant is the recipient-side input to resolution, as handed over by
// the registration subsystem. Optional fields resolve to empty strings, not
// to a literal "null".
type Participant struct {
	Name            string
	Email           string
	Phone           string
	Organization    string
	AttendedAt      *time.Time
	RegisteredAt    *time.Time
	CustomResponses map[string]any
}

// Event is the event-side input to resolution.
type Event struct {
	Title    string
	StartAt  time.Time
	EndAt    time.Time
	Location string
}

// CertificateInfo carries the system-generated values of the certificate
// being rendered.
type CertificateInfo struct {
	Code             string
	VerificationCode string
	Serial           int
	IssuedAt         time.Time
}

// CertificateData is the fully-resolved value map a render consumes. It is
// built fresh per certificate and never persisted.
type CertificateData map[string]string

// Resolver derives display-ready values. The public base URL configures the
// verification link embedded into certificates; it is unrelated to the
// private time-limited storage URL.
type Resolver struct {
	publicBaseURL string
}

func NewResolver(publicBaseURL string) *Resolver {
	return &Resolver{publicBaseURL: strings.TrimRight(publicBaseURL, "/")}
}

// FormatDate renders t as a long-form date, e.g. "January 15, 2025".
func FormatDate(t time.Time) string {
	return t.Format(longDateLayout)
}

// FormatDateRange collapses to a single date when start and end fall on the
// same calendar day, otherwise renders both ends joined by the separator.
func FormatDateRange(start, end time.Time) string {
	sy, sm, sd := start.Date()
	ey, em, ed := end.Date()
	if sy == ey && sm == em && sd == ed {
		return FormatDate(start)
	}
	return FormatDate(start) + rangeSeparator + FormatDate(end)
}

// VerificationURL derives the public verification link for a certificate
// from its verification code.
func (r *Resolver) VerificationURL(verificationCode string) string {
	return fmt.Sprintf("%s/certificates/verify/%s", r.publicBaseURL, verificationCode)
}

// Resolve builds the value map for one certificate. Every catalog key is
// present; optional inputs map to empty strings. Registration custom
// responses appear under custom_<key>, coerced to strings.
func (r *Resolver) Resolve(p Participant, ev Event, cert CertificateInfo) CertificateData {
	data := CertificateData{
		FieldParticipantName:         p.Name,
		FieldParticipantEmail:        p.Email,
		FieldParticipantPhone:        p.Phone,
		FieldParticipantOrganization: p.Organization,
		FieldParticipantAttendedDate: formatOptionalDate(p.AttendedAt),
		FieldEventTitle:              ev.Title,
		FieldEventDate:               FormatDateRange(ev.StartAt, ev.EndAt),
		FieldEventStartDate:          FormatDate(ev.StartAt),
		FieldEventEndDate:            FormatDate(ev.EndAt),
		FieldEventLocation:           ev.Location,
		FieldRegistrationDate:        formatOptionalDate(p.RegisteredAt),
		FieldCertificateCode:         cert.Code,
		FieldCertificateSerial:       fmt.Sprintf("%03d", cert.Serial),
		FieldCertificateURL:          r.VerificationURL(cert.VerificationCode),
		FieldIssueDate:               FormatDate(cert.IssuedAt),
	}

	for key, value := range p.CustomResponses {
		data[CustomFieldPrefix+key] = coerceString(value)
	}

	return data
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return FormatDate(*t)
}

// coerceString turns a free-form registration answer into display text.
// nil becomes an empty string so a placeholder never renders as "<nil>".
func coerceString(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case fmt.Stringer:
		return value.String()
	default:
		return fmt.Sprintf("%v", value)
	}
}
