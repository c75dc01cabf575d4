package services

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/eventara/certgen/internal/certdata"
	"github.com/eventara/certgen/internal/common"
	"github.com/eventara/certgen/internal/logging"
	"github.com/eventara/certgen/internal/render"
	sc "github.com/eventara/certgen/internal/server/config"
	"github.com/eventara/certgen/internal/server/models"
	"github.com/eventara/certgen/internal/server/repositories/repomanager"
	"github.com/eventara/certgen/internal/shared"
	"github.com/eventara/certgen/internal/storage"
)

// GenerateRequest describes one certificate to issue. A nil TemplateID
// selects the built-in canvas layout; a nil Mapping falls back to the
// mapping stored on the template.
type GenerateRequest struct {
	EventID        string `validate:"required"`
	RegistrationID string `validate:"required"`
	IssuedBy       string `validate:"required"`
	Participant    certdata.Participant
	Event          certdata.Event
	TemplateID     *string
	Mapping        map[string]string
}

// GeneratedCertificate bundles the persisted record with the rendered
// bytes and their detected MIME type.
type GeneratedCertificate struct {
	Certificate *models.Certificate
	Data        []byte
	MIME        string
}

// BulkItem is one participant inside a bulk generation run.
type BulkItem struct {
	RegistrationID string
	Participant    certdata.Participant
}

// BulkFailure records one participant whose certificate could not be
// generated. The run continues past failures.
type BulkFailure struct {
	RegistrationID string
	Err            error
}

// BulkResult is the per-item accounting of a bulk generation run.
type BulkResult struct {
	Generated []*GeneratedCertificate
	Failed    []BulkFailure
}

// BulkGenerateRequest issues certificates for a whole event in one call.
type BulkGenerateRequest struct {
	EventID    string `validate:"required"`
	IssuedBy   string `validate:"required"`
	Event      certdata.Event
	TemplateID *string
	Mapping    map[string]string
	Items      []BulkItem
}

// CertificateService issues certificates: data resolution, rendering,
// storage, record creation, delivery, and the public verification lookup.
type CertificateService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	blob        storage.ObjectStore
	local       storage.ObjectStore
	templates   *TemplateService
	resolver    *certdata.Resolver
	mailer      Mailer
	log         logging.Logger
}

func NewCertificateService(db *sql.DB, repomanager repomanager.RepositoryManager, config *sc.Config,
	blob, local storage.ObjectStore, templates *TemplateService, mailer Mailer, log logging.Logger) *CertificateService {
	return &CertificateService{
		db:          db,
		repomanager: repomanager,
		config:      config,
		blob:        blob,
		local:       local,
		templates:   templates,
		resolver:    certdata.NewResolver(config.PublicBaseURL),
		mailer:      mailer,
		log:         log,
	}
}

// Generate issues one certificate. Codes are freshly generated on every
// call, so regenerating for the same registration produces a new record
// and never overwrites an earlier one. The database record is written only
// after the rendered bytes are safely stored; a failed insert compensates
// by deleting the stored object.
func (s *CertificateService) Generate(ctx context.Context, req GenerateRequest) (*GeneratedCertificate, error) {
	if err := validator.New().Struct(&req); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	certRepo := s.repomanager.Certificates(s.db)

	serial, err := certRepo.NextSerial(ctx, req.EventID)
	if err != nil {
		return nil, fmt.Errorf("error allocating serial: %v", err)
	}

	code, err := shared.MakeCertificateCode()
	if err != nil {
		return nil, fmt.Errorf("error generating certificate code: %v", err)
	}
	verification, err := shared.MakeVerificationCode()
	if err != nil {
		return nil, fmt.Errorf("error generating verification code: %v", err)
	}

	issuedAt := time.Now()
	data := s.resolver.Resolve(req.Participant, req.Event, certdata.CertificateInfo{
		Code:             code,
		VerificationCode: verification,
		Serial:           serial,
		IssuedAt:         issuedAt,
	})

	out, ext, err := s.render(ctx, req, data)
	if err != nil {
		return nil, err
	}

	mime := mimetype.Detect(out).String()

	name := storage.CertificateObjectName(req.EventID, code, ext)
	stored, tier, err := putWithFallback(ctx, s.blob, s.local, s.log, name, out,
		storage.Metadata{ContentType: mime, OriginalFileName: code + ext})
	if err != nil {
		return nil, err
	}

	cert := &models.Certificate{
		ID:               uuid.NewString(),
		CertificateCode:  code,
		VerificationCode: verification,
		RegistrationID:   req.RegistrationID,
		EventID:          req.EventID,
		TemplateID:       req.TemplateID,
		IssuedBy:         req.IssuedBy,
		StorageTier:      tier,
		StorageObject:    stored,
	}

	if err := certRepo.Create(ctx, cert); err != nil {
		if !storeFor(s.blob, s.local, tier).Delete(ctx, stored) {
			s.log.Error(ctx, "compensating delete failed, orphaned object left behind",
				"object", stored, "tier", tier)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrUploadPersistenceFailed, err)
	}

	s.log.Info(ctx, "certificate issued",
		"certificate_id", cert.ID, "code", code, "event_id", req.EventID,
		"serial", serial, "tier", tier)

	return &GeneratedCertificate{Certificate: cert, Data: out, MIME: mime}, nil
}

// render produces the output bytes and their file extension. With a
// template id the stored archive is rendered by substitution, otherwise
// the built-in canvas layout is drawn.
func (s *CertificateService) render(ctx context.Context, req GenerateRequest, data certdata.CertificateData) ([]byte, string, error) {
	if req.TemplateID == nil {
		out, err := render.Canvas(render.DefaultCanvasConfig(), data)
		if err != nil {
			return nil, "", err
		}
		return out, ".png", nil
	}

	tpl, err := s.templates.Get(ctx, *req.TemplateID)
	if err != nil {
		return nil, "", fmt.Errorf("error loading template: %w", err)
	}

	archive, err := s.templates.GetFile(ctx, *req.TemplateID)
	if err != nil {
		return nil, "", err
	}

	mapping := req.Mapping
	if mapping == nil {
		mapping = tpl.FieldMapping
	}

	out, err := render.Template(archive, mapping, data, s.config.CompressionLevel)
	if err != nil {
		return nil, "", err
	}

	// A filled template is a regular presentation even when the source
	// was a .potx.
	return out, common.TemplateExtPptx, nil
}

// GenerateForEvent fans Generate out over the items with bounded
// parallelism. Failures are recorded per item and never abort the run.
func (s *CertificateService) GenerateForEvent(ctx context.Context, req BulkGenerateRequest) (*BulkResult, error) {
	if err := validator.New().Struct(&req); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	width := s.config.BulkRenderWidth
	if width <= 0 {
		width = 1
	}

	result := &BulkResult{}

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(width)

	for _, item := range req.Items {
		g.Go(func() error {
			generated, err := s.Generate(ctx, GenerateRequest{
				EventID:        req.EventID,
				RegistrationID: item.RegistrationID,
				IssuedBy:       req.IssuedBy,
				Participant:    item.Participant,
				Event:          req.Event,
				TemplateID:     req.TemplateID,
				Mapping:        req.Mapping,
			})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.log.Error(ctx, "bulk generation item failed",
					"registration_id", item.RegistrationID, "error", err)
				result.Failed = append(result.Failed, BulkFailure{RegistrationID: item.RegistrationID, Err: err})
				return nil
			}
			result.Generated = append(result.Generated, generated)
			return nil
		})
	}

	// Items report their failures through the result, never as errors.
	_ = g.Wait()

	s.log.Info(ctx, "bulk generation finished",
		"event_id", req.EventID, "generated", len(result.Generated), "failed", len(result.Failed))

	return result, nil
}

// Deliver emails the certificate to the recipient. A failed send leaves
// the record untouched with the sent flag still false; a successful send
// sets the flag and timestamp.
func (s *CertificateService) Deliver(ctx context.Context, certificateID, recipient string) error {
	if recipient == "" {
		return fmt.Errorf("%w: recipient is required", common.ErrValidation)
	}

	certRepo := s.repomanager.Certificates(s.db)

	cert, err := certRepo.GetByID(ctx, certificateID)
	if err != nil {
		return err
	}

	data, err := storeFor(s.blob, s.local, cert.StorageTier).Get(ctx, cert.StorageObject)
	if err != nil {
		return fmt.Errorf("error reading certificate file: %w", err)
	}

	name := filepath.Base(strings.TrimSuffix(cert.StorageObject, storage.CompressedSuffix))
	msg := Message{
		To:      recipient,
		Subject: fmt.Sprintf("Your certificate %s", cert.CertificateCode),
		Body: fmt.Sprintf("Your certificate is attached.\n\nVerify its authenticity at %s",
			s.resolver.VerificationURL(cert.VerificationCode)),
		Attachment: Attachment{
			Name: name,
			MIME: mimetype.Detect(data).String(),
			Data: data,
		},
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		s.log.Error(ctx, "certificate email delivery failed",
			"certificate_id", cert.ID, "recipient", recipient, "error", err)
		return fmt.Errorf("error sending certificate email: %v", err)
	}

	if err := certRepo.MarkEmailSent(ctx, cert.ID, time.Now()); err != nil {
		return fmt.Errorf("error marking certificate as sent: %v", err)
	}

	s.log.Info(ctx, "certificate delivered", "certificate_id", cert.ID, "recipient", recipient)
	return nil
}

// SecureDownloadURL returns a time-limited link to the stored certificate
// file. This is the private download link, distinct from the public
// verification URL resolved into certificate data.
func (s *CertificateService) SecureDownloadURL(ctx context.Context, certificateID string) (string, error) {
	cert, err := s.repomanager.Certificates(s.db).GetByID(ctx, certificateID)
	if err != nil {
		return "", err
	}

	url, err := storeFor(s.blob, s.local, cert.StorageTier).SecureURL(ctx, cert.StorageObject, s.config.CertificateURLTTL)
	if err != nil {
		return "", fmt.Errorf("error creating download url: %v", err)
	}
	return url, nil
}

// Verify is the public authenticity lookup by verification code.
func (s *CertificateService) Verify(ctx context.Context, verificationCode string) (*models.Certificate, error) {
	return s.repomanager.Certificates(s.db).GetByVerificationCode(ctx, verificationCode)
}

// ListByEvent returns the event's issued certificates in issue order.
func (s *CertificateService) ListByEvent(ctx context.Context, eventID string) ([]*models.Certificate, error) {
	return s.repomanager.Certificates(s.db).ListByEvent(ctx, eventID)
}
