// Package services contains the server-side business logic for certificate
// templates: uploads, storage-tier handling with recovery, placeholder
// mappings, certificate generation, delivery, and tier migration.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/eventara/certgen/internal/certdata"
	"github.com/eventara/certgen/internal/common"
	"github.com/eventara/certgen/internal/dbx"
	"github.com/eventara/certgen/internal/logging"
	"github.com/eventara/certgen/internal/placeholder"
	sc "github.com/eventara/certgen/internal/server/config"
	"github.com/eventara/certgen/internal/server/models"
	"github.com/eventara/certgen/internal/server/repositories/repomanager"
	"github.com/eventara/certgen/internal/storage"
)

// UploadTemplateRequest carries one template upload. The API layer in front
// of this subsystem enforces size limits; the format pair is checked here.
type UploadTemplateRequest struct {
	EventID    string `validate:"required"`
	Name       string `validate:"required,max=200"`
	FileName   string `validate:"required"`
	Data       []byte `validate:"required"`
	UploadedBy string `validate:"required"`
}

// TemplateService manages template records and their stored bytes across
// the blob and local storage tiers.
type TemplateService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	blob        storage.ObjectStore
	local       storage.ObjectStore
	scanner     *placeholder.Scanner
	log         logging.Logger
}

func NewTemplateService(db *sql.DB, repomanager repomanager.RepositoryManager, config *sc.Config,
	blob, local storage.ObjectStore, log logging.Logger) *TemplateService {
	return &TemplateService{
		db:          db,
		repomanager: repomanager,
		config:      config,
		blob:        blob,
		local:       local,
		scanner:     placeholder.NewScanner(log),
		log:         log,
	}
}

// Upload validates and persists a new template: bytes first (blob tier
// preferred, local fallback), the database record second. A failed record
// insert compensates by deleting the just-stored bytes so no orphan
// remains referenced by nothing.
func (s *TemplateService) Upload(ctx context.Context, req UploadTemplateRequest) (*models.Template, error) {
	if err := validator.New().Struct(&req); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	ext := strings.ToLower(filepath.Ext(req.FileName))
	if !common.TemplateExtAllowed(ext) {
		return nil, fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, ext)
	}

	// Advisory only: a template that yields no placeholders is still valid.
	placeholders := s.scanner.ScanArchive(ctx, req.Data)

	id := uuid.NewString()
	name := storage.TemplateObjectName(req.EventID, id, ext, time.Now())
	meta := storage.Metadata{ContentType: templateContentType(ext), OriginalFileName: req.FileName}

	stored, tier, err := putWithFallback(ctx, s.blob, s.local, s.log, name, req.Data, meta)
	if err != nil {
		return nil, err
	}

	tpl := &models.Template{
		ID:           id,
		EventID:      req.EventID,
		Name:         req.Name,
		Kind:         models.RenderKindTemplate,
		StorageTier:  tier,
		Placeholders: placeholders,
		FieldMapping: map[string]string{},
		CreatedBy:    req.UploadedBy,
	}
	if tier == models.TierLocal {
		tpl.LocalPath = stored
	} else {
		tpl.BlobObject = stored
	}

	repo := s.repomanager.Templates(s.db)
	if err := repo.Create(ctx, tpl); err != nil {
		if !storeFor(s.blob, s.local, tier).Delete(ctx, stored) {
			s.log.Error(ctx, "compensating delete failed, orphaned object left behind",
				"object", stored, "tier", tier)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrUploadPersistenceFailed, err)
	}

	s.log.Info(ctx, "template uploaded",
		"template_id", id, "event_id", req.EventID, "tier", tier,
		"object", stored, "placeholders", len(placeholders))

	return tpl, nil
}

// Get returns one template record.
func (s *TemplateService) Get(ctx context.Context, id string) (*models.Template, error) {
	return s.repomanager.Templates(s.db).GetByID(ctx, id)
}

// ListByEvent returns the event's templates, newest first.
func (s *TemplateService) ListByEvent(ctx context.Context, eventID string) ([]*models.Template, error) {
	return s.repomanager.Templates(s.db).ListByEvent(ctx, eventID)
}

// GetFile loads the template's stored bytes from its current tier. A
// record whose tier and locators disagree goes through a recovery probe
// first; only an unrecoverable record surfaces ErrStorageCorrupted.
func (s *TemplateService) GetFile(ctx context.Context, id string) ([]byte, error) {
	repo := s.repomanager.Templates(s.db)

	tpl, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if tpl.StorageCorrupted() {
		tpl, err = s.recoverStorage(ctx, tpl)
		if err != nil {
			return nil, err
		}
	}

	data, err := storeFor(s.blob, s.local, tpl.StorageTier).Get(ctx, tpl.Locator())
	if err != nil {
		return nil, fmt.Errorf("error reading template file: %w", err)
	}
	return data, nil
}

// UpdateMapping replaces the template's placeholder mapping wholesale after
// checking every target against the data-field catalog. Mappings are never
// merged; the platform sends the full desired state.
func (s *TemplateService) UpdateMapping(ctx context.Context, id string, mapping map[string]string) (*models.Template, error) {
	for ph, field := range mapping {
		if strings.TrimSpace(ph) == "" {
			return nil, fmt.Errorf("%w: empty placeholder name", common.ErrValidation)
		}
		if !certdata.KnownField(field) {
			return nil, fmt.Errorf("%w: unknown data field %q", common.ErrValidation, field)
		}
	}

	repo := s.repomanager.Templates(s.db)
	if err := repo.UpdateMapping(ctx, id, mapping); err != nil {
		return nil, err
	}
	return repo.GetByID(ctx, id)
}

// Delete removes a template record and its stored bytes. Deletion is
// blocked while issued certificates still reference the template; the
// reference count and the record delete run in one transaction so a
// certificate issued in between cannot be orphaned. The bytes delete is
// best-effort; a leftover object is logged, not fatal.
func (s *TemplateService) Delete(ctx context.Context, id string) (bool, error) {
	tpl, err := s.repomanager.Templates(s.db).GetByID(ctx, id)
	if err != nil {
		return false, err
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		n, err := s.repomanager.Certificates(tx).CountByTemplate(ctx, id)
		if err != nil {
			return fmt.Errorf("error counting certificates: %v", err)
		}
		if n > 0 {
			return fmt.Errorf("%w: %d issued", common.ErrTemplateInUse, n)
		}

		if locator := tpl.Locator(); locator != "" {
			if !storeFor(s.blob, s.local, tpl.StorageTier).Delete(ctx, locator) {
				s.log.Warn(ctx, "template object delete failed, record removed anyway",
					"template_id", id, "object", locator)
			}
		}

		return s.repomanager.Templates(tx).Delete(ctx, id)
	})
	if err != nil {
		return false, err
	}

	s.log.Info(ctx, "template deleted", "template_id", id)
	return true, nil
}

// recoverStorage probes both backends under the template's deterministic
// name prefix after a tier/locator mismatch was detected. A hit repairs
// the record; no hit classifies the template as corrupted for operator
// review. Records are never deleted here.
func (s *TemplateService) recoverStorage(ctx context.Context, tpl *models.Template) (*models.Template, error) {
	prefix := storage.TemplateObjectPrefix(tpl.EventID, tpl.ID)
	s.log.Warn(ctx, "template storage invariant violated, probing for recovery",
		"template_id", tpl.ID, "tier", tpl.StorageTier, "prefix", prefix)

	repo := s.repomanager.Templates(s.db)

	if name := s.newestUnderPrefix(ctx, s.blob, prefix); name != "" {
		if err := repo.UpdateStorage(ctx, tpl.ID, models.TierBlob, name, ""); err != nil {
			return nil, fmt.Errorf("error repairing template record: %v", err)
		}
		s.log.Info(ctx, "template storage repaired", "template_id", tpl.ID, "tier", models.TierBlob, "object", name)
		tpl.StorageTier = models.TierBlob
		tpl.BlobObject = name
		tpl.LocalPath = ""
		return tpl, nil
	}

	if name := s.newestUnderPrefix(ctx, s.local, prefix); name != "" {
		if err := repo.UpdateStorage(ctx, tpl.ID, models.TierLocal, "", name); err != nil {
			return nil, fmt.Errorf("error repairing template record: %v", err)
		}
		s.log.Info(ctx, "template storage repaired", "template_id", tpl.ID, "tier", models.TierLocal, "object", name)
		tpl.StorageTier = models.TierLocal
		tpl.BlobObject = ""
		tpl.LocalPath = name
		return tpl, nil
	}

	s.log.Error(ctx, "template storage unrecoverable, flag for removal", "template_id", tpl.ID)
	return nil, fmt.Errorf("%w: template %s", common.ErrStorageCorrupted, tpl.ID)
}

// newestUnderPrefix returns the lexicographically last object under the
// prefix. Object names embed the upload timestamp, so the last name is the
// most recent upload.
func (s *TemplateService) newestUnderPrefix(ctx context.Context, store storage.ObjectStore, prefix string) string {
	names, err := store.ListPrefix(ctx, prefix)
	if err != nil {
		s.log.Debug(ctx, "recovery probe failed", "prefix", prefix, "error", err)
		return ""
	}
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)
	return names[len(names)-1]
}

func templateContentType(ext string) string {
	if ext == common.TemplateExtPotx {
		return common.MIMEPotx
	}
	return common.MIMEPptx
}
