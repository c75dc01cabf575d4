package services

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/eventara/certgen/internal/logging"
	sc "github.com/eventara/certgen/internal/server/config"
	"github.com/eventara/certgen/internal/server/models"
	"github.com/eventara/certgen/internal/server/repositories/repomanager"
	"github.com/eventara/certgen/internal/storage"
)

// MigrationSummary is the per-item accounting of a MigrateAll run.
type MigrationSummary struct {
	Success int
	Failed  int
	Skipped int
}

// MigrationService moves template bytes from the local tier to the blob
// tier, typically after the blob backend comes back from an outage that
// forced uploads onto the local fallback.
type MigrationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	blob        storage.ObjectStore
	local       storage.ObjectStore
	log         logging.Logger
}

func NewMigrationService(db *sql.DB, repomanager repomanager.RepositoryManager, config *sc.Config,
	blob, local storage.ObjectStore, log logging.Logger) *MigrationService {
	return &MigrationService{
		db:          db,
		repomanager: repomanager,
		config:      config,
		blob:        blob,
		local:       local,
		log:         log,
	}
}

// MigrateOne moves one template's bytes to the blob tier. A template
// already on the blob tier is a successful no-op; the returned bool
// reports whether a move actually happened. The local file is read first
// and the record updated only after the blob write succeeds, so a failure
// at any step leaves the template fully usable on its current tier.
func (s *MigrationService) MigrateOne(ctx context.Context, templateID string) (bool, error) {
	repo := s.repomanager.Templates(s.db)

	tpl, err := repo.GetByID(ctx, templateID)
	if err != nil {
		return false, err
	}

	if tpl.StorageTier == models.TierBlob {
		return false, nil
	}

	data, err := s.local.Get(ctx, tpl.LocalPath)
	if err != nil {
		return false, fmt.Errorf("error reading local template file: %w", err)
	}

	name := strings.TrimSuffix(tpl.LocalPath, storage.CompressedSuffix)
	meta := storage.Metadata{ContentType: templateContentType(strings.ToLower(filepath.Ext(name)))}

	stored, err := s.blob.Put(ctx, name, data, meta)
	if err != nil {
		return false, fmt.Errorf("error uploading template to blob storage: %v", err)
	}

	if err := repo.UpdateStorage(ctx, templateID, models.TierBlob, stored, ""); err != nil {
		return false, fmt.Errorf("error updating template record: %v", err)
	}

	if !s.config.KeepLocalAfterMigration {
		if !s.local.Delete(ctx, tpl.LocalPath) {
			s.log.Warn(ctx, "local template file delete failed after migration",
				"template_id", templateID, "path", tpl.LocalPath)
		}
	}

	s.log.Info(ctx, "template migrated to blob storage", "template_id", templateID, "object", stored)
	return true, nil
}

// MigrateAll migrates every local-tier template, continuing past per-item
// failures. Templates another coordinator migrated between the listing and
// the item run count as skipped. Only a failed enumeration aborts the run.
func (s *MigrationService) MigrateAll(ctx context.Context) (*MigrationSummary, error) {
	repo := s.repomanager.Templates(s.db)

	tpls, err := repo.ListByTier(ctx, models.TierLocal)
	if err != nil {
		return nil, fmt.Errorf("error listing local templates: %v", err)
	}

	summary := &MigrationSummary{}
	for _, tpl := range tpls {
		migrated, err := s.MigrateOne(ctx, tpl.ID)
		switch {
		case err != nil:
			s.log.Error(ctx, "template migration failed", "template_id", tpl.ID, "error", err)
			summary.Failed++
		case migrated:
			summary.Success++
		default:
			summary.Skipped++
		}
	}

	s.log.Info(ctx, "storage migration finished",
		"success", summary.Success, "failed", summary.Failed, "skipped", summary.Skipped)

	return summary, nil
}
