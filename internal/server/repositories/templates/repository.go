package templates

import (
	"context"

	"github.com/eventara/certgen/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, tpl *models.Template) error
	GetByID(ctx context.Context, id string) (*models.Template, error)
	ListByEvent(ctx context.Context, eventID string) ([]*models.Template, error)
	ListByTier(ctx context.Context, tier models.StorageTier) ([]*models.Template, error)
	UpdateMapping(ctx context.Context, id string, mapping map[string]string) error
	UpdateStorage(ctx context.Context, id string, tier models.StorageTier, blobObject, localPath string) error
	Delete(ctx context.Context, id string) error
}
