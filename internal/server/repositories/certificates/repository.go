package certificates

import (
	"context"
	"time"

	"github.com/eventara/certgen/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, cert *models.Certificate) error
	GetByID(ctx context.Context, id string) (*models.Certificate, error)
	GetByVerificationCode(ctx context.Context, code string) (*models.Certificate, error)
	ListByEvent(ctx context.Context, eventID string) ([]*models.Certificate, error)
	CountByTemplate(ctx context.Context, templateID string) (int64, error)
	NextSerial(ctx context.Context, eventID string) (int, error)
	MarkEmailSent(ctx context.Context, id string, at time.Time) error
}
