// Package certificates provides the PostgreSQL-backed repository for issued
// certificate records.
package certificates

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/eventara/certgen/internal/common"
	"github.com/eventara/certgen/internal/dbx"
	"github.com/eventara/certgen/internal/server/models"
)

// PostgresRepository implements certificate storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const certificateColumns = `id, certificate_code, verification_code, registration_id, event_id, template_id, issued_by, storage_tier, storage_object, email_sent, email_sent_at, created_at`

func (r *PostgresRepository) Create(ctx context.Context, cert *models.Certificate) error {
	query := `
		INSERT INTO certificates (id, certificate_code, verification_code, registration_id, event_id, template_id, issued_by, storage_tier, storage_object)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		cert.ID, cert.CertificateCode, cert.VerificationCode, cert.RegistrationID,
		cert.EventID, cert.TemplateID, cert.IssuedBy, cert.StorageTier, cert.StorageObject)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// GetByID returns one certificate or common.ErrNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Certificate, error) {
	query := `SELECT ` + certificateColumns + ` FROM certificates WHERE id=$1`
	return r.getOne(ctx, query, id)
}

// GetByVerificationCode backs the public authenticity lookup.
func (r *PostgresRepository) GetByVerificationCode(ctx context.Context, code string) (*models.Certificate, error) {
	query := `SELECT ` + certificateColumns + ` FROM certificates WHERE verification_code=$1`
	return r.getOne(ctx, query, code)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.Certificate, error) {
	cert, err := scanCertificate(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: certificate %v", common.ErrNotFound, arg)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return cert, nil
}

// ListByEvent returns the event's certificates in issue order.
func (r *PostgresRepository) ListByEvent(ctx context.Context, eventID string) ([]*models.Certificate, error) {
	query := `SELECT ` + certificateColumns + ` FROM certificates WHERE event_id=$1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to select certificates: %w", err)
	}
	defer rows.Close()

	var result []*models.Certificate
	for rows.Next() {
		cert, err := scanCertificate(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, cert)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CountByTemplate reports how many issued certificates still reference the
// template. Deletion is blocked while this is non-zero.
func (r *PostgresRepository) CountByTemplate(ctx context.Context, templateID string) (int64, error) {
	query := `SELECT COUNT(*) FROM certificates WHERE template_id=$1`

	var n int64
	if err := r.db.QueryRowContext(ctx, query, templateID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// NextSerial numbers a new certificate within its event. Serials are
// display-only; uniqueness lives in the certificate codes.
func (r *PostgresRepository) NextSerial(ctx context.Context, eventID string) (int, error) {
	query := `SELECT COUNT(*) + 1 FROM certificates WHERE event_id=$1`

	var serial int
	if err := r.db.QueryRowContext(ctx, query, eventID).Scan(&serial); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return serial, nil
}

// MarkEmailSent flips the delivery flag. The record is otherwise immutable.
func (r *PostgresRepository) MarkEmailSent(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE certificates SET email_sent=TRUE, email_sent_at=$2 WHERE id=$1`

	res, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCertificate(row rowScanner) (*models.Certificate, error) {
	var cert models.Certificate
	if err := row.Scan(
		&cert.ID, &cert.CertificateCode, &cert.VerificationCode, &cert.RegistrationID,
		&cert.EventID, &cert.TemplateID, &cert.IssuedBy, &cert.StorageTier,
		&cert.StorageObject, &cert.EmailSent, &cert.EmailSentAt, &cert.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &cert, nil
}
