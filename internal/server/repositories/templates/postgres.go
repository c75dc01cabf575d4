// Package templates provides the PostgreSQL-backed repository for template
// records.
package templates

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/eventara/certgen/internal/common"
	"github.com/eventara/certgen/internal/dbx"
	"github.com/eventara/certgen/internal/server/models"
)

// PostgresRepository implements template storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const templateColumns = `id, event_id, name, kind, storage_tier, blob_object, local_path, placeholders, field_mapping, created_by, created_at, updated_at`

// Create inserts a new template row. Placeholders and the field mapping are
// stored as JSONB.
func (r *PostgresRepository) Create(ctx context.Context, tpl *models.Template) error {
	query := `
		INSERT INTO templates (id, event_id, name, kind, storage_tier, blob_object, local_path, placeholders, field_mapping, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	placeholders, mapping, err := marshalJSONFields(tpl)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query,
		tpl.ID, tpl.EventID, tpl.Name, tpl.Kind, tpl.StorageTier,
		tpl.BlobObject, tpl.LocalPath, placeholders, mapping, tpl.CreatedBy)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// GetByID returns one template or common.ErrNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates WHERE id=$1`

	tpl, err := scanTemplate(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: template %s", common.ErrNotFound, id)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return tpl, nil
}

// ListByEvent returns the event's templates, newest first.
func (r *PostgresRepository) ListByEvent(ctx context.Context, eventID string) ([]*models.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates WHERE event_id=$1 ORDER BY created_at DESC`
	return r.list(ctx, query, eventID)
}

// ListByTier returns every template currently on the given storage tier.
func (r *PostgresRepository) ListByTier(ctx context.Context, tier models.StorageTier) ([]*models.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates WHERE storage_tier=$1 ORDER BY created_at`
	return r.list(ctx, query, tier)
}

func (r *PostgresRepository) list(ctx context.Context, query string, arg any) ([]*models.Template, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to select templates: %w", err)
	}
	defer rows.Close()

	var result []*models.Template
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateMapping replaces the placeholder mapping wholesale.
func (r *PostgresRepository) UpdateMapping(ctx context.Context, id string, mapping map[string]string) error {
	query := `UPDATE templates SET field_mapping=$2, updated_at=now() WHERE id=$1`

	raw, err := json.Marshal(orEmptyMap(mapping))
	if err != nil {
		return fmt.Errorf("marshal mapping: %w", err)
	}

	return r.execExpectingOne(ctx, query, id, raw)
}

// UpdateStorage swaps the tier and locators, typically after a migration.
func (r *PostgresRepository) UpdateStorage(ctx context.Context, id string, tier models.StorageTier, blobObject, localPath string) error {
	query := `UPDATE templates SET storage_tier=$2, blob_object=$3, local_path=$4, updated_at=now() WHERE id=$1`
	return r.execExpectingOne(ctx, query, id, tier, blobObject, localPath)
}

// Delete removes the row. Returns common.ErrNotFound when nothing matched.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM templates WHERE id=$1`
	return r.execExpectingOne(ctx, query, id)
}

func (r *PostgresRepository) execExpectingOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
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

func scanTemplate(row rowScanner) (*models.Template, error) {
	var tpl models.Template
	var placeholders, mapping []byte

	if err := row.Scan(
		&tpl.ID, &tpl.EventID, &tpl.Name, &tpl.Kind, &tpl.StorageTier,
		&tpl.BlobObject, &tpl.LocalPath, &placeholders, &mapping,
		&tpl.CreatedBy, &tpl.CreatedAt, &tpl.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if len(placeholders) > 0 {
		if err := json.Unmarshal(placeholders, &tpl.Placeholders); err != nil {
			return nil, fmt.Errorf("unmarshal placeholders: %w", err)
		}
	}
	if len(mapping) > 0 {
		if err := json.Unmarshal(mapping, &tpl.FieldMapping); err != nil {
			return nil, fmt.Errorf("unmarshal field mapping: %w", err)
		}
	}

	return &tpl, nil
}

func marshalJSONFields(tpl *models.Template) ([]byte, []byte, error) {
	p := tpl.Placeholders
	if p == nil {
		p = []string{}
	}
	placeholders, err := json.Marshal(p)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal placeholders: %w", err)
	}

	mapping, err := json.Marshal(orEmptyMap(tpl.FieldMapping))
	if err != nil {
		return nil, nil, fmt.Errorf("marshal field mapping: %w", err)
	}

	return placeholders, mapping, nil
}

func orEmptyMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
