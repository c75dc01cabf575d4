package repomanager

import (
	"context"
	"database/sql"

	"github.com/eventara/certgen/internal/dbx"
	"github.com/eventara/certgen/internal/server/repositories/certificates"
	"github.com/eventara/certgen/internal/server/repositories/templates"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Templates(db dbx.DBTX) templates.Repository
	Certificates(db dbx.DBTX) certificates.Repository
}
