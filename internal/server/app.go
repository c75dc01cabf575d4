// Package server wires the certificate subsystem together: configuration,
// database, the two storage tiers and the services the platform API layer
// calls. The embedding platform constructs one App; cmd/certadmin does the
// same for operator tasks.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/eventara/certgen/internal/logging"
	"github.com/eventara/certgen/internal/server/config"
	"github.com/eventara/certgen/internal/server/repositories/repomanager"
	"github.com/eventara/certgen/internal/server/services"
	"github.com/eventara/certgen/internal/storage"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager

	Templates    *services.TemplateService
	Certificates *services.CertificateService
	Migration    *services.MigrationService
}

// noMailer stands in when the platform wired no email collaborator. Every
// Deliver call fails; nothing else is affected.
type noMailer struct{}

func (noMailer) Send(ctx context.Context, msg services.Message) error {
	return errors.New("no mailer configured")
}

// NewApp builds the full service graph. A nil mailer disables delivery but
// leaves generation, storage and verification fully functional.
func NewApp(ctx context.Context, c *config.Config, mailer services.Mailer) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout)

	if mailer == nil {
		mailer = noMailer{}
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	blob, err := storage.NewS3Store(ctx, storage.S3Options{
		Endpoint:          c.S3BaseEndpoint,
		Region:            c.S3Region,
		AccessKey:         c.S3RootUser,
		SecretKey:         c.S3RootPassword,
		Bucket:            c.S3Bucket,
		UsePathStyle:      c.S3UsePathStyle,
		CompressThreshold: c.CompressThreshold,
		URLClockSkew:      c.URLClockSkew,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("blob storage init error: %w", err)
	}

	local, err := storage.NewLocalStore(c.LocalStorageDir, c.CompressThreshold, logger)
	if err != nil {
		return nil, fmt.Errorf("local storage init error: %w", err)
	}

	ts := services.NewTemplateService(db, rm, c, blob, local, logger)
	cs := services.NewCertificateService(db, rm, c, blob, local, ts, mailer, logger)
	ms := services.NewMigrationService(db, rm, c, blob, local, logger)

	return &App{
		config:       c,
		logger:       logger,
		db:           db,
		repomanager:  rm,
		Templates:    ts,
		Certificates: cs,
		Migration:    ms,
	}, nil
}

// MigrateDB applies the embedded schema migrations.
func (app *App) MigrateDB(ctx context.Context) error {
	return app.repomanager.RunMigrations(ctx, app.db)
}

// Logger exposes the app logger so command wrappers report through the same
// sink as the services.
func (app *App) Logger() logging.Logger {
	return app.logger
}

func (app *App) Close() error {
	return app.db.Close()
}
