// certadmin is the operator tool for the certificate subsystem: schema
// migrations, storage-tier migrations, placeholder scans, test renders and
// storage diagnosis. Connection settings come from the usual config layers;
// the first non-flag argument selects the command.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/eventara/certgen/internal/certdata"
	"github.com/eventara/certgen/internal/common"
	"github.com/eventara/certgen/internal/logging"
	"github.com/eventara/certgen/internal/netx"
	"github.com/eventara/certgen/internal/placeholder"
	"github.com/eventara/certgen/internal/render"
	"github.com/eventara/certgen/internal/server"
	"github.com/eventara/certgen/internal/server/config"
	"github.com/eventara/certgen/internal/shared"
)

func main() {

	cmd, args := command()

	ctx, cancelFunc := context.WithCancel(context.Background())
	initSignalHandler(cancelFunc)

	cfg := config.LoadConfig()

	switch cmd {
	case "migrate-db":
		runMigrateDB(ctx, cfg)
	case "migrate-storage":
		runMigrateStorage(ctx, cfg, args)
	case "scan":
		runScan(ctx, args)
	case "render":
		runRender(ctx, cfg, args)
	case "diagnose":
		runDiagnose(ctx, cfg, args)
	case "check-url":
		runCheckURL(ctx, cfg, args)
	case "help", "":
		printUsage()
	default:
		fmt.Println("Unknown command:", cmd)
		printUsage()
		os.Exit(2)
	}
}

// command picks the first non-flag argument as the command word. Flags stay
// in os.Args for the config layer, which filters out everything it does not
// recognize.
func command() (string, []string) {
	var positional []string
	skip := false
	for _, arg := range os.Args[1:] {
		if skip {
			skip = false
			continue
		}
		if strings.HasPrefix(arg, "-") {
			// Value-carrying flags use either "-x value" or "-x=value".
			skip = !strings.Contains(arg, "=")
			continue
		}
		positional = append(positional, arg)
	}
	if len(positional) == 0 {
		return "", nil
	}
	return positional[0], positional[1:]
}

func initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func printUsage() {
	fmt.Println(`Usage: certadmin <command> [args] [flags]

Commands:
  migrate-db                  apply database schema migrations
  migrate-storage [id]        move local-tier templates to blob storage
  scan <file>                 list {{placeholders}} found in a template file
  render [file]               test-render a template (or the default canvas) with sample data
  diagnose <id>               check a template's storage record and bytes
  check-url <certificate-id>  mint a signed download link and fetch it
  help                        show this help`)
}

func newApp(ctx context.Context, cfg *config.Config) *server.App {
	app, err := server.NewApp(ctx, cfg, nil)
	if err != nil {
		log.Fatalf("%v", err)
	}
	return app
}

func cliLogger() logging.Logger {
	return logging.NewTextLogger(os.Stderr)
}

func runMigrateDB(ctx context.Context, cfg *config.Config) {
	app := newApp(ctx, cfg)
	defer app.Close()

	if err := app.MigrateDB(ctx); err != nil {
		log.Fatalf("migration error: %v", err)
	}
	fmt.Println("Database schema is up to date.")
}

func runMigrateStorage(ctx context.Context, cfg *config.Config, args []string) {
	app := newApp(ctx, cfg)
	defer app.Close()

	if len(args) > 0 {
		migrated, err := app.Migration.MigrateOne(ctx, args[0])
		if err != nil {
			log.Fatalf("migration error: %v", err)
		}
		if migrated {
			fmt.Println("Template moved to blob storage.")
		} else {
			fmt.Println("Template is already on blob storage.")
		}
		return
	}

	summary, err := app.Migration.MigrateAll(ctx)
	if err != nil {
		log.Fatalf("migration error: %v", err)
	}
	fmt.Printf("Storage migration finished: %d migrated, %d failed, %d skipped\n",
		summary.Success, summary.Failed, summary.Skipped)
}

func runScan(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: certadmin scan <file>")
		os.Exit(2)
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		log.Fatalf("%v", err)
	}

	tokens := placeholder.NewScanner(cliLogger()).ScanArchive(ctx, data)
	if len(tokens) == 0 {
		fmt.Println("No placeholders found.")
		return
	}

	fmt.Printf("Found %d placeholders:\n", len(tokens))
	for _, token := range tokens {
		note := ""
		if !certdata.KnownField(token) {
			note = "  (no matching data field, needs a mapping)"
		}
		fmt.Printf("  {{%s}}%s\n", token, note)
	}
}

// runRender produces a smoke-test output from sample data. Placeholders
// whose names already match catalog keys are mapped one-to-one; everything
// else stays literal so gaps are visible in the output.
func runRender(ctx context.Context, cfg *config.Config, args []string) {
	data, err := sampleData(cfg.PublicBaseURL)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if len(args) == 0 {
		out, err := render.Canvas(render.DefaultCanvasConfig(), data)
		if err != nil {
			log.Fatalf("render error: %v", err)
		}
		writeOutput("certificate.rendered.png", out)
		return
	}

	file := args[0]
	archive, err := os.ReadFile(file)
	if err != nil {
		log.Fatalf("%v", err)
	}

	mapping := map[string]string{}
	for _, token := range placeholder.NewScanner(cliLogger()).ScanArchive(ctx, archive) {
		if certdata.KnownField(token) {
			mapping[token] = token
		} else {
			fmt.Printf("Placeholder {{%s}} has no matching data field, leaving it as is.\n", token)
		}
	}

	out, err := render.Template(archive, mapping, data, cfg.CompressionLevel)
	if err != nil {
		log.Fatalf("render error: %v", err)
	}
	writeOutput(strings.TrimSuffix(file, filepath.Ext(file))+".rendered.pptx", out)
}

func sampleData(publicBaseURL string) (certdata.CertificateData, error) {
	code, err := shared.MakeCertificateCode()
	if err != nil {
		return nil, err
	}
	verification, err := shared.MakeVerificationCode()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	registered := now.AddDate(0, 0, -14)

	return certdata.NewResolver(publicBaseURL).Resolve(
		certdata.Participant{
			Name:         "Jane Doe",
			Email:        "jane@example.com",
			Organization: "Acme Corp",
			RegisteredAt: &registered,
		},
		certdata.Event{
			Title:    "Launch Day",
			StartAt:  now,
			EndAt:    now,
			Location: "Riga",
		},
		certdata.CertificateInfo{
			Code:             code,
			VerificationCode: verification,
			Serial:           1,
			IssuedAt:         now,
		},
	), nil
}

func writeOutput(path string, data []byte) {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Fatalf("%v", err)
	}
	fmt.Println("Wrote", path)
}

// runCheckURL proves the signed-link path end to end: mint the URL, then
// fetch it over plain HTTP exactly like a recipient would.
func runCheckURL(ctx context.Context, cfg *config.Config, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: certadmin check-url <certificate-id>")
		os.Exit(2)
	}

	app := newApp(ctx, cfg)
	defer app.Close()

	url, err := app.Certificates.SecureDownloadURL(ctx, args[0])
	if err != nil {
		log.Fatalf("%v", err)
	}
	fmt.Println("Signed URL:", url)

	data, err := netx.FetchSignedURL(ctx, url)
	if err != nil {
		log.Fatalf("fetch error: %v", err)
	}
	fmt.Printf("Link is live, %d bytes served.\n", len(data))
}

func runDiagnose(ctx context.Context, cfg *config.Config, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: certadmin diagnose <template-id>")
		os.Exit(2)
	}

	app := newApp(ctx, cfg)
	defer app.Close()

	tpl, err := app.Templates.Get(ctx, args[0])
	if err != nil {
		log.Fatalf("%v", err)
	}

	fmt.Printf("Template %s (%s), tier %s\n", tpl.ID, tpl.Name, tpl.StorageTier)

	data, err := app.Templates.GetFile(ctx, tpl.ID)
	switch {
	case errors.Is(err, common.ErrStorageCorrupted):
		fmt.Println("Storage is corrupted: no recoverable copy found on either tier.")
		fmt.Println("The record was left in place; review and delete it manually.")
		os.Exit(1)
	case err != nil:
		log.Fatalf("%v", err)
	default:
		fmt.Printf("Storage is healthy, %d bytes readable.\n", len(data))
	}
}
