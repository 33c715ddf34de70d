// Package scan implements the scan command: one full portal scan run.
package scan

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/tenderscan/internal/archive"
	"github.com/jonesrussell/tenderscan/internal/config"
	"github.com/jonesrussell/tenderscan/internal/database"
	"github.com/jonesrussell/tenderscan/internal/extract"
	"github.com/jonesrussell/tenderscan/internal/logger"
	"github.com/jonesrussell/tenderscan/internal/portal"
	"github.com/jonesrussell/tenderscan/internal/report"
	"github.com/jonesrussell/tenderscan/internal/scanner"
)

// Command returns the scan command for use in the root command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Scan the portal once and email the digest",
		Long: `Fetches the department directory, walks each configured department's
tender listing, filters tenders by value, suppresses already-seen tenders,
and emails one digest for the run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return run(ctx)
		},
	}
}

// run wires the pipeline from configuration and executes one scan.
func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(&cfg.Logger)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	log.Info("configuration loaded", "scan", cfg.Describe())

	client, err := portal.NewClient(portal.Config{
		BaseURL:        cfg.Portal.BaseURL,
		RestartPath:    cfg.Portal.RestartPath,
		UserAgent:      cfg.Portal.UserAgent,
		RequestTimeout: cfg.Portal.RequestTimeout,
	}, log.WithComponent("portal"))
	if err != nil {
		return fmt.Errorf("create portal client: %w", err)
	}

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	seenRepo := database.NewSeenTenderRepository(db)
	if schemaErr := seenRepo.EnsureSchema(ctx); schemaErr != nil {
		return schemaErr
	}

	archiver, err := newArchiver(cfg, log)
	if err != nil {
		return err
	}

	s := scanner.New(
		client,
		extract.New(log.WithComponent("extract")),
		seenRepo,
		archiver,
		report.NewMailer(cfg.Email, log.WithComponent("mailer")),
		scanner.Config{
			DirectoryURL:   cfg.Portal.DirectoryPath,
			Departments:    cfg.Scan.Departments,
			ValueThreshold: cfg.Scan.ValueThreshold,
		},
		log.WithComponent("scanner"),
	)

	return s.Run(ctx)
}

// newArchiver selects the failed-page sink: MinIO when enabled, a local
// directory otherwise.
func newArchiver(cfg *config.Config, log logger.Interface) (archive.Archiver, error) {
	if cfg.Archive.Minio.Enabled {
		a, err := archive.NewMinioArchiver(cfg.Archive.Minio, log.WithComponent("archive"))
		if err != nil {
			return nil, fmt.Errorf("create minio archiver: %w", err)
		}

		return a, nil
	}

	return archive.NewDirArchiver(cfg.Archive.Dir, log.WithComponent("archive")), nil
}
