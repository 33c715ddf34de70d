// Package scanner sequences one full scan run: department discovery,
// organisation listings, per-tender detail extraction, threshold filtering,
// dedup, and digest delivery.
package scanner

import (
	"context"
	"errors"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/jonesrussell/tenderscan/internal/archive"
	"github.com/jonesrussell/tenderscan/internal/extract"
	"github.com/jonesrussell/tenderscan/internal/logger"
	"github.com/jonesrussell/tenderscan/internal/report"
	"github.com/jonesrussell/tenderscan/internal/tender"
)

// Fetcher retrieves portal pages over a session.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
	AbsoluteURL(href string) string
}

// SeenStore is the persistent log of tenders already reported.
type SeenStore interface {
	IsSeen(ctx context.Context, tenderID string) (bool, error)
	Record(ctx context.Context, tenderID string) error
}

// Notifier delivers the finished digest.
type Notifier interface {
	Send(ctx context.Context, subject, htmlBody string) error
}

// Config holds the run inputs.
type Config struct {
	// DirectoryURL is the department directory page (path or absolute URL).
	DirectoryURL string
	// Departments are the display names to scan, matched exactly against
	// the portal's listing.
	Departments []string
	// ValueThreshold excludes tenders valued at or above it.
	ValueThreshold int64
}

// Scanner runs the extraction-and-reconciliation pipeline.
//
// All steps execute sequentially on one goroutine: the portal's
// session-affinity cookies require strict fetch ordering, and the single
// session is the run's only mutable shared state.
type Scanner struct {
	fetcher   Fetcher
	extractor *extract.Extractor
	seen      SeenStore
	archiver  archive.Archiver
	notifier  Notifier
	cfg       Config
	log       logger.Interface
}

// New creates a scanner with the given collaborators.
func New(
	fetcher Fetcher,
	extractor *extract.Extractor,
	seen SeenStore,
	archiver archive.Archiver,
	notifier Notifier,
	cfg Config,
	log logger.Interface,
) *Scanner {
	return &Scanner{
		fetcher:   fetcher,
		extractor: extractor,
		seen:      seen,
		archiver:  archiver,
		notifier:  notifier,
		cfg:       cfg,
		log:       log,
	}
}

// Run executes one scan.
//
// Only a failure to load the department directory is fatal: without it no
// department can be resolved. Every later failure is scoped to its
// department or tender, noted in the digest, and the run moves on. The
// digest is sent exactly once per run no matter how many units failed.
func (s *Scanner) Run(ctx context.Context) error {
	log := s.log.WithRunID(uuid.NewString())
	log.Info("starting scan", "departments", len(s.cfg.Departments))

	digest := report.NewDigest()

	directoryHTML, err := s.fetcher.Fetch(ctx, s.cfg.DirectoryURL)
	if err != nil {
		return fmt.Errorf("fetch directory page: %w", err)
	}

	departmentTable, err := s.extractor.DepartmentTable(directoryHTML)
	if err != nil {
		return fmt.Errorf("extract department table: %w", err)
	}

	for _, dept := range s.cfg.Departments {
		s.scanDepartment(ctx, log, digest, departmentTable, dept)
	}

	// Delivery failure does not touch dedup state: reported ids are already
	// committed, so a lost digest under-reports rather than over-reports.
	if sendErr := s.notifier.Send(ctx, report.DefaultSubject, digest.HTML()); sendErr != nil {
		log.WithError(sendErr).Error("digest delivery failed")
	}

	log.Info("scan finished")

	return nil
}

// scanDepartment processes one department. All failures are
// department-local.
func (s *Scanner) scanDepartment(
	ctx context.Context,
	log logger.Interface,
	digest *report.Digest,
	departmentTable *goquery.Selection,
	dept string,
) {
	log = log.With("department", dept)
	digest.StartDepartment(dept)

	href, err := s.extractor.DepartmentLink(departmentTable, dept)
	if err != nil {
		log.WithError(err).Warn("department not found in directory")
		digest.DepartmentNotFound()

		return
	}

	orgHTML, err := s.fetcher.Fetch(ctx, s.fetcher.AbsoluteURL(href))
	if err != nil {
		log.WithError(err).Warn("organisation page fetch failed")
		digest.OrgFetchFailed()

		return
	}

	links, err := s.extractor.TenderLinks(orgHTML)
	if err != nil {
		log.WithError(err).Warn("tender listing not extracted")
	}

	digest.TotalTenders(len(links))
	log.Info("tender links extracted", "count", len(links))

	newCount := 0

	for _, link := range links {
		if s.processTender(ctx, log, digest, s.fetcher.AbsoluteURL(link)) {
			newCount++
		}
	}

	digest.EndDepartment(dept, newCount)
	log.Info("department scanned", "new_tenders", newCount)
}

// processTender handles one tender detail page and reports whether it
// contributed a new digest fragment. All failures are tender-local.
func (s *Scanner) processTender(
	ctx context.Context,
	log logger.Interface,
	digest *report.Digest,
	tenderURL string,
) bool {
	log = log.With("url", tenderURL)

	detailHTML, err := s.fetcher.Fetch(ctx, tenderURL)
	if err != nil {
		log.WithError(err).Warn("tender detail fetch failed")
		digest.TenderFailed(tenderURL)

		return false
	}

	rec, err := s.extractor.TenderDetail(detailHTML, tenderURL)
	if err != nil {
		log.WithError(err).Warn("tender detail unparsable")

		if errors.Is(err, extract.ErrUnparsable) {
			if saveErr := s.archiver.SavePage(ctx, tenderURL, []byte(detailHTML)); saveErr != nil {
				log.WithError(saveErr).Error("failed page not archived")
			}
		}

		digest.TenderFailed(tenderURL)

		return false
	}

	switch outcome := tender.Classify(rec, s.cfg.ValueThreshold); outcome {
	case tender.OutcomeSkip:
		log.Debug("tender above threshold, skipping", "tender_id", rec.TenderID)
		return false
	case tender.OutcomeIncomplete:
		// No id means no dedup key, so the record cannot be reported safely.
		log.Warn("tender id not extracted, discarding record")
		return false
	case tender.OutcomeKeep:
	}

	seen, err := s.seen.IsSeen(ctx, rec.TenderID)
	if err != nil {
		log.WithError(err).Error("dedup check failed", "tender_id", rec.TenderID)
		return false
	}

	if seen {
		log.Info("tender already reported, suppressing", "tender_id", rec.TenderID)
		return false
	}

	// Mark before appending: a crash between the two under-reports but never
	// reports the same tender twice.
	if recordErr := s.seen.Record(ctx, rec.TenderID); recordErr != nil {
		log.WithError(recordErr).Error("dedup record failed", "tender_id", rec.TenderID)
		return false
	}

	digest.AddTender(rec)
	log.Info("tender reported", "tender_id", rec.TenderID, "value", rec.Value)

	return true
}
