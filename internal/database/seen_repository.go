package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// SeenTender is a row in the seen-tender log.
type SeenTender struct {
	TenderID    string    `db:"tender_id"`
	FirstSeenAt time.Time `db:"first_seen_at"`
}

// SeenTenderRepository is the persistent log of tenders already reported.
//
// A tender id is inserted at most once; check-then-mark across IsSeen and
// Record is best-effort with no cross-run locking, accepted because a race
// costs at most a duplicate digest entry.
type SeenTenderRepository struct {
	db *sqlx.DB
}

// NewSeenTenderRepository creates a new seen-tender repository.
func NewSeenTenderRepository(db *sqlx.DB) *SeenTenderRepository {
	return &SeenTenderRepository{db: db}
}

// EnsureSchema creates the seen_tenders table if it does not exist.
func (r *SeenTenderRepository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS seen_tenders (
			tender_id     TEXT PRIMARY KEY,
			first_seen_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ensure seen_tenders schema: %w", err)
	}

	return nil
}

// IsSeen reports whether a tender id has already been recorded.
func (r *SeenTenderRepository) IsSeen(ctx context.Context, tenderID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM seen_tenders WHERE tender_id = $1)`

	err := r.db.GetContext(ctx, &exists, query, tenderID)
	if err != nil {
		return false, fmt.Errorf("check seen tender: %w", err)
	}

	return exists, nil
}

// Record marks a tender id as reported. first_seen_at is stored for audit
// and is never read back by the pipeline.
func (r *SeenTenderRepository) Record(ctx context.Context, tenderID string) error {
	query := `
		INSERT INTO seen_tenders (tender_id, first_seen_at)
		VALUES ($1, NOW())
		ON CONFLICT (tender_id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query, tenderID)
	if err != nil {
		return fmt.Errorf("record seen tender: %w", err)
	}

	return nil
}

// List returns all recorded tenders, most recent first.
func (r *SeenTenderRepository) List(ctx context.Context) ([]SeenTender, error) {
	var tenders []SeenTender
	query := `SELECT tender_id, first_seen_at FROM seen_tenders ORDER BY first_seen_at DESC`

	if err := r.db.SelectContext(ctx, &tenders, query); err != nil {
		return nil, fmt.Errorf("list seen tenders: %w", err)
	}

	return tenders, nil
}
