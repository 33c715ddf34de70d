// Package tender defines the domain types for procurement tenders and the
// monetary threshold filter applied to them.
package tender

// DefaultValueThreshold is the tender value (in currency units) at or above
// which a tender is excluded from the digest.
const DefaultValueThreshold int64 = 3_000_000

// Dates holds the critical dates published on a tender detail page.
// Empty strings mean the date was not present on the page.
type Dates struct {
	Published          string
	SaleStart          string
	SaleEnd            string
	ClarificationStart string
	ClarificationEnd   string
	BidSubmissionStart string
	BidSubmissionEnd   string
	BidOpening         string
}

// Record is a tender parsed from a detail page.
//
// Value is nil when the portal lists the tender value as "NA" or leaves it
// empty. A nil value passes the threshold filter: absence of a value cannot
// exceed it.
type Record struct {
	// TenderID is the portal's stable identifier and the only field
	// guaranteeing cross-run identity. Empty when the summary table could
	// not be located.
	TenderID string
	// Value is the tender value in whole currency units, nil for NA.
	Value *int64
	// OrganizationChain is the publishing organisation hierarchy.
	OrganizationChain string
	// TenderType is the tender type label, e.g. "Open Tender".
	TenderType string
	// Dates are the critical dates listed on the page.
	Dates Dates
	// URL is the detail page the record was parsed from.
	URL string
}

// Outcome classifies a successfully parsed record against the threshold and
// the dedup requirements.
type Outcome int

const (
	// OutcomeKeep means the record is below the threshold (or has no value)
	// and carries a tender id, so it is eligible for reporting.
	OutcomeKeep Outcome = iota
	// OutcomeSkip means the record's value meets or exceeds the threshold.
	OutcomeSkip
	// OutcomeIncomplete means the record would be kept but has no tender id,
	// so it cannot be deduplicated and must not be reported.
	OutcomeIncomplete
)

// String returns the outcome name for logging.
func (o Outcome) String() string {
	switch o {
	case OutcomeKeep:
		return "keep"
	case OutcomeSkip:
		return "skip"
	case OutcomeIncomplete:
		return "incomplete"
	default:
		return "unknown"
	}
}

// Classify applies the value threshold to a parsed record.
//
// Records with a nil value or a value strictly below the threshold are kept;
// a value exactly at the threshold is skipped. Kept records without a tender
// id are classified Incomplete rather than Keep.
func Classify(rec *Record, threshold int64) Outcome {
	if rec.Value != nil && *rec.Value >= threshold {
		return OutcomeSkip
	}
	if rec.TenderID == "" {
		return OutcomeIncomplete
	}
	return OutcomeKeep
}
