// Package extract parses the e-procurement portal's semi-structured HTML
// into typed tender records.
//
// The portal carries no stable ids or classes on individual fields, so every
// extraction rule here is a positional or label contract against the observed
// markup. The contracts are collected as constants below; markup drift
// requires changes in this package only.
package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonesrussell/tenderscan/internal/logger"
	"github.com/jonesrussell/tenderscan/internal/tender"
)

// Markup contracts for the portal's pages.
const (
	// listTableSelector marks listing tables on the directory and
	// organisation pages.
	listTableSelector = "table.list_table"
	// departmentTableIndex is the position of the department directory among
	// the list tables on the directory page (the third one).
	departmentTableIndex = 2
	// departmentNameCell is the column holding the organisation display name.
	departmentNameCell = 1
	// departmentLinkCell is the column holding the organisation page link.
	departmentLinkCell = 2
	// tenderRowMinCells is the minimum cell count for a tender row; shorter
	// rows are headers or footers and are skipped.
	tenderRowMinCells = 5
	// tenderLinkCell is the "Title and Ref.No./Tender ID" column holding the
	// detail page link.
	tenderLinkCell = 4
	// summaryTableSelector marks the tender summary table on detail pages.
	summaryTableSelector = "table.tablebg"
	// summaryMinRows is the minimum row count for the summary table.
	summaryMinRows = 3
	// summaryOrgChainRow and summaryTenderIDRow are the fixed rows carrying
	// the organisation chain and tender id, each in the second cell's <b>.
	summaryOrgChainRow = 0
	summaryTenderIDRow = 2
	summaryValueCell   = 1
	// captionCellSelector marks label cells for label/value pairs.
	captionCellSelector = "td.td_caption"
	// tenderValueLabel is the literal label preceding the tender value cell.
	tenderValueLabel = "Tender Value in ₹"
)

// dateLabels are the critical-date labels matched by substring against <b>
// elements on the detail page.
var dateLabels = []struct {
	label  string
	assign func(*tender.Dates, string)
}{
	{"Published Date", func(d *tender.Dates, v string) { d.Published = v }},
	{"Document Download / Sale Start Date", func(d *tender.Dates, v string) { d.SaleStart = v }},
	{"Sale End Date", func(d *tender.Dates, v string) { d.SaleEnd = v }},
	{"Clarification Start Date", func(d *tender.Dates, v string) { d.ClarificationStart = v }},
	{"Clarification End Date", func(d *tender.Dates, v string) { d.ClarificationEnd = v }},
	{"Bid Submission Start Date", func(d *tender.Dates, v string) { d.BidSubmissionStart = v }},
	{"Bid Submission End Date", func(d *tender.Dates, v string) { d.BidSubmissionEnd = v }},
	{"Bid Opening Date", func(d *tender.Dates, v string) { d.BidOpening = v }},
}

// tenderTypeLabel matches the tender type caption cell.
var tenderTypeLabel = regexp.MustCompile(`(?i)Tender Type`)

// Errors returned by the extractor.
var (
	// ErrTableNotFound is returned when an expected listing table is missing.
	ErrTableNotFound = errors.New("expected table not found")
	// ErrDepartmentNotFound is returned when no row matches a department name.
	ErrDepartmentNotFound = errors.New("department not found in table")
	// ErrUnparsable is returned when a detail page cannot be parsed into a
	// record. Callers persist the raw page for diagnostics.
	ErrUnparsable = errors.New("tender detail page unparsable")
)

// Extractor parses portal pages using goquery.
type Extractor struct {
	log logger.Interface
}

// New creates a new extractor.
func New(log logger.Interface) *Extractor {
	return &Extractor{log: log}
}

// DepartmentTable locates the department directory table on the main page.
// Returns ErrTableNotFound when the page has fewer list tables than expected.
func (e *Extractor) DepartmentTable(html string) (*goquery.Selection, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse directory page: %w", err)
	}

	tables := doc.Find(listTableSelector)
	if tables.Length() <= departmentTableIndex {
		return nil, fmt.Errorf("%w: want at least %d list tables, got %d",
			ErrTableNotFound, departmentTableIndex+1, tables.Length())
	}

	return tables.Eq(departmentTableIndex), nil
}

// DepartmentLink finds the organisation page href for a department by exact
// display-name match. Matching is deliberately exact: a name differing by
// case or whitespace from the portal's own listing is not found.
func (e *Extractor) DepartmentLink(table *goquery.Selection, name string) (string, error) {
	var href string

	table.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if cells.Length() <= departmentLinkCell {
			return true
		}

		if strings.TrimSpace(cells.Eq(departmentNameCell).Text()) != name {
			return true
		}

		// A matched row without an anchor does not end the search: the
		// portal repeats organisation names and a later row may carry the
		// link.
		if link, ok := cells.Eq(departmentLinkCell).Find("a").First().Attr("href"); ok {
			href = strings.TrimSpace(link)
			return false
		}

		return true
	})

	if href == "" {
		return "", fmt.Errorf("%w: %q", ErrDepartmentNotFound, name)
	}

	return href, nil
}

// TenderLinks extracts detail page hrefs from an organisation listing page.
// Rows with fewer cells than the tender column count are header or footer
// rows and are skipped silently. Hrefs are returned as found; callers resolve
// them against the portal base URL.
func (e *Extractor) TenderLinks(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse organisation page: %w", err)
	}

	table := doc.Find(listTableSelector).First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("%w: no list table on organisation page", ErrTableNotFound)
	}

	var links []string

	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < tenderRowMinCells {
			return
		}

		if href, ok := cells.Eq(tenderLinkCell).Find("a").First().Attr("href"); ok {
			links = append(links, strings.TrimSpace(href))
		}
	})

	return links, nil
}

// TenderDetail parses a tender detail page into a record.
//
// A missing or malformed value field makes the whole page ErrUnparsable; no
// partial record is returned. A missing summary table (tender id and
// organisation chain) is logged but leaves those fields empty on an otherwise
// valid record, deferring the missing-id decision to the caller.
func (e *Extractor) TenderDetail(html, pageURL string) (*tender.Record, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse detail page: %w", err)
	}

	raw, found := e.valueText(doc)
	if !found {
		return nil, fmt.Errorf("%w: value cell %q not found", ErrUnparsable, tenderValueLabel)
	}

	value, err := NormalizeValue(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnparsable, err)
	}

	rec := &tender.Record{
		Value:      value,
		TenderType: e.captionValue(doc, tenderTypeLabel),
		Dates:      e.dates(doc),
		URL:        pageURL,
	}

	id, chain, summaryErr := e.summaryFields(doc)
	if summaryErr != nil {
		e.log.WithError(summaryErr).Warn("tender summary table not extracted", "url", pageURL)
	}
	rec.TenderID = id
	rec.OrganizationChain = chain

	return rec, nil
}

// valueText locates the text of the cell following the tender value label.
// Matching tds are returned in document order, so the last one is the
// innermost when the label cell is nested.
func (e *Extractor) valueText(doc *goquery.Document) (string, bool) {
	label := doc.Find("td").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(s.Text(), tenderValueLabel)
	}).Last()
	if label.Length() == 0 {
		return "", false
	}

	cell := label.NextFiltered("td")
	if cell.Length() == 0 {
		return "", false
	}

	return strings.TrimSpace(cell.Text()), true
}

// captionValue reads the value cell following a td_caption label cell whose
// text matches the given pattern.
func (e *Extractor) captionValue(doc *goquery.Document, pattern *regexp.Regexp) string {
	label := doc.Find(captionCellSelector).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return pattern.MatchString(s.Text())
	}).Last()
	if label.Length() == 0 {
		return ""
	}

	return strings.TrimSpace(label.NextFiltered("td").Text())
}

// dates reads the critical dates via <b> label substring match: the label's
// enclosing td is followed by the value td.
func (e *Extractor) dates(doc *goquery.Document) tender.Dates {
	var dates tender.Dates

	for _, dl := range dateLabels {
		label := dl.label

		b := doc.Find("b").FilterFunction(func(_ int, s *goquery.Selection) bool {
			return strings.Contains(s.Text(), label)
		}).First()
		if b.Length() == 0 {
			continue
		}

		cell := b.Closest("td").NextFiltered("td")
		if cell.Length() == 0 {
			continue
		}

		dl.assign(&dates, strings.TrimSpace(cell.Text()))
	}

	return dates
}

// summaryFields reads the tender id and organisation chain from their fixed
// positions in the summary table.
func (e *Extractor) summaryFields(doc *goquery.Document) (id, chain string, err error) {
	table := doc.Find(summaryTableSelector).First()
	if table.Length() == 0 {
		return "", "", fmt.Errorf("%w: no summary table", ErrTableNotFound)
	}

	rows := table.Find("tr")
	if rows.Length() < summaryMinRows {
		return "", "", fmt.Errorf("%w: summary table has %d rows, want at least %d",
			ErrTableNotFound, rows.Length(), summaryMinRows)
	}

	chain = strings.TrimSpace(
		rows.Eq(summaryOrgChainRow).Find("td").Eq(summaryValueCell).Find("b").First().Text(),
	)
	id = strings.TrimSpace(
		rows.Eq(summaryTenderIDRow).Find("td").Eq(summaryValueCell).Find("b").First().Text(),
	)

	if id == "" && chain == "" {
		return "", "", fmt.Errorf("%w: summary rows carry no values", ErrTableNotFound)
	}

	return id, chain, nil
}
