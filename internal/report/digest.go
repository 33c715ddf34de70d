// Package report builds the per-run digest and delivers it by email.
package report

import (
	"fmt"
	"html"
	"strings"

	"github.com/jonesrussell/tenderscan/internal/tender"
)

// Digest accumulates formatted tender fragments into one HTML report body.
//
// Fragments are appended in department order, then tender discovery order,
// and never removed: the digest always reports what succeeded even when
// parts of the run failed.
type Digest struct {
	b strings.Builder
}

// NewDigest creates an empty digest.
func NewDigest() *Digest {
	d := &Digest{}
	d.b.WriteString("<html><body>")

	return d
}

// StartDepartment opens a department section.
func (d *Digest) StartDepartment(name string) {
	fmt.Fprintf(&d.b, "<h2>Department: %s</h2>", html.EscapeString(name))
}

// DepartmentNotFound records that the department was absent from the
// directory listing.
func (d *Digest) DepartmentNotFound() {
	d.b.WriteString("<p>Not found or no link available.</p>")
}

// OrgFetchFailed records that the organisation page could not be retrieved.
func (d *Digest) OrgFetchFailed() {
	d.b.WriteString("<p>Failed to fetch organisation page.</p>")
}

// TotalTenders records how many tender links the organisation page listed.
func (d *Digest) TotalTenders(n int) {
	fmt.Fprintf(&d.b, "<p>Found %d total tenders.</p>", n)
}

// TenderFailed records a tender whose detail page could not be fetched or
// parsed.
func (d *Digest) TenderFailed(tenderURL string) {
	escaped := html.EscapeString(tenderURL)
	fmt.Fprintf(&d.b, "<p>Failed to fetch tender details for <a href='%s'>%s</a></p>", escaped, escaped)
}

// AddTender appends one reported tender fragment.
func (d *Digest) AddTender(rec *tender.Record) {
	fmt.Fprintf(&d.b, "<p><a href='%s'>Tender URL</a><br>", html.EscapeString(rec.URL))
	fmt.Fprintf(&d.b, "Tender ID: %s<br>", html.EscapeString(rec.TenderID))
	fmt.Fprintf(&d.b, "Tender Value in ₹: %s<br>", formatValue(rec.Value))
	fmt.Fprintf(&d.b, "Tender Type: %s<br>", html.EscapeString(rec.TenderType))
	fmt.Fprintf(&d.b, "Organization Chain: %s<br>", html.EscapeString(rec.OrganizationChain))
	d.b.WriteString("<b>Critical Dates:</b><br>")

	for _, dt := range dateLines(rec.Dates) {
		if dt.value == "" {
			continue
		}
		fmt.Fprintf(&d.b, "%s: %s<br>", dt.label, html.EscapeString(dt.value))
	}

	d.b.WriteString("</p><hr>")
}

// EndDepartment closes a department section with its new-tender counter.
func (d *Digest) EndDepartment(name string, newCount int) {
	fmt.Fprintf(&d.b, "Found %d new tenders for %s<br>", newCount, html.EscapeString(name))
}

// HTML returns the complete report body.
func (d *Digest) HTML() string {
	return d.b.String() + "</body></html>"
}

// formatValue renders a tender value, with NA for absent values.
func formatValue(v *int64) string {
	if v == nil {
		return "NA"
	}

	return fmt.Sprintf("%d", *v)
}

type dateLine struct {
	label string
	value string
}

// dateLines lists the critical dates in their on-page order.
func dateLines(d tender.Dates) []dateLine {
	return []dateLine{
		{"Published Date", d.Published},
		{"Sale Start Date", d.SaleStart},
		{"Clarification Start Date", d.ClarificationStart},
		{"Bid Submission Start Date", d.BidSubmissionStart},
		{"Bid Opening Date", d.BidOpening},
		{"Sale End Date", d.SaleEnd},
		{"Clarification End Date", d.ClarificationEnd},
		{"Bid Submission End Date", d.BidSubmissionEnd},
	}
}
