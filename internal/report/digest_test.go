package report_test

import (
	"strings"
	"testing"

	"github.com/jonesrussell/tenderscan/internal/report"
	"github.com/jonesrussell/tenderscan/internal/tender"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 {
	return &v
}

func TestDigest_Empty(t *testing.T) {
	t.Parallel()

	d := report.NewDigest()
	assert.Equal(t, "<html><body></body></html>", d.HTML())
}

func TestDigest_FullDepartment(t *testing.T) {
	t.Parallel()

	d := report.NewDigest()
	d.StartDepartment("Public Works Department")
	d.TotalTenders(2)
	d.AddTender(&tender.Record{
		TenderID:          "2026_PWD_100_1",
		Value:             int64Ptr(250_000),
		OrganizationChain: "PWD||Division Jaipur",
		TenderType:        "Open Tender",
		URL:               "https://eproc.example.gov.in/app?id=100",
		Dates: tender.Dates{
			Published:        "01-Aug-2026 10:00 AM",
			BidSubmissionEnd: "15-Aug-2026 06:00 PM",
		},
	})
	d.EndDepartment("Public Works Department", 1)

	got := d.HTML()

	assert.Contains(t, got, "<h2>Department: Public Works Department</h2>")
	assert.Contains(t, got, "<p>Found 2 total tenders.</p>")
	assert.Contains(t, got, "Tender ID: 2026_PWD_100_1<br>")
	assert.Contains(t, got, "Tender Value in ₹: 250000<br>")
	assert.Contains(t, got, "Tender Type: Open Tender<br>")
	assert.Contains(t, got, "Organization Chain: PWD||Division Jaipur<br>")
	assert.Contains(t, got, "Published Date: 01-Aug-2026 10:00 AM<br>")
	assert.Contains(t, got, "Bid Submission End Date: 15-Aug-2026 06:00 PM<br>")
	assert.NotContains(t, got, "Sale Start Date", "empty dates are omitted")
	assert.Contains(t, got, "Found 1 new tenders for Public Works Department<br>")
}

func TestDigest_NAValue(t *testing.T) {
	t.Parallel()

	d := report.NewDigest()
	d.StartDepartment("Water Resources Department")
	d.AddTender(&tender.Record{TenderID: "T9", Value: nil, URL: "https://example.com/t9"})

	assert.Contains(t, d.HTML(), "Tender Value in ₹: NA<br>")
}

func TestDigest_FailureLines(t *testing.T) {
	t.Parallel()

	d := report.NewDigest()
	d.StartDepartment("Missing Department")
	d.DepartmentNotFound()
	d.StartDepartment("Broken Department")
	d.OrgFetchFailed()
	d.StartDepartment("Public Works Department")
	d.TenderFailed("https://eproc.example.gov.in/app?id=7&x=1")

	got := d.HTML()

	assert.Contains(t, got, "<p>Not found or no link available.</p>")
	assert.Contains(t, got, "<p>Failed to fetch organisation page.</p>")
	assert.Contains(t, got, "Failed to fetch tender details for")
	assert.Contains(t, got, "https://eproc.example.gov.in/app?id=7&amp;x=1")
}

func TestDigest_Ordering(t *testing.T) {
	t.Parallel()

	d := report.NewDigest()
	d.StartDepartment("A")
	d.AddTender(&tender.Record{TenderID: "T1", URL: "u1"})
	d.EndDepartment("A", 1)
	d.StartDepartment("B")
	d.AddTender(&tender.Record{TenderID: "T2", URL: "u2"})
	d.EndDepartment("B", 1)

	got := d.HTML()

	require.Less(t, strings.Index(got, "Department: A"), strings.Index(got, "T1"))
	require.Less(t, strings.Index(got, "T1"), strings.Index(got, "Department: B"))
	require.Less(t, strings.Index(got, "Department: B"), strings.Index(got, "T2"))
}

func TestDigest_EscapesMarkup(t *testing.T) {
	t.Parallel()

	d := report.NewDigest()
	d.StartDepartment(`Dept <script>alert(1)</script>`)

	assert.NotContains(t, d.HTML(), "<script>")
}
