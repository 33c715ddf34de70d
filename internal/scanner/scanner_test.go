package scanner_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/tenderscan/internal/extract"
	"github.com/jonesrussell/tenderscan/internal/logger"
	"github.com/jonesrussell/tenderscan/internal/portal"
	"github.com/jonesrussell/tenderscan/internal/scanner"
)

// Portal fixture pages for the end-to-end scenario: one department with two
// tenders, the first below the threshold, the second above it.

const directoryPage = `<html><body>
<table class="list_table"><tr><td>nav</td></tr></table>
<table class="list_table"><tr><td>summary</td></tr></table>
<table class="list_table">
  <tr><td>1</td><td>Public Works Department</td><td><a href="/org?id=1">2</a></td></tr>
</table>
</body></html>`

const orgPage = `<html><body>
<table class="list_table">
  <tr><th>header</th></tr>
  <tr><td>1</td><td>a</td><td>b</td><td>c</td><td><a href="/tender?id=T1">T1</a></td></tr>
  <tr><td>2</td><td>a</td><td>b</td><td>c</td><td><a href="/tender?id=T2">T2</a></td></tr>
</table>
</body></html>`

func detailPage(id, value string) string {
	return fmt.Sprintf(`<html><body>
<table class="tablebg">
  <tr><td>Organisation Chain</td><td><b>PWD||Division</b></td></tr>
  <tr><td>Tender Reference Number</td><td><b>ref</b></td></tr>
  <tr><td>Tender ID</td><td><b>%s</b></td></tr>
</table>
<table><tr><td class="td_caption">Tender Type</td><td>Open Tender</td></tr></table>
<table><tr><td>Tender Value in ₹</td><td>%s</td></tr></table>
<table><tr><td><b>Published Date</b></td><td>01-Aug-2026 10:00 AM</td></tr></table>
</body></html>`, id, value)
}

// memSeenStore is an in-memory SeenStore tracking insert calls.
type memSeenStore struct {
	mu      sync.Mutex
	ids     map[string]bool
	inserts int
}

func newMemSeenStore() *memSeenStore {
	return &memSeenStore{ids: make(map[string]bool)}
}

func (s *memSeenStore) IsSeen(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ids[id], nil
}

func (s *memSeenStore) Record(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ids[id] {
		s.inserts++
	}
	s.ids[id] = true

	return nil
}

// memNotifier captures sent digests.
type memNotifier struct {
	mu     sync.Mutex
	bodies []string
}

func (n *memNotifier) Send(_ context.Context, _, htmlBody string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.bodies = append(n.bodies, htmlBody)

	return nil
}

func (n *memNotifier) sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]string(nil), n.bodies...)
}

// memArchiver captures archived page URLs.
type memArchiver struct {
	mu    sync.Mutex
	saved []string
}

func (a *memArchiver) SavePage(_ context.Context, pageURL string, _ []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.saved = append(a.saved, pageURL)

	return nil
}

// newPortalServer serves the fixture portal. Tender bodies are looked up by
// tender id from the given map.
func newPortalServer(t *testing.T, tenders map[string]string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/dir":
			_, _ = w.Write([]byte(directoryPage))
		case "/org":
			_, _ = w.Write([]byte(orgPage))
		case "/tender":
			body, ok := tenders[r.URL.Query().Get("id")]
			if !ok {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write([]byte(body))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	return srv
}

func newScanner(
	t *testing.T,
	baseURL string,
	seen scanner.SeenStore,
	notifier scanner.Notifier,
	arch *memArchiver,
) *scanner.Scanner {
	t.Helper()

	log := logger.NewNoOp()

	client, err := portal.NewClient(portal.Config{BaseURL: baseURL}, log)
	require.NoError(t, err)

	return scanner.New(
		client,
		extract.New(log),
		seen,
		arch,
		notifier,
		scanner.Config{
			DirectoryURL:   "/dir",
			Departments:    []string{"Public Works Department"},
			ValueThreshold: 3_000_000,
		},
		log,
	)
}

func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	srv := newPortalServer(t, map[string]string{
		"T1": detailPage("T1", "25,00,000"),
		"T2": detailPage("T2", "50,00,000"),
	})

	seen := newMemSeenStore()
	notifier := &memNotifier{}
	arch := &memArchiver{}

	s := newScanner(t, srv.URL, seen, notifier, arch)
	require.NoError(t, s.Run(context.Background()))

	// Dedup log gains only the below-threshold tender.
	assert.True(t, seen.ids["T1"])
	assert.False(t, seen.ids["T2"])
	assert.Equal(t, 1, seen.inserts)

	bodies := notifier.sent()
	require.Len(t, bodies, 1, "digest sent exactly once per run")

	digest := bodies[0]
	assert.Contains(t, digest, "Department: Public Works Department")
	assert.Contains(t, digest, "Found 2 total tenders.")
	assert.Contains(t, digest, "Tender ID: T1<br>")
	assert.NotContains(t, digest, "Tender ID: T2<br>")
	assert.Contains(t, digest, "Found 1 new tenders for Public Works Department")
	assert.Empty(t, arch.saved)
}

func TestRun_IdempotentAcrossRuns(t *testing.T) {
	t.Parallel()

	srv := newPortalServer(t, map[string]string{
		"T1": detailPage("T1", "25,00,000"),
		"T2": detailPage("T2", "50,00,000"),
	})

	seen := newMemSeenStore()
	notifier := &memNotifier{}
	arch := &memArchiver{}

	s := newScanner(t, srv.URL, seen, notifier, arch)
	require.NoError(t, s.Run(context.Background()))
	require.NoError(t, s.Run(context.Background()))

	// One dedup insert and one digest fragment across both runs.
	assert.Equal(t, 1, seen.inserts)

	bodies := notifier.sent()
	require.Len(t, bodies, 2)
	assert.Contains(t, bodies[0], "Tender ID: T1<br>")
	assert.NotContains(t, bodies[1], "Tender ID: T1<br>")
	assert.Contains(t, bodies[1], "Found 0 new tenders for Public Works Department")
}

func TestRun_UnparsableDetailIsArchived(t *testing.T) {
	t.Parallel()

	srv := newPortalServer(t, map[string]string{
		"T1": detailPage("T1", "25,00,000"),
		"T2": `<html><body><table><tr><td>Tender Value in ₹</td><td>Refer Document</td></tr></table></body></html>`,
	})

	seen := newMemSeenStore()
	notifier := &memNotifier{}
	arch := &memArchiver{}

	s := newScanner(t, srv.URL, seen, notifier, arch)
	require.NoError(t, s.Run(context.Background()))

	require.Len(t, arch.saved, 1)
	assert.Contains(t, arch.saved[0], "/tender?id=T2")

	bodies := notifier.sent()
	require.Len(t, bodies, 1)
	assert.Contains(t, bodies[0], "Failed to fetch tender details for")
	assert.Contains(t, bodies[0], "Tender ID: T1<br>", "good tender still reported")
}

func TestRun_MissingTenderIDIsDiscarded(t *testing.T) {
	t.Parallel()

	// Valid value, no summary table: the record has no dedup key.
	srv := newPortalServer(t, map[string]string{
		"T1": `<html><body><table><tr><td>Tender Value in ₹</td><td>1,00,000</td></tr></table></body></html>`,
		"T2": detailPage("T2", "2,00,000"),
	})

	seen := newMemSeenStore()
	notifier := &memNotifier{}
	arch := &memArchiver{}

	s := newScanner(t, srv.URL, seen, notifier, arch)
	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, 1, seen.inserts, "only the identified tender is recorded")
	assert.Empty(t, arch.saved, "missing id is not unparsable")

	bodies := notifier.sent()
	require.Len(t, bodies, 1)
	assert.NotContains(t, bodies[0], "Tender Value in ₹: 100000")
	assert.Contains(t, bodies[0], "Tender ID: T2<br>")
	assert.Contains(t, bodies[0], "Found 1 new tenders for Public Works Department")
}

func TestRun_DepartmentNotFound(t *testing.T) {
	t.Parallel()

	srv := newPortalServer(t, nil)

	seen := newMemSeenStore()
	notifier := &memNotifier{}
	arch := &memArchiver{}

	log := logger.NewNoOp()
	client, err := portal.NewClient(portal.Config{BaseURL: srv.URL}, log)
	require.NoError(t, err)

	s := scanner.New(client, extract.New(log), seen, arch, notifier, scanner.Config{
		DirectoryURL:   "/dir",
		Departments:    []string{"No Such Department"},
		ValueThreshold: 3_000_000,
	}, log)

	require.NoError(t, s.Run(context.Background()))

	bodies := notifier.sent()
	require.Len(t, bodies, 1, "digest still sent")
	assert.Contains(t, bodies[0], "Department: No Such Department")
	assert.Contains(t, bodies[0], "Not found or no link available.")
}

func TestRun_DirectoryFailureIsFatal(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	seen := newMemSeenStore()
	notifier := &memNotifier{}
	arch := &memArchiver{}

	s := newScanner(t, srv.URL, seen, notifier, arch)

	err := s.Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, notifier.sent(), "no digest when the directory cannot be loaded")
}
