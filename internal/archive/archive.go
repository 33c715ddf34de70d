// Package archive persists raw HTML of unparsable tender pages for offline
// inspection.
//
// Artifacts are content-addressed by URL hash and timestamp-suffixed. The
// sink is write-only: nothing in the pipeline reads artifacts back.
package archive

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Archiver is the failed-page diagnostics sink.
type Archiver interface {
	// SavePage persists the raw body of an unparsable page.
	SavePage(ctx context.Context, pageURL string, body []byte) error
}

const (
	// urlHashLen is the number of hex characters of the URL hash kept in
	// artifact names.
	urlHashLen = 8
	// timestampLayout is the artifact name timestamp suffix.
	timestampLayout = "20060102150405"
)

// artifactName builds the artifact file or object name for a page.
func artifactName(pageURL string, now time.Time) string {
	return fmt.Sprintf("failed_%s_%s.html", hashURL(pageURL), now.Format(timestampLayout))
}

// hashURL generates a SHA-256 hash of the URL (first 8 characters).
func hashURL(url string) string {
	h := sha256.Sum256([]byte(url))
	return hex.EncodeToString(h[:])[:urlHashLen]
}
