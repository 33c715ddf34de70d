package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jonesrussell/tenderscan/internal/logger"
)

// DefaultDir is the default directory for failed-page artifacts.
const DefaultDir = "failed_tender_html"

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// DirArchiver writes failed-page artifacts to a local directory.
type DirArchiver struct {
	dir string
	log logger.Interface
}

// NewDirArchiver creates a directory-backed archiver.
func NewDirArchiver(dir string, log logger.Interface) *DirArchiver {
	if dir == "" {
		dir = DefaultDir
	}

	return &DirArchiver{dir: dir, log: log}
}

// SavePage writes the page body to a hash-and-timestamp named file.
func (a *DirArchiver) SavePage(ctx context.Context, pageURL string, body []byte) error {
	if err := os.MkdirAll(a.dir, dirPerm); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}

	path := filepath.Join(a.dir, artifactName(pageURL, time.Now()))

	if err := os.WriteFile(path, body, filePerm); err != nil {
		return fmt.Errorf("write failed page: %w", err)
	}

	a.log.Info("saved failed page", "url", pageURL, "path", path)

	return nil
}
