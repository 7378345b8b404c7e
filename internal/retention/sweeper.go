// Package retention evicts pipeline-managed images once they expire or their
// owning session asks for cleanup. Pre-seeded images are never touched.
package retention

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"github.com/caption-gallery/caption-gallery/internal/index"
	"github.com/caption-gallery/caption-gallery/internal/pipeline"
)

// TTL is the fixed age threshold for pipeline-managed files.
const TTL = 24 * time.Hour

type Sweeper struct {
	index     *index.Index
	imagesDir string
	ttl       time.Duration
}

func New(ix *index.Index, imagesDir string) *Sweeper {
	return &Sweeper{
		index:     ix,
		imagesDir: imagesDir,
		ttl:       TTL,
	}
}

// SweepExpired deletes every managed file older than the TTL along with its
// index entry. It runs on every main-page view, so it is cheap and
// idempotent; individual failures are logged and swallowed.
func (s *Sweeper) SweepExpired() {
	cutoff := time.Now().Add(-s.ttl)

	for _, entry := range s.managedEntries() {
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		s.evict(path.Join(s.imagesDir, entry.Name()))
	}

	// Entries whose backing file already disappeared expire on their own
	// insertion timestamp.
	for _, record := range s.index.Managed("") {
		if !record.CreatedAt.Before(cutoff) {
			continue
		}
		if _, err := os.Stat(record.Path); errors.Is(err, fs.ErrNotExist) {
			s.index.Remove(record.Path)
		}
	}
}

// SweepOwner deletes every managed file and index entry belonging to
// sessionID, or every managed file regardless of owner when sessionID is
// empty (shutdown cleanup).
func (s *Sweeper) SweepOwner(sessionID string) {
	for _, entry := range s.managedEntries() {
		if sessionID != "" && !strings.HasPrefix(entry.Name(), pipeline.ManagedPrefix+sessionID+"-") {
			continue
		}
		s.evict(path.Join(s.imagesDir, entry.Name()))
	}

	// Index entries without a backing file are a tolerable transient; drop
	// them too so the view and the disk agree.
	for _, record := range s.index.Managed(sessionID) {
		s.index.Remove(record.Path)
	}
}

func (s *Sweeper) managedEntries() []fs.DirEntry {
	entries, err := os.ReadDir(s.imagesDir)
	if err != nil {
		slog.Error("Unable to list images directory", "dir", s.imagesDir, "err", err)
		return nil
	}

	managed := entries[:0]
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), pipeline.ManagedPrefix) {
			managed = append(managed, entry)
		}
	}
	return managed
}

func (s *Sweeper) evict(imagePath string) {
	if err := os.Remove(imagePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("Unable to delete image file", "path", imagePath, "err", err)
	}
	s.index.Remove(imagePath)
	slog.Info("Evicted managed image", "path", imagePath)
}
