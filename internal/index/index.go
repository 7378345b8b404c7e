// Package index holds the shared in-memory mapping from image path to
// caption record. All mutation goes through the mutex; callers only ever see
// snapshot copies.
package index

import (
	"sort"
	"strings"
	"sync"

	"github.com/caption-gallery/caption-gallery/internal/models"
)

type Index struct {
	records map[string]*models.CaptionRecord
	mu      sync.RWMutex
}

func New() *Index {
	return &Index{
		records: make(map[string]*models.CaptionRecord),
	}
}

// Insert adds a record, overwriting any prior record for the same path.
func (ix *Index) Insert(record *models.CaptionRecord) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.records[record.Path] = record
}

// Remove deletes the record for path. Removing an absent path is a no-op.
func (ix *Index) Remove(path string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	delete(ix.records, path)
}

// Get returns the record for path if it exists and is visible to owner:
// pre-seeded records are visible to everyone, session uploads only to the
// session that created them.
func (ix *Index) Get(path, owner string) (*models.CaptionRecord, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	record, exists := ix.records[path]
	if !exists || !visibleTo(record, owner) {
		return nil, false
	}
	return record, true
}

// VisibleTo returns the records visible to owner, sorted by path
// case-insensitively ascending. The order is a pure function of the current
// contents, never of insertion order.
func (ix *Index) VisibleTo(owner string) []*models.CaptionRecord {
	ix.mu.RLock()
	result := make([]*models.CaptionRecord, 0, len(ix.records))
	for _, record := range ix.records {
		if visibleTo(record, owner) {
			result = append(result, record)
		}
	}
	ix.mu.RUnlock()

	SortRecords(result)
	return result
}

// Managed returns the session-owned records, optionally narrowed to a single
// owner. Pre-seeded records are never included.
func (ix *Index) Managed(owner string) []*models.CaptionRecord {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	result := make([]*models.CaptionRecord, 0, len(ix.records))
	for _, record := range ix.records {
		if record.Preseeded() {
			continue
		}
		if owner == "" || record.Owner == owner {
			result = append(result, record)
		}
	}
	return result
}

// Len reports the number of records in the index.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.records)
}

// SortRecords orders records by path, case-insensitively ascending, with the
// raw path as tie break so the order is total.
func SortRecords(records []*models.CaptionRecord) {
	sort.Slice(records, func(i, j int) bool {
		a, b := strings.ToLower(records[i].Path), strings.ToLower(records[j].Path)
		if a != b {
			return a < b
		}
		return records[i].Path < records[j].Path
	})
}

func visibleTo(record *models.CaptionRecord, owner string) bool {
	return record.Owner == "" || record.Owner == owner
}
