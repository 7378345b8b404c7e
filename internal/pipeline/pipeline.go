// Package pipeline runs uploaded images through the captioning service and
// into the shared index: validate, persist, fan out, join, sort.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/caption-gallery/caption-gallery/internal/index"
	"github.com/caption-gallery/caption-gallery/internal/models"
	"github.com/caption-gallery/caption-gallery/internal/predict"
)

// ManagedPrefix marks files created by the upload pipeline. Only files whose
// name carries this prefix are ever swept.
const ManagedPrefix = "MAX-"

// ErrNoValidFiles indicates a batch where no file was accepted or every
// accepted file failed captioning.
var ErrNoValidFiles = errors.New("no valid image files in request")

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// Upload is one incoming image payload.
type Upload struct {
	Filename string
	Data     []byte
}

type Pipeline struct {
	client    *predict.Client
	index     *index.Index
	imagesDir string
}

func New(client *predict.Client, ix *index.Index, imagesDir string) *Pipeline {
	return &Pipeline{
		client:    client,
		index:     ix,
		imagesDir: imagesDir,
	}
}

// Process validates and persists a batch of uploads for sessionID, captions
// them concurrently, records the successes in the index, and returns the
// batch's own results sorted by path case-insensitively. The response never
// depends on which caption call finished first.
func (p *Pipeline) Process(ctx context.Context, sessionID string, files []Upload) ([]models.UploadResult, error) {
	if err := p.client.Health(ctx); err != nil {
		return nil, fmt.Errorf("pre-flight check failed: %w", err)
	}

	accepted := make([]string, 0, len(files))
	for _, file := range files {
		ext := strings.ToLower(filepath.Ext(file.Filename))
		if !allowedExtensions[ext] {
			slog.Warn("Rejecting upload with unsupported extension", "filename", file.Filename)
			continue
		}

		name := ManagedPrefix + sessionID + "-" + filepath.Base(file.Filename)
		imagePath := path.Join(p.imagesDir, name)
		if err := os.WriteFile(imagePath, file.Data, 0644); err != nil {
			return nil, fmt.Errorf("failed to save image %s: %w", imagePath, err)
		}
		accepted = append(accepted, imagePath)
	}

	captioned := p.captionAll(ctx, sessionID, accepted)
	if len(captioned) == 0 {
		return nil, ErrNoValidFiles
	}

	results := make([]models.UploadResult, 0, len(captioned))
	for _, record := range captioned {
		p.index.Insert(record)
		results = append(results, models.UploadResult{
			FileName: record.Path,
			Caption:  record.Predictions[0].Caption,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := strings.ToLower(results[i].FileName), strings.ToLower(results[j].FileName)
		if a != b {
			return a < b
		}
		return results[i].FileName < results[j].FileName
	})

	return results, nil
}

// Warm captions every image already present in the images directory and
// inserts the results as pre-seeded, ownerless records. Any failure is
// returned so the caller can refuse to serve with a cold index.
func (p *Pipeline) Warm(ctx context.Context) error {
	entries, err := os.ReadDir(p.imagesDir)
	if err != nil {
		return fmt.Errorf("failed to list images directory %s: %w", p.imagesDir, err)
	}

	seeds := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !allowedExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		seeds = append(seeds, path.Join(p.imagesDir, entry.Name()))
	}

	records := p.captionAll(ctx, "", seeds)
	if len(records) != len(seeds) {
		return fmt.Errorf("captioned %d of %d seed images", len(records), len(seeds))
	}

	for _, record := range records {
		p.index.Insert(record)
	}
	slog.Info("Caption index warmed", "images", len(records))
	return nil
}

// captionAll fans out one goroutine per image and joins on all of them. A
// per-image failure is logged and drops that image; the siblings proceed.
// Duplicate paths collapse to the last completed write.
func (p *Pipeline) captionAll(ctx context.Context, owner string, imagePaths []string) []*models.CaptionRecord {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		records = make(map[string]*models.CaptionRecord, len(imagePaths))
	)

	for _, imagePath := range imagePaths {
		wg.Add(1)
		go func(imagePath string) {
			defer wg.Done()

			predictions, err := p.client.Caption(ctx, imagePath)
			if err == nil && len(predictions) == 0 {
				err = fmt.Errorf("%w: empty predictions", predict.ErrBadResponse)
			}
			if err != nil {
				slog.Error("Captioning failed", "path", imagePath, "err", err)
				return
			}

			mu.Lock()
			records[imagePath] = &models.CaptionRecord{
				Path:        imagePath,
				Owner:       owner,
				Predictions: predictions,
				CreatedAt:   time.Now(),
			}
			mu.Unlock()
		}(imagePath)
	}
	wg.Wait()

	result := make([]*models.CaptionRecord, 0, len(records))
	for _, record := range records {
		result = append(result, record)
	}
	return result
}
