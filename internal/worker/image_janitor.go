package worker

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/yourorg/drukstay/internal/domain"
	"github.com/yourorg/drukstay/internal/observability/metrics"
)

// ImageJanitor periodically removes image files that no property references.
// Failed creations leave already-written batch files on disk; this worker is
// what reclaims them. Files younger than the retention window are kept so an
// in-flight creation never loses images between upload and record insert.
type ImageJanitor struct {
	propertyRepo domain.PropertyRepository
	dir          string
	basePath     string
	retention    time.Duration
	interval     time.Duration
	logger       *slog.Logger
}

// NewImageJanitor creates a new janitor for the given image directory
func NewImageJanitor(
	propertyRepo domain.PropertyRepository,
	dir, basePath string,
	retention, interval time.Duration,
	logger *slog.Logger,
) *ImageJanitor {
	if logger == nil {
		logger = slog.Default()
	}

	return &ImageJanitor{
		propertyRepo: propertyRepo,
		dir:          dir,
		basePath:     basePath,
		retention:    retention,
		interval:     interval,
		logger:       logger,
	}
}

// Start begins the sweep loop and blocks until the context is cancelled
func (j *ImageJanitor) Start(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.logger.Info("image janitor started",
		slog.Duration("interval", j.interval),
		slog.Duration("retention", j.retention),
	)

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("image janitor stopped")
			return
		case <-ticker.C:
			if _, err := j.Sweep(); err != nil {
				j.logger.Error("image sweep failed", slog.String("error", err.Error()))
				metrics.ObserveJanitorSweep("error")
			} else {
				metrics.ObserveJanitorSweep("success")
			}
		}
	}
}

// Sweep removes orphaned image files older than the retention window and
// returns how many were deleted.
func (j *ImageJanitor) Sweep() (int, error) {
	referenced, err := j.propertyRepo.ReferencedImages()
	if err != nil {
		return 0, err
	}

	entries, err := os.ReadDir(j.dir)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-j.retention)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		// Properties reference images by served URL path, not file name
		url := j.basePath + "/" + entry.Name()
		if referenced[url] {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		if err := os.Remove(filepath.Join(j.dir, entry.Name())); err != nil {
			j.logger.Warn("failed to remove orphaned image",
				slog.String("file", entry.Name()),
				slog.String("error", err.Error()),
			)
			continue
		}

		j.logger.Info("removed orphaned image", slog.String("file", entry.Name()))
		removed++
	}

	return removed, nil
}
