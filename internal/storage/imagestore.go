package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yourorg/drukstay/internal/reliability/circuitbreaker"
)

// ErrCacheMiss reports that a key is absent from the byte cache. Backends
// translate their own not-found errors to it so callers can distinguish a
// miss from an infrastructure failure.
var ErrCacheMiss = errors.New("cache miss")

// ByteCache caches served image bytes; backed by Redis in production.
// GetBytes returns ErrCacheMiss when the key is absent.
type ByteCache interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

var mimeExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageStore persists property images on disk under uuid filenames and
// serves them back, read-through a byte cache behind a circuit breaker so a
// dead Redis degrades to plain disk reads.
type ImageStore struct {
	dir      string
	basePath string
	cache    ByteCache
	breaker  *circuitbreaker.CircuitBreaker
	logger   *slog.Logger
}

// New creates the image store and its directory
func New(dir, basePath string, cache ByteCache, logger *slog.Logger) (*ImageStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image dir: %w", err)
	}

	return &ImageStore{
		dir:      dir,
		basePath: strings.TrimSuffix(basePath, "/"),
		cache:    cache,
		breaker:  circuitbreaker.NewCircuitBreaker(5, 2, 30*time.Second),
		logger:   logger,
	}, nil
}

// SaveInline decodes a base64 payload and writes it under a fresh uuid name,
// returning the hosted URL path. Callers treat a mid-batch failure as fatal
// for the batch; files written before the failure stay on disk until the
// janitor sweeps them.
func (s *ImageStore) SaveInline(name, mimeType, inlineData string) (string, error) {
	// Tolerate data-URL prefixes from browser FileReader output
	if idx := strings.Index(inlineData, ","); idx != -1 && strings.HasPrefix(inlineData, "data:") {
		inlineData = inlineData[idx+1:]
	}

	data, err := base64.StdEncoding.DecodeString(inlineData)
	if err != nil {
		return "", fmt.Errorf("invalid base64 payload for %q: %w", name, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("empty image payload for %q", name)
	}

	ext := mimeExtensions[mimeType]
	if ext == "" {
		ext = filepath.Ext(name)
	}

	filename := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(s.dir, filename), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image %q: %w", name, err)
	}

	s.logger.Debug("image stored",
		slog.String("file", filename),
		slog.Int("bytes", len(data)),
	)

	return s.basePath + "/" + filename, nil
}

// SaveUpload writes raw bytes from a multipart upload
func (s *ImageStore) SaveUpload(originalName string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty upload %q", originalName)
	}

	filename := uuid.NewString() + filepath.Ext(originalName)
	if err := os.WriteFile(filepath.Join(s.dir, filename), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write upload %q: %w", originalName, err)
	}

	return s.basePath + "/" + filename, nil
}

// Read returns the bytes for a stored image file, consulting the cache
// first. Path traversal is rejected by reducing to the base name.
func (s *ImageStore) Read(ctx context.Context, file string) ([]byte, error) {
	file = path.Base(file)
	key := "image:" + file

	if s.cache != nil && s.breaker.AllowRequest() {
		data, err := s.cache.GetBytes(ctx, key)
		if err == nil {
			s.breaker.RecordSuccess()
			return data, nil
		}
		// A miss is not a cache failure; only record infrastructure errors
		if !errors.Is(err, ErrCacheMiss) {
			s.breaker.RecordFailure()
			s.logger.Warn("image cache read failed", slog.String("error", err.Error()))
		}
	}

	data, err := os.ReadFile(filepath.Join(s.dir, file))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, os.ErrNotExist
		}
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	if s.cache != nil && s.breaker.AllowRequest() {
		if err := s.cache.SetBytes(ctx, key, data, 30*time.Minute); err != nil {
			s.breaker.RecordFailure()
			s.logger.Warn("image cache write failed", slog.String("error", err.Error()))
		} else {
			s.breaker.RecordSuccess()
		}
	}

	return data, nil
}

// Dir returns the on-disk directory holding image files
func (s *ImageStore) Dir() string {
	return s.dir
}

// BasePath returns the URL path prefix images are served under
func (s *ImageStore) BasePath() string {
	return s.basePath
}
