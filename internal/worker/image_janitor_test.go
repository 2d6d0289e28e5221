package worker

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yourorg/drukstay/internal/domain"
)

type stubPropertyRepo struct {
	referenced map[string]bool
}

func (s *stubPropertyRepo) Create(*domain.Property) error              { return nil }
func (s *stubPropertyRepo) GetByID(string) (*domain.Property, error)   { return nil, domain.ErrNotFound }
func (s *stubPropertyRepo) DeleteOwned(string, string) error           { return nil }
func (s *stubPropertyRepo) ListByOwner(string) ([]*domain.Property, error) {
	return nil, nil
}
func (s *stubPropertyRepo) ListAvailable(domain.ListingFilter) ([]*domain.Property, error) {
	return nil, nil
}
func (s *stubPropertyRepo) UpdateOwned(string, string, domain.PropertyUpdate) (*domain.Property, error) {
	return nil, domain.ErrNotFound
}
func (s *stubPropertyRepo) ReferencedImages() (map[string]bool, error) {
	return s.referenced, nil
}

func writeAged(t *testing.T, dir, name string, age time.Duration) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("img"), 0o644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-age)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}
}

func TestSweepRemovesOnlyOldOrphans(t *testing.T) {
	dir := t.TempDir()
	writeAged(t, dir, "orphan-old.jpg", 2*time.Hour)
	writeAged(t, dir, "orphan-fresh.jpg", time.Minute)
	writeAged(t, dir, "kept.jpg", 2*time.Hour)

	repo := &stubPropertyRepo{referenced: map[string]bool{
		"/property/kept.jpg": true,
	}}
	j := NewImageJanitor(repo, dir, "/property", time.Hour, time.Hour, nil)

	removed, err := j.Sweep()
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}

	if _, err := os.Stat(filepath.Join(dir, "orphan-old.jpg")); !os.IsNotExist(err) {
		t.Fatalf("expected old orphan removed")
	}
	if _, err := os.Stat(filepath.Join(dir, "orphan-fresh.jpg")); err != nil {
		t.Fatalf("expected fresh orphan retained: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "kept.jpg")); err != nil {
		t.Fatalf("expected referenced image retained: %v", err)
	}
}

func TestSweepEmptyDirectory(t *testing.T) {
	repo := &stubPropertyRepo{referenced: map[string]bool{}}
	j := NewImageJanitor(repo, t.TempDir(), "/property", time.Hour, time.Hour, nil)

	removed, err := j.Sweep()
	if err != nil {
		t.Fatal(err)
	}
	if removed != 0 {
		t.Fatalf("expected no removals, got %d", removed)
	}
}
