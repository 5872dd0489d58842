package project

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func sampleMetadata(projectID string, createdAt time.Time) *Metadata {
	return &Metadata{
		ProjectID:      projectID,
		VideoName:      projectID + ".mp4",
		VideoPath:      "/uploads/" + projectID + ".mp4",
		FPS:            30,
		TotalFrames:    300,
		Duration:       10,
		Interval:       1.0,
		ExtractedCount: 10,
		CreatedAt:      createdAt,
		FramePaths:     []string{"/frames/" + projectID + "/frame_000000.jpg", "/frames/" + projectID + "/frame_000001.jpg"},
	}
}

func TestSaveAndGet(t *testing.T) {
	store := NewStore(t.TempDir(), testLogger())

	meta := sampleMetadata("proj1", time.Now().UTC())
	if err := store.Save(meta); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := store.Get("proj1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.ProjectID != "proj1" || got.FPS != 30 || got.ExtractedCount != 10 {
		t.Errorf("metadata round trip mismatch: %+v", got)
	}
	if len(got.FramePaths) != 2 {
		t.Errorf("frame paths not preserved: %v", got.FramePaths)
	}
}

func TestGet_Missing(t *testing.T) {
	store := NewStore(t.TempDir(), testLogger())

	if _, err := store.Get("nonexistent"); err != ErrNotFound {
		t.Fatalf("Get() = %v, want ErrNotFound", err)
	}
}

func TestFramePath_Bounds(t *testing.T) {
	store := NewStore(t.TempDir(), testLogger())
	store.Save(sampleMetadata("proj1", time.Now()))

	if _, err := store.FramePath("proj1", -1); err == nil {
		t.Error("expected error for negative index")
	}
	if _, err := store.FramePath("proj1", 2); err == nil {
		t.Error("expected error for index past end")
	}
	path, err := store.FramePath("proj1", 1)
	if err != nil {
		t.Fatalf("FramePath(1) error: %v", err)
	}
	if filepath.Base(path) != "frame_000001.jpg" {
		t.Errorf("FramePath(1) = %q", path)
	}
}

func TestList_NewestFirstSkippingInvalid(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, testLogger())

	old := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store.Save(sampleMetadata("older", old))
	store.Save(sampleMetadata("newer", old.Add(time.Hour)))

	// A directory without metadata must be skipped, not break the listing.
	if err := os.MkdirAll(filepath.Join(dir, "stray"), 0755); err != nil {
		t.Fatal(err)
	}

	got := store.List()
	if len(got) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(got))
	}
	if got[0].ID != "newer" || got[1].ID != "older" {
		t.Errorf("projects not sorted newest first: %v", got)
	}
}
