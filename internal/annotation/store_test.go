package annotation

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir(), testLogger())
}

func TestSaveAnnotations_RoundTrip(t *testing.T) {
	store := newTestStore(t)

	anns := []Annotation{
		{Class: "person", BBox: BBox{X: 10, Y: 20, Width: 30, Height: 40}, ImageWidth: 640, ImageHeight: 480},
		{ID: "custom_id", Class: "car", BBox: BBox{X: 1, Y: 2, Width: 3, Height: 4}, ImageWidth: 640, ImageHeight: 480},
	}

	if ok := store.SaveAnnotations("proj1", 5, "/frames/proj1/frame_000005.jpg", anns); !ok {
		t.Fatal("SaveAnnotations returned false")
	}

	got := store.GetFrameAnnotations("proj1", 5)
	if len(got) != 2 {
		t.Fatalf("expected 2 annotations, got %d", len(got))
	}
	if got[0].ID == "" {
		t.Error("first annotation did not receive a generated id")
	}
	if !strings.HasPrefix(got[0].ID, "5_0_") {
		t.Errorf("generated id %q does not follow {frame}_{position}_{hex} form", got[0].ID)
	}
	if got[1].ID != "custom_id" {
		t.Errorf("caller-supplied id was overwritten: %q", got[1].ID)
	}
	if got[0].Class != "person" || got[1].Class != "car" {
		t.Errorf("classes not preserved: %q, %q", got[0].Class, got[1].Class)
	}
	if got[0].BBox != (BBox{X: 10, Y: 20, Width: 30, Height: 40}) {
		t.Errorf("bbox not preserved: %+v", got[0].BBox)
	}
}

func TestSaveAnnotations_DefaultsMissingClass(t *testing.T) {
	store := newTestStore(t)

	store.SaveAnnotations("proj1", 0, "frame.jpg", []Annotation{{BBox: BBox{Width: 5, Height: 5}}})

	got := store.GetFrameAnnotations("proj1", 0)
	if len(got) != 1 || got[0].Class != DefaultClass {
		t.Fatalf("expected default class %q, got %+v", DefaultClass, got)
	}
}

func TestSaveAnnotations_ReplacesFrameWholesale(t *testing.T) {
	store := newTestStore(t)

	store.SaveAnnotations("proj1", 0, "frame.jpg", []Annotation{
		{ID: "a", Class: "person"}, {ID: "b", Class: "car"},
	})
	store.SaveAnnotations("proj1", 0, "frame.jpg", []Annotation{
		{ID: "c", Class: "dog"},
	})

	got := store.GetFrameAnnotations("proj1", 0)
	if len(got) != 1 || got[0].ID != "c" {
		t.Fatalf("save did not replace frame wholesale: %+v", got)
	}
}

func TestSaveAnnotations_DoesNotTouchOtherFrames(t *testing.T) {
	store := newTestStore(t)

	store.SaveAnnotations("proj1", 0, "f0.jpg", []Annotation{{ID: "a", Class: "person"}})
	store.SaveAnnotations("proj1", 7, "f7.jpg", []Annotation{{ID: "b", Class: "car"}})

	got := store.GetFrameAnnotations("proj1", 0)
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("saving frame 7 altered frame 0: %+v", got)
	}
}

func TestSaveAnnotations_EmptyListPersists(t *testing.T) {
	store := newTestStore(t)

	if ok := store.SaveAnnotations("proj1", 3, "f3.jpg", nil); !ok {
		t.Fatal("SaveAnnotations with nil list returned false")
	}

	doc := store.GetDocument("proj1")
	rec, ok := doc.Frames["3"]
	if !ok {
		t.Fatal("frame record not created for empty list")
	}
	if len(rec.Annotations) != 0 {
		t.Fatalf("expected empty annotation list, got %+v", rec.Annotations)
	}
}

func TestGetAnnotations_MissingProject(t *testing.T) {
	store := newTestStore(t)

	got := store.GetFrameAnnotations("nonexistent", 0)
	if got == nil {
		t.Fatal("expected empty list, got nil")
	}
	if len(got) != 0 {
		t.Fatalf("expected empty list, got %+v", got)
	}

	doc := store.GetDocument("nonexistent")
	if doc == nil || doc.Frames == nil {
		t.Fatal("expected empty-frames shell, got nil")
	}
	if len(doc.Frames) != 0 {
		t.Fatalf("expected no frames, got %d", len(doc.Frames))
	}
}

func TestGetDocument_CorruptedFileReadsAsAbsent(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, testLogger())

	projDir := filepath.Join(dir, "proj1")
	if err := os.MkdirAll(projDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(projDir, "annotations.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	doc := store.GetDocument("proj1")
	if len(doc.Frames) != 0 {
		t.Fatalf("corrupted document should read as empty, got %d frames", len(doc.Frames))
	}
	if got := store.GetFrameAnnotations("proj1", 0); len(got) != 0 {
		t.Fatalf("corrupted document should yield empty list, got %+v", got)
	}
	if _, err := store.LoadDocument("proj1"); err != ErrNotFound {
		t.Fatalf("LoadDocument on corrupted file: got %v, want ErrNotFound", err)
	}
}

func TestDeleteAnnotation(t *testing.T) {
	store := newTestStore(t)

	store.SaveAnnotations("proj1", 0, "f0.jpg", []Annotation{
		{ID: "a", Class: "person"}, {ID: "b", Class: "car"},
	})

	if ok := store.DeleteAnnotation("proj1", 0, "a"); !ok {
		t.Fatal("DeleteAnnotation returned false for existing annotation")
	}

	got := store.GetFrameAnnotations("proj1", 0)
	if len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("expected only annotation b to survive, got %+v", got)
	}
}

func TestDeleteAnnotation_IdempotentForUnknownID(t *testing.T) {
	store := newTestStore(t)

	store.SaveAnnotations("proj1", 0, "f0.jpg", []Annotation{{ID: "a", Class: "person"}})

	if ok := store.DeleteAnnotation("proj1", 0, "no_such_id"); !ok {
		t.Fatal("deleting an unknown id in an existing frame should succeed")
	}
	if got := store.GetFrameAnnotations("proj1", 0); len(got) != 1 {
		t.Fatalf("frame list changed: %+v", got)
	}
}

func TestDeleteAnnotation_MissingProjectOrFrame(t *testing.T) {
	store := newTestStore(t)

	if ok := store.DeleteAnnotation("nonexistent", 0, "a"); ok {
		t.Error("delete on missing project should return false")
	}

	store.SaveAnnotations("proj1", 0, "f0.jpg", []Annotation{{ID: "a"}})
	if ok := store.DeleteAnnotation("proj1", 99, "a"); ok {
		t.Error("delete on missing frame should return false")
	}
}

func TestDeleteAnnotation_EmptiedFrameRecordPersists(t *testing.T) {
	store := newTestStore(t)

	store.SaveAnnotations("proj1", 0, "f0.jpg", []Annotation{{ID: "a", Class: "person"}})
	store.DeleteAnnotation("proj1", 0, "a")

	doc := store.GetDocument("proj1")
	rec, ok := doc.Frames["0"]
	if !ok {
		t.Fatal("frame record was removed when its last annotation was deleted")
	}
	if len(rec.Annotations) != 0 {
		t.Fatalf("expected empty list, got %+v", rec.Annotations)
	}
}

func TestDeleteProject(t *testing.T) {
	store := newTestStore(t)

	if ok := store.DeleteProject("nonexistent"); ok {
		t.Error("deleting a project with no data should return false")
	}

	store.SaveAnnotations("proj1", 0, "f0.jpg", []Annotation{{ID: "a"}})
	if ok := store.DeleteProject("proj1"); !ok {
		t.Fatal("DeleteProject returned false")
	}
	if got := store.GetFrameAnnotations("proj1", 0); len(got) != 0 {
		t.Fatalf("annotations survived project deletion: %+v", got)
	}
}

func TestSaveAnnotations_ConcurrentFramesSameProject(t *testing.T) {
	store := newTestStore(t)

	const frames = 20
	var wg sync.WaitGroup
	for i := 0; i < frames; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			store.SaveAnnotations("proj1", idx, "frame.jpg", []Annotation{{ID: "a", Class: "person"}})
		}(i)
	}
	wg.Wait()

	doc := store.GetDocument("proj1")
	if len(doc.Frames) != frames {
		t.Fatalf("lost update: expected %d frames, got %d", frames, len(doc.Frames))
	}
}

func TestDocument_OnDiskSchema(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, testLogger())

	store.SaveAnnotations("proj1", 2, "f2.jpg", []Annotation{
		{Class: "person", BBox: BBox{X: 1, Y: 2, Width: 3, Height: 4}, ImageWidth: 640, ImageHeight: 480},
	})

	data, err := os.ReadFile(filepath.Join(dir, "proj1", "annotations.json"))
	if err != nil {
		t.Fatal(err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("stored document is not valid JSON: %v", err)
	}
	if raw["project_id"] != "proj1" {
		t.Errorf("project_id = %v", raw["project_id"])
	}
	frames, ok := raw["frames"].(map[string]any)
	if !ok {
		t.Fatalf("frames is %T", raw["frames"])
	}
	if _, ok := frames["2"]; !ok {
		t.Errorf("frame keyed by string index missing: %v", frames)
	}
	for _, key := range []string{"created_at", "updated_at"} {
		if _, ok := raw[key].(string); !ok {
			t.Errorf("%s is not a timestamp string: %v", key, raw[key])
		}
	}
}
