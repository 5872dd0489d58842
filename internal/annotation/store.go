// Package annotation owns the canonical per-project annotation document:
// one JSON file per project under the datasets directory, mutated by full
// read-modify-write at frame granularity.
package annotation

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// ErrNotFound is returned when a project has no stored annotation document.
var ErrNotFound = errors.New("annotation document not found")

const documentFilename = "annotations.json"

// Store persists annotation documents, one per project. Every
// read-modify-write runs under a mutex keyed by project id, so concurrent
// saves to different frames of one project cannot lose updates while
// distinct projects never contend.
type Store struct {
	datasetsDir string
	logger      *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStore(datasetsDir string, logger *slog.Logger) *Store {
	return &Store{
		datasetsDir: datasetsDir,
		logger:      logger,
		locks:       make(map[string]*sync.Mutex),
	}
}

func (s *Store) lockFor(projectID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[projectID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[projectID] = l
	}
	return l
}

func (s *Store) projectDir(projectID string) string {
	return filepath.Join(s.datasetsDir, projectID)
}

func (s *Store) documentPath(projectID string) string {
	return filepath.Join(s.projectDir(projectID), documentFilename)
}

// SaveAnnotations replaces the stored annotation list for one frame
// wholesale. Annotations missing an id or class are normalized first.
// Malformed entries beyond that are persisted as-is; the UI is the
// validation boundary. Returns false on any I/O or encoding failure.
func (s *Store) SaveAnnotations(projectID string, frameIndex int, framePath string, anns []Annotation) bool {
	lock := s.lockFor(projectID)
	lock.Lock()
	defer lock.Unlock()

	if err := os.MkdirAll(s.projectDir(projectID), 0755); err != nil {
		s.logger.Error("failed to create project directory", "project_id", projectID, "error", err)
		return false
	}

	doc, err := s.loadDocument(projectID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error("failed to load annotation document", "project_id", projectID, "error", err)
			return false
		}
		doc = NewDocument(projectID)
	}

	if anns == nil {
		anns = []Annotation{}
	}
	Normalize(frameIndex, anns)

	now := time.Now().UTC()
	doc.Frames[strconv.Itoa(frameIndex)] = &FrameRecord{
		FrameIndex:  frameIndex,
		FramePath:   framePath,
		Annotations: anns,
		UpdatedAt:   now,
	}
	doc.UpdatedAt = now

	if err := s.writeDocument(projectID, doc); err != nil {
		s.logger.Error("failed to write annotation document", "project_id", projectID, "error", err)
		return false
	}
	return true
}

// GetDocument returns the project's full annotation document, or an
// empty-frames shell when none is stored. Absence is a normal state,
// never an error.
func (s *Store) GetDocument(projectID string) *Document {
	doc, err := s.loadDocument(projectID)
	if err != nil {
		return NewDocument(projectID)
	}
	return doc
}

// GetFrameAnnotations returns the annotation list stored for one frame,
// or an empty list when the project or frame is unknown.
func (s *Store) GetFrameAnnotations(projectID string, frameIndex int) []Annotation {
	doc, err := s.loadDocument(projectID)
	if err != nil {
		return []Annotation{}
	}
	rec, ok := doc.Frames[strconv.Itoa(frameIndex)]
	if !ok || rec.Annotations == nil {
		return []Annotation{}
	}
	return rec.Annotations
}

// LoadDocument returns the stored document or ErrNotFound when the project
// has none. A document that exists but cannot be decoded is reported as
// ErrNotFound too, after logging the corruption.
func (s *Store) LoadDocument(projectID string) (*Document, error) {
	return s.loadDocument(projectID)
}

// DeleteAnnotation removes the annotation with the given id from a frame's
// list. Deleting an id that does not exist in an existing frame succeeds
// trivially. Returns false when the project or frame does not exist or the
// write fails. The frame record itself persists even when emptied.
func (s *Store) DeleteAnnotation(projectID string, frameIndex int, annotationID string) bool {
	lock := s.lockFor(projectID)
	lock.Lock()
	defer lock.Unlock()

	doc, err := s.loadDocument(projectID)
	if err != nil {
		return false
	}

	rec, ok := doc.Frames[strconv.Itoa(frameIndex)]
	if !ok {
		return false
	}

	kept := make([]Annotation, 0, len(rec.Annotations))
	for _, ann := range rec.Annotations {
		if ann.ID != annotationID {
			kept = append(kept, ann)
		}
	}
	rec.Annotations = kept

	now := time.Now().UTC()
	rec.UpdatedAt = now
	doc.UpdatedAt = now

	if err := s.writeDocument(projectID, doc); err != nil {
		s.logger.Error("failed to write annotation document", "project_id", projectID, "error", err)
		return false
	}
	return true
}

// DeleteProject removes the project's entire datasets subtree, including
// export artifacts. Returns false when nothing existed to delete.
func (s *Store) DeleteProject(projectID string) bool {
	lock := s.lockFor(projectID)
	lock.Lock()
	defer lock.Unlock()

	dir := s.projectDir(projectID)
	if _, err := os.Stat(dir); err != nil {
		return false
	}
	if err := os.RemoveAll(dir); err != nil {
		s.logger.Error("failed to delete project data", "project_id", projectID, "error", err)
		return false
	}
	return true
}

func (s *Store) loadDocument(projectID string) (*Document, error) {
	data, err := os.ReadFile(s.documentPath(projectID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read annotation document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		// A corrupted document reads as absent so one bad file cannot take
		// the whole project workflow down, but the corruption is not silent.
		s.logger.Error("annotation document is corrupted, treating as absent",
			"project_id", projectID, "error", err)
		return nil, ErrNotFound
	}
	if doc.Frames == nil {
		doc.Frames = make(map[string]*FrameRecord)
	}
	return &doc, nil
}

func (s *Store) writeDocument(projectID string, doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode annotation document: %w", err)
	}

	path := s.documentPath(projectID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write annotation document: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace annotation document: %w", err)
	}
	return nil
}
