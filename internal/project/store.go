// Package project owns per-project descriptive metadata: video name, frame
// counts, extraction cadence and the ordered frame path list. One
// metadata.json per project, written once at extraction time.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// ErrNotFound is returned when a project has no stored metadata.
var ErrNotFound = errors.New("project metadata not found")

const metadataFilename = "metadata.json"

// Metadata describes one project's source video and extraction run.
// Immutable after creation.
type Metadata struct {
	ProjectID      string    `json:"project_id"`
	VideoName      string    `json:"video_name"`
	VideoPath      string    `json:"video_path"`
	FPS            float64   `json:"fps"`
	TotalFrames    int       `json:"total_frames"`
	Duration       float64   `json:"duration"`
	Interval       float64   `json:"interval"`
	ExtractedCount int       `json:"extracted_count"`
	CreatedAt      time.Time `json:"created_at"`
	FramePaths     []string  `json:"frame_paths"`
}

// Summary is the listing view of a project.
type Summary struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
	FrameCount int       `json:"frame_count"`
}

// Store persists project metadata documents under the datasets directory,
// alongside each project's annotation document.
type Store struct {
	datasetsDir string
	logger      *slog.Logger
}

func NewStore(datasetsDir string, logger *slog.Logger) *Store {
	return &Store{datasetsDir: datasetsDir, logger: logger}
}

func (s *Store) metadataPath(projectID string) string {
	return filepath.Join(s.datasetsDir, projectID, metadataFilename)
}

// Save writes a project's metadata document, creating the project directory
// if absent.
func (s *Store) Save(meta *Metadata) error {
	dir := filepath.Join(s.datasetsDir, meta.ProjectID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create project directory: %w", err)
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := os.WriteFile(s.metadataPath(meta.ProjectID), data, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// Get loads a project's metadata, or ErrNotFound.
func (s *Store) Get(projectID string) (*Metadata, error) {
	data, err := os.ReadFile(s.metadataPath(projectID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read metadata: %w", err)
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		s.logger.Error("project metadata is corrupted", "project_id", projectID, "error", err)
		return nil, ErrNotFound
	}
	return &meta, nil
}

// FramePath resolves the image path for one extracted frame, bounds-checked
// against the recorded frame list.
func (s *Store) FramePath(projectID string, frameIndex int) (string, error) {
	meta, err := s.Get(projectID)
	if err != nil {
		return "", err
	}
	if frameIndex < 0 || frameIndex >= len(meta.FramePaths) {
		return "", fmt.Errorf("frame index %d out of range [0, %d)", frameIndex, len(meta.FramePaths))
	}
	return meta.FramePaths[frameIndex], nil
}

// List enumerates all projects that have readable metadata, newest first.
// Directories without valid metadata are skipped.
func (s *Store) List() []Summary {
	entries, err := os.ReadDir(s.datasetsDir)
	if err != nil {
		return []Summary{}
	}

	summaries := make([]Summary, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Get(entry.Name())
		if err != nil {
			continue
		}
		summaries = append(summaries, Summary{
			ID:         meta.ProjectID,
			Name:       meta.VideoName,
			CreatedAt:  meta.CreatedAt,
			FrameCount: meta.ExtractedCount,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries
}
