// Package export transforms a project's annotation document into one of the
// standard computer-vision dataset formats: YOLO, COCO or Pascal VOC. All
// three serializers share one deterministic class index so class ids are
// reproducible across runs and formats.
package export

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/NizarSH98/OD-SaaS/internal/annotation"
)

const (
	FormatYOLO      = "yolo"
	FormatCOCO      = "coco"
	FormatPascalVOC = "pascal_voc"
)

var (
	// ErrNotFound means the project has no annotation document to export.
	ErrNotFound = errors.New("no annotations found for project")
	// ErrUnsupportedFormat means the requested format is not one of
	// yolo, coco or pascal_voc.
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// SupportedFormats lists the dataset formats the engine can produce.
func SupportedFormats() []string {
	return []string{FormatYOLO, FormatCOCO, FormatPascalVOC}
}

// DocumentLoader is the slice of the annotation store the engine consumes.
type DocumentLoader interface {
	LoadDocument(projectID string) (*annotation.Document, error)
}

// Engine writes format-specific dataset trees under each project's
// datasets directory.
type Engine struct {
	store       DocumentLoader
	datasetsDir string
	logger      *slog.Logger
}

func NewEngine(store DocumentLoader, datasetsDir string, logger *slog.Logger) *Engine {
	return &Engine{store: store, datasetsDir: datasetsDir, logger: logger}
}

// ExportDataset renders the project's annotations in the requested format
// and returns the export directory path. The directory is recreated fresh on
// every run. A missing document or unknown format aborts the export; defects
// in individual frames (missing source image, malformed bbox) are skipped so
// the rest of the project still exports.
func (e *Engine) ExportDataset(projectID, format string) (string, error) {
	switch format {
	case FormatYOLO, FormatCOCO, FormatPascalVOC:
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	doc, err := e.store.LoadDocument(projectID)
	if err != nil {
		if errors.Is(err, annotation.ErrNotFound) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, projectID)
		}
		return "", fmt.Errorf("load annotations for %s: %w", projectID, err)
	}

	exportDir := filepath.Join(e.datasetsDir, projectID, "export_"+format)
	if err := os.RemoveAll(exportDir); err != nil {
		return "", fmt.Errorf("clear export directory: %w", err)
	}
	if err := os.MkdirAll(exportDir, 0755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	classes := classIndex(doc)
	frames := sortedFrames(doc)

	switch format {
	case FormatYOLO:
		err = e.exportYOLO(exportDir, classes, frames)
	case FormatCOCO:
		err = e.exportCOCO(exportDir, classes, frames)
	case FormatPascalVOC:
		err = e.exportPascalVOC(exportDir, frames)
	}
	if err != nil {
		return "", err
	}

	e.logger.Info("dataset exported",
		"project_id", projectID, "format", format,
		"frames", len(frames), "classes", len(classes))
	return exportDir, nil
}

// classIndex collects the distinct class labels across every frame, sorted
// lexicographically. The position of a label in the returned slice is its
// integer class id in every format.
func classIndex(doc *annotation.Document) []string {
	seen := make(map[string]bool)
	for _, rec := range doc.Frames {
		for _, ann := range rec.Annotations {
			seen[className(ann)] = true
		}
	}

	classes := make([]string, 0, len(seen))
	for class := range seen {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	return classes
}

func className(ann annotation.Annotation) string {
	if ann.Class == "" {
		return annotation.DefaultClass
	}
	return ann.Class
}

func classID(classes []string, name string) int {
	for i, c := range classes {
		if c == name {
			return i
		}
	}
	return 0
}

// sortedFrames returns the frame records in ascending frame-index order so
// that id assignment and file iteration are reproducible. Records whose map
// key is not a valid index are skipped.
func sortedFrames(doc *annotation.Document) []*annotation.FrameRecord {
	frames := make([]*annotation.FrameRecord, 0, len(doc.Frames))
	for key, rec := range doc.Frames {
		if _, err := strconv.Atoi(key); err != nil {
			continue
		}
		frames = append(frames, rec)
	}
	sort.Slice(frames, func(i, j int) bool {
		return frames[i].FrameIndex < frames[j].FrameIndex
	})
	return frames
}

// frameBasename is the frame's image filename without its extension, used to
// name per-frame label and XML files.
func frameBasename(rec *annotation.FrameRecord) string {
	base := filepath.Base(rec.FramePath)
	ext := filepath.Ext(base)
	return base[:len(base)-len(ext)]
}
