package annotation

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultClass is assigned to annotations saved without a class label.
const DefaultClass = "object"

// BBox is an axis-aligned bounding box in absolute pixel units relative to
// the source frame's native resolution.
type BBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Annotation is one bounding box plus class label attached to a frame.
// ImageWidth/ImageHeight record the dimensions of the frame the box was
// drawn on; exporters that normalize coordinates divide by them.
// Confidence is passthrough only and not used by any format logic.
type Annotation struct {
	ID          string   `json:"id"`
	Class       string   `json:"class"`
	BBox        BBox     `json:"bbox"`
	ImageWidth  int      `json:"image_width"`
	ImageHeight int      `json:"image_height"`
	Confidence  *float64 `json:"confidence,omitempty"`
}

// FrameRecord holds the full annotation list for one extracted frame.
// A save replaces the record wholesale; there is no field-level merge.
type FrameRecord struct {
	FrameIndex  int          `json:"frame_index"`
	FramePath   string       `json:"frame_path"`
	Annotations []Annotation `json:"annotations"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Document is the canonical per-project annotation document. It is the sole
// source of truth for a project's annotations; every key in Frames is the
// decimal string form of a non-negative frame index.
type Document struct {
	ProjectID string                  `json:"project_id"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
	Frames    map[string]*FrameRecord `json:"frames"`
}

// NewDocument returns an empty document shell for a project.
func NewDocument(projectID string) *Document {
	now := time.Now().UTC()
	return &Document{
		ProjectID: projectID,
		CreatedAt: now,
		UpdatedAt: now,
		Frames:    make(map[string]*FrameRecord),
	}
}

// NewAnnotationID generates an id in the form {frame}_{position}_{8 hex chars}.
func NewAnnotationID(frameIndex, position int) string {
	return fmt.Sprintf("%d_%d_%s", frameIndex, position, strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// Normalize applies the store-boundary defaulting rules in place: every
// annotation without an id gets a generated one, every annotation without a
// class gets DefaultClass. Downstream consumers (statistics, exporters) rely
// on this running exactly once at save time and never re-default.
func Normalize(frameIndex int, anns []Annotation) {
	for i := range anns {
		if anns[i].ID == "" {
			anns[i].ID = NewAnnotationID(frameIndex, i)
		}
		if anns[i].Class == "" {
			anns[i].Class = DefaultClass
		}
	}
}
