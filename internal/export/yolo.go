package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/NizarSH98/OD-SaaS/internal/annotation"
)

// exportYOLO writes classes.txt, one normalized label file per frame under
// labels/, and copies each frame image that exists on disk into images/.
// Box coordinates are normalized against the annotation's own recorded image
// dimensions, not a global constant.
func (e *Engine) exportYOLO(exportDir string, classes []string, frames []*annotation.FrameRecord) error {
	classesPath := filepath.Join(exportDir, "classes.txt")
	if err := os.WriteFile(classesPath, []byte(strings.Join(classes, "\n")), 0o644); err != nil {
		return fmt.Errorf("write classes.txt: %w", err)
	}

	labelsDir := filepath.Join(exportDir, "labels")
	imagesDir := filepath.Join(exportDir, "images")
	for _, dir := range []string{labelsDir, imagesDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	for _, rec := range frames {
		if err := copyFrameImage(rec.FramePath, imagesDir); err != nil {
			e.logger.Warn("skipping frame image copy", "frame", rec.FrameIndex, "error", err)
		}

		var b strings.Builder
		for _, ann := range rec.Annotations {
			if ann.ImageWidth <= 0 || ann.ImageHeight <= 0 {
				e.logger.Warn("skipping annotation without image dimensions",
					"frame", rec.FrameIndex, "annotation_id", ann.ID)
				continue
			}
			w := float64(ann.ImageWidth)
			h := float64(ann.ImageHeight)
			centerX := (ann.BBox.X + ann.BBox.Width/2) / w
			centerY := (ann.BBox.Y + ann.BBox.Height/2) / h
			fmt.Fprintf(&b, "%d %g %g %g %g\n",
				classID(classes, className(ann)),
				centerX, centerY, ann.BBox.Width/w, ann.BBox.Height/h)
		}

		labelPath := filepath.Join(labelsDir, frameBasename(rec)+".txt")
		if err := os.WriteFile(labelPath, []byte(b.String()), 0o644); err != nil {
			e.logger.Warn("skipping frame label file", "frame", rec.FrameIndex, "error", err)
		}
	}

	return nil
}

// copyFrameImage copies the source frame into the images directory. A source
// that no longer exists on disk is not an error worth stopping for.
func copyFrameImage(framePath, imagesDir string) error {
	src, err := os.Open(framePath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(imagesDir, filepath.Base(framePath)))
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}
