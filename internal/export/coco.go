package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/NizarSH98/OD-SaaS/internal/annotation"
)

// Fallback image dimensions for COCO image entries whose annotations carry
// no recorded size.
const (
	fallbackImageWidth  = 640
	fallbackImageHeight = 480
)

type cocoDataset struct {
	Images      []cocoImage      `json:"images"`
	Annotations []cocoAnnotation `json:"annotations"`
	Categories  []cocoCategory   `json:"categories"`
}

type cocoImage struct {
	ID       int    `json:"id"`
	FileName string `json:"file_name"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

type cocoAnnotation struct {
	ID         int        `json:"id"`
	ImageID    int        `json:"image_id"`
	CategoryID int        `json:"category_id"`
	BBox       [4]float64 `json:"bbox"`
	Area       float64    `json:"area"`
	Iscrowd    int        `json:"iscrowd"`
}

type cocoCategory struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Supercategory string `json:"supercategory"`
}

// exportCOCO writes one annotations.json holding the whole dataset.
// Image ids are frame indexes; annotation ids increment globally from 1 in
// frame order; category ids are positions in the sorted class index.
func (e *Engine) exportCOCO(exportDir string, classes []string, frames []*annotation.FrameRecord) error {
	dataset := cocoDataset{
		Images:      []cocoImage{},
		Annotations: []cocoAnnotation{},
		Categories:  make([]cocoCategory, 0, len(classes)),
	}

	for i, class := range classes {
		dataset.Categories = append(dataset.Categories, cocoCategory{
			ID:            i,
			Name:          class,
			Supercategory: "object",
		})
	}

	annotationID := 1
	for _, rec := range frames {
		if len(rec.Annotations) == 0 {
			continue
		}

		width, height := rec.Annotations[0].ImageWidth, rec.Annotations[0].ImageHeight
		if width <= 0 {
			width = fallbackImageWidth
		}
		if height <= 0 {
			height = fallbackImageHeight
		}

		dataset.Images = append(dataset.Images, cocoImage{
			ID:       rec.FrameIndex,
			FileName: filepath.Base(rec.FramePath),
			Width:    width,
			Height:   height,
		})

		for _, ann := range rec.Annotations {
			dataset.Annotations = append(dataset.Annotations, cocoAnnotation{
				ID:         annotationID,
				ImageID:    rec.FrameIndex,
				CategoryID: classID(classes, className(ann)),
				BBox:       [4]float64{ann.BBox.X, ann.BBox.Y, ann.BBox.Width, ann.BBox.Height},
				Area:       ann.BBox.Width * ann.BBox.Height,
				Iscrowd:    0,
			})
			annotationID++
		}
	}

	data, err := json.MarshalIndent(dataset, "", "  ")
	if err != nil {
		return fmt.Errorf("encode coco dataset: %w", err)
	}
	if err := os.WriteFile(filepath.Join(exportDir, "annotations.json"), data, 0o644); err != nil {
		return fmt.Errorf("write coco dataset: %w", err)
	}
	return nil
}
