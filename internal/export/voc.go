package export

import (
	"encoding/xml"
	"os"
	"path/filepath"

	"github.com/NizarSH98/OD-SaaS/internal/annotation"
)

type vocAnnotation struct {
	XMLName  xml.Name    `xml:"annotation"`
	Filename string      `xml:"filename"`
	Size     vocSize     `xml:"size"`
	Objects  []vocObject `xml:"object"`
}

type vocSize struct {
	Width  int `xml:"width"`
	Height int `xml:"height"`
	Depth  int `xml:"depth"`
}

type vocObject struct {
	Name   string    `xml:"name"`
	BndBox vocBndBox `xml:"bndbox"`
}

type vocBndBox struct {
	Xmin int `xml:"xmin"`
	Ymin int `xml:"ymin"`
	Xmax int `xml:"xmax"`
	Ymax int `xml:"ymax"`
}

// exportPascalVOC writes one XML file per frame, named after the frame's
// basename. Box corners are coerced to integers by truncation. A frame with
// no annotations gets a zero-valued size block; frames with annotations take
// the first annotation's recorded dimensions.
func (e *Engine) exportPascalVOC(exportDir string, frames []*annotation.FrameRecord) error {
	for _, rec := range frames {
		doc := vocAnnotation{
			Filename: filepath.Base(rec.FramePath),
			Objects:  make([]vocObject, 0, len(rec.Annotations)),
		}

		if len(rec.Annotations) > 0 {
			doc.Size = vocSize{
				Width:  rec.Annotations[0].ImageWidth,
				Height: rec.Annotations[0].ImageHeight,
				Depth:  3,
			}
		}

		for _, ann := range rec.Annotations {
			doc.Objects = append(doc.Objects, vocObject{
				Name: className(ann),
				BndBox: vocBndBox{
					Xmin: int(ann.BBox.X),
					Ymin: int(ann.BBox.Y),
					Xmax: int(ann.BBox.X + ann.BBox.Width),
					Ymax: int(ann.BBox.Y + ann.BBox.Height),
				},
			})
		}

		data, err := xml.MarshalIndent(doc, "", "  ")
		if err != nil {
			e.logger.Warn("skipping frame xml", "frame", rec.FrameIndex, "error", err)
			continue
		}

		xmlPath := filepath.Join(exportDir, frameBasename(rec)+".xml")
		content := append([]byte(xml.Header), data...)
		if err := os.WriteFile(xmlPath, content, 0o644); err != nil {
			e.logger.Warn("skipping frame xml", "frame", rec.FrameIndex, "error", err)
		}
	}
	return nil
}
