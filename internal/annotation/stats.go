package annotation

import "sort"

// Statistics summarizes a project's annotation state. Computed from the
// stored document on demand, never persisted.
type Statistics struct {
	TotalFrames          int            `json:"total_frames"`
	AnnotatedFrames      int            `json:"annotated_frames"`
	TotalAnnotations     int            `json:"total_annotations"`
	AnnotationsPerFrame  float64        `json:"annotations_per_frame"`
	CompletionPercentage float64        `json:"completion_percentage"`
	ClassDistribution    map[string]int `json:"class_distribution"`
	Classes              []string       `json:"classes"`
}

// ProjectStatistics derives summary counts from the project's annotation
// document. A project with no stored document yields zero-valued statistics,
// not an error.
func (s *Store) ProjectStatistics(projectID string) *Statistics {
	stats := &Statistics{
		ClassDistribution: make(map[string]int),
		Classes:           []string{},
	}

	doc, err := s.loadDocument(projectID)
	if err != nil {
		return stats
	}

	stats.TotalFrames = len(doc.Frames)
	for _, rec := range doc.Frames {
		if len(rec.Annotations) > 0 {
			stats.AnnotatedFrames++
		}
		stats.TotalAnnotations += len(rec.Annotations)
		for _, ann := range rec.Annotations {
			class := ann.Class
			if class == "" {
				class = DefaultClass
			}
			stats.ClassDistribution[class]++
		}
	}

	if stats.TotalFrames > 0 {
		stats.AnnotationsPerFrame = float64(stats.TotalAnnotations) / float64(stats.TotalFrames)
		stats.CompletionPercentage = float64(stats.AnnotatedFrames) / float64(stats.TotalFrames) * 100
	}

	for class := range stats.ClassDistribution {
		stats.Classes = append(stats.Classes, class)
	}
	sort.Strings(stats.Classes)

	return stats
}
