package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/NizarSH98/OD-SaaS/internal/metrics"
)

func saveAnnotationsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		frame, err := strconv.Atoi(chi.URLParam(r, "frame"))
		if err != nil || frame < 0 {
			WriteError(w, http.StatusBadRequest, "invalid frame index", "BAD_REQUEST")
			return
		}

		var req SaveAnnotationsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		framePath, err := cfg.Projects.FramePath(id, frame)
		if err != nil {
			WriteError(w, http.StatusNotFound, "frame not found", "NOT_FOUND")
			return
		}

		if !cfg.Annotations.SaveAnnotations(id, frame, framePath, req.Annotations) {
			WriteError(w, http.StatusInternalServerError, "failed to save annotations", "INTERNAL_ERROR")
			return
		}
		metrics.AnnotationsSavedTotal.Inc()

		WriteJSON(w, http.StatusOK, SaveAnnotationsResponse{
			Saved:       true,
			Annotations: cfg.Annotations.GetFrameAnnotations(id, frame),
		})
	}
}

func deleteAnnotationHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		frame, err := strconv.Atoi(chi.URLParam(r, "frame"))
		if err != nil || frame < 0 {
			WriteError(w, http.StatusBadRequest, "invalid frame index", "BAD_REQUEST")
			return
		}
		annID := chi.URLParam(r, "annId")

		if !cfg.Annotations.DeleteAnnotation(id, frame, annID) {
			WriteError(w, http.StatusNotFound, "annotation not found", "NOT_FOUND")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
