package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/NizarSH98/OD-SaaS/internal/auth"
	"github.com/NizarSH98/OD-SaaS/internal/config"
	"github.com/NizarSH98/OD-SaaS/internal/project"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/auth/register", registerHandler(cfg))
	r.Post("/auth/login", loginHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Auth, cfg.Logger))

		r.Post("/auth/logout", logoutHandler(cfg))

		r.Get("/projects", listProjectsHandler(cfg))
		r.Post("/projects", uploadHandler(cfg))
		r.Get("/projects/{id}", getProjectHandler(cfg))
		r.Delete("/projects/{id}", deleteProjectHandler(cfg))
		r.Get("/projects/{id}/stats", statsHandler(cfg))
		r.Get("/projects/{id}/frames/{index}", frameHandler(cfg))
		r.Get("/projects/{id}/annotations", getDocumentHandler(cfg))
		r.Get("/projects/{id}/annotations/{frame}", getFrameAnnotationsHandler(cfg))
		r.Post("/projects/{id}/annotations/{frame}", saveAnnotationsHandler(cfg))
		r.Delete("/projects/{id}/annotations/{frame}/{annId}", deleteAnnotationHandler(cfg))
		r.Get("/projects/{id}/export/{format}", exportHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: config.Version,
			UptimeS: uptime,
		})
	}
}

func registerHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CredentialsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		user, token, err := cfg.Auth.Register(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrEmailTaken) {
				WriteError(w, http.StatusConflict, "email already registered", "EMAIL_TAKEN")
				return
			}
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusCreated, AuthResponse{Token: token, User: UserToResponse(user)})
	}
}

func loginHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CredentialsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		user, token, err := cfg.Auth.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				WriteError(w, http.StatusUnauthorized, "invalid email or password", "UNAUTHORIZED")
				return
			}
			WriteError(w, http.StatusInternalServerError, "login failed", "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusOK, AuthResponse{Token: token, User: UserToResponse(user)})
	}
}

func logoutHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if err := cfg.Auth.Logout(r.Context(), token); err != nil {
			WriteError(w, http.StatusInternalServerError, "logout failed", "INTERNAL_ERROR")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && header[:7] == "Bearer " {
		return header[7:]
	}
	return ""
}

func listProjectsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summaries := cfg.Projects.List()

		resp := ProjectsResponse{Projects: make([]ProjectSummaryResponse, len(summaries))}
		for i, s := range summaries {
			resp.Projects[i] = SummaryToResponse(s)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		meta, err := cfg.Projects.Get(id)
		if err != nil {
			if errors.Is(err, project.ErrNotFound) {
				WriteError(w, http.StatusNotFound, "project not found", "NOT_FOUND")
				return
			}
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusOK, MetadataToResponse(meta))
	}
}

func deleteProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		meta, err := cfg.Projects.Get(id)
		if err != nil {
			WriteError(w, http.StatusNotFound, "project not found", "NOT_FOUND")
			return
		}

		if meta.VideoPath != "" {
			if err := cfg.Uploads.DeleteFile(filepath.Base(meta.VideoPath)); err != nil {
				cfg.Logger.Warn("failed to delete uploaded video", "project_id", id, "error", err)
			}
		}
		cfg.Extractor.DeleteProjectFrames(id)
		cfg.Annotations.DeleteProject(id)

		w.WriteHeader(http.StatusNoContent)
	}
}

func statsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if _, err := cfg.Projects.Get(id); err != nil {
			WriteError(w, http.StatusNotFound, "project not found", "NOT_FOUND")
			return
		}

		WriteJSON(w, http.StatusOK, cfg.Annotations.ProjectStatistics(id))
	}
}

func frameHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil || index < 0 {
			WriteError(w, http.StatusBadRequest, "invalid frame index", "BAD_REQUEST")
			return
		}

		path, err := cfg.Projects.FramePath(id, index)
		if err != nil {
			WriteError(w, http.StatusNotFound, "frame not found", "NOT_FOUND")
			return
		}

		w.Header().Set("Content-Type", "image/jpeg")
		http.ServeFile(w, r, path)
	}
}

func getDocumentHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		WriteJSON(w, http.StatusOK, cfg.Annotations.GetDocument(id))
	}
}

func getFrameAnnotationsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		frame, err := strconv.Atoi(chi.URLParam(r, "frame"))
		if err != nil || frame < 0 {
			WriteError(w, http.StatusBadRequest, "invalid frame index", "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusOK, AnnotationsResponse{
			FrameIndex:  frame,
			Annotations: cfg.Annotations.GetFrameAnnotations(id, frame),
		})
	}
}
