package api

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/NizarSH98/OD-SaaS/internal/export"
	"github.com/NizarSH98/OD-SaaS/internal/metrics"
	"github.com/NizarSH98/OD-SaaS/internal/project"
	"github.com/NizarSH98/OD-SaaS/internal/storage"
)

// uploadHandler creates a project: it stores the uploaded video, probes it,
// extracts frames at the requested interval and writes the project metadata.
func uploadHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, cfg.Config.MaxUploadBytes)
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid multipart form or upload too large", "BAD_REQUEST")
			return
		}

		file, header, err := r.FormFile("video")
		if err != nil {
			WriteError(w, http.StatusBadRequest, "video file is required", "BAD_REQUEST")
			return
		}
		defer file.Close()

		if !storage.AllowedExtension(header.Filename) {
			WriteError(w, http.StatusBadRequest, "unsupported video format", "BAD_REQUEST")
			return
		}

		interval := cfg.Config.DefaultFrameInterval
		if raw := r.FormValue("interval"); raw != "" {
			interval, err = strconv.ParseFloat(raw, 64)
			if err != nil {
				WriteError(w, http.StatusBadRequest, "invalid interval", "BAD_REQUEST")
				return
			}
		}
		if interval < cfg.Config.MinFrameInterval || interval > cfg.Config.MaxFrameInterval {
			WriteError(w, http.StatusBadRequest, "interval out of range", "BAD_REQUEST")
			return
		}

		projectID := newProjectID(cfg, r.FormValue("project_name"), header.Filename)

		storedName, err := cfg.Uploads.SaveFile(file, header.Filename)
		if err != nil {
			metrics.UploadsTotal.WithLabelValues("error").Inc()
			cfg.Logger.Error("failed to store upload", "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to store upload", "INTERNAL_ERROR")
			return
		}
		videoPath, err := cfg.Uploads.Path(storedName)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to resolve upload path", "INTERNAL_ERROR")
			return
		}

		probe, err := cfg.Extractor.Probe(r.Context(), videoPath)
		if err != nil {
			metrics.UploadsTotal.WithLabelValues("error").Inc()
			cfg.Uploads.DeleteFile(storedName)
			cfg.Logger.Error("failed to probe video", "project_id", projectID, "error", err)
			WriteError(w, http.StatusBadRequest, "unreadable video file", "BAD_REQUEST")
			return
		}

		frames, err := cfg.Extractor.ExtractFrames(r.Context(), videoPath, projectID, interval)
		if err != nil {
			metrics.UploadsTotal.WithLabelValues("error").Inc()
			cfg.Uploads.DeleteFile(storedName)
			cfg.Logger.Error("frame extraction failed", "project_id", projectID, "error", err)
			WriteError(w, http.StatusInternalServerError, "frame extraction failed", "INTERNAL_ERROR")
			return
		}
		metrics.FramesExtractedTotal.Add(float64(len(frames)))

		meta := &project.Metadata{
			ProjectID:      projectID,
			VideoName:      header.Filename,
			VideoPath:      videoPath,
			FPS:            probe.FPS,
			TotalFrames:    probe.TotalFrames,
			Duration:       probe.Duration,
			Interval:       interval,
			ExtractedCount: len(frames),
			CreatedAt:      time.Now().UTC(),
			FramePaths:     frames,
		}
		if err := cfg.Projects.Save(meta); err != nil {
			metrics.UploadsTotal.WithLabelValues("error").Inc()
			cfg.Logger.Error("failed to save project metadata", "project_id", projectID, "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to save project", "INTERNAL_ERROR")
			return
		}

		metrics.UploadsTotal.WithLabelValues("success").Inc()
		cfg.Logger.Info("project created",
			"project_id", projectID,
			"video", header.Filename,
			"frames", len(frames),
			"interval", interval,
		)
		WriteJSON(w, http.StatusCreated, MetadataToResponse(meta))
	}
}

// newProjectID derives a filesystem-safe project id from the requested name,
// falling back to the video filename and finally to a generated id. Existing
// project ids get a random suffix instead of being overwritten.
func newProjectID(cfg ServerConfig, requested, videoName string) string {
	name := requested
	if name == "" {
		name = strings.TrimSuffix(videoName, filepath.Ext(videoName))
	}

	id := export.SanitizeName(name, 64)
	id = strings.TrimLeft(id, ". ")
	if id == "" {
		id = "project_" + shortID()
	}

	if _, err := cfg.Projects.Get(id); err == nil {
		id = id + "_" + shortID()
	}
	return id
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
