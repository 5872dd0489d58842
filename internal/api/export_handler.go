package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/NizarSH98/OD-SaaS/internal/export"
	"github.com/NizarSH98/OD-SaaS/internal/metrics"
)

// exportHandler runs a dataset export and streams the result as a zip
// archive. The export directory and zip are rebuilt on every request.
func exportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		format := strings.ToLower(chi.URLParam(r, "format"))

		start := time.Now()
		exportDir, err := cfg.Exporter.ExportDataset(id, format)
		if err != nil {
			if errors.Is(err, export.ErrUnsupportedFormat) {
				metrics.ExportsTotal.WithLabelValues(format, "error").Inc()
				WriteError(w, http.StatusBadRequest,
					fmt.Sprintf("unsupported format %q, expected one of %s", format, strings.Join(export.SupportedFormats(), ", ")),
					"BAD_REQUEST")
				return
			}
			if errors.Is(err, export.ErrNotFound) {
				metrics.ExportsTotal.WithLabelValues(format, "error").Inc()
				WriteError(w, http.StatusNotFound, "project not found", "NOT_FOUND")
				return
			}
			metrics.ExportsTotal.WithLabelValues(format, "error").Inc()
			cfg.Logger.Error("export failed", "project_id", id, "format", format, "error", err)
			WriteError(w, http.StatusInternalServerError, "export failed", "INTERNAL_ERROR")
			return
		}

		zipName := fmt.Sprintf("%s_%s_dataset.zip", id, format)
		zipPath := filepath.Join(filepath.Dir(exportDir), zipName)
		if err := export.ZipDirectory(exportDir, zipPath); err != nil {
			metrics.ExportsTotal.WithLabelValues(format, "error").Inc()
			cfg.Logger.Error("failed to package export", "project_id", id, "format", format, "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to package export", "INTERNAL_ERROR")
			return
		}

		metrics.ExportsTotal.WithLabelValues(format, "success").Inc()
		metrics.ExportDuration.WithLabelValues(format).Observe(time.Since(start).Seconds())
		cfg.Logger.Info("dataset exported",
			"project_id", id,
			"format", format,
			"duration_ms", time.Since(start).Milliseconds(),
		)

		info, err := os.Stat(zipPath)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "export archive missing", "INTERNAL_ERROR")
			return
		}

		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", zipName))
		w.Header().Set("Content-Length", fmt.Sprintf("%d", info.Size()))
		http.ServeFile(w, r, zipPath)
	}
}
