// Package video extracts still frames from uploaded videos with ffmpeg and
// reads stream metadata with ffprobe.
package video

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ProbeResult carries the video properties recorded in project metadata.
type ProbeResult struct {
	FPS         float64
	TotalFrames int
	Duration    float64
}

type Extractor struct {
	ffmpegPath  string
	ffprobePath string
	framesDir   string
	logger      *slog.Logger
}

// NewExtractor resolves the ffmpeg and ffprobe binaries and prepares the
// frames directory.
func NewExtractor(ffmpegPath, ffprobePath, framesDir string, logger *slog.Logger) (*Extractor, error) {
	resolvedFFmpeg, err := exec.LookPath(ffmpegPath)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}
	resolvedFFprobe, err := exec.LookPath(ffprobePath)
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found: %w", err)
	}
	if err := os.MkdirAll(framesDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create frames directory: %w", err)
	}

	return &Extractor{
		ffmpegPath:  resolvedFFmpeg,
		ffprobePath: resolvedFFprobe,
		framesDir:   framesDir,
		logger:      logger,
	}, nil
}

// Probe reads fps, frame count and duration from the video's first stream.
func (e *Extractor) Probe(ctx context.Context, videoPath string) (*ProbeResult, error) {
	cmd := exec.CommandContext(ctx, e.ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=avg_frame_rate,nb_frames",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1",
		videoPath,
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe: %w", err)
	}
	return parseProbeOutput(string(output))
}

// ExtractFrames samples the video at one frame every interval seconds into
// the project's frames directory and returns the ordered frame paths.
func (e *Extractor) ExtractFrames(ctx context.Context, videoPath, projectID string, interval float64) ([]string, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return nil, fmt.Errorf("video file not accessible: %w", err)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("invalid interval: %v", interval)
	}

	projectDir := filepath.Join(e.framesDir, projectID)
	if err := os.MkdirAll(projectDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create project frames directory: %w", err)
	}

	pattern := filepath.Join(projectDir, "frame_%06d.jpg")
	cmd := exec.CommandContext(ctx, e.ffmpegPath,
		"-i", videoPath,
		"-vf", fmt.Sprintf("fps=1/%g", interval),
		"-start_number", "0",
		"-q:v", "2",
		"-y",
		pattern,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		e.logger.Error("ffmpeg extraction failed", "project_id", projectID, "stderr", stderr.String())
		return nil, fmt.Errorf("ffmpeg: %w", err)
	}

	frames, err := filepath.Glob(filepath.Join(projectDir, "frame_*.jpg"))
	if err != nil {
		return nil, fmt.Errorf("glob frames: %w", err)
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames extracted from video")
	}
	sort.Strings(frames)

	e.logger.Info("frames extracted", "project_id", projectID, "count", len(frames), "interval", interval)
	return frames, nil
}

// DeleteProjectFrames removes a project's extracted frame images.
// Returns false when the project had no frames directory.
func (e *Extractor) DeleteProjectFrames(projectID string) bool {
	dir := filepath.Join(e.framesDir, projectID)
	if _, err := os.Stat(dir); err != nil {
		return false
	}
	if err := os.RemoveAll(dir); err != nil {
		e.logger.Error("failed to delete project frames", "project_id", projectID, "error", err)
		return false
	}
	return true
}

func parseProbeOutput(output string) (*ProbeResult, error) {
	result := &ProbeResult{}
	for _, line := range strings.Split(output, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		switch key {
		case "avg_frame_rate":
			if fps, err := parseRate(value); err == nil {
				result.FPS = fps
			}
		case "nb_frames":
			if n, err := strconv.Atoi(value); err == nil {
				result.TotalFrames = n
			}
		case "duration":
			if d, err := strconv.ParseFloat(value, 64); err == nil {
				result.Duration = d
			}
		}
	}

	if result.Duration <= 0 {
		return nil, fmt.Errorf("duration not found in ffprobe output")
	}
	// Containers that don't record nb_frames report N/A; estimate instead.
	if result.TotalFrames == 0 && result.FPS > 0 {
		result.TotalFrames = int(result.Duration * result.FPS)
	}
	return result, nil
}

// parseRate parses an ffprobe rational like "30000/1001" or a plain number.
func parseRate(s string) (float64, error) {
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, err
		}
		d, err := strconv.ParseFloat(den, 64)
		if err != nil {
			return 0, err
		}
		if d == 0 {
			return 0, fmt.Errorf("zero denominator in rate %q", s)
		}
		return n / d, nil
	}
	return strconv.ParseFloat(s, 64)
}
