// Package config provides configuration for the VisionLabel server.
// Values are read from environment variables with defaults suitable for
// local single-user deployments.
package config

import (
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port     int    `env:"VISIONLABEL_PORT"      envDefault:"8080"`
	LogLevel string `env:"VISIONLABEL_LOG_LEVEL" envDefault:"info"`
	DataDir  string `env:"VISIONLABEL_DATA_DIR"  envDefault:"./data"`

	MaxUploadBytes int64 `env:"VISIONLABEL_MAX_UPLOAD_BYTES" envDefault:"524288000"`

	DefaultFrameInterval float64 `env:"VISIONLABEL_DEFAULT_INTERVAL" envDefault:"1.0"`
	MinFrameInterval     float64 `env:"VISIONLABEL_MIN_INTERVAL"     envDefault:"0.1"`
	MaxFrameInterval     float64 `env:"VISIONLABEL_MAX_INTERVAL"     envDefault:"10.0"`

	FFmpegPath  string `env:"VISIONLABEL_FFMPEG_PATH"  envDefault:"ffmpeg"`
	FFprobePath string `env:"VISIONLABEL_FFPROBE_PATH" envDefault:"ffprobe"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// UploadsDir is where raw uploaded videos are kept.
func (c *Config) UploadsDir() string {
	return filepath.Join(c.DataDir, "uploads")
}

// FramesDir holds the extracted frame images, one subdirectory per project.
func (c *Config) FramesDir() string {
	return filepath.Join(c.DataDir, "frames")
}

// DatasetsDir holds annotation documents and export output, one
// subdirectory per project.
func (c *Config) DatasetsDir() string {
	return filepath.Join(c.DataDir, "datasets")
}

// DBPath is the sqlite database holding users and sessions.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "visionlabel.db")
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
