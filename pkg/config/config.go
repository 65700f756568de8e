// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/user/frameset/pkg/adapters/mjpegdecoder"
	"github.com/user/frameset/pkg/framestore"
	"github.com/user/frameset/pkg/labels"
	"github.com/user/frameset/pkg/orchestrator"
	"github.com/user/frameset/pkg/ports"
	"github.com/user/frameset/pkg/transform"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("config: invalid")

// Config represents the full configuration of a dataset.
type Config struct {
	// Labels and their intervals per video
	Labels     []labels.LabelConfig `yaml:"labels"`
	LabelSheet string               `yaml:"label_sheet"`

	// Decoding
	FrameRate       float64  `yaml:"frame_rate"`
	FFmpegPath      string   `yaml:"ffmpeg_path"`
	VideoExtensions []string `yaml:"video_extensions"`

	// Preprocessing
	Workers       int                 `yaml:"workers"`
	Preprocessing PreprocessingConfig `yaml:"preprocessing"`

	// Storage
	Store StoreConfig `yaml:"store"`

	// Review classes, defaulting to the label names
	Classes []string `yaml:"classes"`
}

// StoreConfig represents the on-disk frame encoding.
type StoreConfig struct {
	Format  string `yaml:"format"`
	Quality int    `yaml:"quality"`
}

// PreprocessingConfig holds the transform chain.
type PreprocessingConfig struct {
	Transformations []transform.Spec `yaml:"transformations"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		FrameRate:       mjpegdecoder.DefaultFrameRate,
		VideoExtensions: append([]string(nil), orchestrator.DefaultVideoExtensions...),
		Store: StoreConfig{
			Format:  "jpeg",
			Quality: framestore.DefaultQuality,
		},
	}
}

// LoadFromFile loads configuration from a YAML file.
// A relative label_sheet is resolved against the directory of the file.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.LabelSheet != "" && !filepath.IsAbs(cfg.LabelSheet) {
		cfg.LabelSheet = filepath.Join(filepath.Dir(path), cfg.LabelSheet)
	}

	return cfg, nil
}

// Validate checks the values that cannot be checked by the components themselves before I/O.
func (c Config) Validate() error {
	if _, err := ports.ParseImageFormat(c.Store.Format); err != nil {
		return fmt.Errorf("%w: store.format: %v", ErrInvalidConfig, err)
	}
	if c.Store.Quality < 1 || c.Store.Quality > 100 {
		return fmt.Errorf("%w: store.quality must be within 1..100, got %d", ErrInvalidConfig, c.Store.Quality)
	}
	if c.FrameRate <= 0 {
		return fmt.Errorf("%w: frame_rate must be positive, got %g", ErrInvalidConfig, c.FrameRate)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidConfig, c.Workers)
	}

	names := make(map[string]bool, len(c.Labels))
	for _, l := range c.Labels {
		if err := l.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		if names[l.Name] {
			return fmt.Errorf("%w: duplicate label %s", ErrInvalidConfig, l.Name)
		}
		names[l.Name] = true
	}

	classes := make(map[string]bool, len(c.Classes))
	for _, cl := range c.Classes {
		if classes[cl] {
			return fmt.Errorf("%w: duplicate class %s", ErrInvalidConfig, cl)
		}
		classes[cl] = true
	}
	return nil
}

// ResolveLabels returns the configured labels with the intervals of the label sheet merged in.
func (c Config) ResolveLabels() ([]labels.LabelConfig, error) {
	if c.LabelSheet == "" {
		return c.Labels, nil
	}
	rows, err := labels.LoadSheet(c.LabelSheet)
	if err != nil {
		return nil, err
	}
	return labels.Merge(c.Labels, rows)
}

// ReviewClasses returns the classes cycled through during review.
func (c Config) ReviewClasses() []string {
	if len(c.Classes) > 0 {
		return c.Classes
	}
	names := make([]string, len(c.Labels))
	for i, l := range c.Labels {
		names[i] = l.Name
	}
	return names
}

// StoreOptions converts the store section to framestore.Options.
func (c Config) StoreOptions() (framestore.Options, error) {
	format, err := ports.ParseImageFormat(c.Store.Format)
	if err != nil {
		return framestore.Options{}, err
	}
	return framestore.Options{Format: format, Quality: c.Store.Quality}, nil
}

// ToExtractRequest builds an extraction request over src and dst.
func (c Config) ToExtractRequest(src, dst string, applyTransforms bool) (orchestrator.ExtractRequest, error) {
	resolved, err := c.ResolveLabels()
	if err != nil {
		return orchestrator.ExtractRequest{}, err
	}
	return orchestrator.ExtractRequest{
		SourceRoot:      src,
		DestRoot:        dst,
		Labels:          resolved,
		VideoExtensions: c.VideoExtensions,
		Transforms:      c.Preprocessing.Transformations,
		ApplyTransforms: applyTransforms,
	}, nil
}

// ToPreprocessRequest builds a preprocessing request over src and dst.
func (c Config) ToPreprocessRequest(src, dst string) orchestrator.PreprocessRequest {
	return orchestrator.PreprocessRequest{
		SourceRoot: src,
		DestRoot:   dst,
		Transforms: c.Preprocessing.Transformations,
	}
}
