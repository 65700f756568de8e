// Package uploadformat flattens a frame dataset into one directory per label,
// the layout expected by dataset upload tools.
//
// <src>/<video>/<label>/<file> is copied to <dst>/<label>/<video>_<file>.
// Images stored directly under <src>/<video>/ belong to the unknown label.
package uploadformat

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/user/frameset/pkg/frame"
	"github.com/user/frameset/pkg/ports"
)

// Options controls an export.
type Options struct {
	// SkipLabels are labels left out of the export, e.g. frame.UnknownLabel.
	SkipLabels []string
}

// Result summarizes an export.
type Result struct {
	Videos   int
	Files    int
	PerLabel map[string]int
}

// Exporter copies frame datasets into the upload layout.
type Exporter struct {
	fs     ports.FileSystem
	logger ports.Logger
}

// New creates a new Exporter.
func New(fs ports.FileSystem, logger ports.Logger) *Exporter {
	return &Exporter{
		fs:     fs,
		logger: logger.WithComponent("export"),
	}
}

// Export copies every image of every video directory under srcRoot into dstRoot.
func (e *Exporter) Export(ctx context.Context, srcRoot, dstRoot string, opts Options) (Result, error) {
	result := Result{PerLabel: make(map[string]int)}

	skip := make(map[string]bool, len(opts.SkipLabels))
	for _, l := range opts.SkipLabels {
		skip[l] = true
	}

	videos, err := e.fs.ListDir(srcRoot)
	if err != nil {
		return result, fmt.Errorf("list %s: %w", srcRoot, err)
	}

	created := make(map[string]bool)
	copyFile := func(video, label, dir, name string) error {
		if skip[label] {
			return nil
		}
		if _, ok := ports.FormatFromExtension(filepath.Ext(name)); !ok {
			return nil
		}

		labelDir := filepath.Join(dstRoot, label)
		if !created[labelDir] {
			if err := e.fs.MkdirAll(labelDir); err != nil {
				return fmt.Errorf("create %s: %w", labelDir, err)
			}
			created[labelDir] = true
		}

		data, err := e.fs.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read %s: %w", filepath.Join(dir, name), err)
		}
		if err := e.fs.WriteFile(filepath.Join(labelDir, video+"_"+name), data); err != nil {
			return fmt.Errorf("write %s: %w", filepath.Join(labelDir, video+"_"+name), err)
		}

		result.Files++
		result.PerLabel[label]++
		return nil
	}

	for _, v := range videos {
		if !v.IsDir {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		videoDir := filepath.Join(srcRoot, v.Name)
		entries, err := e.fs.ListDir(videoDir)
		if err != nil {
			return result, fmt.Errorf("list %s: %w", videoDir, err)
		}

		for _, entry := range entries {
			if !entry.IsDir {
				if err := copyFile(v.Name, frame.UnknownLabel, videoDir, entry.Name); err != nil {
					return result, err
				}
				continue
			}

			labelDir := filepath.Join(videoDir, entry.Name)
			files, err := e.fs.ListDir(labelDir)
			if err != nil {
				return result, fmt.Errorf("list %s: %w", labelDir, err)
			}
			for _, f := range files {
				if f.IsDir {
					continue
				}
				if err := copyFile(v.Name, entry.Name, labelDir, f.Name); err != nil {
					return result, err
				}
			}
		}

		result.Videos++
		e.logger.Debug("Exported %s", v.Name)
	}

	e.logger.Info("Exported %d files of %d videos to %s", result.Files, result.Videos, dstRoot)
	return result, nil
}
