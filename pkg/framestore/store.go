// Package framestore persists frame collections as a directory tree.
//
// Layout: <root>/<video>/<label>/frame-<index>.<ext>, with the index zero-padded to five digits.
package framestore

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/user/frameset/pkg/frame"
	"github.com/user/frameset/pkg/ports"
)

// DefaultQuality is the JPEG quality used when none is configured.
const DefaultQuality = 95

var frameNamePattern = regexp.MustCompile(`^frame-(\d+)$`)

// CorruptDatasetError reports a video directory that cannot be loaded as a frame collection.
type CorruptDatasetError struct {
	Dir    string
	Reason string
	Err    error
}

func (e *CorruptDatasetError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("corrupt dataset %s: %s: %v", e.Dir, e.Reason, e.Err)
	}
	return fmt.Sprintf("corrupt dataset %s: %s", e.Dir, e.Reason)
}

func (e *CorruptDatasetError) Unwrap() error {
	return e.Err
}

// Options configures how frames are encoded on save.
type Options struct {
	Format  ports.ImageFormat
	Quality int
}

// Store loads and saves frame collections.
type Store struct {
	fs       ports.FileSystem
	renderer ports.Renderer
	format   ports.ImageFormat
	quality  int
	logger   ports.Logger
}

// New creates a store.
func New(fs ports.FileSystem, renderer ports.Renderer, opts Options, logger ports.Logger) *Store {
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = DefaultQuality
	}
	return &Store{
		fs:       fs,
		renderer: renderer,
		format:   opts.Format,
		quality:  opts.Quality,
		logger:   logger.WithComponent("framestore"),
	}
}

// FileName returns the file name of the frame with the given index.
func FileName(index int, format ports.ImageFormat) string {
	return fmt.Sprintf("frame-%05d%s", index, format.Extension())
}

type storedFile struct {
	path   string
	label  string
	index  int
	format ports.ImageFormat
}

// Load reads the frame collection stored in videoDir.
// The video name of the collection is the base name of videoDir.
func (s *Store) Load(videoDir string) (*frame.Collection, error) {
	files, err := s.scan(videoDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, &CorruptDatasetError{Dir: videoDir, Reason: "no frames found"}
	}

	frames := make([]*frame.Frame, 0, len(files))
	for _, f := range files {
		data, err := s.fs.ReadFile(f.path)
		if err != nil {
			return nil, fmt.Errorf("read frame %s: %w", f.path, err)
		}
		img, err := s.renderer.DecodeImage(data, f.format)
		if err != nil {
			return nil, &CorruptDatasetError{Dir: videoDir, Reason: "undecodable image " + f.path, Err: err}
		}
		frames = append(frames, frame.NewEncoded(f.index, img, f.label, data, f.format))
	}

	c, err := frame.NewCollection(filepath.Base(filepath.Clean(videoDir)), frames)
	if err != nil {
		return nil, &CorruptDatasetError{Dir: videoDir, Reason: "invalid frame indices", Err: err}
	}

	s.logger.Debug("Loaded %d frames from %s", c.Len(), videoDir)
	return c, nil
}

// scan lists the image files of a video directory and its label subdirectories.
func (s *Store) scan(videoDir string) ([]storedFile, error) {
	entries, err := s.fs.ListDir(videoDir)
	if err != nil {
		return nil, &CorruptDatasetError{Dir: videoDir, Reason: "cannot list directory", Err: err}
	}

	var files []storedFile
	add := func(dir, label, name string) error {
		ext := filepath.Ext(name)
		format, ok := ports.FormatFromExtension(ext)
		if !ok {
			return nil
		}
		m := frameNamePattern.FindStringSubmatch(strings.TrimSuffix(name, ext))
		if m == nil {
			return &CorruptDatasetError{Dir: videoDir, Reason: "unexpected file name " + filepath.Join(dir, name)}
		}
		index, err := strconv.Atoi(m[1])
		if err != nil {
			return &CorruptDatasetError{Dir: videoDir, Reason: "index out of range in " + name, Err: err}
		}
		files = append(files, storedFile{
			path:   filepath.Join(dir, name),
			label:  label,
			index:  index,
			format: format,
		})
		return nil
	}

	for _, entry := range entries {
		if !entry.IsDir {
			if err := add(videoDir, frame.UnknownLabel, entry.Name); err != nil {
				return nil, err
			}
			continue
		}
		labelDir := filepath.Join(videoDir, entry.Name)
		children, err := s.fs.ListDir(labelDir)
		if err != nil {
			return nil, &CorruptDatasetError{Dir: videoDir, Reason: "cannot list label directory", Err: err}
		}
		for _, child := range children {
			if child.IsDir {
				continue
			}
			if err := add(labelDir, entry.Name, child.Name); err != nil {
				return nil, err
			}
		}
	}
	return files, nil
}

// Save writes every frame of c to destRoot/videoName/<label>/.
// Files of the same index under other label directories or extensions are removed.
// Frames loaded from disk whose image was not replaced are written back byte for byte.
func (s *Store) Save(videoName, destRoot string, c *frame.Collection) error {
	for _, f := range c.Frames() {
		if err := frame.ValidateLabel(f.Label()); err != nil {
			return fmt.Errorf("frame %d: %w", f.Index(), err)
		}
	}

	videoDir := filepath.Join(destRoot, videoName)
	if err := s.fs.MkdirAll(videoDir); err != nil {
		return fmt.Errorf("create video directory: %w", err)
	}

	existing, err := s.existing(videoDir)
	if err != nil {
		return err
	}

	created := make(map[string]bool)
	for _, f := range c.Frames() {
		data, format, ok := f.Encoded()
		if !ok {
			format = s.format
			data, err = s.renderer.EncodeImage(f.Image(), format, s.quality)
			if err != nil {
				return fmt.Errorf("encode frame %d: %w", f.Index(), err)
			}
		}

		labelDir := filepath.Join(videoDir, f.Label())
		if !created[labelDir] {
			if err := s.fs.MkdirAll(labelDir); err != nil {
				return fmt.Errorf("create label directory: %w", err)
			}
			created[labelDir] = true
		}

		path := filepath.Join(labelDir, FileName(f.Index(), format))
		if err := s.fs.WriteFile(path, data); err != nil {
			return fmt.Errorf("write frame %d: %w", f.Index(), err)
		}

		for _, stale := range existing[f.Index()] {
			if stale == path {
				continue
			}
			if err := s.fs.Remove(stale); err != nil {
				return fmt.Errorf("remove stale frame %s: %w", stale, err)
			}
			s.logger.Debug("Removed stale frame %s", stale)
		}
	}

	s.logger.Debug("Saved %d frames to %s", c.Len(), videoDir)
	return nil
}

// existing maps frame indices to the files already stored for them.
// Files that do not follow the frame naming scheme are left out.
func (s *Store) existing(videoDir string) (map[int][]string, error) {
	out := make(map[int][]string)
	entries, err := s.fs.ListDir(videoDir)
	if err != nil {
		return nil, fmt.Errorf("list video directory: %w", err)
	}

	record := func(dir, name string) {
		ext := filepath.Ext(name)
		if _, ok := ports.FormatFromExtension(ext); !ok {
			return
		}
		m := frameNamePattern.FindStringSubmatch(strings.TrimSuffix(name, ext))
		if m == nil {
			return
		}
		index, err := strconv.Atoi(m[1])
		if err != nil {
			return
		}
		out[index] = append(out[index], filepath.Join(dir, name))
	}

	for _, entry := range entries {
		if !entry.IsDir {
			record(videoDir, entry.Name)
			continue
		}
		labelDir := filepath.Join(videoDir, entry.Name)
		children, err := s.fs.ListDir(labelDir)
		if err != nil {
			return nil, fmt.Errorf("list label directory: %w", err)
		}
		for _, child := range children {
			if !child.IsDir {
				record(labelDir, child.Name)
			}
		}
	}
	return out, nil
}

// IsCorrupt reports whether err is a CorruptDatasetError.
func IsCorrupt(err error) bool {
	var target *CorruptDatasetError
	return errors.As(err, &target)
}
