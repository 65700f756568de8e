// Package orchestrator drives the batch operations over a dataset of videos.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/user/frameset/pkg/frame"
	"github.com/user/frameset/pkg/framestore"
	"github.com/user/frameset/pkg/labels"
	"github.com/user/frameset/pkg/metrics"
	"github.com/user/frameset/pkg/pipeline"
	"github.com/user/frameset/pkg/ports"
	"github.com/user/frameset/pkg/transform"
)

// Batch operations.
const (
	OperationExtract    = "extract"
	OperationPreprocess = "preprocess"
)

// DefaultVideoExtensions are the file extensions treated as videos when a request names none.
var DefaultVideoExtensions = []string{".mjpg", ".mjpeg", ".mp4", ".avi", ".mov", ".mkv"}

var (
	// ErrNoLabels is returned when an extraction request carries no label configs.
	ErrNoLabels = errors.New("orchestrator: no labels configured")

	// ErrDuplicateLabel is returned when two label configs share a name.
	ErrDuplicateLabel = errors.New("orchestrator: duplicate label")

	// ErrDuplicateVideo marks a video whose name was already extracted in the same run.
	ErrDuplicateVideo = errors.New("orchestrator: duplicate video name")
)

// FrameStore loads and saves frame collections.
type FrameStore interface {
	Load(videoDir string) (*frame.Collection, error)
	Save(videoName, destRoot string, c *frame.Collection) error
}

// ExtractRequest describes one extraction run.
type ExtractRequest struct {
	// SourceRoot holds one directory per label, each holding raw videos.
	SourceRoot string
	DestRoot   string
	Labels     []labels.LabelConfig

	// VideoExtensions defaults to DefaultVideoExtensions.
	VideoExtensions []string

	// Transforms are applied before saving when ApplyTransforms is set.
	Transforms      []transform.Spec
	ApplyTransforms bool
}

// PreprocessRequest describes one preprocessing run over a frame dataset.
type PreprocessRequest struct {
	// SourceRoot holds one frame-store directory per video.
	SourceRoot string
	DestRoot   string
	Transforms []transform.Spec
}

// Orchestrator coordinates the stages of the batch operations.
type Orchestrator struct {
	extractStage    pipeline.Stage[pipeline.ExtractInput, pipeline.ExtractResult]
	preprocessStage pipeline.Stage[pipeline.PreprocessInput, pipeline.PreprocessResult]
	store           FrameStore
	fs              ports.FileSystem
	registry        *transform.Registry
	metrics         *metrics.Recorder
	logger          ports.Logger
}

// New creates a new Orchestrator. rec may be nil.
func New(
	extractStage pipeline.Stage[pipeline.ExtractInput, pipeline.ExtractResult],
	preprocessStage pipeline.Stage[pipeline.PreprocessInput, pipeline.PreprocessResult],
	store FrameStore,
	fs ports.FileSystem,
	registry *transform.Registry,
	rec *metrics.Recorder,
	logger ports.Logger,
) *Orchestrator {
	return &Orchestrator{
		extractStage:    extractStage,
		preprocessStage: preprocessStage,
		store:           store,
		fs:              fs,
		registry:        registry,
		metrics:         rec,
		logger:          logger,
	}
}

// ExtractDataset decodes every video under <SourceRoot>/<label>/, labels its frames
// and saves them under DestRoot. Per-video failures are logged and recorded in the
// result; a failing save aborts the run.
func (o *Orchestrator) ExtractDataset(ctx context.Context, req ExtractRequest) (RunResult, error) {
	started := time.Now()
	result := RunResult{
		Operation:  OperationExtract,
		SourceRoot: req.SourceRoot,
		DestRoot:   req.DestRoot,
	}

	if err := validateLabels(req.Labels); err != nil {
		return result, err
	}

	var transformFn transform.Func
	if req.ApplyTransforms {
		fn, err := o.registry.Compose(req.Transforms)
		if err != nil {
			return result, err
		}
		transformFn = fn
		result.Transforms = transformNames(req.Transforms)
	}

	extensions := req.VideoExtensions
	if len(extensions) == 0 {
		extensions = DefaultVideoExtensions
	}

	o.logger.Info("Extracting frames from %s to %s", req.SourceRoot, req.DestRoot)

	resolver := labels.NewResolver(req.Labels)
	seen := make(map[string]string)

	for _, label := range req.Labels {
		videos, err := o.listVideos(filepath.Join(req.SourceRoot, label.Name), extensions)
		if err != nil {
			return result, err
		}

		for _, path := range videos {
			if err := ctx.Err(); err != nil {
				result.Elapsed = time.Since(started)
				return result, err
			}

			name := videoID(path)
			if first, ok := seen[name]; ok {
				err := fmt.Errorf("%w: %s already extracted from %s", ErrDuplicateVideo, name, first)
				o.fail(&result, VideoResult{Name: name, Path: path, SourceLabel: label.Name}, err, 0)
				continue
			}
			seen[name] = path

			if err := o.extractOne(ctx, &result, label.Name, path, resolver, transformFn, req.DestRoot); err != nil {
				result.Elapsed = time.Since(started)
				return result, err
			}
		}
	}

	o.finish(&result, started)
	return result, nil
}

func (o *Orchestrator) extractOne(
	ctx context.Context,
	result *RunResult,
	sourceLabel, path string,
	resolver ports.LabelResolver,
	transformFn transform.Func,
	destRoot string,
) error {
	started := time.Now()
	name := videoID(path)
	entry := VideoResult{Name: name, Path: path, SourceLabel: sourceLabel}

	o.logger.Info("Extracting %s (%s)", name, sourceLabel)

	extracted, err := o.extractStage.Execute(ctx, pipeline.ExtractInput{
		VideoPath: path,
		VideoID:   name,
		Resolver:  resolver,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		o.fail(result, entry, err, time.Since(started))
		return nil
	}
	entry.DurationMs = extracted.DurationMs

	c := extracted.Collection
	if transformFn != nil {
		processed, err := o.preprocessStage.Execute(ctx, pipeline.PreprocessInput{Collection: c, Transform: transformFn})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			o.fail(result, entry, fmt.Errorf("transform %s: %w", name, err), time.Since(started))
			return nil
		}
		c = processed.Collection
	}

	return o.save(result, entry, c, destRoot, started)
}

// PreprocessDataset loads every video directory under SourceRoot, applies the
// transform chain and saves the result under DestRoot. Corrupt or unreadable
// directories are logged, recorded and skipped.
func (o *Orchestrator) PreprocessDataset(ctx context.Context, req PreprocessRequest) (RunResult, error) {
	started := time.Now()
	result := RunResult{
		Operation:  OperationPreprocess,
		SourceRoot: req.SourceRoot,
		DestRoot:   req.DestRoot,
		Transforms: transformNames(req.Transforms),
	}

	transformFn, err := o.registry.Compose(req.Transforms)
	if err != nil {
		return result, err
	}

	entries, err := o.fs.ListDir(req.SourceRoot)
	if err != nil {
		return result, fmt.Errorf("list dataset %s: %w", req.SourceRoot, err)
	}

	o.logger.Info("Preprocessing %s to %s with %d transforms", req.SourceRoot, req.DestRoot, len(req.Transforms))

	for _, e := range entries {
		if !e.IsDir {
			continue
		}
		if err := ctx.Err(); err != nil {
			result.Elapsed = time.Since(started)
			return result, err
		}

		videoStarted := time.Now()
		dir := filepath.Join(req.SourceRoot, e.Name)
		entry := VideoResult{Name: e.Name, Path: dir}

		o.logger.Info("Preprocessing %s", e.Name)

		c, err := o.store.Load(dir)
		if err != nil {
			o.fail(&result, entry, err, time.Since(videoStarted))
			continue
		}

		processed, err := o.preprocessStage.Execute(ctx, pipeline.PreprocessInput{Collection: c, Transform: transformFn})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				result.Elapsed = time.Since(started)
				return result, ctxErr
			}
			o.fail(&result, entry, fmt.Errorf("transform %s: %w", e.Name, err), time.Since(videoStarted))
			continue
		}

		if err := o.save(&result, entry, processed.Collection, req.DestRoot, videoStarted); err != nil {
			result.Elapsed = time.Since(started)
			return result, err
		}
	}

	o.finish(&result, started)
	return result, nil
}

func (o *Orchestrator) save(result *RunResult, entry VideoResult, c *frame.Collection, destRoot string, started time.Time) error {
	if err := o.store.Save(entry.Name, destRoot, c); err != nil {
		o.logger.Error("Failed to save %s: %v", entry.Name, err)
		return fmt.Errorf("save %s: %w", entry.Name, err)
	}

	entry.Frames = c.Len()
	entry.LabelCounts = c.LabelCounts()
	entry.Elapsed = time.Since(started)
	result.Videos = append(result.Videos, entry)

	if o.metrics != nil {
		o.metrics.ObserveVideo(result.Operation, nil, entry.Elapsed)
		o.metrics.ObserveFrames(result.Operation, entry.LabelCounts)
	}

	o.logger.Info("Saved %d frames of %s", entry.Frames, entry.Name)
	return nil
}

func (o *Orchestrator) fail(result *RunResult, entry VideoResult, err error, elapsed time.Duration) {
	entry.Err = err
	entry.Elapsed = elapsed
	result.Videos = append(result.Videos, entry)

	if o.metrics != nil {
		o.metrics.ObserveVideo(result.Operation, err, elapsed)
	}

	switch {
	case framestore.IsCorrupt(err):
		o.logger.Warn("Skipping corrupt dataset %s: %v", entry.Path, err)
	default:
		o.logger.Warn("Skipping %s: %v", entry.Path, err)
	}
}

func (o *Orchestrator) finish(result *RunResult, started time.Time) {
	result.Elapsed = time.Since(started)
	if o.metrics != nil {
		o.metrics.ObserveRun(result.Failed())
	}
	o.logger.Info("Processed %d videos: %d succeeded, %d failed", len(result.Videos), result.Succeeded(), result.Failed())
}

// listVideos returns the video files of dir sorted by name. A missing directory holds no videos.
func (o *Orchestrator) listVideos(dir string, extensions []string) ([]string, error) {
	exists, err := o.fs.Exists(dir)
	if err != nil {
		return nil, fmt.Errorf("check %s: %w", dir, err)
	}
	if !exists {
		o.logger.Warn("Label directory %s not found", dir)
		return nil, nil
	}

	entries, err := o.fs.ListDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var videos []string
	for _, e := range entries {
		if e.IsDir || !hasExtension(e.Name, extensions) {
			continue
		}
		videos = append(videos, filepath.Join(dir, e.Name))
	}
	sort.Strings(videos)
	return videos, nil
}

func validateLabels(configs []labels.LabelConfig) error {
	if len(configs) == 0 {
		return ErrNoLabels
	}
	names := make(map[string]bool, len(configs))
	for _, c := range configs {
		if err := c.Validate(); err != nil {
			return err
		}
		if names[c.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateLabel, c.Name)
		}
		names[c.Name] = true
	}
	return nil
}

func hasExtension(name string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range extensions {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

// videoID is the file stem of a video path.
func videoID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func transformNames(specs []transform.Spec) []string {
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}
	return names
}

// VideoResult is the outcome of one video.
type VideoResult struct {
	Name string
	Path string

	// SourceLabel is the label directory the video came from (extract only).
	SourceLabel string

	Frames      int
	LabelCounts map[string]int
	DurationMs  int
	Elapsed     time.Duration

	// Err is set when the video was skipped.
	Err error
}

// Failed reports whether the video was skipped.
func (v VideoResult) Failed() bool {
	return v.Err != nil
}

// RunResult contains the results of a batch run for summary generation.
type RunResult struct {
	Operation  string
	SourceRoot string
	DestRoot   string
	Transforms []string
	Videos     []VideoResult
	Elapsed    time.Duration
}

// Succeeded returns the number of saved videos.
func (r RunResult) Succeeded() int {
	n := 0
	for _, v := range r.Videos {
		if !v.Failed() {
			n++
		}
	}
	return n
}

// Failed returns the number of skipped videos.
func (r RunResult) Failed() int {
	return len(r.Videos) - r.Succeeded()
}

// TotalFrames returns the number of frames saved across all videos.
func (r RunResult) TotalFrames() int {
	n := 0
	for _, v := range r.Videos {
		n += v.Frames
	}
	return n
}

// LabelCounts returns the number of saved frames per label across all videos.
func (r RunResult) LabelCounts() map[string]int {
	counts := make(map[string]int)
	for _, v := range r.Videos {
		for label, n := range v.LabelCounts {
			counts[label] += n
		}
	}
	return counts
}
