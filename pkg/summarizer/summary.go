// Package summarizer provides summary generation for batch dataset runs.
package summarizer

import (
	"sort"
	"time"
)

// Summary contains the outcome of one batch run.
type Summary struct {
	// Metadata
	GeneratedAt time.Time
	Operation   string
	Source      string
	Destination string
	ElapsedMs   int

	// Run settings
	Settings Settings

	// Per-video outcomes in processing order
	Videos []VideoInfo

	// Saved frames per label, sorted by label
	Labels []LabelCount

	Totals Totals
}

// Settings contains the run configuration.
type Settings struct {
	Transforms  []string
	StoreFormat string
	Quality     int
	Workers     int
	FrameRate   float64
}

// VideoInfo contains the outcome of one video.
type VideoInfo struct {
	Name        string
	SourceLabel string
	Frames      int
	DurationMs  int
	ElapsedMs   int

	// Error is empty when the video was saved.
	Error string
}

// Failed reports whether the video was skipped.
func (v VideoInfo) Failed() bool {
	return v.Error != ""
}

// LabelCount is the number of saved frames carrying a label.
type LabelCount struct {
	Label  string
	Frames int
}

// Totals aggregates the video outcomes.
type Totals struct {
	Videos    int
	Succeeded int
	Failed    int
	Frames    int
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithRun sets the operation and its directories.
func (b *Builder) WithRun(operation, source, destination string, elapsed time.Duration) *Builder {
	b.summary.Operation = operation
	b.summary.Source = source
	b.summary.Destination = destination
	b.summary.ElapsedMs = int(elapsed.Milliseconds())
	return b
}

// WithSettings sets run settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// WithVideo appends the outcome of one video.
func (b *Builder) WithVideo(video VideoInfo) *Builder {
	b.summary.Videos = append(b.summary.Videos, video)
	return b
}

// WithLabelCounts sets the saved frames per label.
func (b *Builder) WithLabelCounts(counts map[string]int) *Builder {
	labels := make([]LabelCount, 0, len(counts))
	for label, n := range counts {
		labels = append(labels, LabelCount{Label: label, Frames: n})
	}
	sort.Slice(labels, func(i, j int) bool {
		return labels[i].Label < labels[j].Label
	})
	b.summary.Labels = labels
	return b
}

// Build computes the totals and returns the constructed Summary.
func (b *Builder) Build() *Summary {
	t := Totals{Videos: len(b.summary.Videos)}
	for _, v := range b.summary.Videos {
		if v.Failed() {
			t.Failed++
			continue
		}
		t.Succeeded++
		t.Frames += v.Frames
	}
	b.summary.Totals = t
	return b.summary
}
