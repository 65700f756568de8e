// Package labels resolves frame labels from per-video label intervals.
package labels

import (
	"errors"
	"fmt"
	"strings"

	"github.com/user/frameset/pkg/frame"
	"github.com/user/frameset/pkg/ports"
)

var (
	// ErrUnknownUnit is returned for an interval unit other than frame, ms or s.
	ErrUnknownUnit = errors.New("labels: unknown interval unit")

	// ErrInvalidInterval is returned when an interval ends before it starts.
	ErrInvalidInterval = errors.New("labels: interval end precedes start")

	// ErrUnknownLabel is returned when a label sheet names a label missing from the configuration.
	ErrUnknownLabel = errors.New("labels: label not configured")
)

// Unit is the unit of interval bounds.
type Unit string

const (
	// UnitFrame bounds are frame indices.
	UnitFrame Unit = "frame"
	// UnitMillisecond bounds are timestamps in milliseconds.
	UnitMillisecond Unit = "ms"
	// UnitSecond bounds are timestamps in seconds.
	UnitSecond Unit = "s"
)

// ParseUnit parses a unit name. The empty string is UnitFrame.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "frame", "frames":
		return UnitFrame, nil
	case "ms", "millisecond", "milliseconds":
		return UnitMillisecond, nil
	case "s", "sec", "second", "seconds":
		return UnitSecond, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownUnit, s)
	}
}

// Interval is an inclusive range of frame positions.
type Interval struct {
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end"`
	Unit  Unit    `yaml:"unit,omitempty"`
}

// Validate checks the unit and bound order.
func (iv Interval) Validate() error {
	if _, err := ParseUnit(string(iv.Unit)); err != nil {
		return err
	}
	if iv.End < iv.Start {
		return fmt.Errorf("%w: [%g, %g]", ErrInvalidInterval, iv.Start, iv.End)
	}
	return nil
}

// Covers reports whether pos lies inside the interval.
func (iv Interval) Covers(pos ports.FramePosition) bool {
	unit, err := ParseUnit(string(iv.Unit))
	if err != nil {
		return false
	}
	var v float64
	switch unit {
	case UnitMillisecond:
		v = float64(pos.TimestampMs)
	case UnitSecond:
		v = float64(pos.TimestampMs) / 1000
	default:
		v = float64(pos.Index)
	}
	return v >= iv.Start && v <= iv.End
}

// LabelConfig is one class with its intervals keyed by video identifier.
type LabelConfig struct {
	Name      string                `yaml:"name"`
	Intervals map[string][]Interval `yaml:"intervals"`
}

// Validate checks the name and every interval.
func (c LabelConfig) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("labels: label without a name")
	}
	if err := frame.ValidateLabel(c.Name); err != nil {
		return fmt.Errorf("labels: %w", err)
	}
	for video, ivs := range c.Intervals {
		for i, iv := range ivs {
			if err := iv.Validate(); err != nil {
				return fmt.Errorf("label %s, video %s, interval %d: %w", c.Name, video, i, err)
			}
		}
	}
	return nil
}

// Resolver implements ports.LabelResolver over an ordered list of label configs.
type Resolver struct {
	configs []LabelConfig
}

// NewResolver creates a resolver. Earlier configs take precedence on overlap.
func NewResolver(configs []LabelConfig) *Resolver {
	return &Resolver{configs: configs}
}

// Resolve returns the first label whose intervals for videoID cover pos, or frame.UnknownLabel.
func (r *Resolver) Resolve(videoID string, pos ports.FramePosition) string {
	for _, c := range r.configs {
		for _, iv := range c.Intervals[videoID] {
			if iv.Covers(pos) {
				return c.Name
			}
		}
	}
	return frame.UnknownLabel
}

// Names returns the label names in declaration order.
func (r *Resolver) Names() []string {
	names := make([]string, len(r.configs))
	for i, c := range r.configs {
		names[i] = c.Name
	}
	return names
}

var _ ports.LabelResolver = (*Resolver)(nil)
