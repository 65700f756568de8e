package frame

import (
	"errors"
	"fmt"
	"image"
	"sort"
)

var (
	// ErrEmptyCollection is returned when a collection would hold no frames.
	ErrEmptyCollection = errors.New("frame: collection has no frames")

	// ErrIndexGap is returned when frame indices are not contiguous from zero.
	ErrIndexGap = errors.New("frame: indices are not contiguous")

	// ErrDuplicateIndex is returned when two frames share an index.
	ErrDuplicateIndex = errors.New("frame: duplicate index")
)

// Collection is the complete, densely indexed set of frames of one video.
// Indices are always 0..Len()-1 and frame i is stored at position i.
type Collection struct {
	video  string
	frames []*Frame
}

// NewCollection validates frames and builds a collection for the named video.
// Frames may be given in any order.
func NewCollection(video string, frames []*Frame) (*Collection, error) {
	if len(frames) == 0 {
		return nil, ErrEmptyCollection
	}

	sorted := make([]*Frame, len(frames))
	copy(sorted, frames)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].index < sorted[j].index
	})

	for i, f := range sorted {
		if i > 0 && f.index == sorted[i-1].index {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateIndex, f.index)
		}
		if f.index != i {
			return nil, fmt.Errorf("%w: expected index %d, found %d", ErrIndexGap, i, f.index)
		}
	}

	return &Collection{video: video, frames: sorted}, nil
}

// NewEmpty creates a collection without frames, to be filled with Append.
func NewEmpty(video string) *Collection {
	return &Collection{video: video}
}

// Append adds a frame at the next index and returns it.
func (c *Collection) Append(img image.Image, label string) *Frame {
	f := New(len(c.frames), img, label)
	c.frames = append(c.frames, f)
	return f
}

// Video returns the name of the source video.
func (c *Collection) Video() string {
	return c.video
}

// Len returns the number of frames.
func (c *Collection) Len() int {
	return len(c.frames)
}

// MaxIndex returns the highest frame index, or -1 for an empty collection.
func (c *Collection) MaxIndex() int {
	return len(c.frames) - 1
}

// At returns the frame with the given index.
func (c *Collection) At(index int) *Frame {
	return c.frames[index]
}

// Frames returns the frames in index order.
// The slice is a copy; the frames are shared.
func (c *Collection) Frames() []*Frame {
	out := make([]*Frame, len(c.frames))
	copy(out, c.frames)
	return out
}

// LabelCounts returns the number of frames per label.
func (c *Collection) LabelCounts() map[string]int {
	counts := make(map[string]int)
	for _, f := range c.frames {
		counts[f.label]++
	}
	return counts
}
