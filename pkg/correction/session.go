// Package correction implements the interactive label correction session.
//
// A session walks the frames of one video, lets the operator cycle the label of
// the current frame through a fixed list of classes, and commits the collection
// back to a frame store. Any presentation layer drives it through the four
// transitions and observes it through Current and Watch.
package correction

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/user/frameset/pkg/frame"
	"github.com/user/frameset/pkg/ports"
)

var (
	// ErrNoClasses is returned when a session is opened without classes.
	ErrNoClasses = errors.New("correction: no classes")

	// ErrDuplicateClass is returned when a class is listed twice.
	ErrDuplicateClass = errors.New("correction: duplicate class")

	// ErrEmptyCollection is returned when the collection holds no frames.
	ErrEmptyCollection = errors.New("correction: collection has no frames")
)

// Loader loads the frame collection of a video directory.
type Loader interface {
	Load(videoDir string) (*frame.Collection, error)
}

// Saver persists a frame collection.
type Saver interface {
	Save(videoName, destRoot string, c *frame.Collection) error
}

// Projection is the observable state of a session.
type Projection struct {
	Index    int
	MaxIndex int
	Label    string
	Image    image.Image
}

// Observer is notified after every transition.
type Observer func(Projection)

// Session is the correction state machine. It is not safe for concurrent use.
type Session struct {
	collection *frame.Collection
	classes    []string
	saver      Saver
	destRoot   string
	logger     ports.Logger

	index     int
	original  []string
	dirty     bool
	observers []Observer
}

// Open loads frameDir with loader and starts a session on it.
func Open(loader Loader, saver Saver, frameDir, destRoot string, classes []string, logger ports.Logger) (*Session, error) {
	if err := validateClasses(classes); err != nil {
		return nil, err
	}
	c, err := loader.Load(frameDir)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	return New(c, classes, saver, destRoot, logger)
}

// New starts a session on an in-memory collection. Commits save to destRoot.
func New(c *frame.Collection, classes []string, saver Saver, destRoot string, logger ports.Logger) (*Session, error) {
	if err := validateClasses(classes); err != nil {
		return nil, err
	}
	if c == nil || c.Len() == 0 {
		return nil, ErrEmptyCollection
	}

	original := make([]string, c.Len())
	for i, f := range c.Frames() {
		original[i] = f.Label()
	}

	return &Session{
		collection: c,
		classes:    append([]string(nil), classes...),
		saver:      saver,
		destRoot:   destRoot,
		logger:     logger.WithComponent("correction"),
		original:   original,
	}, nil
}

func validateClasses(classes []string) error {
	if len(classes) == 0 {
		return ErrNoClasses
	}
	seen := make(map[string]bool, len(classes))
	for _, c := range classes {
		if strings.TrimSpace(c) == "" {
			return fmt.Errorf("correction: empty class name")
		}
		if err := frame.ValidateLabel(c); err != nil {
			return fmt.Errorf("correction: class: %w", err)
		}
		if seen[c] {
			return fmt.Errorf("%w: %s", ErrDuplicateClass, c)
		}
		seen[c] = true
	}
	return nil
}

// Current returns the projection of the current frame.
func (s *Session) Current() Projection {
	f := s.collection.At(s.index)
	return Projection{
		Index:    s.index,
		MaxIndex: s.collection.MaxIndex(),
		Label:    f.Label(),
		Image:    f.Image(),
	}
}

// Watch registers fn to be called after every transition.
func (s *Session) Watch(fn Observer) {
	s.observers = append(s.observers, fn)
}

// Advance moves to the next frame, wrapping from the last to the first.
func (s *Session) Advance() {
	s.index = (s.index + 1) % (s.collection.MaxIndex() + 1)
	s.notify()
}

// Retreat moves to the previous frame, wrapping from the first to the last.
func (s *Session) Retreat() {
	if s.index == 0 {
		s.index = s.collection.MaxIndex()
	} else {
		s.index--
	}
	s.notify()
}

// CycleLabel sets the current frame's label to the class after its current one.
// A label outside the class list moves to the first class.
func (s *Session) CycleLabel() {
	f := s.collection.At(s.index)
	next := s.classes[0]
	for i, c := range s.classes {
		if c == f.Label() {
			next = s.classes[(i+1)%len(s.classes)]
			break
		}
	}
	f.SetLabel(next)
	s.dirty = true
	s.logger.Debug("Frame %d relabeled to %s", s.index, next)
	s.notify()
}

// Commit saves the whole collection. The current index is unchanged.
func (s *Session) Commit() error {
	if err := s.saver.Save(s.collection.Video(), s.destRoot, s.collection); err != nil {
		return fmt.Errorf("commit %s: %w", s.collection.Video(), err)
	}
	s.dirty = false
	s.logger.Info("Committed %d frames of %s to %s", s.collection.Len(), s.collection.Video(), s.destRoot)
	s.notify()
	return nil
}

// Dirty reports whether labels changed since the last commit.
func (s *Session) Dirty() bool {
	return s.dirty
}

// Corrections counts frames whose label differs from the label they were opened with.
func (s *Session) Corrections() int {
	n := 0
	for i, f := range s.collection.Frames() {
		if f.Label() != s.original[i] {
			n++
		}
	}
	return n
}

// Classes returns the class list in cycling order.
func (s *Session) Classes() []string {
	return append([]string(nil), s.classes...)
}

// Collection returns the collection under review.
func (s *Session) Collection() *frame.Collection {
	return s.collection
}

func (s *Session) notify() {
	p := s.Current()
	for _, fn := range s.observers {
		fn(p)
	}
}
