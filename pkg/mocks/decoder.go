package mocks

import (
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/user/frameset/pkg/ports"
)

// VideoDecoder is a mock implementation of ports.VideoDecoder.
// Without overrides it serves the frames registered per path with SetFrames.
type VideoDecoder struct {
	mu     sync.RWMutex
	videos map[string][]ports.VideoFrame
	errs   map[string]error
	closed bool

	ReadFramesFunc           func(path string) ([]ports.VideoFrame, error)
	ReadFramesFromReaderFunc func(reader io.ReadSeeker) ([]ports.VideoFrame, error)
}

// NewVideoDecoder creates a new mock VideoDecoder.
func NewVideoDecoder() *VideoDecoder {
	return &VideoDecoder{
		videos: make(map[string][]ports.VideoFrame),
		errs:   make(map[string]error),
	}
}

// SetFrames registers the frames returned for path.
func (m *VideoDecoder) SetFrames(path string, frames []ports.VideoFrame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.videos[path] = frames
}

// SetError registers the error returned for path.
func (m *VideoDecoder) SetError(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[path] = err
}

func (m *VideoDecoder) ReadFrames(path string) ([]ports.VideoFrame, error) {
	if m.ReadFramesFunc != nil {
		return m.ReadFramesFunc(path)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err, ok := m.errs[path]; ok {
		return nil, err
	}
	frames, ok := m.videos[path]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, ports.ErrUnreadableVideo)
	}
	return frames, nil
}

func (m *VideoDecoder) ReadFramesFromReader(reader io.ReadSeeker) ([]ports.VideoFrame, error) {
	if m.ReadFramesFromReaderFunc != nil {
		return m.ReadFramesFromReaderFunc(reader)
	}
	return nil, fmt.Errorf("mock reader: %w", ports.ErrUnreadableVideo)
}

func (m *VideoDecoder) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

// Closed reports whether Close was called.
func (m *VideoDecoder) Closed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

var _ ports.VideoDecoder = (*VideoDecoder)(nil)

// Frames builds n frames of the given size spaced intervalMs apart.
func Frames(n, width, height, intervalMs int) []ports.VideoFrame {
	frames := make([]ports.VideoFrame, n)
	for i := range frames {
		frames[i] = ports.VideoFrame{
			Image:       image.NewRGBA(image.Rect(0, 0, width, height)),
			TimestampMs: i * intervalMs,
			Duration:    intervalMs,
		}
	}
	return frames
}
