package mocks

import (
	"image"
	"sync"

	"github.com/user/frameset/pkg/ports"
)

// PreviewSink is a mock implementation of ports.PreviewSink.
type PreviewSink struct {
	mu sync.RWMutex

	enabled  bool
	Previews []image.Image

	SavePreviewFunc func(img image.Image) error
}

// NewPreviewSink creates a new mock PreviewSink.
func NewPreviewSink(enabled bool) *PreviewSink {
	return &PreviewSink{enabled: enabled}
}

func (m *PreviewSink) Enabled() bool {
	return m.enabled
}

func (m *PreviewSink) SavePreview(img image.Image) error {
	if m.SavePreviewFunc != nil {
		return m.SavePreviewFunc(img)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Previews = append(m.Previews, img)
	return nil
}

// Count returns the number of saved previews.
func (m *PreviewSink) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Previews)
}

var _ ports.PreviewSink = (*PreviewSink)(nil)
