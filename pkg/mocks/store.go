package mocks

import (
	"fmt"
	"sync"

	"github.com/user/frameset/pkg/frame"
)

// SaveCall records one Save invocation with the labels at save time.
type SaveCall struct {
	VideoName string
	DestRoot  string
	Labels    []string
}

// FrameStore is a mock frame loader and saver.
type FrameStore struct {
	mu          sync.Mutex
	collections map[string]*frame.Collection
	Saves       []SaveCall

	LoadFunc func(videoDir string) (*frame.Collection, error)
	SaveFunc func(videoName, destRoot string, c *frame.Collection) error
}

// NewFrameStore creates a new mock FrameStore.
func NewFrameStore() *FrameStore {
	return &FrameStore{collections: make(map[string]*frame.Collection)}
}

// Put registers the collection returned for videoDir.
func (m *FrameStore) Put(videoDir string, c *frame.Collection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[videoDir] = c
}

func (m *FrameStore) Load(videoDir string) (*frame.Collection, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(videoDir)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[videoDir]
	if !ok {
		return nil, fmt.Errorf("no collection at %s", videoDir)
	}
	return c, nil
}

func (m *FrameStore) Save(videoName, destRoot string, c *frame.Collection) error {
	m.mu.Lock()
	labels := make([]string, c.Len())
	for i, f := range c.Frames() {
		labels[i] = f.Label()
	}
	m.Saves = append(m.Saves, SaveCall{VideoName: videoName, DestRoot: destRoot, Labels: labels})
	m.mu.Unlock()

	if m.SaveFunc != nil {
		return m.SaveFunc(videoName, destRoot, c)
	}
	return nil
}

// SaveCount returns the number of Save calls.
func (m *FrameStore) SaveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Saves)
}
