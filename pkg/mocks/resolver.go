package mocks

import (
	"github.com/user/frameset/pkg/ports"
)

// LabelResolver is a mock implementation of ports.LabelResolver.
type LabelResolver struct {
	ResolveFunc func(videoID string, pos ports.FramePosition) string

	Calls []ports.FramePosition
}

func (m *LabelResolver) Resolve(videoID string, pos ports.FramePosition) string {
	m.Calls = append(m.Calls, pos)
	if m.ResolveFunc != nil {
		return m.ResolveFunc(videoID, pos)
	}
	return ""
}

var _ ports.LabelResolver = (*LabelResolver)(nil)
