// Package ports defines interfaces for external dependencies.
package ports

import (
	"errors"
	"image"
	"io"
)

var (
	// ErrUnreadableVideo is returned when a video container cannot be opened or holds no frames.
	ErrUnreadableVideo = errors.New("unreadable video")

	// ErrFrameDecode is returned when a frame fails to decode mid-stream.
	ErrFrameDecode = errors.New("frame decode failed")
)

// VideoFrame represents a decoded video frame with timing information.
type VideoFrame struct {
	Image       image.Image
	TimestampMs int
	Duration    int // Duration in milliseconds
}

// VideoDecoder abstracts video decoding operations.
//
// Implementations return every frame in presentation order or an error wrapping
// ErrUnreadableVideo or ErrFrameDecode. A partial frame list is never returned.
type VideoDecoder interface {
	// ReadFrames reads and decodes all frames from a video file.
	ReadFrames(path string) ([]VideoFrame, error)

	// ReadFramesFromReader reads and decodes all frames from an io.ReadSeeker.
	ReadFramesFromReader(reader io.ReadSeeker) ([]VideoFrame, error)

	// Close releases decoder resources.
	Close()
}
