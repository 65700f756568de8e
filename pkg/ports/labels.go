package ports

// FramePosition locates a frame inside its source video.
type FramePosition struct {
	Index       int
	TimestampMs int
}

// LabelResolver assigns a class label to a frame of a video.
type LabelResolver interface {
	// Resolve returns the label for the frame at pos in the video identified by videoID.
	// It is total: positions outside every interval resolve to the unknown sentinel.
	Resolve(videoID string, pos FramePosition) string
}
