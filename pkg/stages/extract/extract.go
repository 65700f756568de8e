// Package extract implements the stage that splits a video into labeled frames.
package extract

import (
	"context"
	"errors"
	"fmt"

	"github.com/user/frameset/pkg/frame"
	"github.com/user/frameset/pkg/pipeline"
	"github.com/user/frameset/pkg/ports"
)

// UnreadableVideoError reports a video that is missing, cannot be opened, or holds no frames.
type UnreadableVideoError struct {
	Path string
	Err  error
}

func (e *UnreadableVideoError) Error() string {
	return fmt.Sprintf("unreadable video %s: %v", e.Path, e.Err)
}

func (e *UnreadableVideoError) Unwrap() error {
	return e.Err
}

// DecodeError reports a frame that failed to decode mid-stream.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Stage decodes a video and labels each of its frames.
type Stage struct {
	decoder ports.VideoDecoder
	logger  ports.Logger
}

// NewStage creates a new extract stage.
func NewStage(decoder ports.VideoDecoder, logger ports.Logger) *Stage {
	return &Stage{
		decoder: decoder,
		logger:  logger.WithComponent("extract"),
	}
}

// Execute decodes input.VideoPath into a collection named input.VideoID.
// Frames are indexed in decode order and labeled by input.Resolver.
// No partial collection is returned on failure.
func (s *Stage) Execute(ctx context.Context, input pipeline.ExtractInput) (pipeline.ExtractResult, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.ExtractResult{}, err
	}

	s.logger.Debug("Decoding %s", input.VideoPath)
	decoded, err := s.decoder.ReadFrames(input.VideoPath)
	if err != nil {
		return pipeline.ExtractResult{}, classify(input.VideoPath, err)
	}
	if len(decoded) == 0 {
		return pipeline.ExtractResult{}, &UnreadableVideoError{Path: input.VideoPath, Err: ports.ErrUnreadableVideo}
	}

	c := frame.NewEmpty(input.VideoID)
	for _, vf := range decoded {
		if vf.Image == nil {
			return pipeline.ExtractResult{}, &DecodeError{
				Path: input.VideoPath,
				Err:  fmt.Errorf("frame %d has no image: %w", c.Len(), ports.ErrFrameDecode),
			}
		}
		pos := ports.FramePosition{Index: c.Len(), TimestampMs: vf.TimestampMs}
		label := frame.UnknownLabel
		if input.Resolver != nil {
			label = input.Resolver.Resolve(input.VideoID, pos)
		}
		c.Append(vf.Image, label)
	}

	last := decoded[len(decoded)-1]
	s.logger.Debug("Extracted %d frames from %s", c.Len(), input.VideoPath)
	return pipeline.ExtractResult{
		Collection: c,
		DurationMs: last.TimestampMs + last.Duration,
	}, nil
}

// classify maps decoder errors onto the extractor error types.
func classify(path string, err error) error {
	switch {
	case errors.Is(err, ports.ErrFrameDecode):
		return &DecodeError{Path: path, Err: err}
	default:
		return &UnreadableVideoError{Path: path, Err: err}
	}
}
