// Package mjpegdecoder decodes Motion JPEG streams: concatenated JPEG images,
// optionally wrapped in multipart boundaries as written by network cameras.
package mjpegdecoder

import (
	"bytes"
	"errors"
	"fmt"
	"image/jpeg"
	"io"
	"os"

	"github.com/user/frameset/pkg/ports"
)

// DefaultFrameRate is used when the stream carries no timing and none is configured.
const DefaultFrameRate = 25.0

var (
	errTruncated = errors.New("mjpegdecoder: truncated JPEG image")
	errNoImages  = errors.New("mjpegdecoder: no JPEG images in stream")
)

// Options configures the decoder.
type Options struct {
	// FrameRate derives timestamps as index * 1000 / FrameRate.
	FrameRate float64
}

// Decoder implements ports.VideoDecoder for MJPEG streams.
type Decoder struct {
	frameRate float64
}

// New creates a decoder.
func New(opts Options) *Decoder {
	if opts.FrameRate <= 0 {
		opts.FrameRate = DefaultFrameRate
	}
	return &Decoder{frameRate: opts.FrameRate}
}

// ReadFrames reads and decodes all frames from an MJPEG file.
func (d *Decoder) ReadFrames(path string) ([]ports.VideoFrame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %v", path, ports.ErrUnreadableVideo, err)
	}
	return d.decode(data)
}

// ReadFramesFromReader reads and decodes all frames from an io.ReadSeeker.
func (d *Decoder) ReadFramesFromReader(reader io.ReadSeeker) ([]ports.VideoFrame, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read stream: %w: %v", ports.ErrUnreadableVideo, err)
	}
	return d.decode(data)
}

// Close releases decoder resources.
func (d *Decoder) Close() {}

func (d *Decoder) decode(data []byte) ([]ports.VideoFrame, error) {
	images, err := SplitImages(data)
	if err != nil {
		if errors.Is(err, errNoImages) {
			return nil, fmt.Errorf("%w: %v", ports.ErrUnreadableVideo, err)
		}
		return nil, fmt.Errorf("image %d: %w: %v", len(images), ports.ErrFrameDecode, err)
	}

	duration := int(1000 / d.frameRate)
	frames := make([]ports.VideoFrame, 0, len(images))
	for i, raw := range images {
		img, err := jpeg.Decode(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("image %d: %w: %v", i, ports.ErrFrameDecode, err)
		}
		frames = append(frames, ports.VideoFrame{
			Image:       img,
			TimestampMs: d.timestamp(i),
			Duration:    duration,
		})
	}
	return frames, nil
}

func (d *Decoder) timestamp(index int) int {
	return int(float64(index) * 1000 / d.frameRate)
}

// SplitImages returns the byte ranges of every complete JPEG image in data, from SOI to EOI.
// Bytes between images (multipart headers, padding) are skipped.
// On a truncated image it returns the complete images found so far and an error.
func SplitImages(data []byte) ([][]byte, error) {
	var images [][]byte
	pos := 0
	for {
		start := bytes.Index(data[pos:], []byte{0xFF, 0xD8})
		if start < 0 {
			break
		}
		start += pos

		end, err := imageEnd(data, start+2)
		if err != nil {
			return images, err
		}
		images = append(images, data[start:end])
		pos = end
	}

	if len(images) == 0 {
		return nil, errNoImages
	}
	return images, nil
}

// imageEnd walks JPEG markers from pos, just past SOI, and returns the offset after EOI.
func imageEnd(data []byte, pos int) (int, error) {
	for {
		if pos >= len(data) || data[pos] != 0xFF {
			return 0, errTruncated
		}
		for pos < len(data) && data[pos] == 0xFF {
			pos++
		}
		if pos >= len(data) {
			return 0, errTruncated
		}
		marker := data[pos]
		pos++

		switch {
		case marker == 0xD9:
			return pos, nil
		case marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7):
			continue
		}

		if pos+2 > len(data) {
			return 0, errTruncated
		}
		length := int(data[pos])<<8 | int(data[pos+1])
		if length < 2 {
			return 0, fmt.Errorf("mjpegdecoder: invalid segment length %d", length)
		}
		pos += length

		if marker == 0xDA {
			next, err := skipScan(data, pos)
			if err != nil {
				return 0, err
			}
			pos = next
		}
	}
}

// skipScan skips entropy-coded data and returns the offset of the next marker.
func skipScan(data []byte, pos int) (int, error) {
	for pos+1 < len(data) {
		if data[pos] != 0xFF {
			pos++
			continue
		}
		switch next := data[pos+1]; {
		case next == 0xFF:
			pos++
		case next == 0x00 || (next >= 0xD0 && next <= 0xD7):
			pos += 2
		default:
			return pos, nil
		}
	}
	return 0, errTruncated
}

var _ ports.VideoDecoder = (*Decoder)(nil)
