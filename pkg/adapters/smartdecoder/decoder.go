// Package smartdecoder provides a video decoder that detects the container
// of each file and dispatches to the matching decoder.
package smartdecoder

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/user/frameset/pkg/adapters/codecdetect"
	"github.com/user/frameset/pkg/adapters/ffmpegdecoder"
	"github.com/user/frameset/pkg/adapters/mjpegdecoder"
	"github.com/user/frameset/pkg/ports"
)

// Backend represents the decoding backend used.
type Backend string

const (
	// BackendMJPEG decodes JPEG streams in process.
	BackendMJPEG Backend = "mjpeg"
	// BackendFFmpeg pipes frames out of an ffmpeg process.
	BackendFFmpeg Backend = "ffmpeg"
)

// Info describes the last decoded file.
type Info struct {
	Container codecdetect.Container
	Codec     codecdetect.Codec
	Backend   Backend
}

// Options configures the smart decoder behavior.
type Options struct {
	// FFmpegPath is an optional custom path to the ffmpeg binary.
	FFmpegPath string
	// FrameRate is used for MJPEG timestamps and as the ffmpeg fallback rate.
	FrameRate float64
}

// ErrNoDecoderAvailable is returned when a container needs ffmpeg and none was found.
var ErrNoDecoderAvailable = errors.New("smartdecoder: no decoder available")

// Decoder implements ports.VideoDecoder with per-file container detection.
type Decoder struct {
	mjpeg  ports.VideoDecoder
	ffmpeg ports.VideoDecoder
	// ffmpegErr explains why ffmpeg is nil.
	ffmpegErr error

	mu   sync.Mutex
	info Info
}

// New creates a decoder. A missing ffmpeg only fails files that need it.
func New(opts Options) *Decoder {
	d := &Decoder{
		mjpeg: mjpegdecoder.New(mjpegdecoder.Options{FrameRate: opts.FrameRate}),
	}
	ff, err := ffmpegdecoder.New(ffmpegdecoder.Options{FFmpegPath: opts.FFmpegPath, FrameRate: opts.FrameRate})
	if err != nil {
		d.ffmpegErr = err
	} else {
		d.ffmpeg = ff
	}
	return d
}

// NewWith creates a decoder from explicit backends. ffmpeg may be nil.
func NewWith(mjpeg, ffmpeg ports.VideoDecoder) *Decoder {
	d := &Decoder{mjpeg: mjpeg, ffmpeg: ffmpeg}
	if ffmpeg == nil {
		d.ffmpegErr = ErrNoDecoderAvailable
	}
	return d
}

// FFmpegAvailable reports whether containers other than MJPEG can be decoded.
func (d *Decoder) FFmpegAvailable() bool {
	return d.ffmpeg != nil
}

// ReadFrames reads and decodes all frames from a video file.
func (d *Decoder) ReadFrames(path string) ([]ports.VideoFrame, error) {
	detected, err := codecdetect.DetectFromFile(path)
	if err != nil {
		return nil, err
	}
	backend, err := d.selectBackend(detected)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return backend.ReadFrames(path)
}

// ReadFramesFromReader reads and decodes all frames from an io.ReadSeeker.
func (d *Decoder) ReadFramesFromReader(reader io.ReadSeeker) ([]ports.VideoFrame, error) {
	detected, err := codecdetect.DetectFromReader(reader)
	if err != nil {
		return nil, err
	}
	backend, err := d.selectBackend(detected)
	if err != nil {
		return nil, err
	}
	return backend.ReadFramesFromReader(reader)
}

func (d *Decoder) selectBackend(detected codecdetect.Info) (ports.VideoDecoder, error) {
	info := Info{Container: detected.Container, Codec: detected.Codec}

	var backend ports.VideoDecoder
	if detected.Container.IsMJPEG() {
		info.Backend = BackendMJPEG
		backend = d.mjpeg
	} else {
		if d.ffmpeg == nil {
			return nil, fmt.Errorf("%s container: %w: %v", detected.Container, ports.ErrUnreadableVideo, d.ffmpegErr)
		}
		info.Backend = BackendFFmpeg
		backend = d.ffmpeg
	}

	d.mu.Lock()
	d.info = info
	d.mu.Unlock()
	return backend, nil
}

// Info returns information about the last decoded file.
func (d *Decoder) Info() Info {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.info
}

// Close releases decoder resources.
func (d *Decoder) Close() {
	d.mjpeg.Close()
	if d.ffmpeg != nil {
		d.ffmpeg.Close()
	}
}

var _ ports.VideoDecoder = (*Decoder)(nil)
