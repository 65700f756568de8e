// Package ffmpegdecoder decodes arbitrary video containers by piping frames out of an ffmpeg process.
package ffmpegdecoder

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"image/png"
	"io"
	"os"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/user/frameset/pkg/ports"
)

// DefaultFrameRate is used when the stream frame rate cannot be probed.
const DefaultFrameRate = 25.0

// Options configures the decoder.
type Options struct {
	// FFmpegPath is an optional custom path to the ffmpeg binary.
	FFmpegPath string
	// FrameRate is the fallback frame rate when probing fails.
	FrameRate float64
}

// Decoder implements ports.VideoDecoder with ffmpeg.
type Decoder struct {
	ffmpegPath string
	frameRate  float64
	probe      func(path string) (string, error)
}

// New creates a decoder. It fails if ffmpeg cannot be located.
func New(opts Options) (*Decoder, error) {
	path, err := FindFFmpeg(opts.FFmpegPath)
	if err != nil {
		return nil, err
	}
	if opts.FrameRate <= 0 {
		opts.FrameRate = DefaultFrameRate
	}
	return &Decoder{
		ffmpegPath: path,
		frameRate:  opts.FrameRate,
		probe: func(path string) (string, error) {
			return ffmpeg.Probe(path)
		},
	}, nil
}

// ReadFrames decodes every frame of the video at path.
func (d *Decoder) ReadFrames(path string) ([]ports.VideoFrame, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open %s: %w: %v", path, ports.ErrUnreadableVideo, err)
	}

	fps := d.frameRate
	if out, err := d.probe(path); err == nil {
		if rate, ok := parseFrameRate(out); ok {
			fps = rate
		}
	}

	var stdout, stderr bytes.Buffer
	err := ffmpeg.Input(path).
		Output("pipe:", ffmpeg.KwArgs{"format": "image2pipe", "vcodec": "png"}).
		WithOutput(&stdout).
		WithErrorOutput(&stderr).
		SetFfmpegPath(d.ffmpegPath).
		Run()

	frames, decodeErr := readPNGStream(&stdout, fps)
	switch {
	case err != nil && len(frames) == 0:
		return nil, fmt.Errorf("ffmpeg %s: %w: %v: %s", path, ports.ErrUnreadableVideo, err, lastLine(stderr.String()))
	case err != nil:
		return nil, fmt.Errorf("ffmpeg %s after %d frames: %w: %v: %s", path, len(frames), ports.ErrFrameDecode, err, lastLine(stderr.String()))
	case decodeErr != nil:
		return nil, fmt.Errorf("%s frame %d: %w: %v", path, len(frames), ports.ErrFrameDecode, decodeErr)
	case len(frames) == 0:
		return nil, fmt.Errorf("%s: %w: no frames", path, ports.ErrUnreadableVideo)
	}
	return frames, nil
}

// ReadFramesFromReader copies the stream to a temporary file and decodes it.
func (d *Decoder) ReadFramesFromReader(reader io.ReadSeeker) ([]ports.VideoFrame, error) {
	tmp, err := os.CreateTemp("", "frameset_*.video")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("copy stream: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}
	return d.ReadFrames(tmp.Name())
}

// Close releases decoder resources.
func (d *Decoder) Close() {}

// readPNGStream decodes consecutive PNG images until EOF.
// It returns the frames decoded before the first failure together with the failure.
func readPNGStream(r io.Reader, fps float64) ([]ports.VideoFrame, error) {
	br := bufio.NewReader(r)
	duration := int(1000 / fps)

	var frames []ports.VideoFrame
	for {
		if _, err := br.Peek(1); err == io.EOF {
			return frames, nil
		}
		img, err := png.Decode(br)
		if err != nil {
			return frames, err
		}
		frames = append(frames, ports.VideoFrame{
			Image:       img,
			TimestampMs: int(float64(len(frames)) * 1000 / fps),
			Duration:    duration,
		})
	}
}

type probeResult struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		AvgFrameRate string `json:"avg_frame_rate"`
		RFrameRate   string `json:"r_frame_rate"`
	} `json:"streams"`
}

// parseFrameRate extracts the frame rate of the first video stream from ffprobe JSON output.
func parseFrameRate(probeJSON string) (float64, bool) {
	var result probeResult
	if err := json.Unmarshal([]byte(probeJSON), &result); err != nil {
		return 0, false
	}
	for _, s := range result.Streams {
		if s.CodecType != "video" {
			continue
		}
		for _, rate := range []string{s.AvgFrameRate, s.RFrameRate} {
			if v, ok := parseRational(rate); ok {
				return v, true
			}
		}
	}
	return 0, false
}

// parseRational parses "num/den" or a plain number; zero and negative rates are rejected.
func parseRational(s string) (float64, bool) {
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	d := 1.0
	if found {
		d, err = strconv.ParseFloat(den, 64)
		if err != nil || d == 0 {
			return 0, false
		}
	}
	if v := n / d; v > 0 {
		return v, true
	}
	return 0, false
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return lines[len(lines)-1]
}

var _ ports.VideoDecoder = (*Decoder)(nil)
