// Package codecdetect sniffs the container format of a video file and,
// for MP4 files, the codec of the video track.
package codecdetect

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/frameset/pkg/ports"
)

// Container represents a video container format.
type Container string

const (
	ContainerMJPEG     Container = "mjpeg"
	ContainerMultipart Container = "multipart"
	ContainerMP4       Container = "mp4"
	ContainerAVI       Container = "avi"
	ContainerMatroska  Container = "matroska"
	ContainerUnknown   Container = "unknown"
)

// IsMJPEG reports whether the container is a Motion JPEG stream.
func (c Container) IsMJPEG() bool {
	return c == ContainerMJPEG || c == ContainerMultipart
}

// Codec represents a video codec type.
type Codec string

const (
	CodecH264    Codec = "h264"
	CodecHEVC    Codec = "hevc"
	CodecAV1     Codec = "av1"
	CodecMJPEG   Codec = "mjpeg"
	CodecMPEG4   Codec = "mpeg4"
	CodecUnknown Codec = "unknown"
)

// Info is the result of detection.
type Info struct {
	Container Container
	Codec     Codec
}

const sniffLen = 512

// DetectFromFile detects the container of the file at path.
func DetectFromFile(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{Container: ContainerUnknown, Codec: CodecUnknown}, fmt.Errorf("open file: %w: %v", ports.ErrUnreadableVideo, err)
	}
	defer f.Close()

	return DetectFromReader(f)
}

// DetectFromReader detects the container from an io.ReadSeeker and rewinds it.
// MP4 files are parsed with mp4ff; a file with an ftyp box that does not parse is unreadable.
func DetectFromReader(reader io.ReadSeeker) (Info, error) {
	unknown := Info{Container: ContainerUnknown, Codec: CodecUnknown}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(reader, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return unknown, fmt.Errorf("read header: %w", err)
	}
	head = head[:n]
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return unknown, fmt.Errorf("seek: %w", err)
	}
	if n == 0 {
		return unknown, fmt.Errorf("empty file: %w", ports.ErrUnreadableVideo)
	}

	container := Sniff(head)
	if container != ContainerMP4 {
		info := Info{Container: container, Codec: CodecUnknown}
		if container.IsMJPEG() {
			info.Codec = CodecMJPEG
		}
		return info, nil
	}

	mp4File, err := mp4.DecodeFile(reader)
	if err != nil {
		return unknown, fmt.Errorf("decode mp4: %w: %v", ports.ErrUnreadableVideo, err)
	}
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return unknown, fmt.Errorf("seek: %w", err)
	}

	codec, err := detectFromMP4File(mp4File)
	if err != nil {
		return unknown, err
	}
	return Info{Container: ContainerMP4, Codec: codec}, nil
}

// DetectFromBytes detects the container from in-memory file data.
func DetectFromBytes(data []byte) (Info, error) {
	return DetectFromReader(bytes.NewReader(data))
}

// Sniff classifies a container from the first bytes of a file.
func Sniff(head []byte) Container {
	switch {
	case len(head) >= 2 && head[0] == 0xFF && head[1] == 0xD8:
		return ContainerMJPEG
	case len(head) >= 8 && string(head[4:8]) == "ftyp":
		return ContainerMP4
	case len(head) >= 12 && string(head[0:4]) == "RIFF" && string(head[8:12]) == "AVI ":
		return ContainerAVI
	case len(head) >= 4 && bytes.Equal(head[0:4], []byte{0x1A, 0x45, 0xDF, 0xA3}):
		return ContainerMatroska
	case isMultipart(head):
		return ContainerMultipart
	default:
		return ContainerUnknown
	}
}

// isMultipart matches a multipart boundary line followed by a JPEG part header.
func isMultipart(head []byte) bool {
	trimmed := bytes.TrimLeft(head, "\r\n")
	if !bytes.HasPrefix(trimmed, []byte("--")) {
		return false
	}
	return bytes.Contains(bytes.ToLower(trimmed), []byte("content-type: image/jpeg"))
}

func detectFromMP4File(mp4File *mp4.File) (Codec, error) {
	if mp4File.IsFragmented() && mp4File.Init != nil && mp4File.Init.Moov != nil {
		for _, trak := range mp4File.Init.Moov.Traks {
			if codec, ok := detectCodecFromTrack(trak); ok {
				return codec, nil
			}
		}
	}

	if mp4File.Moov != nil {
		for _, trak := range mp4File.Moov.Traks {
			if codec, ok := detectCodecFromTrack(trak); ok {
				return codec, nil
			}
		}
	}

	return CodecUnknown, fmt.Errorf("no video track found: %w", ports.ErrUnreadableVideo)
}

// detectCodecFromTrack reports the codec of a video track; ok is false for other tracks.
func detectCodecFromTrack(trak *mp4.TrakBox) (Codec, bool) {
	if trak.Mdia == nil || trak.Mdia.Hdlr == nil {
		return CodecUnknown, false
	}
	if trak.Mdia.Hdlr.HandlerType != "vide" {
		return CodecUnknown, false
	}
	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return CodecUnknown, true
	}

	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		switch child.Type() {
		case "avc1", "avc3":
			return CodecH264, true
		case "hvc1", "hev1":
			return CodecHEVC, true
		case "av01":
			return CodecAV1, true
		case "mp4v":
			return CodecMPEG4, true
		case "jpeg", "mjpa", "mjpb":
			return CodecMJPEG, true
		}
	}
	return CodecUnknown, true
}
