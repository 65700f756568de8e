package framestore

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/user/frameset/pkg/adapters/ggrenderer"
	"github.com/user/frameset/pkg/adapters/logger"
	"github.com/user/frameset/pkg/adapters/osfilesystem"
	"github.com/user/frameset/pkg/frame"
	"github.com/user/frameset/pkg/mocks"
	"github.com/user/frameset/pkg/ports"
)

func newDiskStore(format ports.ImageFormat) *Store {
	return New(osfilesystem.New(), ggrenderer.New(), Options{Format: format}, logger.NewNoop())
}

func patterned(seed uint8) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: seed + uint8(x*20), G: uint8(y * 30), B: seed, A: 255})
		}
	}
	return img
}

func buildCollection(t *testing.T, video string, labels ...string) *frame.Collection {
	t.Helper()
	c := frame.NewEmpty(video)
	for i, l := range labels {
		c.Append(patterned(uint8(i*10)), l)
	}
	return c
}

func samePixels(a, b image.Image) bool {
	if a.Bounds().Dx() != b.Bounds().Dx() || a.Bounds().Dy() != b.Bounds().Dy() {
		return false
	}
	for y := 0; y < a.Bounds().Dy(); y++ {
		for x := 0; x < a.Bounds().Dx(); x++ {
			r1, g1, b1, a1 := a.At(a.Bounds().Min.X+x, a.Bounds().Min.Y+y).RGBA()
			r2, g2, b2, a2 := b.At(b.Bounds().Min.X+x, b.Bounds().Min.Y+y).RGBA()
			if r1 != r2 || g1 != g2 || b1 != b2 || a1 != a2 {
				return false
			}
		}
	}
	return true
}

func TestStore_SaveWritesLayout(t *testing.T) {
	root := t.TempDir()
	store := newDiskStore(ports.FormatJPEG)

	c := buildCollection(t, "clip01", "rest", "active", "")
	if err := store.Save("clip01", root, c); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	for _, path := range []string{
		filepath.Join(root, "clip01", "rest", "frame-00000.jpeg"),
		filepath.Join(root, "clip01", "active", "frame-00001.jpeg"),
		filepath.Join(root, "clip01", frame.UnknownLabel, "frame-00002.jpeg"),
	} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected %s to exist: %v", path, err)
		}
	}
}

func TestStore_RoundTripPNG(t *testing.T) {
	root := t.TempDir()
	store := newDiskStore(ports.FormatPNG)

	original := buildCollection(t, "clip01", "rest", "rest", "active", "")
	if err := store.Save("clip01", root, original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load(filepath.Join(root, "clip01"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Len() != original.Len() {
		t.Fatalf("expected %d frames, got %d", original.Len(), loaded.Len())
	}
	if loaded.Video() != "clip01" {
		t.Errorf("expected video clip01, got %s", loaded.Video())
	}
	for i := 0; i < original.Len(); i++ {
		want, got := original.At(i), loaded.At(i)
		if got.Label() != want.Label() {
			t.Errorf("frame %d: expected label %s, got %s", i, want.Label(), got.Label())
		}
		if !samePixels(want.Image(), got.Image()) {
			t.Errorf("frame %d: pixels differ after round trip", i)
		}
	}
}

func TestStore_LoadSaveKeepsBytes(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	store := newDiskStore(ports.FormatJPEG)

	if err := store.Save("clip01", src, buildCollection(t, "clip01", "a", "b")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := store.Load(filepath.Join(src, "clip01"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := store.Save("clip01", dst, loaded); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	for _, rel := range []string{"a/frame-00000.jpeg", "b/frame-00001.jpeg"} {
		before, _ := os.ReadFile(filepath.Join(src, "clip01", rel))
		after, err := os.ReadFile(filepath.Join(dst, "clip01", rel))
		if err != nil {
			t.Fatalf("read %s: %v", rel, err)
		}
		if !bytes.Equal(before, after) {
			t.Errorf("%s changed on load/save", rel)
		}
	}
}

func TestStore_SaveRemovesStaleLabel(t *testing.T) {
	root := t.TempDir()
	store := newDiskStore(ports.FormatJPEG)

	c := buildCollection(t, "clip01", "a", "a")
	if err := store.Save("clip01", root, c); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	c.At(0).SetLabel("b")
	if err := store.Save("clip01", root, c); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, "clip01", "a", "frame-00000.jpeg")); !os.IsNotExist(err) {
		t.Errorf("expected stale frame to be removed, stat error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "clip01", "b", "frame-00000.jpeg")); err != nil {
		t.Errorf("expected relabeled frame: %v", err)
	}

	loaded, err := store.Load(filepath.Join(root, "clip01"))
	if err != nil {
		t.Fatalf("Load after relabel failed: %v", err)
	}
	if loaded.At(0).Label() != "b" || loaded.At(1).Label() != "a" {
		t.Errorf("unexpected labels after reload: %s, %s", loaded.At(0).Label(), loaded.At(1).Label())
	}
}

func TestStore_SaveKeepsUnrelatedFiles(t *testing.T) {
	root := t.TempDir()
	store := newDiskStore(ports.FormatJPEG)

	notes := filepath.Join(root, "clip01", "a", "notes.txt")
	os.MkdirAll(filepath.Dir(notes), 0755)
	os.WriteFile(notes, []byte("keep"), 0644)

	if err := store.Save("clip01", root, buildCollection(t, "clip01", "b")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(notes); err != nil {
		t.Errorf("unrelated file was removed: %v", err)
	}

	if _, err := store.Load(filepath.Join(root, "clip01")); err != nil {
		t.Errorf("non-image files must be ignored on load: %v", err)
	}
}

func TestStore_SaveChangesExtension(t *testing.T) {
	root := t.TempDir()
	c := buildCollection(t, "clip01", "a")

	if err := newDiskStore(ports.FormatJPEG).Save("clip01", root, c); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := newDiskStore(ports.FormatPNG).Save("clip01", root, c); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	entries, _ := os.ReadDir(filepath.Join(root, "clip01", "a"))
	if len(entries) != 1 || entries[0].Name() != "frame-00000.png" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("expected only frame-00000.png, got %v", names)
	}
}

func TestStore_LoadFilesWithoutLabelDirectory(t *testing.T) {
	fs := mocks.NewFileSystem()
	renderer := &mocks.Renderer{}
	data, _ := renderer.EncodeImage(patterned(0), ports.FormatPNG, 0)
	fs.WriteFile("/data/clip01/frame-00000.png", data)
	fs.WriteFile("/data/clip01/rest/frame-00001.png", data)

	store := New(fs, renderer, Options{}, logger.NewNoop())
	c, err := store.Load("/data/clip01")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.At(0).Label() != frame.UnknownLabel {
		t.Errorf("expected %q for top-level file, got %q", frame.UnknownLabel, c.At(0).Label())
	}
	if c.At(1).Label() != "rest" {
		t.Errorf("expected rest, got %q", c.At(1).Label())
	}
}

func TestStore_LoadCorrupt(t *testing.T) {
	renderer := &mocks.Renderer{}
	valid, _ := renderer.EncodeImage(patterned(0), ports.FormatPNG, 0)

	tests := []struct {
		name  string
		files map[string][]byte
	}{
		{"no frames", map[string][]byte{"/data/clip/a/readme.md": []byte("x")}},
		{"bad name", map[string][]byte{"/data/clip/a/img-1.png": valid}},
		{"gap", map[string][]byte{
			"/data/clip/a/frame-00000.png": valid,
			"/data/clip/a/frame-00002.png": valid,
		}},
		{"duplicate", map[string][]byte{
			"/data/clip/a/frame-00000.png": valid,
			"/data/clip/b/frame-00000.png": valid,
		}},
		{"undecodable", map[string][]byte{"/data/clip/a/frame-00000.png": {1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := mocks.NewFileSystem()
			for path, data := range tt.files {
				fs.WriteFile(path, data)
			}
			store := New(fs, renderer, Options{}, logger.NewNoop())

			_, err := store.Load("/data/clip")
			var corrupt *CorruptDatasetError
			if !errors.As(err, &corrupt) {
				t.Fatalf("expected CorruptDatasetError, got %v", err)
			}
			if !IsCorrupt(err) {
				t.Error("IsCorrupt should report true")
			}
		})
	}
}

func TestStore_LoadMissingDirectory(t *testing.T) {
	store := newDiskStore(ports.FormatJPEG)
	_, err := store.Load(filepath.Join(t.TempDir(), "missing"))
	if !IsCorrupt(err) {
		t.Errorf("expected CorruptDatasetError, got %v", err)
	}
}

func TestStore_SavePropagatesWriteError(t *testing.T) {
	fs := mocks.NewFileSystem()
	writeErr := errors.New("disk full")
	fs.WriteFileFunc = func(path string, data []byte) error {
		return writeErr
	}
	store := New(fs, &mocks.Renderer{}, Options{}, logger.NewNoop())

	err := store.Save("clip", "/out", buildCollection(t, "clip", "a"))
	if !errors.Is(err, writeErr) {
		t.Errorf("expected write error to propagate, got %v", err)
	}
}

func TestStore_SaveRejectsPathLabels(t *testing.T) {
	for _, label := range []string{".", "..", "a/b", `a\b`} {
		t.Run(label, func(t *testing.T) {
			fs := mocks.NewFileSystem()
			touched := 0
			fs.MkdirAllFunc = func(string) error { touched++; return nil }
			fs.WriteFileFunc = func(string, []byte) error { touched++; return nil }
			store := New(fs, &mocks.Renderer{}, Options{}, logger.NewNoop())

			err := store.Save("clip", "/out", buildCollection(t, "clip", "rest", label))
			if !errors.Is(err, frame.ErrInvalidLabel) {
				t.Errorf("expected ErrInvalidLabel, got %v", err)
			}
			if touched != 0 {
				t.Errorf("expected no filesystem writes, got %d", touched)
			}
		})
	}
}

func TestFileName(t *testing.T) {
	if got := FileName(7, ports.FormatJPEG); got != "frame-00007.jpeg" {
		t.Errorf("unexpected name %s", got)
	}
	if got := FileName(123456, ports.FormatPNG); got != "frame-123456.png" {
		t.Errorf("unexpected name %s", got)
	}
}
