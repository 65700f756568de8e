package orchestrator

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/user/frameset/pkg/adapters/logger"
	"github.com/user/frameset/pkg/frame"
	"github.com/user/frameset/pkg/framestore"
	"github.com/user/frameset/pkg/labels"
	"github.com/user/frameset/pkg/metrics"
	"github.com/user/frameset/pkg/mocks"
	"github.com/user/frameset/pkg/pipeline"
	"github.com/user/frameset/pkg/ports"
	"github.com/user/frameset/pkg/stages/extract"
	"github.com/user/frameset/pkg/stages/preprocess"
	"github.com/user/frameset/pkg/transform"
)

// mockExtractStage is a mock for the extract stage.
type mockExtractStage struct {
	result pipeline.ExtractResult
	err    error
	calls  int
}

func (m *mockExtractStage) Execute(ctx context.Context, input pipeline.ExtractInput) (pipeline.ExtractResult, error) {
	m.calls++
	if m.err != nil {
		return pipeline.ExtractResult{}, m.err
	}
	return m.result, nil
}

// mockPreprocessStage is a mock for the preprocess stage.
type mockPreprocessStage struct {
	err   error
	calls int
}

func (m *mockPreprocessStage) Execute(ctx context.Context, input pipeline.PreprocessInput) (pipeline.PreprocessResult, error) {
	m.calls++
	if m.err != nil {
		return pipeline.PreprocessResult{}, m.err
	}
	return pipeline.PreprocessResult{Collection: input.Collection, Frames: input.Collection.Len()}, nil
}

type fixture struct {
	fs      *mocks.FileSystem
	decoder *mocks.VideoDecoder
	store   *mocks.FrameStore
	metrics *metrics.Recorder
	orch    *Orchestrator
}

func newFixture() *fixture {
	f := &fixture{
		fs:      mocks.NewFileSystem(),
		decoder: mocks.NewVideoDecoder(),
		store:   mocks.NewFrameStore(),
		metrics: metrics.New(),
	}
	log := logger.NewNoop()
	f.orch = New(
		extract.NewStage(f.decoder, log),
		preprocess.NewStage(log, 2),
		f.store,
		f.fs,
		transform.NewRegistry(),
		f.metrics,
		log,
	)
	return f
}

func (f *fixture) addVideo(path string, frames []ports.VideoFrame) {
	f.fs.WriteFile(path, []byte("video"))
	f.decoder.SetFrames(path, frames)
}

func restActiveLabels() []labels.LabelConfig {
	return []labels.LabelConfig{
		{Name: "rest", Intervals: map[string][]labels.Interval{
			"clip": {{Start: 0, End: 4, Unit: labels.UnitFrame}},
		}},
		{Name: "active", Intervals: map[string][]labels.Interval{
			"clip": {{Start: 5, End: 9, Unit: labels.UnitFrame}},
		}},
	}
}

func TestExtractDataset_RestActive(t *testing.T) {
	f := newFixture()
	f.addVideo("/src/rest/clip.mjpg", mocks.Frames(10, 8, 8, 40))

	result, err := f.orch.ExtractDataset(context.Background(), ExtractRequest{
		SourceRoot: "/src",
		DestRoot:   "/dst",
		Labels:     restActiveLabels(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.store.SaveCount() != 1 {
		t.Fatalf("expected 1 save, got %d", f.store.SaveCount())
	}
	save := f.store.Saves[0]
	if save.VideoName != "clip" || save.DestRoot != "/dst" {
		t.Errorf("unexpected save target %s in %s", save.VideoName, save.DestRoot)
	}
	if len(save.Labels) != 10 {
		t.Fatalf("expected 10 frames, got %d", len(save.Labels))
	}
	for i, label := range save.Labels {
		want := "rest"
		if i >= 5 {
			want = "active"
		}
		if label != want {
			t.Errorf("frame %d: expected %s, got %s", i, want, label)
		}
	}

	if result.Succeeded() != 1 || result.Failed() != 0 {
		t.Errorf("expected 1 succeeded and 0 failed, got %d and %d", result.Succeeded(), result.Failed())
	}
	if result.TotalFrames() != 10 {
		t.Errorf("expected 10 frames, got %d", result.TotalFrames())
	}
	counts := result.LabelCounts()
	if counts["rest"] != 5 || counts["active"] != 5 {
		t.Errorf("unexpected label counts: %v", counts)
	}
	if v := result.Videos[0]; v.SourceLabel != "rest" || v.DurationMs != 400 {
		t.Errorf("unexpected video result: %+v", v)
	}

	if got := testutil.ToFloat64(f.metrics.VideosProcessed.WithLabelValues(OperationExtract, metrics.StatusOK)); got != 1 {
		t.Errorf("expected 1 ok video metric, got %v", got)
	}
	if got := testutil.ToFloat64(f.metrics.LastRunSuccess); got != 1 {
		t.Errorf("expected last run success 1, got %v", got)
	}
}

func TestExtractDataset_VideoDiscovery(t *testing.T) {
	f := newFixture()
	f.addVideo("/src/rest/b.MP4", mocks.Frames(1, 2, 2, 40))
	f.addVideo("/src/rest/a.mjpg", mocks.Frames(1, 2, 2, 40))
	f.fs.WriteFile("/src/rest/notes.txt", []byte("ignored"))
	f.fs.MkdirAll("/src/rest/nested.mp4")
	f.addVideo("/src/active/c.avi", mocks.Frames(1, 2, 2, 40))

	_, err := f.orch.ExtractDataset(context.Background(), ExtractRequest{
		SourceRoot: "/src",
		DestRoot:   "/dst",
		Labels:     restActiveLabels(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var names []string
	for _, s := range f.store.Saves {
		names = append(names, s.VideoName)
	}
	want := []string{"a", "b", "c"}
	if len(names) != len(want) {
		t.Fatalf("expected saves %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("save %d: expected %s, got %s", i, want[i], names[i])
		}
	}
}

func TestExtractDataset_CustomExtensions(t *testing.T) {
	f := newFixture()
	f.addVideo("/src/rest/a.mjpg", mocks.Frames(1, 2, 2, 40))
	f.addVideo("/src/rest/b.mp4", mocks.Frames(1, 2, 2, 40))

	_, err := f.orch.ExtractDataset(context.Background(), ExtractRequest{
		SourceRoot:      "/src",
		DestRoot:        "/dst",
		Labels:          restActiveLabels(),
		VideoExtensions: []string{".mp4"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.store.SaveCount() != 1 || f.store.Saves[0].VideoName != "b" {
		t.Errorf("expected only b to be extracted, got %+v", f.store.Saves)
	}
}

func TestExtractDataset_UnknownTransformBeforeIO(t *testing.T) {
	f := newFixture()
	f.addVideo("/src/rest/clip.mjpg", mocks.Frames(3, 2, 2, 40))

	listed := false
	f.fs.ListDirFunc = func(path string) ([]ports.DirEntry, error) {
		listed = true
		return nil, nil
	}

	_, err := f.orch.ExtractDataset(context.Background(), ExtractRequest{
		SourceRoot:      "/src",
		DestRoot:        "/dst",
		Labels:          restActiveLabels(),
		Transforms:      []transform.Spec{{Name: "grayscale"}, {Name: "sharpen"}},
		ApplyTransforms: true,
	})

	var unknown *transform.UnknownTransformError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownTransformError, got %v", err)
	}
	if unknown.Name != "sharpen" || unknown.Position != 1 {
		t.Errorf("unexpected error details: %+v", unknown)
	}
	if listed {
		t.Error("source directory must not be listed")
	}
	if f.store.SaveCount() != 0 {
		t.Error("nothing must be saved")
	}
}

func TestExtractDataset_TransformsIgnoredUnlessApplied(t *testing.T) {
	f := newFixture()
	f.addVideo("/src/rest/clip.mjpg", mocks.Frames(1, 2, 2, 40))

	_, err := f.orch.ExtractDataset(context.Background(), ExtractRequest{
		SourceRoot: "/src",
		DestRoot:   "/dst",
		Labels:     restActiveLabels(),
		Transforms: []transform.Spec{{Name: "sharpen"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.store.SaveCount() != 1 {
		t.Errorf("expected 1 save, got %d", f.store.SaveCount())
	}
}

func TestExtractDataset_AppliesTransforms(t *testing.T) {
	f := newFixture()
	f.addVideo("/src/rest/clip.mjpg", mocks.Frames(4, 8, 8, 40))

	var sizes []image.Rectangle
	f.store.SaveFunc = func(videoName, destRoot string, c *frame.Collection) error {
		for _, fr := range c.Frames() {
			sizes = append(sizes, fr.Image().Bounds())
		}
		return nil
	}

	result, err := f.orch.ExtractDataset(context.Background(), ExtractRequest{
		SourceRoot: "/src",
		DestRoot:   "/dst",
		Labels:     restActiveLabels(),
		Transforms: []transform.Spec{
			{Name: "resize", Params: transform.Params{"width": 4, "height": 2}},
		},
		ApplyTransforms: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sizes) != 4 {
		t.Fatalf("expected 4 frames, got %d", len(sizes))
	}
	for i, b := range sizes {
		if b.Dx() != 4 || b.Dy() != 2 {
			t.Errorf("frame %d: expected 4x2, got %dx%d", i, b.Dx(), b.Dy())
		}
	}
	if len(result.Transforms) != 1 || result.Transforms[0] != "resize" {
		t.Errorf("unexpected transforms: %v", result.Transforms)
	}
}

func TestExtractDataset_FailureIsolation(t *testing.T) {
	f := newFixture()
	f.addVideo("/src/rest/a.mjpg", mocks.Frames(2, 2, 2, 40))
	f.fs.WriteFile("/src/rest/b.mjpg", []byte("broken"))
	f.decoder.SetError("/src/rest/b.mjpg", ports.ErrUnreadableVideo)
	f.fs.WriteFile("/src/rest/c.mjpg", []byte("broken"))
	f.decoder.SetError("/src/rest/c.mjpg", ports.ErrFrameDecode)
	f.addVideo("/src/rest/d.mjpg", mocks.Frames(2, 2, 2, 40))

	result, err := f.orch.ExtractDataset(context.Background(), ExtractRequest{
		SourceRoot: "/src",
		DestRoot:   "/dst",
		Labels:     restActiveLabels(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.store.SaveCount() != 2 {
		t.Errorf("expected 2 saves, got %d", f.store.SaveCount())
	}
	if result.Failed() != 2 {
		t.Fatalf("expected 2 failures, got %d", result.Failed())
	}

	var unreadable *extract.UnreadableVideoError
	if !errors.As(result.Videos[1].Err, &unreadable) {
		t.Errorf("expected UnreadableVideoError for b, got %v", result.Videos[1].Err)
	}
	var decodeErr *extract.DecodeError
	if !errors.As(result.Videos[2].Err, &decodeErr) {
		t.Errorf("expected DecodeError for c, got %v", result.Videos[2].Err)
	}

	if got := testutil.ToFloat64(f.metrics.VideosProcessed.WithLabelValues(OperationExtract, metrics.StatusFailed)); got != 2 {
		t.Errorf("expected 2 failed video metrics, got %v", got)
	}
	if got := testutil.ToFloat64(f.metrics.LastRunSuccess); got != 0 {
		t.Errorf("expected last run success 0, got %v", got)
	}
}

func TestExtractDataset_AllFailedReturnsNilError(t *testing.T) {
	f := newFixture()
	f.fs.WriteFile("/src/rest/a.mp4", []byte("broken"))
	f.decoder.SetError("/src/rest/a.mp4", ports.ErrUnreadableVideo)

	result, err := f.orch.ExtractDataset(context.Background(), ExtractRequest{
		SourceRoot: "/src",
		DestRoot:   "/dst",
		Labels:     restActiveLabels(),
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if result.Failed() != 1 || result.Succeeded() != 0 {
		t.Errorf("expected 1 failure, got %+v", result.Videos)
	}
}

func TestExtractDataset_DuplicateVideoName(t *testing.T) {
	f := newFixture()
	f.addVideo("/src/rest/clip.mjpg", mocks.Frames(1, 2, 2, 40))
	f.addVideo("/src/active/clip.mp4", mocks.Frames(1, 2, 2, 40))

	result, err := f.orch.ExtractDataset(context.Background(), ExtractRequest{
		SourceRoot: "/src",
		DestRoot:   "/dst",
		Labels:     restActiveLabels(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.store.SaveCount() != 1 {
		t.Errorf("expected 1 save, got %d", f.store.SaveCount())
	}
	if !errors.Is(result.Videos[1].Err, ErrDuplicateVideo) {
		t.Errorf("expected ErrDuplicateVideo, got %v", result.Videos[1].Err)
	}
}

func TestExtractDataset_SaveErrorPropagates(t *testing.T) {
	f := newFixture()
	f.addVideo("/src/rest/a.mjpg", mocks.Frames(1, 2, 2, 40))
	f.addVideo("/src/rest/b.mjpg", mocks.Frames(1, 2, 2, 40))

	diskFull := errors.New("disk full")
	f.store.SaveFunc = func(videoName, destRoot string, c *frame.Collection) error {
		return diskFull
	}

	_, err := f.orch.ExtractDataset(context.Background(), ExtractRequest{
		SourceRoot: "/src",
		DestRoot:   "/dst",
		Labels:     restActiveLabels(),
	})
	if !errors.Is(err, diskFull) {
		t.Fatalf("expected save error, got %v", err)
	}
	if f.store.SaveCount() != 1 {
		t.Errorf("expected the run to stop after the first save, got %d saves", f.store.SaveCount())
	}
}

func TestExtractDataset_InvalidLabels(t *testing.T) {
	tests := []struct {
		name   string
		labels []labels.LabelConfig
		want   error
	}{
		{"none", nil, ErrNoLabels},
		{"duplicate", []labels.LabelConfig{{Name: "a"}, {Name: "a"}}, ErrDuplicateLabel},
		{"bad interval", []labels.LabelConfig{{Name: "a", Intervals: map[string][]labels.Interval{
			"clip": {{Start: 5, End: 1, Unit: labels.UnitFrame}},
		}}}, labels.ErrInvalidInterval},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.orch.ExtractDataset(context.Background(), ExtractRequest{
				SourceRoot: "/src",
				DestRoot:   "/dst",
				Labels:     tt.labels,
			})
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestExtractDataset_MissingLabelDirectory(t *testing.T) {
	f := newFixture()
	f.addVideo("/src/active/clip.mjpg", mocks.Frames(10, 2, 2, 40))

	result, err := f.orch.ExtractDataset(context.Background(), ExtractRequest{
		SourceRoot: "/src",
		DestRoot:   "/dst",
		Labels:     restActiveLabels(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Succeeded() != 1 {
		t.Errorf("expected 1 video, got %d", result.Succeeded())
	}
}

func TestExtractDataset_Cancelled(t *testing.T) {
	f := newFixture()
	f.addVideo("/src/rest/clip.mjpg", mocks.Frames(1, 2, 2, 40))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.orch.ExtractDataset(ctx, ExtractRequest{
		SourceRoot: "/src",
		DestRoot:   "/dst",
		Labels:     restActiveLabels(),
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if f.store.SaveCount() != 0 {
		t.Error("nothing must be saved after cancellation")
	}
}

func TestExtractDataset_WithMockStages(t *testing.T) {
	c := frame.NewEmpty("clip")
	c.Append(image.NewRGBA(image.Rect(0, 0, 2, 2)), "rest")

	extractStage := &mockExtractStage{result: pipeline.ExtractResult{Collection: c, DurationMs: 40}}
	preprocessStage := &mockPreprocessStage{err: errors.New("boom")}
	fs := mocks.NewFileSystem()
	fs.WriteFile("/src/rest/clip.mjpg", []byte("video"))
	store := mocks.NewFrameStore()

	orch := New(extractStage, preprocessStage, store, fs, transform.NewRegistry(), nil, logger.NewNoop())
	result, err := orch.ExtractDataset(context.Background(), ExtractRequest{
		SourceRoot:      "/src",
		DestRoot:        "/dst",
		Labels:          restActiveLabels(),
		ApplyTransforms: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if extractStage.calls != 1 || preprocessStage.calls != 1 {
		t.Errorf("expected one call per stage, got %d and %d", extractStage.calls, preprocessStage.calls)
	}
	if result.Failed() != 1 || store.SaveCount() != 0 {
		t.Errorf("a failing transform must skip the video, got %+v", result.Videos)
	}
}

func TestPreprocessDataset(t *testing.T) {
	f := newFixture()
	for _, name := range []string{"a", "b"} {
		c := frame.NewEmpty(name)
		for i := 0; i < 3; i++ {
			c.Append(image.NewRGBA(image.Rect(0, 0, 8, 6)), "rest")
		}
		f.store.Put("/frames/"+name, c)
		f.fs.MkdirAll("/frames/" + name)
	}
	f.fs.WriteFile("/frames/README.txt", []byte("not a video"))

	var sizes []image.Rectangle
	f.store.SaveFunc = func(videoName, destRoot string, c *frame.Collection) error {
		for _, fr := range c.Frames() {
			sizes = append(sizes, fr.Image().Bounds())
		}
		return nil
	}

	result, err := f.orch.PreprocessDataset(context.Background(), PreprocessRequest{
		SourceRoot: "/frames",
		DestRoot:   "/processed",
		Transforms: []transform.Spec{
			{Name: "center_crop", Params: transform.Params{"width": 4, "height": 4}},
			{Name: "grayscale"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Succeeded() != 2 || result.TotalFrames() != 6 {
		t.Errorf("expected 2 videos and 6 frames, got %d and %d", result.Succeeded(), result.TotalFrames())
	}
	for i, s := range f.store.Saves {
		if s.DestRoot != "/processed" {
			t.Errorf("save %d: expected /processed, got %s", i, s.DestRoot)
		}
	}
	for i, b := range sizes {
		if b.Dx() != 4 || b.Dy() != 4 {
			t.Errorf("frame %d: expected 4x4, got %dx%d", i, b.Dx(), b.Dy())
		}
	}
}

func TestPreprocessDataset_SkipsCorrupt(t *testing.T) {
	f := newFixture()
	good := frame.NewEmpty("good")
	good.Append(image.NewRGBA(image.Rect(0, 0, 2, 2)), "rest")
	f.store.Put("/frames/good", good)
	f.fs.MkdirAll("/frames/good")
	f.fs.MkdirAll("/frames/bad")

	f.store.LoadFunc = func(videoDir string) (*frame.Collection, error) {
		if videoDir == "/frames/bad" {
			return nil, &framestore.CorruptDatasetError{Dir: videoDir, Reason: "no frames"}
		}
		return good, nil
	}

	result, err := f.orch.PreprocessDataset(context.Background(), PreprocessRequest{
		SourceRoot: "/frames",
		DestRoot:   "/processed",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Failed() != 1 || result.Succeeded() != 1 {
		t.Fatalf("expected 1 failure and 1 success, got %+v", result.Videos)
	}
	if !framestore.IsCorrupt(result.Videos[0].Err) {
		t.Errorf("expected corrupt dataset error, got %v", result.Videos[0].Err)
	}
}

func TestPreprocessDataset_UnknownTransform(t *testing.T) {
	f := newFixture()
	f.fs.MkdirAll("/frames/a")

	_, err := f.orch.PreprocessDataset(context.Background(), PreprocessRequest{
		SourceRoot: "/frames",
		DestRoot:   "/processed",
		Transforms: []transform.Spec{{Name: "blur"}},
	})

	var unknown *transform.UnknownTransformError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownTransformError, got %v", err)
	}
	if f.store.SaveCount() != 0 {
		t.Error("nothing must be saved")
	}
}

func TestPreprocessDataset_InvalidParams(t *testing.T) {
	f := newFixture()

	_, err := f.orch.PreprocessDataset(context.Background(), PreprocessRequest{
		SourceRoot: "/frames",
		DestRoot:   "/processed",
		Transforms: []transform.Spec{{Name: "resize", Params: transform.Params{"width": 4}}},
	})

	var invalid *transform.InvalidParamsError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidParamsError, got %v", err)
	}
}

func TestPreprocessDataset_MissingSource(t *testing.T) {
	f := newFixture()

	_, err := f.orch.PreprocessDataset(context.Background(), PreprocessRequest{
		SourceRoot: "/missing",
		DestRoot:   "/processed",
	})
	if err == nil {
		t.Fatal("expected error for missing source root")
	}
}

func TestRunResult_Counts(t *testing.T) {
	r := RunResult{Videos: []VideoResult{
		{Name: "a", Frames: 3, LabelCounts: map[string]int{"rest": 2, "unknown": 1}},
		{Name: "b", Err: errors.New("bad")},
		{Name: "c", Frames: 2, LabelCounts: map[string]int{"rest": 2}},
	}}

	if r.Succeeded() != 2 || r.Failed() != 1 {
		t.Errorf("expected 2/1, got %d/%d", r.Succeeded(), r.Failed())
	}
	if r.TotalFrames() != 5 {
		t.Errorf("expected 5 frames, got %d", r.TotalFrames())
	}
	counts := r.LabelCounts()
	if counts["rest"] != 4 || counts["unknown"] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}
