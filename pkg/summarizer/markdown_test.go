package summarizer

import (
	"strings"
	"testing"
	"time"

	"github.com/user/frameset/pkg/mocks"
)

func testSummary() *Summary {
	s := NewBuilder().
		WithRun("extract", "/data/raw", "/data/frames", 2500*time.Millisecond).
		WithSettings(Settings{
			Transforms:  []string{"resize", "grayscale"},
			StoreFormat: "jpeg",
			Quality:     95,
			Workers:     4,
			FrameRate:   25,
		}).
		WithVideo(VideoInfo{Name: "clip01", SourceLabel: "rest", Frames: 10, DurationMs: 400}).
		WithVideo(VideoInfo{Name: "clip02", SourceLabel: "rest", Error: "unreadable video clip02.mp4"}).
		WithLabelCounts(map[string]int{"rest": 5, "active": 5}).
		Build()
	s.GeneratedAt = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	return s
}

func TestMarkdownFormatter_Format_Basic(t *testing.T) {
	result := NewMarkdownFormatter().Format(testSummary())

	checks := []string{
		"# Dataset Summary",
		"| Operation | extract |",
		"/data/raw",
		"/data/frames",
		"2024-01-15 10:30:00",
		"2.50 s",
		"| Videos | 2 |",
		"| Succeeded | 1 |",
		"| Failed | 1 |",
		"| Frames | 10 |",
		"| active | 5 |",
		"| rest | 5 |",
		"| clip01 | rest | 10 | 400 ms | OK |",
		"| clip02 | rest | 0 | - | Failed |",
		"- **clip02**: unreadable video clip02.mp4",
		"resize → grayscale",
		"| Store Format | jpeg |",
		"| Quality | 95 |",
		"| Workers | 4 |",
		"25.00 fps",
	}
	for _, check := range checks {
		if !strings.Contains(result, check) {
			t.Errorf("expected output to contain %q", check)
		}
	}
}

func TestMarkdownFormatter_NoFailures(t *testing.T) {
	s := NewBuilder().
		WithRun("preprocess", "/a", "/b", 0).
		WithVideo(VideoInfo{Name: "clip01", Frames: 3}).
		Build()

	result := NewMarkdownFormatter().Format(s)

	if strings.Contains(result, "## Failures") {
		t.Error("expected no failures section")
	}
	if strings.Contains(result, "Elapsed") {
		t.Error("expected no elapsed row for a zero duration")
	}
	if !strings.Contains(result, "| clip01 | - | 3 | - | OK |") {
		t.Errorf("expected placeholder source label, got:\n%s", result)
	}
	if !strings.Contains(result, "| Transforms | None |") {
		t.Error("expected empty transform chain to print None")
	}
}

func TestMarkdownFormatter_WithTranslator(t *testing.T) {
	translator := func(key string) string {
		translations := map[string]string{
			"Dataset Summary": "データセットサマリー",
			"Operation":       "操作",
			"Failures":        "失敗",
		}
		if v, ok := translations[key]; ok {
			return v
		}
		return key
	}

	result := NewMarkdownFormatter(WithTranslator(translator)).Format(testSummary())

	for _, want := range []string{"データセットサマリー", "操作", "失敗"} {
		if !strings.Contains(result, want) {
			t.Errorf("expected translated %q", want)
		}
	}
}

func TestMarkdownFormatter_WithVersion(t *testing.T) {
	result := NewMarkdownFormatter(WithVersion("v1.2.0")).Format(testSummary())

	if !strings.Contains(result, "frameset v1.2.0") {
		t.Error("expected output to contain version 'v1.2.0'")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		ms   int
		want string
	}{
		{0, "0 ms"},
		{850, "850 ms"},
		{1000, "1.00 s"},
		{2500, "2.50 s"},
		{60000, "1m 00s"},
		{185000, "3m 05s"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := formatDuration(tt.ms); got != tt.want {
				t.Errorf("formatDuration(%d) = %q, want %q", tt.ms, got, tt.want)
			}
		})
	}
}

func TestFormatFunc(t *testing.T) {
	var f Formatter = FormatFunc(func(s *Summary) string {
		return s.Operation
	})

	if got := f.Format(&Summary{Operation: "extract"}); got != "extract" {
		t.Errorf("expected extract, got %s", got)
	}
}

func TestWriter_Write(t *testing.T) {
	fs := mocks.NewFileSystem()
	w := NewWriter(NewMarkdownFormatter(), fs)

	if err := w.Write("/reports/run/summary.md", testSummary()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, ok := fs.GetFile("/reports/run/summary.md")
	if !ok {
		t.Fatal("summary file not written")
	}
	if !strings.HasPrefix(string(data), "# Dataset Summary") {
		t.Errorf("unexpected content: %s", data)
	}
	if exists, _ := fs.Exists("/reports/run"); !exists {
		t.Error("expected parent directory to be created")
	}
}
