package summarizer

import (
	"fmt"
	"strings"
)

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator sets the function used to translate headings and field names.
func WithTranslator(t func(string) string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.translate = t
	}
}

// WithVersion sets the tool version printed in the footer.
func WithVersion(version string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.version = version
	}
}

// MarkdownFormatter renders a Summary as a Markdown document.
type MarkdownFormatter struct {
	translate func(string) string
	version   string
}

// NewMarkdownFormatter creates a formatter. Without a translator keys are printed as is.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{
		translate: func(s string) string { return s },
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	t := f.translate
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", t("Dataset Summary"))

	fmt.Fprintf(&b, "| %s | %s |\n|---|---|\n", t("Item"), t("Value"))
	row(&b, t("Operation"), s.Operation)
	row(&b, t("Source"), s.Source)
	row(&b, t("Destination"), s.Destination)
	row(&b, t("Generated At"), s.GeneratedAt.Format("2006-01-02 15:04:05"))
	if s.ElapsedMs > 0 {
		row(&b, t("Elapsed"), formatDuration(s.ElapsedMs))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## %s\n\n", t("Totals"))
	fmt.Fprintf(&b, "| %s | %s |\n|---|---|\n", t("Item"), t("Value"))
	row(&b, t("Videos"), fmt.Sprintf("%d", s.Totals.Videos))
	row(&b, t("Succeeded"), fmt.Sprintf("%d", s.Totals.Succeeded))
	row(&b, t("Failed"), fmt.Sprintf("%d", s.Totals.Failed))
	row(&b, t("Frames"), fmt.Sprintf("%d", s.Totals.Frames))
	b.WriteString("\n")

	if len(s.Labels) > 0 {
		fmt.Fprintf(&b, "## %s\n\n", t("Labels"))
		fmt.Fprintf(&b, "| %s | %s |\n|---|---:|\n", t("Label"), t("Frames"))
		for _, l := range s.Labels {
			row(&b, l.Label, fmt.Sprintf("%d", l.Frames))
		}
		b.WriteString("\n")
	}

	if len(s.Videos) > 0 {
		fmt.Fprintf(&b, "## %s\n\n", t("Videos"))
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n|---|---|---:|---:|---|\n",
			t("Video"), t("Source Label"), t("Frames"), t("Duration"), t("Status"))
		for _, v := range s.Videos {
			status := t("OK")
			if v.Failed() {
				status = t("Failed")
			}
			label := v.SourceLabel
			if label == "" {
				label = "-"
			}
			duration := "-"
			if v.DurationMs > 0 {
				duration = formatDuration(v.DurationMs)
			}
			fmt.Fprintf(&b, "| %s | %s | %d | %s | %s |\n", v.Name, label, v.Frames, duration, status)
		}
		b.WriteString("\n")
	}

	if s.Totals.Failed > 0 {
		fmt.Fprintf(&b, "## %s\n\n", t("Failures"))
		for _, v := range s.Videos {
			if v.Failed() {
				fmt.Fprintf(&b, "- **%s**: %s\n", v.Name, v.Error)
			}
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## %s\n\n", t("Settings"))
	fmt.Fprintf(&b, "| %s | %s |\n|---|---|\n", t("Item"), t("Value"))
	transforms := t("None")
	if len(s.Settings.Transforms) > 0 {
		transforms = strings.Join(s.Settings.Transforms, " → ")
	}
	row(&b, t("Transforms"), transforms)
	if s.Settings.StoreFormat != "" {
		row(&b, t("Store Format"), s.Settings.StoreFormat)
	}
	if s.Settings.Quality > 0 {
		row(&b, t("Quality"), fmt.Sprintf("%d", s.Settings.Quality))
	}
	if s.Settings.Workers > 0 {
		row(&b, t("Workers"), fmt.Sprintf("%d", s.Settings.Workers))
	}
	if s.Settings.FrameRate > 0 {
		row(&b, t("Frame Rate"), fmt.Sprintf("%.2f fps", s.Settings.FrameRate))
	}
	b.WriteString("\n")

	b.WriteString("---\n")
	if f.version != "" {
		fmt.Fprintf(&b, "%s frameset %s\n", t("Generated by"), f.version)
	} else {
		fmt.Fprintf(&b, "%s frameset\n", t("Generated by"))
	}

	return b.String()
}

func row(b *strings.Builder, key, value string) {
	fmt.Fprintf(b, "| %s | %s |\n", key, value)
}

// formatDuration formats milliseconds as "850 ms", "2.50 s" or "3m 05s".
func formatDuration(ms int) string {
	switch {
	case ms < 1000:
		return fmt.Sprintf("%d ms", ms)
	case ms < 60000:
		return fmt.Sprintf("%.2f s", float64(ms)/1000)
	default:
		sec := ms / 1000
		return fmt.Sprintf("%dm %02ds", sec/60, sec%60)
	}
}
