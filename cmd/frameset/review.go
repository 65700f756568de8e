package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ideamans/go-l10n"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/user/frameset/pkg/adapters/filesink"
	"github.com/user/frameset/pkg/adapters/ggrenderer"
	"github.com/user/frameset/pkg/adapters/nullsink"
	"github.com/user/frameset/pkg/adapters/osfilesystem"
	"github.com/user/frameset/pkg/correction"
	"github.com/user/frameset/pkg/framestore"
	"github.com/user/frameset/pkg/ports"
	"github.com/user/frameset/pkg/preview"
)

func runReview(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(c)

	classes := c.StringSlice("classes")
	if len(classes) == 0 {
		classes = cfg.ReviewClasses()
	}

	frames := filepath.Clean(c.String("frames"))
	dst := c.String("dst")
	if dst == "" {
		dst = filepath.Dir(frames)
	}

	storeOpts, err := cfg.StoreOptions()
	if err != nil {
		return err
	}
	fs := osfilesystem.New()
	renderer := ggrenderer.New()
	store := framestore.New(fs, renderer, storeOpts, log)

	session, err := correction.Open(store, store, frames, dst, classes, log)
	if err != nil {
		return err
	}

	var sink ports.PreviewSink = nullsink.New()
	if path := c.String("preview"); path != "" {
		sink = filesink.New(path, fs, renderer)
	}
	previewOpts := preview.DefaultOptions()
	previewOpts.FontPath = c.String("font")
	if err := preview.Attach(session, preview.New(renderer, previewOpts), sink, log); err != nil {
		return fmt.Errorf("preview: %w", err)
	}

	interactive := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	if interactive {
		fmt.Fprintln(c.App.Writer, l10n.T("Keys: n/right next, p/left previous, t cycle label, s save, q quit"))
	}
	return reviewLoop(c.Context, session, os.Stdin, c.App.Writer, interactive, log)
}

// reviewLoop reads one key per line from in and applies it to the session until
// q, end of input or cancellation. A failed save is reported and the session goes on.
func reviewLoop(ctx context.Context, s *correction.Session, in io.Reader, out io.Writer, prompt bool, log ports.Logger) error {
	printStatus(out, s)

	scanner := bufio.NewScanner(in)
	for {
		if prompt {
			fmt.Fprint(out, "> ")
		}
		if !scanner.Scan() {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		key := strings.TrimSpace(scanner.Text())
		if key == "" {
			continue
		}
		if key == "q" || key == "quit" {
			break
		}

		action, err := s.HandleKey(key)
		switch {
		case errors.Is(err, correction.ErrUnknownKey):
			fmt.Fprintln(out, l10n.F("Unknown key %q", key))
			continue
		case err != nil:
			log.Error("Failed to save: %v", err)
			continue
		}

		if action == correction.ActionCommit {
			fmt.Fprintln(out, l10n.F("Saved %d frames with %d corrections", s.Collection().Len(), s.Corrections()))
		}
		printStatus(out, s)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read keys: %w", err)
	}

	if s.Dirty() {
		log.Warn("Quit with unsaved label changes")
	}
	return nil
}

func printStatus(out io.Writer, s *correction.Session) {
	p := s.Current()
	marker := ""
	if s.Dirty() {
		marker = " *"
	}
	fmt.Fprintf(out, "%s  %s%s\n", preview.FrameCaption(p), preview.ClassCaption(p), marker)
}
