package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/benjaminschreck/go-wordfill/pkg/wordfill"
)

const defaultDebounce = 300 * time.Millisecond

// watcher re-runs a render whenever one of its input files changes. Events
// are collected per file and acted on once the file has been quiet for the
// debounce window, so an editor's save burst renders once.
type watcher struct {
	fs       *fsnotify.Watcher
	files    map[string]bool
	debounce time.Duration
	render   func(ctx context.Context) error
	logger   *wordfill.Logger

	mu      sync.Mutex
	pending map[string]time.Time
}

// newWatcher watches the directories holding files. Directories are watched
// instead of the files so editors that replace a file on save are followed.
func newWatcher(files []string, debounce time.Duration, logger *wordfill.Logger, render func(ctx context.Context) error) (*watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &watcher{
		fs:       fw,
		files:    make(map[string]bool, len(files)),
		debounce: debounce,
		render:   render,
		logger:   logger,
		pending:  make(map[string]time.Time),
	}
	dirs := map[string]bool{}
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			fw.Close()
			return nil, err
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	return w, nil
}

// run renders once, then on every settled change until ctx is done.
func (w *watcher) run(ctx context.Context) error {
	defer w.fs.Close()

	w.renderOnce(ctx)

	tick := w.debounce / 3
	if tick <= 0 {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watch error: %v", err)
		case <-ticker.C:
			if w.settled() {
				w.renderOnce(ctx)
			}
		}
	}
}

func (w *watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	name, err := filepath.Abs(event.Name)
	if err != nil || !w.files[name] {
		return
	}
	w.logger.Debug("Change detected: %s %s", event.Op, name)
	w.mu.Lock()
	w.pending[name] = time.Now()
	w.mu.Unlock()
}

// settled drops the files quiet for the debounce window and reports whether
// any did.
func (w *watcher) settled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := time.Now()
	due := false
	for name, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			delete(w.pending, name)
			due = true
		}
	}
	return due
}

func (w *watcher) renderOnce(ctx context.Context) {
	start := time.Now()
	if err := w.render(ctx); err != nil {
		w.logger.Error("Render failed: %v", err)
		return
	}
	w.logger.Info("Rendered in %s", time.Since(start).Round(time.Millisecond))
}

func newWatchCmd(a *app) *cobra.Command {
	var (
		template string
		output   string
		debounce time.Duration
		data     dataFlags
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Render a template and render it again whenever its inputs change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			inputs := append([]string{template}, data.files...)
			if data.sqlite != "" {
				inputs = append(inputs, data.sqlite)
			}
			w, err := newWatcher(inputs, debounce, a.logger, func(ctx context.Context) error {
				return a.render(ctx, template, output, &data)
			})
			if err != nil {
				return err
			}
			a.logger.Info("Watching %d files; press Ctrl+C to stop", len(inputs))
			return w.run(ctx)
		},
	}
	cmd.Flags().StringVarP(&template, "template", "t", "", "Template file (.docx)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file")
	cmd.Flags().DurationVar(&debounce, "debounce", defaultDebounce, "Quiet period before re-rendering")
	data.register(cmd)
	_ = cmd.MarkFlagRequired("template")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
