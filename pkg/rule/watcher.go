package rule

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// EventReload is broadcast to subscribers after the rule set has been
// reloaded in response to a filesystem change. Err is set when the reload
// failed; the previous set remains active in that case.
type EventReload struct {
	Set *RuleSet
	Err error
}

// Watcher watches a [Source]'s rules tree and reloads the rule set when rule
// documents change. Directories are watched recursively; newly created
// subdirectories are added on the fly.
type Watcher struct {
	watcher    *fsnotify.Watcher
	src        *Source
	watched    map[string]struct{}
	extensions []string
	listeners  []chan<- EventReload
	mu         sync.Mutex
}

// NewWatcher creates a [Watcher] over the source's rules tree.
func NewWatcher(src *Source) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		watcher:    fsw,
		src:        src,
		watched:    make(map[string]struct{}),
		extensions: src.extensions(),
	}

	err = w.addTree(src.Root())
	if err != nil {
		_ = fsw.Close()

		return nil, err
	}

	return w, nil
}

// Subscribe registers a channel to receive reload events.
func (w *Watcher) Subscribe(ch chan<- EventReload) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.listeners = append(w.listeners, ch)
}

// Watch processes filesystem events until the context is canceled or the
// watcher is closed. It is intended to run in its own goroutine.
func (w *Watcher) Watch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case evt, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			w.handleEvent(ctx, evt)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}

			slog.Warn("rules watch error", slog.Any("err", err))
		}
	}
}

// Close stops the watcher. After Close, Watch returns.
func (w *Watcher) Close() error {
	return w.watcher.Close() //nolint:wrapcheck // Return the original error.
}

func (w *Watcher) handleEvent(ctx context.Context, evt fsnotify.Event) {
	// Ignore events that are not related to file content changes.
	if evt.Has(fsnotify.Chmod) {
		return
	}

	if evt.Has(fsnotify.Create) {
		if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
			if err := w.addTree(evt.Name); err != nil {
				slog.Warn("watch new directory",
					slog.String("path", evt.Name),
					slog.Any("err", err),
				)
			}
		}
	}

	if !w.isRuleDocument(evt.Name) {
		return
	}

	slog.Debug("rule document changed",
		slog.String("path", evt.Name),
		slog.String("op", evt.Op.String()),
	)

	set, err := w.src.Reload()
	w.broadcast(ctx, EventReload{Set: set, Err: err})
}

func (w *Watcher) isRuleDocument(name string) bool {
	base := filepath.Base(name)
	for _, ext := range w.extensions {
		if strings.HasSuffix(base, ext) && len(base) > len(ext) {
			return true
		}
	}

	return false
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() {
			return nil
		}

		if p != root && strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}

		w.mu.Lock()
		defer w.mu.Unlock()

		if _, ok := w.watched[p]; ok {
			return nil
		}

		if err := w.watcher.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}

		w.watched[p] = struct{}{}

		return nil
	})
}

func (w *Watcher) broadcast(ctx context.Context, evt EventReload) {
	w.mu.Lock()
	listeners := append([]chan<- EventReload(nil), w.listeners...)
	w.mu.Unlock()

	for _, ch := range listeners {
		select {
		case ch <- evt:
		case <-ctx.Done():
			return
		}
	}
}
