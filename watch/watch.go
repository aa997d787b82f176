// Package watch re-runs a callback whenever a domain config file
// changes on disk. Bursts of filesystem events are coalesced with a
// debounce window so editors that save in several steps trigger a
// single rebuild.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the coalescing window applied when no
// WithDebounce option is given.
const DefaultDebounce = 250 * time.Millisecond

// Watcher observes a single config file and invokes a callback after
// each burst of changes.
type Watcher struct {
	path     string
	fn       func(context.Context) error
	debounce time.Duration
	log      *slog.Logger
}

// Option configures a Watcher.
type Option func(*Watcher) error

// WithDebounce sets the window in which consecutive change events are
// folded into one callback invocation.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) error {
		if d <= 0 {
			return errors.New("watch: debounce must be positive")
		}
		w.debounce = d
		return nil
	}
}

// WithLogger sets the logger used for callback failures and watch
// errors.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) error {
		if l == nil {
			return errors.New("watch: logger is nil")
		}
		w.log = l
		return nil
	}
}

// New returns a Watcher for path that calls fn after each change
// burst. The file does not need to exist yet; it is picked up on
// creation.
func New(path string, fn func(context.Context) error, opts ...Option) (*Watcher, error) {
	if path == "" {
		return nil, errors.New("watch: path is empty")
	}
	if fn == nil {
		return nil, errors.New("watch: callback is nil")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	w := &Watcher{
		path:     abs,
		fn:       fn,
		debounce: DefaultDebounce,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Path returns the absolute path under watch.
func (w *Watcher) Path() string { return w.path }

// Run blocks until ctx is cancelled, invoking the callback after each
// debounced burst of changes to the watched file. Callback errors are
// logged and do not stop the watch.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer fw.Close()

	// Watch the parent directory and filter by name. Editors replace
	// files atomically on save, which silently drops a watch placed on
	// the file itself.
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}

	base := filepath.Base(w.path)
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			w.log.Debug("config changed", "path", w.path, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			} else {
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(w.debounce)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watch error", "path", w.path, "err", err)
		case <-fire:
			timer, fire = nil, nil
			if err := w.fn(ctx); err != nil {
				w.log.Error("rebuild failed", "path", w.path, "err", err)
			}
		}
	}
}
