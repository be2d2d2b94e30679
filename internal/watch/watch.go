// Package watch re-cleans notebooks whenever they are saved.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ayasyrev/nbmetaclean/internal/batch"
	"github.com/ayasyrev/nbmetaclean/internal/discover"
	"github.com/ayasyrev/nbmetaclean/internal/logger"
	"github.com/ayasyrev/nbmetaclean/pkg/cleaner"
)

// DefaultDebounce is how long a file must stay quiet before it is cleaned.
const DefaultDebounce = 300 * time.Millisecond

// Event reports one clean triggered by a save.
type Event struct {
	Path    string    `json:"path" yaml:"path"`
	Changed bool      `json:"changed" yaml:"changed"`
	Error   string    `json:"error,omitempty" yaml:"error,omitempty"`
	Time    time.Time `json:"time" yaml:"time"`
}

// TextLines implements output.TextReport.
func (e Event) TextLines() []string {
	switch {
	case e.Error != "":
		return []string{fmt.Sprintf("error: %s: %s", e.Path, e.Error)}
	case e.Changed:
		return []string{"cleaned: " + e.Path}
	default:
		return nil
	}
}

// Handler receives events. It is called from the watcher goroutine.
type Handler func(Event)

// Options configures a Watcher.
type Options struct {
	Config    *cleaner.Config
	Debounce  time.Duration
	Recursive bool
	Hidden    bool
}

// Watcher cleans notebooks under a set of roots as they change. The
// cleaner's own write fires another event, but cleaning again reports no
// change, so nothing is written twice.
type Watcher struct {
	watcher *fsnotify.Watcher
	opts    Options
	handler Handler
	files   map[string]bool // roots given as single files
	dirs    map[string]bool // directories whose notebooks are all cleaned

	mu      sync.Mutex
	pending map[string]time.Time
}

// New creates a Watcher and starts watching roots. Directories are watched
// with the same rules discover uses; file roots are watched through their
// parent directory.
func New(roots []string, opts Options, handler Handler) (*Watcher, error) {
	if opts.Config == nil {
		opts.Config = cleaner.DefaultConfig()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if handler == nil {
		handler = func(Event) {}
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	w := &Watcher{
		watcher: fw,
		opts:    opts,
		handler: handler,
		files:   make(map[string]bool),
		dirs:    make(map[string]bool),
		pending: make(map[string]time.Time),
	}

	for _, root := range roots {
		if err := w.addRoot(root); err != nil {
			fw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) addRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &discover.NotExistError{Path: root}
		}
		return err
	}
	if !info.IsDir() {
		w.files[filepath.Clean(root)] = true
		return w.watcher.Add(filepath.Dir(root))
	}
	return w.addDir(root)
}

func (w *Watcher) addDir(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && (!w.opts.Recursive || discover.SkipDir(d.Name(), w.opts.Hidden)) {
			return filepath.SkipDir
		}
		logger.Debug("watching directory", "path", p)
		w.dirs[filepath.Clean(p)] = true
		return w.watcher.Add(p)
	})
}

// WatchList returns the directories being watched.
func (w *Watcher) WatchList() []string {
	return w.watcher.WatchList()
}

// Run processes events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	tick := w.opts.Debounce / 3
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.WarnContext(ctx, "watch error", "error", err)

		case <-ticker.C:
			w.processSettled(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Has(fsnotify.Create) && w.opts.Recursive {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !discover.SkipDir(info.Name(), w.opts.Hidden) {
				if err := w.addDir(event.Name); err != nil {
					logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
				}
			}
			return
		}
	}

	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	if !w.wanted(event.Name) {
		return
	}

	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

// wanted reports whether path is a notebook covered by the roots.
func (w *Watcher) wanted(path string) bool {
	if !discover.IsNotebook(path, w.opts.Hidden) {
		return false
	}
	path = filepath.Clean(path)
	return w.files[path] || w.dirs[filepath.Dir(path)]
}

func (w *Watcher) processSettled(ctx context.Context) {
	now := time.Now()
	var ready []string

	w.mu.Lock()
	for path, at := range w.pending {
		if now.Sub(at) >= w.opts.Debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range ready {
		if ctx.Err() != nil {
			return
		}
		w.clean(ctx, path)
	}
}

func (w *Watcher) clean(ctx context.Context, path string) {
	log := logger.With("path", path)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		log.DebugContext(ctx, "notebook removed before cleaning")
		return
	}

	event := Event{Path: path, Time: time.Now()}
	changed, err := batch.CleanFile(path, w.opts.Config)
	event.Changed = changed
	if err != nil {
		event.Error = err.Error()
		log.WarnContext(ctx, "failed to clean notebook", "error", err)
	} else {
		log.DebugContext(ctx, "watched notebook cleaned", "changed", changed)
	}
	w.handler(event)
}
