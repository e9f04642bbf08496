package content

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long the watcher waits for writes to settle
// before reloading.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reloads a Bundle when files under its directory change.
type Watcher struct {
	dir      string
	bundle   *Bundle
	logger   *zap.Logger
	debounce time.Duration

	// OnReload, if set, is called after every reload attempt.
	OnReload func(error)

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewWatcher creates a watcher for dir that reloads bundle.
func NewWatcher(dir string, bundle *Bundle, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		dir:      dir,
		bundle:   bundle,
		logger:   logger,
		debounce: DefaultDebounce,
	}
}

// SetDebounce overrides the settle delay.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounce = d
}

// Start begins watching. It returns once the directory tree is registered.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := addTree(fw, w.dir); err != nil {
		fw.Close()
		return err
	}

	w.watcher = fw
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.running = true

	go w.loop(ctx, fw, w.stopCh, w.doneCh, w.debounce)

	w.logger.Debug("content watcher started", zap.String("dir", w.dir))
	return nil
}

// Stop stops watching and waits for the watch goroutine to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	done := w.doneCh
	w.mu.Unlock()

	<-done
	w.logger.Debug("content watcher stopped")
}

// finish marks the run that owns done as over, so that a watcher whose
// context was cancelled can be started again.
func (w *Watcher) finish(done chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.doneCh == done {
		w.running = false
	}
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher, stop, done chan struct{}, debounce time.Duration) {
	defer close(done)
	defer w.finish(done)
	defer fw.Close()

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					if err := addTree(fw, event.Name); err != nil {
						w.logger.Warn("watching new directory", zap.String("dir", event.Name), zap.Error(err))
					}
				}
			}
			if !relevant(event) {
				continue
			}
			timer.Reset(debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("content watcher error", zap.Error(err))
		case <-timer.C:
			err := w.bundle.Reload()
			if err != nil {
				w.logger.Warn("reloading content", zap.Error(err))
			}
			if w.OnReload != nil {
				w.OnReload(err)
			}
		}
	}
}

func relevant(event fsnotify.Event) bool {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return false
	}
	if isHidden(filepath.Base(event.Name)) {
		return false
	}
	ext := filepath.Ext(event.Name)
	return ext == "" || isArticleFile(event.Name)
}

func addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		return fw.Add(p)
	})
}
