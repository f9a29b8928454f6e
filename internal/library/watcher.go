package library

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/tessro/spindle/internal/logging"
)

// DefaultDebounce coalesces bursts of filesystem events, such as a copy of
// a whole album, into one notification.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reports changes to the contents of a single directory. Only one
// directory is watched at a time; Watch replaces it.
type Watcher struct {
	fsw      *fsnotify.Watcher
	onChange func(dir string)
	debounce time.Duration
	logger   *log.Logger

	mu    sync.Mutex
	dir   string
	timer *time.Timer

	done chan struct{}
	wg   sync.WaitGroup
}

// NewWatcher creates a watcher that calls onChange, from its own goroutine,
// after the watched directory changes.
func NewWatcher(onChange func(dir string), logger *log.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if logger == nil {
		logger = logging.Discard()
	}

	w := &Watcher{
		fsw:      fsw,
		onChange: onChange,
		debounce: DefaultDebounce,
		logger:   logger,
		done:     make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Watch switches the watched directory to dir.
func (w *Watcher) Watch(dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if dir == w.dir {
		return nil
	}
	if w.dir != "" {
		_ = w.fsw.Remove(w.dir)
	}
	w.dir = ""
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.dir = dir
	return nil
}

// Dir returns the directory being watched.
func (w *Watcher) Dir() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dir
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.schedule()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "err", err)
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	dir := w.dir
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case <-w.done:
			return
		default:
		}
		w.onChange(dir)
	})
}

// Close stops watching.
func (w *Watcher) Close() error {
	close(w.done)
	err := w.fsw.Close()
	w.wg.Wait()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return err
}
