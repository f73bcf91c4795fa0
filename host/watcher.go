package host

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fabricio-araujo94/solid/log"
	"github.com/fsnotify/fsnotify"
)

// The default quiet period before a burst of file events triggers a reload.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reports changes to a single file. The parent directory is watched
// so that editors replacing the file by rename are detected as well.
type Watcher struct {
	logger   log.Logger
	path     string
	debounce time.Duration
	fsw      *fsnotify.Watcher
}

func NewWatcher(path string, debounce time.Duration) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("host: could not create file watcher: %w", err)
	}
	if err = fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("host: could not watch %q: %w", path, err)
	}

	return &Watcher{
		logger:   log.New("file watcher"),
		path:     abs,
		debounce: debounce,
		fsw:      fsw,
	}, nil
}

// Path returns the absolute path of the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// Run invokes onChange after the watched file was written, created or
// renamed into place, once per burst of events. It blocks until ctx is
// cancelled or the watcher fails.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	defer w.fsw.Close()

	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debugf("%s: %s", event.Op, event.Name)
			timer.Reset(w.debounce)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("host: file watcher failed: %w", err)
		case <-timer.C:
			w.logger.Infof("%q changed", w.path)
			onChange()
		}
	}
}
