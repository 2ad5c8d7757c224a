package storage

import (
	"github.com/fsnotify/fsnotify"

	"github.com/xionluhnis/print-me-a-cookie/core"
)

// Watcher watches a directory for changes, invoking onChange whenever a
// file is created, written, removed or renamed, so a caller can re-List()
// without polling.
type Watcher struct {
	watcher  *fsnotify.Watcher
	onChange func()
	done     chan struct{}
}

// NewWatcher starts watching root in the background. Call Close to stop.
func NewWatcher(root string, onChange func()) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		core.ReportError(core.ErrFileUnavailable)
		return nil, err
	}
	if err := fw.Add(root); err != nil {
		fw.Close()
		core.ReportError(core.ErrFileUnavailable)
		return nil, err
	}

	w := &Watcher{watcher: fw, onChange: onChange, done: make(chan struct{})}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				if w.onChange != nil {
					w.onChange()
				}
			}
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			core.ReportError(core.ErrFileUnavailable)
		case <-w.done:
			return
		}
	}
}

// Close stops the watch.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
