package shader

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/splatview/internal/logger"
)

// Watcher reports edits to the shader override directory. Notifications are
// coalesced: any number of file events between two drains of Changed
// produce a single signal.
type Watcher struct {
	fs      *fsnotify.Watcher
	changed chan struct{}
	done    chan struct{}
}

// Watch starts watching dir for source edits.
func Watch(dir string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating shader watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	w := &Watcher{
		fs:      fw,
		changed: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go w.loop()

	logger.Info("watching shader directory", zap.String("dir", dir))
	return w, nil
}

// Changed delivers a value after one or more sources changed.
func (w *Watcher) Changed() <-chan struct{} {
	return w.changed
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	err := w.fs.Close()
	<-w.done
	return err
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !isSource(ev.Name) || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("shader source changed", zap.String("file", ev.Name), zap.Stringer("op", ev.Op))
			select {
			case w.changed <- struct{}{}:
			default:
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			logger.Warn("shader watcher error", zap.Error(err))
		}
	}
}

func isSource(name string) bool {
	switch filepath.Ext(name) {
	case ".vert", ".frag", ".glsl", ".yaml":
		return true
	}
	return false
}
