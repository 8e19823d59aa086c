// Package watch turns file system notifications into change events.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/batcher/internal/domain"
	"github.com/bft-labs/batcher/internal/ports"
	"github.com/bft-labs/batcher/pkg/log"
)

// ErrNoDirs is returned by New when there is nothing to watch.
var ErrNoDirs = errors.New("watch: no directories")

// Sink receives each change event that passes the pattern filter.
type Sink func(domain.ChangeEvent)

// Watcher monitors directory trees and forwards matching changes to a Sink.
type Watcher struct {
	fsw      *fsnotify.Watcher
	patterns []string
	sink     Sink
	logger   ports.Logger
	now      func() time.Time
}

// New creates a watcher over dirs and every directory below them. Watches are
// in place when New returns. An empty patterns list matches every file;
// otherwise a change is forwarded if its base name matches any glob.
func New(dirs, patterns []string, sink Sink, logger ports.Logger) (*Watcher, error) {
	if len(dirs) == 0 {
		return nil, ErrNoDirs
	}
	for _, p := range patterns {
		if _, err := filepath.Match(p, ""); err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		fsw:      fsw,
		patterns: patterns,
		sink:     sink,
		logger:   log.OrNoop(logger),
		now:      time.Now,
	}
	for _, dir := range dirs {
		if err := w.addTree(dir); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// WatchList returns the directories currently watched.
func (w *Watcher) WatchList() []string {
	return w.fsw.WatchList()
}

// Run forwards events until ctx is canceled, then releases the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", log.Err(err))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("failed to watch new directory",
					log.String("path", event.Name),
					log.Err(err),
				)
			}
		}
	}

	if !w.matches(event.Name) {
		return
	}

	op, ok := opOf(event.Op)
	if !ok {
		return
	}
	w.sink(domain.NewChangeEvent(event.Name, op, w.now()))
}

// addTree watches root and all directories below it.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk %s: %w", path, err)
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		w.logger.Debug("watching directory", log.String("path", path))
		return nil
	})
}

func (w *Watcher) matches(path string) bool {
	if len(w.patterns) == 0 {
		return true
	}
	name := filepath.Base(path)
	for _, p := range w.patterns {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
	}
	return false
}

// opOf maps a possibly combined fsnotify op to a single domain op.
func opOf(op fsnotify.Op) (domain.Op, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return domain.OpCreate, true
	case op.Has(fsnotify.Remove):
		return domain.OpRemove, true
	case op.Has(fsnotify.Rename):
		return domain.OpRename, true
	case op.Has(fsnotify.Write):
		return domain.OpWrite, true
	case op.Has(fsnotify.Chmod):
		return domain.OpChmod, true
	default:
		return "", false
	}
}
