// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package watch re-runs a handler when a wiki file is saved.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// DefaultDelay is the quiet period after the last change before the
// handler runs.
const DefaultDelay = 500 * time.Millisecond

// Handler is called once per burst of changes.
type Handler func(ctx context.Context) error

// Watcher watches a single file. The parent directory is watched instead of
// the file itself so saves that replace the file (write to temp, rename)
// are still seen.
type Watcher struct {
	path  string
	delay time.Duration
	log   logrus.FieldLogger
	fsw   *fsnotify.Watcher
}

// New starts watching path. A delay of zero uses DefaultDelay.
func New(path string, delay time.Duration, log logrus.FieldLogger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	if delay <= 0 {
		delay = DefaultDelay
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{path: abs, delay: delay, log: log, fsw: fsw}, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// Run calls h after each burst of writes to the file until ctx is done.
// Handler errors are logged and do not stop the watcher. Run closes the
// watcher before returning.
func (w *Watcher) Run(ctx context.Context, h Handler) error {
	defer w.fsw.Close()

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.log.WithFields(logrus.Fields{"path": ev.Name, "op": ev.Op.String()}).Debug("change detected")
			fire = time.After(w.delay)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("watcher error")

		case <-fire:
			fire = nil
			if err := h(ctx); err != nil {
				w.log.WithError(err).WithField("path", w.path).Warn("handler failed")
			}
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)
}
