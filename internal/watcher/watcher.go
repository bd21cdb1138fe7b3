// Package watcher ingests files dropped into a watched directory.
//
// Every regular file created or modified under the directory is read and
// handed to the ingest service. A file that was already ingested is
// deleted from the knowledge base first so a rewrite replaces its
// fragments instead of duplicating them. Removed or renamed files are
// deleted from the knowledge base. Hidden files and directories are
// skipped.
package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/sheldonrobinson/AI4All/internal/core/ports/driving"
	"github.com/sheldonrobinson/AI4All/internal/logger"
	"github.com/sheldonrobinson/AI4All/internal/normalise"
)

// Watcher mirrors a drop directory into the knowledge base.
type Watcher struct {
	dir        string
	ingest     driving.IngestService
	lifecycle  driving.LifecycleService
	paragraphs bool

	mu   sync.Mutex
	docs map[string]string // absolute path -> document id
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithParagraphs makes the watcher ingest one fragment per paragraph.
func WithParagraphs() Option {
	return func(w *Watcher) { w.paragraphs = true }
}

// New creates a watcher over dir. The lifecycle service may be nil, in
// which case rewrites append new documents instead of replacing them.
func New(dir string, ingest driving.IngestService, lifecycle driving.LifecycleService, opts ...Option) (*Watcher, error) {
	if ingest == nil {
		return nil, errors.New("watcher: ingest service is required")
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New("watcher: " + dir + " is not a directory")
	}

	w := &Watcher{
		dir:       abs,
		ingest:    ingest,
		lifecycle: lifecycle,
		docs:      make(map[string]string),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run ingests files already present in the directory, then watches for
// changes until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return err
	}

	if err := w.ingestExisting(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher: %v", err)
		}
	}
}

// ingestExisting processes files that were in the directory before
// watching started.
func (w *Watcher) ingestExisting(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || isHidden(entry.Name()) {
			continue
		}
		w.ingestFile(ctx, filepath.Join(w.dir, entry.Name()))
	}
	return nil
}

// handleEvent maps one fsnotify event to an ingest or delete.
func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if isHidden(filepath.Base(event.Name)) {
		return
	}

	switch {
	case event.Op.Has(fsnotify.Create), event.Op.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil || info.IsDir() {
			return
		}
		w.ingestFile(ctx, event.Name)
	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		w.forgetFile(ctx, event.Name)
	}
}

// ingestFile reads path and stores its content, replacing any previous
// ingest of the same path.
func (w *Watcher) ingestFile(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("watcher: reading %s: %v", path, err)
		return
	}

	w.forgetFile(ctx, path)

	text := normalise.Text(path, data)

	var documentID string
	if w.paragraphs {
		documentID, err = w.ingest.IngestParagraphs(ctx, path, text)
	} else {
		documentID, err = w.ingest.Ingest(ctx, path, text)
	}
	if err != nil {
		logger.Warn("watcher: ingesting %s: %v", path, err)
		return
	}

	w.mu.Lock()
	w.docs[path] = documentID
	w.mu.Unlock()

	logger.Debug("watcher: ingested %s as %s", path, documentID)
}

// forgetFile deletes the document previously ingested from path, if any.
func (w *Watcher) forgetFile(ctx context.Context, path string) {
	w.mu.Lock()
	documentID, ok := w.docs[path]
	delete(w.docs, path)
	w.mu.Unlock()

	if !ok || w.lifecycle == nil {
		return
	}

	if err := w.lifecycle.Delete(ctx, documentID, path); err != nil {
		logger.Warn("watcher: deleting %s: %v", path, err)
	}
}

// DocumentID reports the document id currently mapped to path.
func (w *Watcher) DocumentID(path string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	id, ok := w.docs[path]
	return id, ok
}

// isHidden reports whether name is a dot file.
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
