// Package watcher monitors a drop directory and indexes files placed
// into it.
package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nuri-labs/docrag/internal/core/domain"
	"github.com/nuri-labs/docrag/internal/core/ports/driving"
	"github.com/nuri-labs/docrag/internal/logger"
)

// DefaultSettle is how long a file must stay quiet before it is
// ingested. Copies into the drop directory arrive as a burst of write
// events; ingesting on the first one would read a partial file.
const DefaultSettle = 500 * time.Millisecond

// Watcher ingests files dropped into a directory.
type Watcher struct {
	ingest     driving.IngestService
	extensions map[string]struct{}
	settle     time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithSettle overrides the quiet period before ingestion.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) { w.settle = d }
}

// New creates a watcher that feeds the ingest service. Only files with
// one of the given extensions are picked up.
func New(ingest driving.IngestService, extensions []string, opts ...Option) *Watcher {
	exts := make(map[string]struct{}, len(extensions))
	for _, e := range extensions {
		exts[strings.ToLower(e)] = struct{}{}
	}

	w := &Watcher{
		ingest:     ingest,
		extensions: exts,
		settle:     DefaultSettle,
		pending:    make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch blocks watching dir until the context is cancelled.
func (w *Watcher) Watch(ctx context.Context, dir string) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(dir); err != nil {
		return err
	}
	logger.Info("watching %s", dir)

	for {
		select {
		case <-ctx.Done():
			w.cancelPending()
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !w.watched(event.Name) {
				continue
			}
			w.schedule(ctx, event.Name)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)
		}
	}
}

// schedule (re)arms the settle timer for a path. Each new event on the
// same path pushes ingestion back until writes stop.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.settle)
		return
	}

	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		w.ingestFile(ctx, path)
	})
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}

// ingestFile uploads one settled file. A filename that is already
// indexed is re-indexed instead, so overwriting a file in the drop
// directory refreshes it.
func (w *Watcher) ingestFile(ctx context.Context, path string) {
	content, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("reading %s: %v", path, err)
		return
	}

	result, err := w.ingest.Upload(ctx, filepath.Base(path), content)
	if err != nil {
		var dup *domain.DuplicateError
		if errors.As(err, &dup) {
			result, err = w.ingest.Reindex(ctx, dup.ExistingID)
			if err != nil {
				logger.Warn("re-indexing %s: %v", path, err)
				return
			}
			logger.Info("re-indexed %s (%d chunks)", result.Filename, result.ChunkCount)
			return
		}
		logger.Warn("indexing %s: %v", path, err)
		return
	}

	logger.Info("indexed %s (%d chunks)", result.Filename, result.ChunkCount)
}

func (w *Watcher) watched(path string) bool {
	_, ok := w.extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}
