package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/urbanmesh/zonegate/internal/ingest"
	"github.com/urbanmesh/zonegate/internal/logger"
)

var log = logger.ForComponent("watcher")

// Watcher monitors regulation drop folders and feeds new or changed
// documents to the ingest worker. Each root uses the layout
// <root>/<jurisdiction>/<document>; the first directory below a root
// names the jurisdiction the document belongs to.
type Watcher struct {
	config      Config
	fsWatcher   *fsnotify.Watcher
	fsWatcherMu sync.Mutex
	debouncer   *Debouncer
	ingestor    *ingest.Worker
	roots       []string
	mu          sync.RWMutex
	running     bool
	ctx         context.Context
	cancel      context.CancelFunc
}

func New(config Config, ingestor *ingest.Worker) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		config:    config,
		fsWatcher: fsWatcher,
		ingestor:  ingestor,
		roots:     make([]string, 0),
	}

	w.debouncer = NewDebouncer(config.DebounceWindow, config.MaxBatchSize, w.onFlush)

	return w, nil
}

func (w *Watcher) addToWatcher(path string) error {
	w.fsWatcherMu.Lock()
	defer w.fsWatcherMu.Unlock()
	return w.fsWatcher.Add(path)
}

func (w *Watcher) removeFromWatcher(path string) {
	w.fsWatcherMu.Lock()
	defer w.fsWatcherMu.Unlock()
	w.fsWatcher.Remove(path)
}

// AddRoot registers a drop folder and enqueues any documents already
// present under it.
func (w *Watcher) AddRoot(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	log.Info("adding drop folder", "path", abs)

	if err := w.addToWatcher(abs); err != nil {
		return err
	}

	w.mu.Lock()
	w.roots = append(w.roots, abs)
	w.mu.Unlock()

	if err := w.walkAndAdd(abs); err != nil {
		return err
	}

	log.Info("drop folder added", "path", abs)
	return nil
}

func (w *Watcher) walkAndAdd(path string) error {
	entries, err := os.ReadDir(path)
	if err != nil {
		log.Debug("failed to read directory", "path", path, "error", err)
		return err
	}

	for _, entry := range entries {
		fullPath := filepath.Join(path, entry.Name())

		if w.shouldIgnore(fullPath) {
			continue
		}

		if entry.IsDir() {
			if err := w.addToWatcher(fullPath); err != nil {
				log.Debug("failed to watch directory", "path", fullPath, "error", err)
				continue
			}
			log.Debug("watching directory", "path", fullPath)
			w.walkAndAdd(fullPath)
		} else {
			w.enqueue(fullPath, ingest.PriorityLow)
		}
	}

	return nil
}

func (w *Watcher) RemoveRoot(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.removeFromWatcher(abs)

	w.mu.Lock()
	defer w.mu.Unlock()

	for i, root := range w.roots {
		if root == abs {
			w.roots = append(w.roots[:i], w.roots[i+1:]...)
			break
		}
	}

	return nil
}

func (w *Watcher) Start(ctx context.Context) error {
	log.Info("starting drop folder watcher")

	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}

	w.running = true
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.mu.Unlock()

	go w.handleEvents()

	return nil
}

func (w *Watcher) handleEvents() {
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			log.Debug("file event", "path", event.Name, "op", event.Op.String())

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !w.shouldIgnore(event.Name) {
						if err := w.addToWatcher(event.Name); err == nil {
							w.walkAndAdd(event.Name)
						}
					}
				}
			}

			fileEvent := w.convertEvent(event)
			if fileEvent != nil {
				w.debouncer.Add(*fileEvent)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}

			log.Debug("watch error", "error", err)
		}
	}
}

func (w *Watcher) convertEvent(event fsnotify.Event) *FileEvent {
	if w.shouldIgnore(event.Name) {
		return nil
	}

	var eventType EventType

	switch {
	case event.Has(fsnotify.Create):
		eventType = EventCreate
	case event.Has(fsnotify.Write):
		eventType = EventModify
	case event.Has(fsnotify.Remove):
		eventType = EventDelete
	case event.Has(fsnotify.Rename):
		eventType = EventRename
	default:
		return nil
	}

	return &FileEvent{
		Path:      event.Name,
		Type:      eventType,
		Timestamp: time.Now(),
	}
}

func (w *Watcher) onFlush(events []FileEvent) {
	log.Info("flushing events", "count", len(events))

	if len(events) == 0 || w.ingestor == nil {
		return
	}

	priority := batchPriority(events)

	for _, event := range events {
		if event.Type == EventDelete {
			continue
		}

		w.enqueue(event.Path, priority)
	}
}

func (w *Watcher) enqueue(path string, priority ingest.JobPriority) {
	if w.ingestor == nil {
		return
	}

	jurisdiction := w.jurisdictionFor(path)
	if jurisdiction == "" {
		log.Debug("skipping file outside a jurisdiction folder", "path", path)
		return
	}

	w.ingestor.Enqueue(ingest.Job{
		Path:         path,
		Jurisdiction: jurisdiction,
		Priority:     priority,
	})
	log.Debug("enqueued document", "path", path, "jurisdiction", jurisdiction)
}

// jurisdictionFor resolves the jurisdiction a dropped file belongs to:
// the first directory below its watch root. Files sitting directly in
// a root have no jurisdiction and are not ingested.
func (w *Watcher) jurisdictionFor(path string) string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, root := range w.roots {
		rel, err := filepath.Rel(root, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}

		parts := strings.Split(rel, string(filepath.Separator))
		if len(parts) < 2 {
			return ""
		}

		return parts[0]
	}

	return ""
}

func (w *Watcher) shouldIgnore(path string) bool {
	basename := filepath.Base(path)

	if !w.config.WatchHidden && strings.HasPrefix(basename, ".") {
		return true
	}

	for _, pattern := range w.config.IgnorePatterns {
		if match, _ := doublestar.Match(pattern, path); match {
			return true
		}
	}

	return false
}

func (w *Watcher) Stop() error {
	log.Info("stopping drop folder watcher")

	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}

	w.running = false
	w.cancel()
	w.mu.Unlock()

	w.debouncer.Stop()

	w.fsWatcherMu.Lock()
	defer w.fsWatcherMu.Unlock()
	return w.fsWatcher.Close()
}
