package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ExternalChangeHandler is called with the id of a deck file that was
// modified by someone other than the FileStore.
type ExternalChangeHandler func(deckID string)

// Watcher reports outside modifications of the decks in a FileStore directory.
type Watcher struct {
	store    *FileStore
	watcher  *fsnotify.Watcher
	onChange ExternalChangeHandler
	settle   time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
	done   chan struct{}
}

// NewWatcher starts watching store's directory. Events for the same file are
// coalesced over settle before the file is compared.
func NewWatcher(store *FileStore, settle time.Duration, logger *zap.Logger, onChange ExternalChangeHandler) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(store.Dir()); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", store.Dir(), err)
	}
	w := &Watcher{
		store:    store,
		watcher:  fw,
		onChange: onChange,
		settle:   settle,
		logger:   logger,
		timers:   make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}
	go w.watchLoop()
	return w, nil
}

func (w *Watcher) watchLoop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			id, ok := deckID(event.Name)
			if !ok {
				continue
			}
			w.mu.Lock()
			if t, exists := w.timers[id]; exists {
				t.Stop()
			}
			path := event.Name
			w.timers[id] = time.AfterFunc(w.settle, func() { w.check(id, path) })
			w.mu.Unlock()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("deck watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) check(id, path string) {
	w.mu.Lock()
	delete(w.timers, id)
	w.mu.Unlock()

	data, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, fs.ErrNotExist) {
		return
	}
	if err != nil {
		w.logger.Warn("read changed deck", zap.String("deck", id), zap.Error(err))
		return
	}
	if w.store.Written(id, data) {
		return
	}
	w.logger.Info("deck changed on disk", zap.String("deck", id))
	if w.onChange != nil {
		w.onChange(id)
	}
}

// Close stops the watcher and any pending checks.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	w.mu.Lock()
	for id, t := range w.timers {
		t.Stop()
		delete(w.timers, id)
	}
	w.mu.Unlock()
	return err
}
