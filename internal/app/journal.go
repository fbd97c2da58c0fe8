package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"deckeditor/internal/history"
	"deckeditor/internal/storage"
)

const journalQueue = 256

type journalItem struct {
	deckID string
	cmd    history.Command
}

// journalWriter moves command recording off the editor's call path. Commands
// arriving while the queue is full are dropped with a warning.
type journalWriter struct {
	journal *storage.Journal
	logger  *zap.Logger

	mu     sync.Mutex
	closed bool
	queue  chan journalItem
	done   chan struct{}
}

func newJournalWriter(j *storage.Journal, logger *zap.Logger) *journalWriter {
	w := &journalWriter{
		journal: j,
		logger:  logger,
		queue:   make(chan journalItem, journalQueue),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

// record matches editor.CommandHook.
func (w *journalWriter) record(deckID string, cmd history.Command) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	select {
	case w.queue <- journalItem{deckID: deckID, cmd: cmd}:
	default:
		w.logger.Warn("journal queue full, dropping command", zap.String("deck", deckID), zap.String("type", string(cmd.Type)))
	}
}

func (w *journalWriter) run() {
	defer close(w.done)
	for item := range w.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := w.journal.Append(ctx, item.deckID, item.cmd); err != nil {
			w.logger.Warn("append command", zap.String("deck", item.deckID), zap.Error(err))
		}
		cancel()
	}
}

// close drains the queue and waits for the last write.
func (w *journalWriter) close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.queue)
	w.mu.Unlock()
	<-w.done
}
