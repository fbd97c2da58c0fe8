// Package app wires the store, editor, autosave and MCP server together.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"deckeditor/internal/canvas"
	"deckeditor/internal/config"
	"deckeditor/internal/domain"
	"deckeditor/internal/editor"
	"deckeditor/internal/interaction"
	"deckeditor/internal/persistence"
	"deckeditor/internal/storage"
)

// Events emitted to the host.
const (
	EventExternalChange = "deck:external-change"
	EventReloaded       = "deck:reloaded"
	EventSaveFailed     = "deck:save-failed"
)

// watchSettle coalesces the burst of events a single file write produces.
const watchSettle = 100 * time.Millisecond

// App owns one editing session: a store, the editor on top of it and the
// background workers that keep the two in sync.
type App struct {
	cfg     *config.Config
	logger  *zap.Logger
	emitter EventEmitter

	store   domain.DeckStore
	db      *storage.DB // SQL store or the local journal database
	mongo   *storage.MongoStore
	files   *storage.FileStore
	journal *journalWriter

	editor      *editor.Editor
	coordinator *persistence.Coordinator
	metrics     *persistence.Metrics
	checkpoint  *cron.Cron
	watcher     *storage.Watcher
}

// Open connects to the configured store and starts the background workers.
// A nil emitter logs events instead.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger, emitter EventEmitter) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if emitter == nil {
		emitter = NewLogEmitter(logger)
	}
	a := &App{cfg: cfg, logger: logger, emitter: emitter}

	if err := a.openStore(ctx); err != nil {
		a.Close(ctx)
		return nil, err
	}
	if cfg.Journal.Enabled {
		if err := a.openJournal(); err != nil {
			a.Close(ctx)
			return nil, err
		}
	}

	opts := []editor.Option{
		editor.WithStore(a.store),
		editor.WithLogger(logger.Named("editor")),
		editor.WithHistoryLimit(cfg.Editor.HistoryLimit),
	}
	if a.journal != nil {
		opts = append(opts, editor.WithCommandHook(a.journal.record))
	}
	a.editor = editor.New(opts...)

	a.metrics = persistence.NewMetrics("deckeditor")
	a.coordinator = persistence.NewCoordinator(a.editor, a.store, persistence.Config{
		Debounce:        cfg.Autosave.Debounce(),
		GestureDebounce: cfg.Autosave.GestureDebounce(),
		RetryDelay:      cfg.Autosave.Retry(),
	}, logger.Named("autosave"), a.metrics)

	if spec := cfg.Autosave.Checkpoint; spec != "" {
		if err := a.startCheckpoint(spec); err != nil {
			a.Close(ctx)
			return nil, err
		}
	}
	if a.files != nil && cfg.Store.Watch {
		w, err := storage.NewWatcher(a.files, watchSettle, logger.Named("watcher"), a.onExternalChange)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		a.watcher = w
	}
	return a, nil
}

func (a *App) openStore(ctx context.Context) error {
	switch driver := a.cfg.Store.Driver; driver {
	case storage.DriverSQLite, storage.DriverPostgres, storage.DriverMySQL:
		db, err := storage.Open(driver, a.cfg.Store.DSN)
		if err != nil {
			return err
		}
		a.db = db
		a.store = storage.NewSQLStore(db)
	case "mongo":
		ms, err := storage.OpenMongo(ctx, a.cfg.Store.DSN, a.cfg.Store.Database)
		if err != nil {
			return err
		}
		a.mongo = ms
		a.store = ms
	case "file":
		files, err := storage.NewFileStore(a.cfg.Store.Dir)
		if err != nil {
			return err
		}
		a.files = files
		a.store = files
	default:
		return fmt.Errorf("unknown store driver %q", driver)
	}
	a.logger.Info("store opened", zap.String("driver", a.cfg.Store.Driver))
	return nil
}

// openJournal records commands next to SQL decks, or in a local SQLite file
// for the other drivers.
func (a *App) openJournal() error {
	if a.db == nil {
		db, err := storage.Open(storage.DriverSQLite, filepath.Join(a.cfg.Store.Dir, "journal.db"))
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		a.db = db
	}
	a.journal = newJournalWriter(storage.NewJournal(a.db, a.cfg.Journal.Limit), a.logger.Named("journal"))
	return nil
}

func (a *App) startCheckpoint(spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, a.checkpointTick); err != nil {
		return fmt.Errorf("checkpoint spec %q: %w", spec, err)
	}
	c.Start()
	a.checkpoint = c
	return nil
}

// checkpointTick saves a dirty deck even while edits keep resetting the debounce.
func (a *App) checkpointTick() {
	if !a.coordinator.Dirty() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := a.coordinator.Flush(ctx); err != nil {
		a.logger.Warn("checkpoint save failed", zap.Error(err))
		a.emitter.Emit(ctx, EventSaveFailed, map[string]any{"error": err.Error()})
		return
	}
	a.logger.Debug("checkpoint saved")
}

// onExternalChange reloads a deck edited outside this process, unless local
// edits are still unsaved.
func (a *App) onExternalChange(deckID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.emitter.Emit(ctx, EventExternalChange, map[string]any{"deckId": deckID})

	s := a.editor.State()
	if s.Deck == nil || s.Deck.Meta.ID != deckID {
		return
	}
	if s.IsDragging() || a.coordinator.Dirty() {
		a.logger.Info("keeping unsaved edits over external change", zap.String("deck", deckID))
		return
	}
	if err := a.editor.LoadDeck(ctx, deckID); err != nil {
		a.logger.Warn("reload deck", zap.String("deck", deckID), zap.Error(err))
		return
	}
	a.coordinator.Rebase()
	a.emitter.Emit(ctx, EventReloaded, map[string]any{"deckId": deckID})
}

// OpenDeck loads id into the editor, or starts a new deck when id is empty.
// It returns the id of the open deck.
func (a *App) OpenDeck(ctx context.Context, id string) (string, error) {
	if id == "" {
		id = a.editor.NewDeck("Untitled", "")
		a.logger.Info("new deck", zap.String("deck", id))
		return id, nil
	}
	if err := a.editor.LoadDeck(ctx, id); err != nil {
		return "", err
	}
	return id, nil
}

// Gestures returns a drag/resize orchestrator for a renderer drawing on surface.
func (a *App) Gestures(surface canvas.Surface) *interaction.Orchestrator {
	return interaction.NewOrchestrator(a.editor, surface,
		interaction.WithSnapThreshold(a.cfg.Editor.SnapThreshold),
		interaction.WithFrameScheduler(interaction.NewTimerScheduler(a.cfg.Editor.FrameInterval())),
		interaction.WithLogger(a.logger.Named("gestures")),
	)
}

func (a *App) Editor() *editor.Editor                { return a.editor }
func (a *App) Coordinator() *persistence.Coordinator { return a.coordinator }
func (a *App) Metrics() *persistence.Metrics         { return a.metrics }

// Close saves pending edits and stops every worker. It is safe on a partly
// opened App.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.checkpoint != nil {
		<-a.checkpoint.Stop().Done()
	}
	if a.watcher != nil {
		errs = append(errs, a.watcher.Close())
	}
	if a.coordinator != nil {
		if err := a.coordinator.Flush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("final save: %w", err))
		}
		a.coordinator.Close(ctx)
	}
	if a.journal != nil {
		a.journal.close()
	}
	if a.mongo != nil {
		errs = append(errs, a.mongo.Close(ctx))
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
