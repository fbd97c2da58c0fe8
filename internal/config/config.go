// Package config loads the deck editor settings from defaults, an optional
// YAML file and DECK_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Store    Store    `yaml:"store"`
	Autosave Autosave `yaml:"autosave"`
	Editor   Editor   `yaml:"editor"`
	Journal  Journal  `yaml:"journal"`
	Log      Log      `yaml:"log"`
}

// Store selects the deck backend. DSN is used by the SQL drivers and mongo,
// Dir by the file driver.
type Store struct {
	Driver   string `yaml:"driver" validate:"oneof=sqlite postgres mysql mongo file"`
	DSN      string `yaml:"dsn" validate:"required_unless=Driver file"`
	Dir      string `yaml:"dir" validate:"required_if=Driver file"`
	Database string `yaml:"database"`
	// Watch reports outside edits of the file store.
	Watch bool `yaml:"watch"`
}

type Autosave struct {
	DebounceMS        int `yaml:"debounce_ms" validate:"gt=0"`
	GestureDebounceMS int `yaml:"gesture_debounce_ms" validate:"gt=0"`
	RetryMS           int `yaml:"retry_ms" validate:"gt=0"`
	// Checkpoint is a cron spec; dirty decks are flushed on every tick. Empty disables it.
	Checkpoint string `yaml:"checkpoint"`
}

func (a Autosave) Debounce() time.Duration        { return ms(a.DebounceMS) }
func (a Autosave) GestureDebounce() time.Duration { return ms(a.GestureDebounceMS) }
func (a Autosave) Retry() time.Duration           { return ms(a.RetryMS) }

type Editor struct {
	HistoryLimit    int     `yaml:"history_limit" validate:"gte=0"` // 0 keeps the whole history
	SnapThreshold   float64 `yaml:"snap_threshold" validate:"gte=0"`
	FrameIntervalMS int     `yaml:"frame_interval_ms" validate:"gt=0"`
}

func (e Editor) FrameInterval() time.Duration { return ms(e.FrameIntervalMS) }

type Journal struct {
	Enabled bool `yaml:"enabled"`
	Limit   int  `yaml:"limit" validate:"gte=0"`
}

type Log struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development"`
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

// DataDir is where the default stores live.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".local", "share", "deckeditor")
}

func Default() *Config {
	dir := DataDir()
	return &Config{
		Store: Store{
			Driver: "sqlite",
			DSN:    filepath.Join(dir, "decks.db"),
			Dir:    filepath.Join(dir, "decks"),
		},
		Autosave: Autosave{
			DebounceMS:        500,
			GestureDebounceMS: 150,
			RetryMS:           100,
			Checkpoint:        "@every 30s",
		},
		Editor: Editor{
			HistoryLimit:    50,
			SnapThreshold:   5,
			FrameIntervalMS: 16,
		},
		Journal: Journal{Enabled: true, Limit: 500},
		Log:     Log{Level: "info"},
	}
}

// Load builds the configuration. A missing file at path is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	getenv("DECK_STORE_DRIVER", &c.Store.Driver)
	getenv("DECK_STORE_DSN", &c.Store.DSN)
	getenv("DECK_STORE_DIR", &c.Store.Dir)
	getenv("DECK_STORE_DATABASE", &c.Store.Database)
	getenv("DECK_CHECKPOINT_SPEC", &c.Autosave.Checkpoint)
	getenv("DECK_LOG_LEVEL", &c.Log.Level)

	for key, dst := range map[string]*int{
		"DECK_AUTOSAVE_DEBOUNCE_MS": &c.Autosave.DebounceMS,
		"DECK_GESTURE_DEBOUNCE_MS":  &c.Autosave.GestureDebounceMS,
		"DECK_SAVE_RETRY_MS":        &c.Autosave.RetryMS,
		"DECK_HISTORY_LIMIT":        &c.Editor.HistoryLimit,
		"DECK_JOURNAL_LIMIT":        &c.Journal.Limit,
	} {
		if err := getenvInt(key, dst); err != nil {
			return err
		}
	}
	for key, dst := range map[string]*bool{
		"DECK_LOG_DEV":         &c.Log.Development,
		"DECK_STORE_WATCH":     &c.Store.Watch,
		"DECK_JOURNAL_ENABLED": &c.Journal.Enabled,
	} {
		if err := getenvBool(key, dst); err != nil {
			return err
		}
	}
	return nil
}

func getenv(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func getenvInt(key string, dst *int) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func getenvBool(key string, dst *bool) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}
