package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var ErrSaveFailed = errors.New("save config failed")

// KV is the slice of the key-value store this package needs.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Store owns the in-memory copy of the display config and its
// persistence. Load is called once at startup, Save on every settings
// handoff; reads happen on the relay goroutine.
type Store struct {
	kv KV

	mu     sync.RWMutex
	config Config
}

func NewStore(kv KV) *Store {
	return &Store{kv: kv, config: Defaults}
}

// Load reads the persisted blob. An absent or unparsable blob falls
// back wholesale to the built-in defaults.
func (s *Store) Load(ctx context.Context) Config {
	raw, ok, err := s.kv.Get(ctx, StorageKey)
	if err != nil {
		slog.ErrorContext(ctx, "Error loading config, using defaults", "error", err)
		return s.replace(Defaults)
	}
	if !ok {
		slog.InfoContext(ctx, "No saved config, using defaults")
		return s.replace(Defaults)
	}

	var cfg Config
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		slog.ErrorContext(ctx, "Error parsing saved config, using defaults", "error", err)
		return s.replace(Defaults)
	}
	slog.InfoContext(ctx, "Loaded saved config")
	return s.replace(cfg)
}

// Save persists the full 8-field blob and swaps the in-memory copy.
// No field-level diffing.
func (s *Store) Save(ctx context.Context, cfg Config) error {
	const fn = "Store:Save"
	out, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("%s:%w:%w", fn, ErrSaveFailed, err)
	}
	if err := s.kv.Set(ctx, StorageKey, string(out)); err != nil {
		return fmt.Errorf("%s:%w:%w", fn, ErrSaveFailed, err)
	}
	s.replace(cfg)
	return nil
}

// Resolve maps an event code to display metadata using the current
// config.
func (s *Store) Resolve(code int) EventDisplay {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config.Resolve(code)
}

// Current returns a copy of the in-memory config.
func (s *Store) Current() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

func (s *Store) replace(cfg Config) Config {
	s.mu.Lock()
	s.config = cfg
	s.mu.Unlock()
	return cfg
}
