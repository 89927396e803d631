// Package eventlog mirrors every raw appmessage value into per-key
// lists persisted after each update. It is a parallel consumer of the
// same inbound messages the relay processes and exists so a session's
// raw history survives the process.
package eventlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"baby-timeline-relay/internal/appmessage"
)

// Persist keys, one per event code.
const (
	PersistBottle    = 1
	PersistDiaper    = 2
	PersistMoonStart = 3
	PersistMoonEnd   = 4
)

var persistKeys = []int{PersistBottle, PersistDiaper, PersistMoonStart, PersistMoonEnd}

var (
	ErrPersist = errors.New("persist event log failed")
	ErrReset   = errors.New("reset event log failed")
)

// KV is the slice of the key-value store this package needs.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// Notifier delivers the reset appmessage back to the wearable.
type Notifier interface {
	NotifyReset(ctx context.Context) error
}

// Mirror holds the in-memory lists and their persistence. Record runs
// on the relay goroutine, Reset on the settings handoff goroutine.
type Mirror struct {
	kv       KV
	notifier Notifier

	mu    sync.Mutex
	lists map[int][]any
}

func New(kv KV, notifier Notifier) *Mirror {
	return &Mirror{
		kv:       kv,
		notifier: notifier,
		lists:    emptyLists(),
	}
}

// Load hydrates the per-key lists from the store. Unparsable or
// absent keys start empty.
func (m *Mirror) Load(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range persistKeys {
		raw, ok, err := m.kv.Get(ctx, strconv.Itoa(key))
		if err != nil {
			slog.ErrorContext(ctx, "Error loading event log key", "key", key, "error", err)
			continue
		}
		if !ok {
			continue
		}
		var values []any
		if err := json.Unmarshal([]byte(raw), &values); err != nil {
			slog.ErrorContext(ctx, "Error parsing event log key", "key", key, "error", err)
			continue
		}
		m.lists[key] = values
	}
}

// Record appends every value in the payload to its key's list and
// persists each dirty key's full list. Keys are coerced to their
// canonical numeric form; unrecognized keys are skipped.
func (m *Mirror) Record(ctx context.Context, payload appmessage.Payload) error {
	const fn = "Mirror:Record"
	m.mu.Lock()
	defer m.mu.Unlock()

	var dirty []int
	for rawKey, value := range payload {
		key, ok := canonicalKey(rawKey)
		if !ok {
			slog.DebugContext(ctx, "Skipping non-canonical payload key", "key", rawKey)
			continue
		}
		m.lists[key] = append(m.lists[key], value)
		if !contains(dirty, key) {
			dirty = append(dirty, key)
		}
	}

	for _, key := range dirty {
		if err := m.persist(ctx, key); err != nil {
			return fmt.Errorf("%s:%w:%w", fn, ErrPersist, err)
		}
	}
	return nil
}

// Reset deletes every key the mirror owns, clears the in-memory
// lists, persists the now-empty lists and notifies the wearable
// exactly once. Only the mirror's keys are touched; the display
// config blob shares the store and must survive a log erasure.
func (m *Mirror) Reset(ctx context.Context) error {
	const fn = "Mirror:Reset"
	m.mu.Lock()
	defer m.mu.Unlock()

	owned := make([]string, 0, len(m.lists))
	for key := range m.lists {
		owned = append(owned, strconv.Itoa(key))
	}
	if err := m.kv.Delete(ctx, owned...); err != nil {
		return fmt.Errorf("%s:%w:%w", fn, ErrReset, err)
	}
	m.lists = emptyLists()
	for _, key := range persistKeys {
		if err := m.persist(ctx, key); err != nil {
			return fmt.Errorf("%s:%w:%w", fn, ErrReset, err)
		}
	}
	if err := m.notifier.NotifyReset(ctx); err != nil {
		return fmt.Errorf("%s:%w:%w", fn, ErrReset, err)
	}
	slog.InfoContext(ctx, "Event log cleared")
	return nil
}

// Values returns a copy of one key's list.
func (m *Mirror) Values(key int) []any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]any, len(m.lists[key]))
	copy(out, m.lists[key])
	return out
}

// persist overwrites one key's full list; callers hold the lock.
func (m *Mirror) persist(ctx context.Context, key int) error {
	values := m.lists[key]
	if values == nil {
		values = []any{}
	}
	out, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return m.kv.Set(ctx, strconv.Itoa(key), string(out))
}

// canonicalKey maps a payload key to its numeric form. Symbolic key
// names fold onto the index they alias.
func canonicalKey(raw string) (int, bool) {
	switch raw {
	case appmessage.SymbolEventType:
		return appmessage.KeyEventType, true
	case appmessage.SymbolEventTime:
		return appmessage.KeyEventTime, true
	}
	key, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return key, true
}

func emptyLists() map[int][]any {
	lists := make(map[int][]any, len(persistKeys))
	for _, key := range persistKeys {
		lists[key] = []any{}
	}
	return lists
}

func contains(keys []int, key int) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
