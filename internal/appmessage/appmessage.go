package appmessage

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// Message key indices - must match the watch firmware.
const (
	KeyEventType = 0
	KeyEventTime = 1

	SymbolEventType = "EVENT_TYPE"
	SymbolEventTime = "EVENT_TIME"
)

// Event type codes - must match the watch firmware.
const (
	EventBottle     = 1
	EventDiaper     = 2
	EventSleepStart = 3
	EventSleepEnd   = 4
)

var (
	ErrMissingField = errors.New("missing payload field")
	ErrInvalidValue = errors.New("invalid payload value")
)

// Payload is one appmessage as delivered by the phone bridge: a flat
// key/value set. Depending on the firmware/runtime version a field may
// arrive under its symbolic key name or under its numeric key index.
type Payload map[string]any

// Event is a decoded wearable notification.
type Event struct {
	Code      int
	Timestamp int64
}

// Lookup returns the value under the symbolic key if present, falling
// back to the numeric key index. Presence is checked explicitly so a
// zero value still counts as present.
func (p Payload) Lookup(symbolic string, numeric int) (any, bool) {
	if v, ok := p[symbolic]; ok {
		return v, true
	}
	if v, ok := p[strconv.Itoa(numeric)]; ok {
		return v, true
	}
	return nil, false
}

// Keys lists the keys present in the payload, sorted, for diagnostics
// when a field could not be found.
func (p Payload) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DecodeEvent extracts the event code and timestamp from a payload.
// Both fields must resolve under one of their two key schemes or the
// event is rejected with ErrMissingField.
func DecodeEvent(p Payload) (Event, error) {
	const fn = "DecodeEvent"
	rawCode, ok := p.Lookup(SymbolEventType, KeyEventType)
	if !ok {
		return Event{}, fmt.Errorf("%s:%w: event type not found, keys=%v", fn, ErrMissingField, p.Keys())
	}
	rawTime, ok := p.Lookup(SymbolEventTime, KeyEventTime)
	if !ok {
		return Event{}, fmt.Errorf("%s:%w: event time not found, keys=%v", fn, ErrMissingField, p.Keys())
	}

	code, err := toInt64(rawCode)
	if err != nil {
		return Event{}, fmt.Errorf("%s:%w: event type: %w", fn, ErrInvalidValue, err)
	}
	timestamp, err := toInt64(rawTime)
	if err != nil {
		return Event{}, fmt.Errorf("%s:%w: event time: %w", fn, ErrInvalidValue, err)
	}

	return Event{Code: int(code), Timestamp: timestamp}, nil
}

// toInt64 coerces the loosely-typed values the bridge hands over:
// JSON numbers arrive as float64, replayed values may be strings.
func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case float64:
		return int64(n), nil
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	default:
		return 0, fmt.Errorf("unsupported value type %T", v)
	}
}
