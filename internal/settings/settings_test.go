package settings

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKV struct {
	values map[string]string
	setErr error
	getErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{values: make(map[string]string)}
}

func (f *fakeKV) Get(ctx context.Context, key string) (string, bool, error) {
	if f.getErr != nil {
		return "", false, f.getErr
	}
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeKV) Set(ctx context.Context, key, value string) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.values[key] = value
	return nil
}

func Test_Resolve(t *testing.T) {
	cases := []struct {
		name     string
		config   Config
		code     int
		expected EventDisplay
	}{
		{
			name:   "no override uses defaults",
			config: Config{},
			code:   1,
			expected: EventDisplay{
				Label: "Bottle Feed",
				Icon:  "system://images/DINNER_RESERVATION",
			},
		},
		{
			name:   "label override keeps default icon",
			config: Config{Event1Name: "Feeding"},
			code:   1,
			expected: EventDisplay{
				Label: "Feeding",
				Icon:  "system://images/DINNER_RESERVATION",
			},
		},
		{
			name:   "empty override reverts to default",
			config: Config{Event2Name: "", Event2Icon: "system://images/PAY_BILL"},
			code:   2,
			expected: EventDisplay{
				Label: "Diaper Change",
				Icon:  "system://images/PAY_BILL",
			},
		},
		{
			name:   "unknown code degrades to generic entry",
			config: Config{},
			code:   99,
			expected: EventDisplay{
				Label: "Unknown Event",
				Icon:  "system://images/NOTIFICATION_FLAG",
			},
		},
		{
			name:   "sleep end default",
			config: Config{},
			code:   4,
			expected: EventDisplay{
				Label: "Sleep Ended",
				Icon:  "system://images/ALARM_CLOCK",
			},
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.config.Resolve(tt.code))
		})
	}
}

func Test_Store_LoadFallsBackToDefaults(t *testing.T) {
	cases := []struct {
		name    string
		setupKV func() *fakeKV
	}{
		{
			name:    "absent blob",
			setupKV: newFakeKV,
		},
		{
			name: "corrupt blob",
			setupKV: func() *fakeKV {
				kv := newFakeKV()
				kv.values[StorageKey] = "not-a-json"
				return kv
			},
		},
		{
			name: "store error",
			setupKV: func() *fakeKV {
				kv := newFakeKV()
				kv.getErr = errors.New("connection refused")
				return kv
			},
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			store := NewStore(tt.setupKV())
			cfg := store.Load(context.Background())
			assert.Equal(t, Defaults, cfg)
			assert.Equal(t, Defaults, store.Current())
		})
	}
}

func Test_Store_SaveThenLoad(t *testing.T) {
	kv := newFakeKV()
	store := NewStore(kv)

	override := Defaults
	override.Event1Name = "Feeding"
	require.NoError(t, store.Save(context.Background(), override))

	// Resolve sees the new label with the icon untouched.
	display := store.Resolve(1)
	assert.Equal(t, "Feeding", display.Label)
	assert.Equal(t, "system://images/DINNER_RESERVATION", display.Icon)

	// A second store over the same KV sees the persisted blob.
	store2 := NewStore(kv)
	cfg := store2.Load(context.Background())
	assert.Equal(t, override, cfg)
}

func Test_Store_SaveError(t *testing.T) {
	kv := newFakeKV()
	kv.setErr = errors.New("connection refused")
	store := NewStore(kv)

	err := store.Save(context.Background(), Defaults)
	assert.ErrorIs(t, err, ErrSaveFailed)
}

func Test_ParseHandoff(t *testing.T) {
	cfg := Config{Event1Name: "Feeding", Event3Icon: "system://images/MUSIC_EVENT"}
	blob, err := json.Marshal(cfg)
	require.NoError(t, err)

	parsed, err := ParseHandoff(url.QueryEscape(string(blob)))
	require.NoError(t, err)
	assert.Equal(t, cfg, parsed)

	_, err = ParseHandoff("%%%garbage")
	assert.Error(t, err)

	_, err = ParseHandoff("not-json")
	assert.Error(t, err)
}

func Test_KnownIcon(t *testing.T) {
	assert.True(t, KnownIcon("system://images/ALARM_CLOCK"))
	assert.False(t, KnownIcon("system://images/NOT_A_REAL_ICON"))
	assert.False(t, KnownIcon("ALARM_CLOCK"))
	assert.Len(t, IconCatalog, 18)
}
