package relay

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"baby-timeline-relay/internal/appmessage"
	"baby-timeline-relay/internal/history"
	"baby-timeline-relay/internal/settings"
	"baby-timeline-relay/internal/timeline"
	"baby-timeline-relay/internal/worker"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	pins     []timeline.Pin
	response string
}

func (f *fakeSender) InsertPin(ctx context.Context, pin timeline.Pin) string {
	f.pins = append(f.pins, pin)
	return f.response
}

type fakeMirror struct {
	payloads []appmessage.Payload
}

func (f *fakeMirror) Record(ctx context.Context, payload appmessage.Payload) error {
	f.payloads = append(f.payloads, payload)
	return nil
}

type fakeRecorder struct {
	deliveries []history.Delivery
}

func (f *fakeRecorder) Record(ctx context.Context, delivery history.Delivery) error {
	f.deliveries = append(f.deliveries, delivery)
	return nil
}

type fakeAudit struct {
	messages []kafka.Message
	closed   bool
}

func (f *fakeAudit) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeAudit) Close() error {
	f.closed = true
	return nil
}

func newTestRelay(messages chan appmessage.Payload) (*Relay, *fakeSender, *fakeMirror, *fakeRecorder, *fakeAudit) {
	sender := &fakeSender{response: `{"ok":true}`}
	mirror := &fakeMirror{}
	recorder := &fakeRecorder{}
	audit := &fakeAudit{}
	relay := New(Config{
		Messages:  messages,
		Formatter: timeline.NewFormatter(time.UTC, true),
		Settings:  settings.Defaults,
		Sender:    sender,
		Mirror:    mirror,
		History:   recorder,
		Audit:     audit,
		Now:       func() time.Time { return time.Unix(1700000100, 0) },
	})
	return relay, sender, mirror, recorder, audit
}

func Test_ProcessMessage_RelaysPin(t *testing.T) {
	messages := make(chan appmessage.Payload, 1)
	relay, sender, mirror, recorder, audit := newTestRelay(messages)

	messages <- appmessage.Payload{
		"EVENT_TYPE": float64(1),
		"EVENT_TIME": float64(1700000000),
	}

	err := relay.ProcessMessage(context.Background())
	require.NoError(t, err)

	// One pin, built from the resolved display config.
	require.Len(t, sender.pins, 1)
	pin := sender.pins[0]
	assert.Equal(t, "baby-watch-1-1700000000", pin.ID)
	assert.Equal(t, "Bottle Feed", pin.Layout.Title)
	assert.Len(t, pin.Reminders, 1)

	// The raw payload reached the mirror untouched.
	require.Len(t, mirror.payloads, 1)
	assert.Equal(t, float64(1), mirror.payloads[0]["EVENT_TYPE"])

	// Delivery recorded with the pass-through response.
	require.Len(t, recorder.deliveries, 1)
	delivery := recorder.deliveries[0]
	assert.Equal(t, pin.ID, delivery.PinID)
	assert.Equal(t, 1, delivery.EventCode)
	assert.Equal(t, int64(1700000000), delivery.EventTime)
	assert.Equal(t, "insert", delivery.Verb)
	assert.Equal(t, `{"ok":true}`, delivery.Response)
	assert.Equal(t, int64(1700000100), delivery.RelayedAt)

	// Audit record published, keyed by pin id.
	require.Len(t, audit.messages, 1)
	assert.Equal(t, pin.ID, string(audit.messages[0].Key))
	var record AuditRecord
	require.NoError(t, json.Unmarshal(audit.messages[0].Value, &record))
	assert.Equal(t, AuditRecord{PinID: pin.ID, EventCode: 1, Timestamp: 1700000000, Label: "Bottle Feed"}, record)
}

func Test_ProcessMessage_MissingFieldDropsEvent(t *testing.T) {
	messages := make(chan appmessage.Payload, 1)
	relay, sender, mirror, recorder, audit := newTestRelay(messages)

	messages <- appmessage.Payload{"EVENT_TYPE": float64(2)}

	err := relay.ProcessMessage(context.Background())
	assert.ErrorIs(t, err, ErrDecodeEvent)
	assert.ErrorIs(t, err, appmessage.ErrMissingField)

	// The mirror still sees the raw payload, but nothing is sent,
	// recorded or audited.
	assert.Len(t, mirror.payloads, 1)
	assert.Empty(t, sender.pins)
	assert.Empty(t, recorder.deliveries)
	assert.Empty(t, audit.messages)
}

func Test_ProcessMessage_UnknownCodeDegrades(t *testing.T) {
	messages := make(chan appmessage.Payload, 1)
	relay, sender, _, _, _ := newTestRelay(messages)

	messages <- appmessage.Payload{"0": float64(9), "1": float64(1700000000)}

	require.NoError(t, relay.ProcessMessage(context.Background()))
	require.Len(t, sender.pins, 1)
	assert.Equal(t, "Unknown Event", sender.pins[0].Layout.Title)
	assert.Equal(t, "system://images/NOTIFICATION_FLAG", sender.pins[0].Layout.TinyIcon)
}

func Test_ProcessMessage_ContextCanceled(t *testing.T) {
	messages := make(chan appmessage.Payload)
	relay, _, _, _, _ := newTestRelay(messages)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := relay.ProcessMessage(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func Test_ProcessMessage_ChannelClosed(t *testing.T) {
	messages := make(chan appmessage.Payload)
	relay, _, _, _, _ := newTestRelay(messages)
	close(messages)

	err := relay.ProcessMessage(context.Background())
	assert.ErrorIs(t, err, ErrChannelClose)
	// Channel closure is terminal for the worker loop.
	assert.ErrorIs(t, err, worker.ErrStop)
}

func Test_Run_StopsWhenChannelCloses(t *testing.T) {
	messages := make(chan appmessage.Payload)
	relay, _, _, _, _ := newTestRelay(messages)
	close(messages)

	done := make(chan struct{})
	go func() {
		relay.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("relay kept running after the message channel closed")
	}
}

func Test_Close_ClosesAuditWriter(t *testing.T) {
	messages := make(chan appmessage.Payload)
	relay, _, _, _, audit := newTestRelay(messages)

	relay.Close(context.Background())
	assert.True(t, audit.closed)
}
