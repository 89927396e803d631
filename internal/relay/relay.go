// Package relay glues the pipeline together: one inbound appmessage
// becomes one timeline pin and one outbound HTTP request, in arrival
// order. The raw payload is also fanned out to the event log mirror
// and accepted events are republished to the audit topic.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"baby-timeline-relay/internal/appmessage"
	"baby-timeline-relay/internal/history"
	"baby-timeline-relay/internal/settings"
	"baby-timeline-relay/internal/timeline"
	"baby-timeline-relay/internal/worker"

	"github.com/segmentio/kafka-go"
)

var (
	ErrDecodeEvent = errors.New("decode event failed")

	// ErrChannelClose wraps worker.ErrStop: a closed message channel
	// never yields again, so the worker must exit instead of looping.
	ErrChannelClose = fmt.Errorf("message channel closed: %w", worker.ErrStop)
)

// Sender issues the timeline request; the returned string is the
// response body or a synthesized error body.
type Sender interface {
	InsertPin(ctx context.Context, pin timeline.Pin) string
}

// Resolver maps an event code to display metadata.
type Resolver interface {
	Resolve(code int) settings.EventDisplay
}

// Mirror records raw payloads.
type Mirror interface {
	Record(ctx context.Context, payload appmessage.Payload) error
}

// Recorder persists delivery outcomes.
type Recorder interface {
	Record(ctx context.Context, delivery history.Delivery) error
}

// Writer is the audit stream publisher.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// AuditRecord is the document published per accepted event.
type AuditRecord struct {
	PinID     string `json:"pin_id"`
	EventCode int    `json:"event_code"`
	Timestamp int64  `json:"timestamp"`
	Label     string `json:"label"`
}

type Config struct {
	Messages  <-chan appmessage.Payload
	Formatter timeline.Formatter
	Settings  Resolver
	Sender    Sender
	Mirror    Mirror
	History   Recorder
	Audit     Writer

	Now func() time.Time
}

type Relay struct {
	worker    *worker.Worker
	messages  <-chan appmessage.Payload
	formatter timeline.Formatter
	settings  Resolver
	sender    Sender
	mirror    Mirror
	history   Recorder
	audit     Writer
	now       func() time.Time
}

func New(cfg Config) *Relay {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	relay := &Relay{
		messages:  cfg.Messages,
		formatter: cfg.Formatter,
		settings:  cfg.Settings,
		sender:    cfg.Sender,
		mirror:    cfg.Mirror,
		history:   cfg.History,
		audit:     cfg.Audit,
		now:       cfg.Now,
	}
	relay.worker = worker.New(worker.Config{
		Name:      "relay-worker",
		Processor: relay,
	})
	return relay
}

func (r *Relay) Run(ctx context.Context) {
	r.worker.Run(ctx)
}

func (r *Relay) Close(ctx context.Context) {
	slog.InfoContext(ctx, "Closing relay resources...")
	if r.audit != nil {
		if err := r.audit.Close(); err != nil {
			slog.ErrorContext(ctx, "Error closing audit writer", "error", err)
		}
	}
}

// ProcessMessage handles exactly one inbound appmessage. Decoder
// failures drop the message with a diagnostic; mirror, history and
// audit failures never block the send.
func (r *Relay) ProcessMessage(ctx context.Context) error {
	const fn = "Relay:ProcessMessage"

	var payload appmessage.Payload
	select {
	case <-ctx.Done():
		return ctx.Err()
	case p, ok := <-r.messages:
		if !ok {
			return fmt.Errorf("%s:%w", fn, ErrChannelClose)
		}
		payload = p
	}

	slog.InfoContext(ctx, "Appmessage received", "keys", payload.Keys())

	if r.mirror != nil {
		if err := r.mirror.Record(ctx, payload); err != nil {
			slog.ErrorContext(ctx, "Error mirroring payload", "error", err)
		}
	}

	event, err := appmessage.DecodeEvent(payload)
	if err != nil {
		// No pin is built and no request goes out for a bad payload.
		return fmt.Errorf("%s:%w:%w", fn, ErrDecodeEvent, err)
	}

	display := r.settings.Resolve(event.Code)
	pin := r.formatter.Pin(event.Code, event.Timestamp, display)

	body := r.sender.InsertPin(ctx, pin)
	slog.InfoContext(ctx, "Timeline pin result", "pin_id", pin.ID, "response", body)

	if r.history != nil {
		delivery := history.Delivery{
			PinID:     pin.ID,
			EventCode: event.Code,
			EventTime: event.Timestamp,
			Verb:      "insert",
			Response:  body,
			RelayedAt: r.now().Unix(),
		}
		if err := r.history.Record(ctx, delivery); err != nil {
			slog.ErrorContext(ctx, "Error recording delivery", "pin_id", pin.ID, "error", err)
		}
	}

	r.publishAudit(ctx, pin.ID, event, display)
	return nil
}

func (r *Relay) publishAudit(ctx context.Context, pinID string, event appmessage.Event, display settings.EventDisplay) {
	if r.audit == nil {
		return
	}
	record := AuditRecord{
		PinID:     pinID,
		EventCode: event.Code,
		Timestamp: event.Timestamp,
		Label:     display.Label,
	}
	out, err := json.Marshal(record)
	if err != nil {
		slog.ErrorContext(ctx, "Error marshalling audit record", "error", err)
		return
	}
	if err := r.audit.WriteMessages(ctx, kafka.Message{Key: []byte(pinID), Value: out}); err != nil {
		slog.ErrorContext(ctx, "Error publishing audit record", "pin_id", pinID, "error", err)
	}
}
