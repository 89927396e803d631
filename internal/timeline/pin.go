package timeline

import (
	"fmt"
	"time"

	"baby-timeline-relay/internal/settings"
)

// pin id namespace; same (code, timestamp) always yields the same id
// so re-submission upserts on the service side instead of duplicating.
const pinIDPrefix = "baby-watch-"

// Pin is the timeline document sent to the remote service. Identity is
// the id field.
type Pin struct {
	ID        string     `json:"id"`
	Time      string     `json:"time"`
	Layout    Layout     `json:"layout"`
	Reminders []Reminder `json:"reminders,omitempty"`
}

type Layout struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Body     string `json:"body,omitempty"`
	TinyIcon string `json:"tinyIcon"`
}

// Reminder is a secondary notification fired at the pin's timestamp.
// It mirrors the pin's title and icon but carries no body.
type Reminder struct {
	Time   string `json:"time"`
	Layout Layout `json:"layout"`
}

// Formatter renders decoded events as pins. Location is the device's
// local time zone, used only for the human-readable body string; the
// time field itself is always UTC.
type Formatter struct {
	Location       *time.Location
	AttachReminder bool
}

func NewFormatter(loc *time.Location, attachReminder bool) Formatter {
	if loc == nil {
		loc = time.Local
	}
	return Formatter{Location: loc, AttachReminder: attachReminder}
}

// PinID builds the deterministic id for an (event code, timestamp)
// pair.
func PinID(code int, timestamp int64) string {
	return fmt.Sprintf("%s%d-%d", pinIDPrefix, code, timestamp)
}

// Pin renders a timeline pin for one event.
func (f Formatter) Pin(code int, timestamp int64, display settings.EventDisplay) Pin {
	isoTime := time.Unix(timestamp, 0).UTC().Format(time.RFC3339)

	pin := Pin{
		ID:   PinID(code, timestamp),
		Time: isoTime,
		Layout: Layout{
			Type:     "genericPin",
			Title:    display.Label,
			Body:     "Logged at " + f.clock(timestamp),
			TinyIcon: display.Icon,
		},
	}

	if f.AttachReminder {
		pin.Reminders = []Reminder{{
			Time: isoTime,
			Layout: Layout{
				Type:     "genericReminder",
				Title:    display.Label,
				TinyIcon: display.Icon,
			},
		}}
	}

	return pin
}

// clock renders a wall-clock label in 12-hour format with zero-padded
// minutes, folding hour 0 to 12.
func (f Formatter) clock(timestamp int64) string {
	t := time.Unix(timestamp, 0).In(f.Location)
	hours := t.Hour()
	ampm := "AM"
	if hours >= 12 {
		ampm = "PM"
	}
	hours = hours % 12
	if hours == 0 {
		hours = 12
	}
	return fmt.Sprintf("%d:%02d %s", hours, t.Minute(), ampm)
}
