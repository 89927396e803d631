package settings

import (
	"encoding/json"
	"net/url"

	"baby-timeline-relay/internal/appmessage"
)

const (
	// StorageKey is the KV key the 8-field config blob lives under.
	StorageKey = "babyWatchConfig"

	IconPrefix = "system://images/"

	UnknownEventLabel = "Unknown Event"
	FallbackIcon      = IconPrefix + "NOTIFICATION_FLAG"
)

// EventDisplay is the resolved display metadata for one event code.
type EventDisplay struct {
	Label string
	Icon  string
}

// Config is the user-overridable display configuration, persisted as
// one flat blob. Field names match the settings page form exactly.
type Config struct {
	Event1Name string `json:"event1Name"`
	Event1Icon string `json:"event1Icon"`
	Event2Name string `json:"event2Name"`
	Event2Icon string `json:"event2Icon"`
	Event3Name string `json:"event3Name"`
	Event3Icon string `json:"event3Icon"`
	Event4Name string `json:"event4Name"`
	Event4Icon string `json:"event4Icon"`
}

// Defaults are the built-in labels and icons.
var Defaults = Config{
	Event1Name: "Bottle Feed",
	Event1Icon: IconPrefix + "DINNER_RESERVATION",
	Event2Name: "Diaper Change",
	Event2Icon: IconPrefix + "SCHEDULED_EVENT",
	Event3Name: "Sleep Started",
	Event3Icon: IconPrefix + "TIDE_IS_HIGH",
	Event4Name: "Sleep Ended",
	Event4Icon: IconPrefix + "ALARM_CLOCK",
}

// Resolve maps an event code to its display metadata. Each field falls
// back to the default when the override is empty, so an empty override
// means "use the default" - the settings page relies on that. Unknown
// codes degrade to a generic entry instead of failing.
func (c Config) Resolve(code int) EventDisplay {
	switch code {
	case appmessage.EventBottle:
		return EventDisplay{
			Label: orDefault(c.Event1Name, Defaults.Event1Name),
			Icon:  orDefault(c.Event1Icon, Defaults.Event1Icon),
		}
	case appmessage.EventDiaper:
		return EventDisplay{
			Label: orDefault(c.Event2Name, Defaults.Event2Name),
			Icon:  orDefault(c.Event2Icon, Defaults.Event2Icon),
		}
	case appmessage.EventSleepStart:
		return EventDisplay{
			Label: orDefault(c.Event3Name, Defaults.Event3Name),
			Icon:  orDefault(c.Event3Icon, Defaults.Event3Icon),
		}
	case appmessage.EventSleepEnd:
		return EventDisplay{
			Label: orDefault(c.Event4Name, Defaults.Event4Name),
			Icon:  orDefault(c.Event4Icon, Defaults.Event4Icon),
		}
	default:
		return EventDisplay{Label: UnknownEventLabel, Icon: FallbackIcon}
	}
}

func orDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

// ResetHandoff is the literal the settings page returns when the user
// asked for a full log erasure instead of a config update.
const ResetHandoff = "reset"

// ParseHandoff decodes the url-encoded JSON blob the settings page
// returns on close.
func ParseHandoff(response string) (Config, error) {
	decoded, err := url.QueryUnescape(response)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := json.Unmarshal([]byte(decoded), &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
