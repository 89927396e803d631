package settings

// Icon is one entry of the fixed icon catalog offered on the settings
// page.
type Icon struct {
	ID   string
	Name string
}

var IconCatalog = []Icon{
	{ID: "DINNER_RESERVATION", Name: "Food/Bottle"},
	{ID: "SCHEDULED_EVENT", Name: "Event"},
	{ID: "TIDE_IS_HIGH", Name: "Moon/Sleep"},
	{ID: "ALARM_CLOCK", Name: "Alarm/Wake"},
	{ID: "TIMELINE_CALENDAR", Name: "Calendar"},
	{ID: "NOTIFICATION_FLAG", Name: "Flag"},
	{ID: "GENERIC_CONFIRMATION", Name: "Checkmark"},
	{ID: "BIRTHDAY_EVENT", Name: "Birthday"},
	{ID: "GLUCOSE_MONITOR", Name: "Health"},
	{ID: "REACHED_FITNESS_GOAL", Name: "Goal"},
	{ID: "GENERIC_EMAIL", Name: "Email"},
	{ID: "GENERIC_SMS", Name: "Message"},
	{ID: "MUSIC_EVENT", Name: "Music"},
	{ID: "PAY_BILL", Name: "Bill/Task"},
	{ID: "HOCKEY_GAME", Name: "Hockey"},
	{ID: "BASKETBALL", Name: "Basketball"},
	{ID: "SOCCER_GAME", Name: "Soccer"},
	{ID: "AMERICAN_FOOTBALL", Name: "Football"},
}

// KnownIcon reports whether ref names an icon from the catalog. The
// store accepts unknown refs anyway (the remote service is the
// authority), this only drives a diagnostic.
func KnownIcon(ref string) bool {
	for _, icon := range IconCatalog {
		if IconPrefix+icon.ID == ref {
			return true
		}
	}
	return false
}
