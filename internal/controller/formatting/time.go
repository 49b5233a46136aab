package formatting

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// FormatDateTime formats an instant in the given zone
func FormatDateTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("Jan 2, 2006 15:04")
}

// FormatDate formats a civil date the way the bot shows due dates
func FormatDate(d civil.Date) string {
	if !d.IsValid() {
		return "-"
	}
	return d.In(time.UTC).Format("Jan 2, 2006")
}

// FormatTimeRange formats a slot window
func FormatTimeRange(start, end time.Time, loc *time.Location) string {
	return fmt.Sprintf("%s %s-%s",
		start.In(loc).Format("Mon Jan 2"),
		start.In(loc).Format("15:04"),
		end.In(loc).Format("15:04"),
	)
}

// FormatDays renders a day count with the right plural
func FormatDays(n int) string {
	if n == 1 || n == -1 {
		return fmt.Sprintf("%d day", n)
	}
	return fmt.Sprintf("%d days", n)
}
