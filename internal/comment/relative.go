package comment

import (
	"fmt"
	"time"
)

// RelativeTime describes how long before now t happened: "just now",
// "N minutes ago", "N hours ago", "N days ago", or a date once a week has
// passed. Times in the future count as just now.
func RelativeTime(t, now time.Time) string {
	secs := int64(now.Sub(t) / time.Second)

	switch {
	case secs < 60:
		return "just now"
	case secs < 3600:
		return plural(secs/60, "minute")
	case secs < 86400:
		return plural(secs/3600, "hour")
	case secs < 604800:
		return plural(secs/86400, "day")
	default:
		return t.Format("Jan 2, 2006")
	}
}

func plural(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
