package printer

import (
	"fmt"
	"time"
)

// agoUnits are the relative time units, biggest first.
var agoUnits = []struct {
	name string
	size time.Duration
}{
	{"day", 24 * time.Hour},
	{"hour", time.Hour},
	{"minute", time.Minute},
	{"second", time.Second},
}

// TimeAgo returns how long ago t was in the biggest whole unit, e.g. "3 hours ago (UTC)".
func TimeAgo(t time.Time) string {
	diff := time.Now().UTC().Sub(t.UTC())
	if diff < 0 {
		return "in the future (UTC)"
	}

	for _, u := range agoUnits {
		n := int(diff / u.size)
		if n == 0 && u.size != time.Second {
			continue
		}
		if n == 1 {
			return fmt.Sprintf("1 %s ago (UTC)", u.name)
		}
		return fmt.Sprintf("%d %ss ago (UTC)", n, u.name)
	}

	return "" // Unreachable.
}

// FormatTimestamp returns t in UTC with the "2006-01-02 15:04:05 UTC" layout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}

// BuildDuration returns how long a build took, rounded to seconds, or "-" while it
// hasn't finished.
func BuildDuration(created time.Time, finished *time.Time) string {
	if finished == nil {
		return "-"
	}

	d := finished.Sub(created).Round(time.Second)
	if d < 0 {
		d = 0
	}
	return d.String()
}
