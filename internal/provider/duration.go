package provider

import (
	"regexp"
	"strconv"
	"time"
)

// isoDurationRe matches the PTnHnM durations both fare APIs emit.
var isoDurationRe = regexp.MustCompile(`^P(?:(\d+)D)?T?(?:(\d+)H)?(?:(\d+)M)?$`)

// parseISODurationMinutes converts "PT11H30M" style durations to minutes.
// Returns 0 for anything unparseable; callers fall back to segment times.
func parseISODurationMinutes(s string) int {
	m := isoDurationRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	days, _ := strconv.Atoi(m[1])
	hours, _ := strconv.Atoi(m[2])
	mins, _ := strconv.Atoi(m[3])
	return days*24*60 + hours*60 + mins
}

// parseProviderTime handles the timestamp spellings seen across providers:
// RFC3339 with zone, or a bare local datetime.
func parseProviderTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// spanMinutes derives a duration from first departure to last arrival.
func spanMinutes(first, last time.Time) int {
	if first.IsZero() || last.IsZero() || !last.After(first) {
		return 0
	}
	return int(last.Sub(first) / time.Minute)
}
