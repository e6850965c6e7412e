package timefmt

import (
	"fmt"
	"strings"
	"time"

	"github.com/sosodev/duration"
)

// FormatDuration renders an ISO-8601 duration ("PT1H30M") as "1 giờ 30 phút",
// or "45 phút" when it is shorter than an hour. Seconds are truncated.
func FormatDuration(iso string) (string, error) {
	d, err := ParseDuration(iso)
	if err != nil {
		return "", err
	}
	return FormatHoursMinutes(d), nil
}

// FormatHoursMinutes renders d the same way FormatDuration does.
func FormatHoursMinutes(d time.Duration) string {
	hours := int64(d / time.Hour)
	minutes := int64(d/time.Minute) % 60
	if hours > 0 {
		return fmt.Sprintf("%d giờ %d phút", hours, minutes)
	}
	return fmt.Sprintf("%d phút", minutes)
}

// ParseDuration parses an ISO-8601 duration string.
func ParseDuration(iso string) (time.Duration, error) {
	iso = strings.TrimSpace(iso)
	if iso == "" {
		return 0, fmt.Errorf("parse duration: empty input")
	}
	parsed, err := duration.Parse(iso)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", iso, err)
	}
	return parsed.ToTimeDuration(), nil
}

// ISODuration formats d as an ISO-8601 time duration (PTnHnMnS) with whole seconds.
func ISODuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	d = d.Truncate(time.Second)
	if d == 0 {
		return "PT0S"
	}
	var sb strings.Builder
	sb.WriteString("PT")
	if h := d / time.Hour; h > 0 {
		fmt.Fprintf(&sb, "%dH", h)
	}
	if m := (d % time.Hour) / time.Minute; m > 0 {
		fmt.Fprintf(&sb, "%dM", m)
	}
	if s := (d % time.Minute) / time.Second; s > 0 {
		fmt.Fprintf(&sb, "%dS", s)
	}
	return sb.String()
}
