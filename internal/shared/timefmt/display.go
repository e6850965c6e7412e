package timefmt

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	clockLayout = "15:04"
	dateLayout  = "02/01/2006"
)

// VietnamZone is the display zone used by the app (UTC+7, no DST).
var VietnamZone = time.FixedZone("ICT", 7*60*60)

var amountPrinter = message.NewPrinter(language.Vietnamese)

// TripTime renders a trip window as "HH:mm - HH:mm, dd/MM/yyyy" in loc.
// Both timestamps are RFC 3339 strings with an offset.
func TripTime(start, end string, loc *time.Location) (string, error) {
	startAt, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return "", fmt.Errorf("parse start time: %w", err)
	}
	endAt, err := time.Parse(time.RFC3339, end)
	if err != nil {
		return "", fmt.Errorf("parse end time: %w", err)
	}
	return TripWindow(startAt, endAt, loc), nil
}

// TripWindow is TripTime for already parsed timestamps.
func TripWindow(start, end time.Time, loc *time.Location) string {
	start, end = start.In(loc), end.In(loc)
	return fmt.Sprintf("%s - %s, %s", start.Format(clockLayout), end.Format(clockLayout), start.Format(dateLayout))
}

// Timestamp renders t as "HH:mm, dd/MM/yyyy" in loc.
func Timestamp(t time.Time, loc *time.Location) string {
	t = t.In(loc)
	return t.Format(clockLayout) + ", " + t.Format(dateLayout)
}

// Amount renders a VND amount with Vietnamese digit grouping and a leading "+"
// for credits.
func Amount(amount int64) string {
	formatted := amountPrinter.Sprintf("%d", amount)
	if amount > 0 {
		return "+" + formatted
	}
	return formatted
}
