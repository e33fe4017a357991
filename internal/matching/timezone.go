package matching

import "strings"

const defaultTimezone = "UTC"

// timezoneOffsets is a fixed hour-offset table with no daylight saving
// awareness. Unknown codes score as offset 0.
var timezoneOffsets = map[string]float64{
	"UTC":  0,
	"EST":  -5,
	"PST":  -8,
	"CST":  -6,
	"MST":  -7,
	"GMT":  0,
	"CET":  1,
	"JST":  9,
	"IST":  5.5,
	"AEST": 10,
}

func normalizeTimezone(tz string) string {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return defaultTimezone
	}
	return tz
}

func timezoneOffset(tz string) float64 {
	return timezoneOffsets[tz]
}

// KnownTimezone reports whether tz has an entry in the offset table.
func KnownTimezone(tz string) bool {
	_, ok := timezoneOffsets[normalizeTimezone(tz)]
	return ok
}
