package content

import (
	"strings"
	"time"
)

// WordsPerMinute is the reading speed behind EstimateReadTime.
const WordsPerMinute = 200

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseDate parses the timestamp formats backends return.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders a stored timestamp as "January 2, 2006". Values that do
// not parse are returned unchanged.
func FormatDate(value string) string {
	t, ok := ParseDate(value)
	if !ok {
		return value
	}
	return t.Format("January 2, 2006")
}

// EstimateReadTime returns whole minutes to read text, at least one.
func EstimateReadTime(text string) int {
	words := len(strings.Fields(text))
	minutes := (words + WordsPerMinute - 1) / WordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}
