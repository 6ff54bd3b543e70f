package persistence

import "time"

// TimestampFormat is ISO-8601 in UTC with millisecond precision.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// Clock supplies the current time to the metadata store.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// FormatTimestamp renders t the way the store persists it.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}

// ParseTimestamp parses a stored timestamp. Any RFC 3339 value is accepted
// so rows written by other tools still compare.
func ParseTimestamp(value string) (time.Time, error) {
	return time.Parse(time.RFC3339, value)
}
