package model

import (
	"fmt"
	"sync"
	"time"
	_ "time/tzdata"
)

// MinuteKeyLayout formats a timestamp to minute granularity, e.g. 20240102-0931.
const MinuteKeyLayout = "20060102-1504"

const newYorkZone = "America/New_York"

var (
	nyOnce sync.Once
	nyLoc  *time.Location
)

// NewYork returns the America/New_York location. The tz database is embedded
// so lookups do not depend on the host.
func NewYork() *time.Location {
	nyOnce.Do(func() {
		loc, err := time.LoadLocation(newYorkZone)
		if err != nil {
			panic(fmt.Sprintf("load %s: %v", newYorkZone, err))
		}
		nyLoc = loc
	})
	return nyLoc
}

// MinuteKey formats t in the zone it already carries. No conversion happens.
func MinuteKey(t time.Time) string {
	return t.Format(MinuteKeyLayout)
}

// IsTZAware reports whether t carries an explicitly chosen zone. time.Local
// is the process wall clock and is treated as naive.
func IsTZAware(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	return t.Location() != time.Local
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
}

// ParseTimestamp parses an RFC 3339 timestamp that must carry a UTC offset.
// Offsets matching New York resolve to the America/New_York location.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.ParseInLocation(time.RFC3339Nano, s, NewYork())
	if err == nil {
		return t, nil
	}
	for _, layout := range naiveLayouts {
		if _, nerr := time.Parse(layout, s); nerr == nil {
			return time.Time{}, fmt.Errorf("timestamp %q must be timezone-aware", s)
		}
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
}

func decodeTimestamp(record, field, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, invalid(record, field+" is required")
	}
	t, err := ParseTimestamp(raw)
	if err != nil {
		return time.Time{}, invalid(record, fmt.Sprintf("%s: %v", field, err))
	}
	return t, nil
}
