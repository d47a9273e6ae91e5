package md

import (
	"time"

	"autotrade/internal/model"
)

const (
	rthOpenMinute  = 9*60 + 30
	rthCloseMinute = 16 * 60
)

// IsRTH reports whether a bar closing at closeTime belongs to regular trading
// hours: a New York weekday with the close minute in (09:30, 16:00].
// Exchange holidays are not modelled.
func IsRTH(closeTime time.Time) bool {
	ny := closeTime.In(model.NewYork())
	switch ny.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	minute := ny.Hour()*60 + ny.Minute()
	return minute > rthOpenMinute && minute <= rthCloseMinute
}
