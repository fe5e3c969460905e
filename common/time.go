package common

import (
	"time"
)

const (
	SecondsPerDay  = 24 * 3600
	SecondsPerYear = 52 * 7 * SecondsPerDay
)

func TimestampToTime(timestamp int64) time.Time {
	return time.Unix(timestamp, 0).UTC()
}
