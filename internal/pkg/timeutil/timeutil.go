package timeutil

import "time"

// ISOLayout matches the millisecond precision UTC form clients expect.
const ISOLayout = "2006-01-02T15:04:05.000Z07:00"

func NowUnixMilli() int64 {
	return time.Now().UnixMilli()
}

func FormatMilli(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(ISOLayout)
}
