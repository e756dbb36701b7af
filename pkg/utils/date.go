package utils

import "time"

func TimeNowUTC() time.Time {
	return time.Now().UTC()
}

func PrettyDate(date time.Time) string {
	return date.UTC().Format("02 Jan 2006 - 15:04 UTC")
}
