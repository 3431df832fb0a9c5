package utils

import "time"

const layoutDateTime = "2006-01-02 15:04:05"

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// FormatDateTime formats time to "YYYY-MM-DD HH:MM:SS" in local timezone.
// Zero time renders as empty string.
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(time.Local).Format(layoutDateTime)
}

// FileStamp is the timestamp used in export file names.
func FileStamp(t time.Time) string {
	return t.Format("20060102_150405")
}
