package builtin

import (
	"strconv"
	"strings"
	"time"
)

// Uptime renders d as "The server has been running for 1 year, 2 days,
// 3 hours, 4 minutes and 5 seconds", leaving out leading zero units.
func Uptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	totalSeconds := int64(d / time.Second)
	totalMinutes := totalSeconds / 60
	totalHours := totalMinutes / 60
	totalDays := totalHours / 24
	years := totalDays / 365

	var b strings.Builder
	b.WriteString("The server has been running for")
	if years > 0 {
		unit(&b, years, "year")
		b.WriteString(",")
	}
	if totalDays > 0 {
		unit(&b, totalDays%365, "day")
		b.WriteString(",")
	}
	if totalHours > 0 {
		unit(&b, totalHours%24, "hour")
		b.WriteString(",")
	}
	if totalMinutes > 0 {
		unit(&b, totalMinutes%60, "minute")
	}
	if totalSeconds >= 60 {
		b.WriteString(" and")
	}
	unit(&b, totalSeconds%60, "second")
	return b.String()
}

func unit(b *strings.Builder, n int64, name string) {
	b.WriteString(" ")
	b.WriteString(strconv.FormatInt(n, 10))
	b.WriteString(" ")
	b.WriteString(name)
	if n != 1 {
		b.WriteString("s")
	}
}
