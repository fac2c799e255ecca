// Package normalizer converts the heterogeneous date and time notations found
// in statement exports into time.Time values.
package normalizer

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// isoRegex matches YYYY-MM-DD[ T]HH:MM:SS with optional fractional seconds
// and timezone offset.
var isoRegex = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})[T\s](\d{2}):(\d{2}):(\d{2})(?:\.\d+)?(?:[+-]\d{2}:\d{2})?$`)

// layouts are the explicit formats tried after the ISO paths, in order.
var layouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"2006/1/2 15:04:05",
	"2006/1/2",
}

// ParseDateTime parses a timestamp string leniently. It never fails: when
// every format attempt misses, or the input is empty, it returns the current
// wall-clock time so that one bad timestamp cannot abort a whole import.
// Silently-wrong dates are caught downstream by dedupe and review, not here.
func ParseDateTime(raw string) time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Now()
	}

	iso := strings.ReplaceAll(s, "Z", "")
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", iso, time.Local); err == nil {
		return t
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05.999999999", iso, time.Local); err == nil {
		return t
	}

	if m := isoRegex.FindStringSubmatch(s); m != nil {
		var n [6]int
		for i := range n {
			n[i], _ = strconv.Atoi(m[i+1])
		}
		return time.Date(n[0], time.Month(n[1]), n[2], n[3], n[4], n[5], 0, time.Local)
	}

	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return time.Now()
}

// excelEpoch is the day-zero of the 1900 date system as spreadsheets
// actually implement it (the off-by-two accounts for the fictitious
// 1900-02-29 and one-based counting).
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.Local)

// FromExcelSerial converts a spreadsheet serial day count into a time.
// The fractional part carries the time of day.
func FromExcelSerial(serial float64) time.Time {
	days := int(serial)
	frac := serial - float64(days)
	secs := int(frac*86400 + 0.5)
	return excelEpoch.AddDate(0, 0, days).Add(time.Duration(secs) * time.Second)
}

// IsNumeric reports whether the string looks like a raw number (digits and at
// most a decimal point), the shape Excel serial dates arrive in when a
// spreadsheet time column loses its formatting.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	dots := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.':
			dots++
			if dots > 1 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// NormalizeChineseDate rewrites 年/月/日-separated dates into the
// slash-separated form the layout list understands, e.g.
// "2024年1月2日 10:30:00" -> "2024/1/2 10:30:00".
func NormalizeChineseDate(s string) string {
	s = strings.ReplaceAll(s, "年", "/")
	s = strings.ReplaceAll(s, "月", "/")
	s = strings.ReplaceAll(s, "日", "")
	return strings.TrimSpace(s)
}

// JoinNote synthesizes a note from platform fields, keeping only the
// non-empty parts, in the order given.
func JoinNote(parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " | ")
}
