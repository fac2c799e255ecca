package normalizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDateTime(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2024-03-05 08:30:00", time.Date(2024, 3, 5, 8, 30, 0, 0, time.Local)},
		{"2024-03-05T08:30:00", time.Date(2024, 3, 5, 8, 30, 0, 0, time.Local)},
		{"2024-03-05T08:30:00Z", time.Date(2024, 3, 5, 8, 30, 0, 0, time.Local)},
		{"2024-03-05 08:30:00.123", time.Date(2024, 3, 5, 8, 30, 0, 0, time.Local)},
		{"2024-03-05 08:30:00+08:00", time.Date(2024, 3, 5, 8, 30, 0, 0, time.Local)},
		{"2024-03-05 08:30", time.Date(2024, 3, 5, 8, 30, 0, 0, time.Local)},
		{"2024-03-05", time.Date(2024, 3, 5, 0, 0, 0, 0, time.Local)},
		{"2024/03/05 08:30:00", time.Date(2024, 3, 5, 8, 30, 0, 0, time.Local)},
		{"2024/3/5", time.Date(2024, 3, 5, 0, 0, 0, 0, time.Local)},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseDateTime(tc.in))
		})
	}
}

// Unparseable and empty inputs fall back to now instead of failing.
func TestParseDateTimeFallback(t *testing.T) {
	for _, in := range []string{"", "not a date", "99/99/9999"} {
		before := time.Now()
		got := ParseDateTime(in)
		after := time.Now()
		assert.False(t, got.Before(before.Add(-time.Second)), "input %q", in)
		assert.False(t, got.After(after.Add(time.Second)), "input %q", in)
	}
}

func TestFromExcelSerial(t *testing.T) {
	assert.Equal(t, time.Date(2023, 3, 15, 0, 0, 0, 0, time.Local), FromExcelSerial(45000))
	// Fractional day carries time of day: 0.5 is noon.
	assert.Equal(t, time.Date(2023, 3, 15, 12, 0, 0, 0, time.Local), FromExcelSerial(45000.5))
	// Serial 1 is 1899-12-31 in the 1900 system.
	assert.Equal(t, time.Date(1899, 12, 31, 0, 0, 0, 0, time.Local), FromExcelSerial(1))
}

func TestIsNumeric(t *testing.T) {
	assert.True(t, IsNumeric("45000"))
	assert.True(t, IsNumeric("45000.5"))
	assert.False(t, IsNumeric(""))
	assert.False(t, IsNumeric("45000.5.1"))
	assert.False(t, IsNumeric("2024-01-02"))
}

func TestNormalizeChineseDate(t *testing.T) {
	assert.Equal(t, "2024/1/2 10:30:00", NormalizeChineseDate("2024年1月2日 10:30:00"))
	assert.Equal(t, "2024/01/02", NormalizeChineseDate("2024年01月02日"))
}

func TestChineseDateRoundTrip(t *testing.T) {
	got := ParseDateTime(NormalizeChineseDate("2024年1月2日 10:30:00"))
	assert.Equal(t, time.Date(2024, 1, 2, 10, 30, 0, 0, time.Local), got)
}

func TestJoinNote(t *testing.T) {
	assert.Equal(t, "商家 | 商品", JoinNote("商家", "", " 商品 ", ""))
	assert.Equal(t, "", JoinNote("", " "))
}
