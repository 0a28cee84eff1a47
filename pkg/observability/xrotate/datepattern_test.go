package xrotate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDatePattern(t *testing.T) {
	loc := time.UTC
	at := time.Date(2024, time.March, 5, 9, 8, 7, 300_000_000, loc)

	cases := map[string]string{
		"yyyy-MM-dd":     "2024-03-05",
		"yyyy-MM-dd-HH":  "2024-03-05-09",
		"HH-mm-ss-S":     "09-08-07-3",
		"HH:mm:ss.SSS":   "09:08:07.300",
		"yy/M/d H:mm:ss": "24/3/5 9:08:07",
	}
	for pattern, want := range cases {
		assert.Equal(t, want, formatDatePattern(pattern, at.UnixMilli(), loc), "pattern %q", pattern)
	}
}

func TestFormatAndParseDatePattern_RoundTrip(t *testing.T) {
	loc := time.UTC
	at := time.Date(2024, time.March, 5, 9, 8, 7, 0, loc)

	formatted := formatDatePattern("yyyy-MM-dd-HH-mm-ss", at.UnixMilli(), loc)
	assert.Equal(t, "2024-03-05-09-08-07", formatted)

	parsed, err := parseDatePattern("yyyy-MM-dd-HH-mm-ss", formatted)
	require.NoError(t, err)
	// parseDatePattern interprets the wall clock in time.Local; compare the
	// recovered wall-clock fields rather than the absolute instant, since
	// this test formats in UTC regardless of the host's local zone.
	roundTripped := time.UnixMilli(parsed).In(time.Local)
	assert.Equal(t, at.Format("2006-01-02-15-04-05"), roundTripped.Format("2006-01-02-15-04-05"))
}

func TestParseDatePattern_VariableWidthBacktracking(t *testing.T) {
	// "M" and "d" are non-padded: single digit for Mar/5, two digits once
	// month or day reach double digits. The parser must recover both
	// without being told the width in advance.
	cases := []struct {
		pattern string
		value   string
		want    string
	}{
		{"yyyy-M-d", "2024-3-5", "2024-03-05"},
		{"yyyy-M-d", "2024-11-25", "2024-11-25"},
	}
	for _, tc := range cases {
		parsed, err := parseDatePattern(tc.pattern, tc.value)
		require.NoError(t, err)
		got := time.UnixMilli(parsed).In(time.Local).Format("2006-01-02")
		assert.Equal(t, tc.want, got, "value %q", tc.value)
	}
}

func TestParseDatePattern_Mismatch(t *testing.T) {
	_, err := parseDatePattern("yyyy-MM-dd", "not-a-date")
	assert.Error(t, err)
}
