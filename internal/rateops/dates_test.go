package rateops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatesInRange_AllWeekdays(t *testing.T) {
	dates := DatesInRange("2024-06-01", "2024-06-03", nil)
	require.Equal(t, []string{"2024-06-01", "2024-06-02", "2024-06-03"}, dates)
}

func TestDatesInRange_WeekdayFilter(t *testing.T) {
	// 2024-06-03 是周一，2024-06-09 是周日
	dates := DatesInRange("2024-06-03", "2024-06-09", []string{"Monday", "Friday"})
	require.Equal(t, []string{"2024-06-03", "2024-06-07"}, dates)
}

func TestDatesInRange_WeekdayFilterCaseInsensitive(t *testing.T) {
	dates := DatesInRange("2024-06-03", "2024-06-09", []string{"saturday", "SUNDAY"})
	require.Equal(t, []string{"2024-06-08", "2024-06-09"}, dates)
}

func TestDatesInRange_SingleDay(t *testing.T) {
	dates := DatesInRange("2024-06-01", "2024-06-01", nil)
	require.Equal(t, []string{"2024-06-01"}, dates)
}

func TestDatesInRange_StartAfterEnd(t *testing.T) {
	assert.Empty(t, DatesInRange("2024-06-10", "2024-06-01", nil))
}

func TestDatesInRange_Unparseable(t *testing.T) {
	assert.Empty(t, DatesInRange("not-a-date", "2024-06-01", nil))
	assert.Empty(t, DatesInRange("2024-06-01", "06/10/2024", nil))
}

func TestDatesInRange_AscendingNoDuplicates(t *testing.T) {
	dates := DatesInRange("2024-02-26", "2024-03-03", nil) // 闰年跨月
	require.Len(t, dates, 7)
	seen := map[string]bool{}
	for i, d := range dates {
		assert.False(t, seen[d], "duplicate date %s", d)
		seen[d] = true
		if i > 0 {
			assert.Less(t, dates[i-1], d)
		}
	}
	assert.Equal(t, "2024-02-29", dates[3])
}

func TestValidDate(t *testing.T) {
	assert.True(t, ValidDate("2024-06-01"))
	assert.False(t, ValidDate("2024-6-1"))
	assert.False(t, ValidDate(""))
}
