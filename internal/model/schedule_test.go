package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeekdaySet(t *testing.T) {
	set, err := ParseWeekdaySet("1,3,5")
	require.NoError(t, err)
	assert.Equal(t, WeekdaySet{time.Monday, time.Wednesday, time.Friday}, set)

	assert.True(t, set.Contains(time.Wednesday))
	assert.False(t, set.Contains(time.Sunday))
}

func TestParseWeekdaySet_EmptyIsOneShot(t *testing.T) {
	set, err := ParseWeekdaySet("")
	require.NoError(t, err)
	assert.Empty(t, set)

	s := Schedule{DaysOfWeek: set}
	assert.True(t, s.OneShot())
}

func TestParseWeekdaySet_DedupesAndSorts(t *testing.T) {
	set, err := ParseWeekdaySet(" 5, 1,3,1 ")
	require.NoError(t, err)
	assert.Equal(t, "1,3,5", set.String())
}

func TestParseWeekdaySet_Invalid(t *testing.T) {
	for _, bad := range []string{"7", "-1", "monday", "1,x"} {
		_, err := ParseWeekdaySet(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestWeekdaySet_ScanRoundTrip(t *testing.T) {
	var set WeekdaySet
	require.NoError(t, set.Scan("0,6"))
	assert.Equal(t, WeekdaySet{time.Sunday, time.Saturday}, set)

	v, err := set.Value()
	require.NoError(t, err)
	assert.Equal(t, "0,6", v)

	require.NoError(t, set.Scan(nil))
	assert.Empty(t, set)
}

func TestWeekdaySet_JSON(t *testing.T) {
	b, err := json.Marshal(WeekdaySet{time.Monday, time.Friday})
	require.NoError(t, err)
	assert.Equal(t, `"1,5"`, string(b))

	var set WeekdaySet
	require.NoError(t, json.Unmarshal([]byte(`"2,4"`), &set))
	assert.Equal(t, WeekdaySet{time.Tuesday, time.Thursday}, set)
}

func TestParseClockTime(t *testing.T) {
	ct, err := ParseClockTime("07:05")
	require.NoError(t, err)
	assert.Equal(t, ClockTime{Hour: 7, Minute: 5}, ct)
	assert.Equal(t, "07:05", ct.String())

	for _, bad := range []string{"24:00", "7:5:0", "noon", "14:60", ""} {
		_, err := ParseClockTime(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestClockTimeOf_TruncatesToMinute(t *testing.T) {
	ts := time.Date(2025, time.January, 15, 14, 30, 59, 999, time.UTC)
	assert.Equal(t, ClockTime{Hour: 14, Minute: 30}, ClockTimeOf(ts))
}

func TestClockTime_ScanRoundTrip(t *testing.T) {
	var ct ClockTime
	require.NoError(t, ct.Scan([]byte("23:45")))
	assert.Equal(t, ClockTime{Hour: 23, Minute: 45}, ct)

	v, err := ct.Value()
	require.NoError(t, err)
	assert.Equal(t, "23:45", v)
}

func TestSchedule_Location(t *testing.T) {
	s := Schedule{ID: 7, Timezone: "America/New_York"}
	loc, err := s.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", loc.String())

	s.Timezone = ""
	_, err = s.Location()
	assert.Error(t, err)

	s.Timezone = "Not/AZone"
	_, err = s.Location()
	assert.Error(t, err)
}
