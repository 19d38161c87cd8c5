package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodcourt/internal/models"
)

func TestIsTimeBetween(t *testing.T) {
	cases := []struct {
		now, open, close string
		want             bool
	}{
		{"10:00", "09:00", "17:00", true},
		{"09:00", "09:00", "17:00", true},
		{"17:00", "09:00", "17:00", true},
		{"08:59", "09:00", "17:00", false},
		{"17:01", "09:00", "17:00", false},
		// window crossing midnight
		{"23:30", "22:00", "02:00", true},
		{"01:30", "22:00", "02:00", true},
		{"03:00", "22:00", "02:00", false},
		{"22:00", "22:00", "02:00", true},
		{"02:00", "22:00", "02:00", true},
	}

	for _, tc := range cases {
		got, err := IsTimeBetween(tc.now, tc.open, tc.close)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "IsTimeBetween(%s, %s, %s)", tc.now, tc.open, tc.close)
	}
}

func TestIsTimeBetweenRejectsMalformedClock(t *testing.T) {
	_, err := IsTimeBetween("25:00", "09:00", "17:00")
	assert.Error(t, err)

	_, err = IsTimeBetween("10:00", "9am", "17:00")
	assert.Error(t, err)

	_, err = IsTimeBetween("10:00", "09:00", "17:61")
	assert.Error(t, err)
}

func TestIsTodayOpen(t *testing.T) {
	// 2024-01-17 is a Wednesday in Bangkok
	wednesday := time.Date(2024, 1, 17, 12, 0, 0, 0, bangkok)

	assert.True(t, IsTodayOpen(models.StringSlice{"mon", "wed", "fri"}, wednesday))
	assert.False(t, IsTodayOpen(models.StringSlice{"sat", "sun"}, wednesday))
	assert.False(t, IsTodayOpen(models.StringSlice{}, wednesday))
}

func TestIsActuallyOpen(t *testing.T) {
	r := &models.Restaurant{
		OpenDays:  models.StringSlice{"wed"},
		OpenTime:  "09:00",
		CloseTime: "17:00",
	}
	wednesdayNoon := time.Date(2024, 1, 17, 12, 0, 0, 0, bangkok)
	wednesdayNight := time.Date(2024, 1, 17, 20, 0, 0, 0, bangkok)
	thursdayNoon := time.Date(2024, 1, 18, 12, 0, 0, 0, bangkok)

	assert.True(t, IsActuallyOpen(r, wednesdayNoon))
	assert.False(t, IsActuallyOpen(r, wednesdayNight), "outside operating hours")
	assert.False(t, IsActuallyOpen(r, thursdayNoon), "not a scheduled open day")

	r.ManuallyClosed = true
	assert.False(t, IsActuallyOpen(r, wednesdayNoon), "manual close overrides the schedule")
}

func TestIsActuallyOpenOvernight(t *testing.T) {
	r := &models.Restaurant{
		OpenDays:  models.StringSlice{"fri"},
		OpenTime:  "22:00",
		CloseTime: "02:00",
	}
	// 2024-01-19 is a Friday
	fridayLate := time.Date(2024, 1, 19, 23, 30, 0, 0, bangkok)
	assert.True(t, IsActuallyOpen(r, fridayLate))
}

func TestIsActuallyOpenMalformedHours(t *testing.T) {
	r := &models.Restaurant{
		OpenDays:  models.StringSlice{"wed"},
		OpenTime:  "morning",
		CloseTime: "17:00",
	}
	wednesdayNoon := time.Date(2024, 1, 17, 12, 0, 0, 0, bangkok)
	assert.False(t, IsActuallyOpen(r, wednesdayNoon), "broken hours read as closed")
}
