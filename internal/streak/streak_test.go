package streak

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, time.March, 15, 14, 30, 0, 0, time.UTC)

func newTestCalculator() *Calculator {
	return NewCalculator(func() time.Time { return fixedNow })
}

func daysAgo(n int) time.Time {
	return fixedNow.AddDate(0, 0, -n)
}

func TestConsecutive(t *testing.T) {
	today := daysAgo(0)

	tests := []struct {
		name    string
		dates   []time.Time
		newDate *time.Time
		want    int
	}{
		{name: "empty", dates: nil, want: 0},
		{name: "empty with new date", dates: nil, newDate: &today, want: 1},
		{name: "yesterday chain", dates: []time.Time{daysAgo(1), daysAgo(2), daysAgo(3)}, want: 3},
		{name: "stale single completion", dates: []time.Time{daysAgo(5)}, want: 0},
		{name: "today only", dates: []time.Time{daysAgo(0)}, want: 1},
		{name: "today and chain", dates: []time.Time{daysAgo(0), daysAgo(1), daysAgo(2)}, want: 3},
		{name: "new date bridges nothing past gap", dates: []time.Time{daysAgo(1), daysAgo(3)}, newDate: &today, want: 2},
		{name: "duplicates collapse", dates: []time.Time{daysAgo(0), daysAgo(0).Add(-time.Hour), daysAgo(1)}, want: 2},
		{name: "new date already present", dates: []time.Time{daysAgo(0), daysAgo(1)}, newDate: &today, want: 2},
		{name: "old chain is not current", dates: []time.Time{daysAgo(3), daysAgo(4), daysAgo(5), daysAgo(6)}, want: 0},
		{name: "old new date does not revive", dates: []time.Time{daysAgo(10)}, newDate: timePtr(daysAgo(9)), want: 0},
	}

	calc := newTestCalculator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, calc.Consecutive(tt.dates, tt.newDate))
		})
	}
}

func TestConsecutiveNormalizesTimezones(t *testing.T) {
	calc := newTestCalculator()
	// 23:30 in UTC-5 on the 14th is 04:30 UTC on the 15th, which is today.
	loc := time.FixedZone("EST", -5*3600)
	late := time.Date(2026, time.March, 14, 23, 30, 0, 0, loc)

	assert.Equal(t, 2, calc.Consecutive([]time.Time{late, daysAgo(1)}, nil))
}

func TestConsecutiveFutureDateAnchors(t *testing.T) {
	calc := newTestCalculator()
	tomorrow := fixedNow.AddDate(0, 0, 1)

	assert.Equal(t, 1, calc.Consecutive([]time.Time{tomorrow}, nil))
}

func TestInfo(t *testing.T) {
	calc := newTestCalculator()

	t.Run("at risk", func(t *testing.T) {
		info := calc.Info([]time.Time{daysAgo(1), daysAgo(2), daysAgo(3)})
		assert.Equal(t, 3, info.Streak)
		assert.Equal(t, StatusAtRisk, info.Status)
		assert.False(t, info.CompletedToday)
		assert.True(t, info.CompletedYesterday)
		assert.True(t, info.CanContinueToday)
	})

	t.Run("active", func(t *testing.T) {
		info := calc.Info([]time.Time{daysAgo(0), daysAgo(1)})
		assert.Equal(t, 2, info.Streak)
		assert.Equal(t, StatusActive, info.Status)
		assert.False(t, info.CanContinueToday)
	})

	t.Run("broken", func(t *testing.T) {
		info := calc.Info([]time.Time{daysAgo(4)})
		assert.Equal(t, 0, info.Streak)
		assert.Equal(t, StatusBroken, info.Status)
		assert.True(t, info.CanContinueToday)
	})

	t.Run("empty", func(t *testing.T) {
		info := calc.Info(nil)
		assert.Equal(t, StatusBroken, info.Status)
		assert.True(t, info.CanContinueToday)
	})
}

func TestShouldMaintain(t *testing.T) {
	calc := newTestCalculator()

	assert.False(t, calc.ShouldMaintain(nil, fixedNow))
	assert.True(t, calc.ShouldMaintain([]time.Time{daysAgo(1)}, fixedNow))
	assert.True(t, calc.ShouldMaintain([]time.Time{daysAgo(0)}, fixedNow))
	assert.False(t, calc.ShouldMaintain([]time.Time{daysAgo(2)}, fixedNow))
}

func TestParseDay(t *testing.T) {
	d, err := ParseDay("2026-03-14")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-14", DayKey(d))

	d, err = ParseDay("2026-03-14T23:30:00-05:00")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-15", DayKey(d))

	_, err = ParseDay("14/03/2026")
	assert.Error(t, err)
}

func TestSortedDays(t *testing.T) {
	got := SortedDays([]time.Time{daysAgo(2), daysAgo(0), daysAgo(2), daysAgo(1)})
	assert.Equal(t, []string{"2026-03-15", "2026-03-14", "2026-03-13"}, got)
}

func TestLongest(t *testing.T) {
	assert.Equal(t, 0, Longest(nil))
	assert.Equal(t, 1, Longest([]time.Time{daysAgo(9)}))
	// an older run of three beats the current run of two
	dates := []time.Time{daysAgo(0), daysAgo(1), daysAgo(5), daysAgo(6), daysAgo(7), daysAgo(6)}
	assert.Equal(t, 3, Longest(dates))
}

func TestShared(t *testing.T) {
	a := []time.Time{daysAgo(0), daysAgo(1), daysAgo(1).Add(3 * time.Hour), daysAgo(4)}
	b := []time.Time{daysAgo(1), daysAgo(4), daysAgo(7)}

	shared := Shared(a, b)
	require.Len(t, shared, 2)
	assert.Equal(t, "2026-03-14", DayKey(shared[0]))
	assert.Equal(t, "2026-03-11", DayKey(shared[1]))
	assert.Empty(t, Shared(a, nil))

	calc := newTestCalculator()
	assert.Equal(t, 1, calc.Consecutive(shared, nil))
}

func timePtr(t time.Time) *time.Time { return &t }
