// Package streak computes consecutive-day habit streaks from completion dates.
//
// All dates are reduced to UTC calendar days before comparison. A streak is
// kept alive as long as the habit was completed today or yesterday; the walk
// then counts backward until the first missing day.
package streak

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const dayLayout = "2006-01-02"

// Status describes where a streak stands relative to today.
type Status string

const (
	StatusActive Status = "active"
	StatusAtRisk Status = "at-risk"
	StatusBroken Status = "broken"
)

// Info is the display summary of a habit's streak.
type Info struct {
	Streak             int    `json:"streak"`
	Status             Status `json:"status"`
	CompletedToday     bool   `json:"completedToday"`
	CompletedYesterday bool   `json:"completedYesterday"`
	CanContinueToday   bool   `json:"canContinueToday"`
}

// Calculator evaluates streaks against a clock. It holds no mutable state
// and is safe for concurrent use.
type Calculator struct {
	now func() time.Time
}

func NewCalculator(now func() time.Time) *Calculator {
	if now == nil {
		now = time.Now
	}
	return &Calculator{now: now}
}

// DayKey normalizes t to its UTC calendar day.
func DayKey(t time.Time) string {
	return t.UTC().Format(dayLayout)
}

// ParseDay accepts either YYYY-MM-DD or an RFC3339 timestamp.
func ParseDay(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(dayLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day %q: expected YYYY-MM-DD or RFC3339", raw)
	}
	return t, nil
}

// Consecutive returns the current streak for the given completion dates.
// If newDate is non-nil it is treated as a completion being added now.
// Only the streak ending today or yesterday is counted; an older unbroken
// chain yields 0.
func (c *Calculator) Consecutive(dates []time.Time, newDate *time.Time) int {
	if len(dates) == 0 {
		if newDate != nil {
			return 1
		}
		return 0
	}

	days := daySet(dates)
	if newDate != nil {
		days[DayKey(*newDate)] = struct{}{}
	}

	today := startOfDay(c.now())
	yesterday := today.AddDate(0, 0, -1)

	var anchor time.Time
	switch {
	case days.has(today):
		anchor = today
	case days.has(yesterday):
		anchor = yesterday
	default:
		recent := days.mostRecent()
		gap := int(today.Sub(recent).Hours() / 24)
		if gap > 1 {
			return 0
		}
		anchor = recent
	}

	streak := 0
	for cur := anchor; days.has(cur); cur = cur.AddDate(0, 0, -1) {
		streak++
	}
	return streak
}

// Info summarizes the streak status of a completion set.
func (c *Calculator) Info(dates []time.Time) Info {
	streak := c.Consecutive(dates, nil)
	today := startOfDay(c.now())
	days := daySet(dates)

	completedToday := days.has(today)
	completedYesterday := days.has(today.AddDate(0, 0, -1))

	status := StatusActive
	switch {
	case streak == 0:
		status = StatusBroken
	case !completedToday && !completedYesterday:
		status = StatusBroken
	case !completedToday && completedYesterday:
		status = StatusAtRisk
	}

	return Info{
		Streak:             streak,
		Status:             status,
		CompletedToday:     completedToday,
		CompletedYesterday: completedYesterday,
		CanContinueToday:   !completedToday && (completedYesterday || streak == 0),
	}
}

// ShouldMaintain reports whether completing on day keeps the existing
// streak going rather than starting a new one.
func (c *Calculator) ShouldMaintain(dates []time.Time, day time.Time) bool {
	if len(dates) == 0 {
		return false
	}
	days := daySet(dates)
	yesterday := startOfDay(c.now()).AddDate(0, 0, -1)
	return days.has(yesterday) || days.has(startOfDay(day))
}

// SortedDays returns the distinct day keys of dates, most recent first.
func SortedDays(dates []time.Time) []string {
	days := daySet(dates)
	out := make([]string, 0, len(days))
	for k := range days {
		out = append(out, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out
}

// Longest returns the longest run of consecutive days in dates, wherever
// it falls.
func Longest(dates []time.Time) int {
	best, run := 0, 0
	var prev time.Time
	for i, key := range SortedDays(dates) {
		t, _ := time.Parse(dayLayout, key)
		if i > 0 && prev.AddDate(0, 0, -1).Equal(t) {
			run++
		} else {
			run = 1
		}
		best = max(best, run)
		prev = t
	}
	return best
}

// Shared returns the days present in both a and b as UTC midnights, in the
// order they first appear in a.
func Shared(a, b []time.Time) []time.Time {
	inB := daySet(b)
	seen := make(dayKeys)
	var out []time.Time
	for _, d := range a {
		key := DayKey(d)
		if _, ok := inB[key]; !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, startOfDay(d))
	}
	return out
}

type dayKeys map[string]struct{}

func daySet(dates []time.Time) dayKeys {
	days := make(dayKeys, len(dates))
	for _, d := range dates {
		days[DayKey(d)] = struct{}{}
	}
	return days
}

func (d dayKeys) has(t time.Time) bool {
	_, ok := d[DayKey(t)]
	return ok
}

// mostRecent relies on YYYY-MM-DD keys sorting lexically by date.
func (d dayKeys) mostRecent() time.Time {
	var best string
	for k := range d {
		if k > best {
			best = k
		}
	}
	t, _ := time.Parse(dayLayout, best)
	return t
}

func startOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
