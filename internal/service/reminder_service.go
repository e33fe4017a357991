package service

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"habit-tracker/internal/model"
	"habit-tracker/internal/repository"
	"habit-tracker/internal/streak"
)

// ReminderService builds human-readable habit digests for notifications.
type ReminderService struct {
	habits *repository.HabitRepository
}

func NewReminderService(habits *repository.HabitRepository) *ReminderService {
	return &ReminderService{habits: habits}
}

type habitLine struct {
	habit model.Habit
	info  streak.Info
}

// DailySummary lists the user's habits grouped by streak status, with
// at-risk streaks first.
func (s *ReminderService) DailySummary(ctx context.Context, user model.User, now time.Time) (string, error) {
	habits, err := s.habits.ListByUser(ctx, user.ID)
	if err != nil {
		return "", err
	}

	calc := streak.NewCalculator(func() time.Time { return now })

	var atRisk, pending, done []habitLine
	for _, h := range habits {
		line := habitLine{habit: h, info: calc.Info(h.CompletedDates())}
		switch {
		case line.info.CompletedToday:
			done = append(done, line)
		case line.info.Status == streak.StatusAtRisk:
			atRisk = append(atRisk, line)
		default:
			pending = append(pending, line)
		}
	}

	byStreak := func(lines []habitLine) {
		sort.SliceStable(lines, func(i, j int) bool {
			return lines[i].info.Streak > lines[j].info.Streak
		})
	}
	byStreak(atRisk)
	byStreak(done)

	var builder strings.Builder
	builder.WriteString("📋 <b>Daily habit report</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s · level %d · %d XP\n\n", now.UTC().Format("2006-01-02"), user.Level, user.Points))

	if len(habits) == 0 {
		builder.WriteString("No habits yet. Add one with /newhabit.")
		return builder.String(), nil
	}

	builder.WriteString("⚠️ <b>Streaks at risk</b>\n")
	writeLines(&builder, atRisk, "- nothing at risk\n")

	builder.WriteString("\n🟢 <b>Still to do today</b>\n")
	writeLines(&builder, pending, "- all caught up\n")

	builder.WriteString("\n✅ <b>Done today</b>\n")
	writeLines(&builder, done, "- nothing yet\n")

	return strings.TrimSpace(builder.String()), nil
}

func writeLines(sb *strings.Builder, lines []habitLine, empty string) {
	if len(lines) == 0 {
		sb.WriteString(empty)
		return
	}
	for _, l := range lines {
		sb.WriteString(formatHabit(l))
	}
}

func formatHabit(l habitLine) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s %s", streakIcon(l.info), html.EscapeString(strings.TrimSpace(l.habit.Title))))
	if category := strings.TrimSpace(l.habit.Category); category != "" {
		sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(category)))
	}
	if l.info.Streak > 0 {
		sb.WriteString(fmt.Sprintf("\n   🔥 %d day streak", l.info.Streak))
	}
	if l.habit.ReminderTime != "" && !l.info.CompletedToday {
		sb.WriteString(fmt.Sprintf("\n   ⏰ %s", html.EscapeString(l.habit.ReminderTime)))
	}

	sb.WriteByte('\n')
	return sb.String()
}

func streakIcon(info streak.Info) string {
	switch {
	case info.CompletedToday:
		return "✅"
	case info.Status == streak.StatusAtRisk:
		return "⏳"
	default:
		return "🟢"
	}
}
