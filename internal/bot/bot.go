package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"habit-tracker/internal/logger"
	"habit-tracker/internal/matching"
	"habit-tracker/internal/model"
	"habit-tracker/internal/repository"
	"habit-tracker/internal/service"
	"habit-tracker/internal/streak"
)

const cbDonePrefix = "done:"

const (
	menuLabelHabits   = "📋 Habits"
	menuLabelStreaks  = "🔥 Streaks"
	menuLabelPartners = "🤝 Partners"
	menuLabelHelp     = "ℹ️ Help"
)

const newHabitUsage = "Usage: /newhabit title;category;difficulty;frequency\n" +
	"Example: /newhabit Morning run;fitness;medium;daily"

// Bot connects the Telegram API to the habit services.
type Bot struct {
	api       *tgbotapi.BotAPI
	users     *repository.UserRepository
	habits    *service.HabitService
	partners  *service.PartnerService
	reminders *service.ReminderService
	log       *logger.Logger
	now       func() time.Time
}

func New(token string, users *repository.UserRepository, habits *service.HabitService, partners *service.PartnerService, reminders *service.ReminderService, log *logger.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log = log.With("component", "bot")
	log.Info("bot authorized", "account", api.Self.UserName)

	return &Bot{
		api:       api,
		users:     users,
		habits:    habits,
		partners:  partners,
		reminders: reminders,
		log:       log,
		now:       time.Now,
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				b.log.Warn("handle callback", "error", err)
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				b.log.Warn("handle message", "error", err)
			}
		}
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if msg.IsCommand() {
		b.log.Debug("command", "from", msg.From.ID, "command", msg.Command())
		return b.handleCommand(ctx, msg)
	}

	switch strings.TrimSpace(msg.Text) {
	case menuLabelHabits:
		return b.handleHabits(ctx, msg)
	case menuLabelStreaks:
		return b.handleStreaks(ctx, msg)
	case menuLabelPartners:
		return b.handlePartners(ctx, msg)
	case menuLabelHelp:
		return b.handleHelp(msg)
	}

	return b.sendText(msg.Chat.ID, "I did not understand that. Try /newhabit to add a habit or /help for the command list.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "habits":
		return b.handleHabits(ctx, msg)
	case "newhabit":
		return b.handleNewHabit(ctx, msg)
	case "done":
		return b.handleDone(ctx, msg)
	case "streaks":
		return b.handleStreaks(ctx, msg)
	case "partners":
		return b.handlePartners(ctx, msg)
	case "report":
		return b.handleReport(ctx, msg)
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf("👋 Hi, %s!\n<b>I keep track of your habits and streaks.</b>\n\n%s", escape(name), commandList)
	return b.sendText(msg.Chat.ID, text)
}

const commandList = "• /newhabit title;category;difficulty;frequency - add a habit\n" +
	"• /habits - list habits with done buttons\n" +
	"• /done &lt;n&gt; - mark habit number n done today\n" +
	"• /streaks - streak status of every habit\n" +
	"• /partners - suggested accountability partners\n" +
	"• /report - today's digest\n" +
	"• /help - this list"

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	return b.sendText(msg.Chat.ID, "ℹ️ <b>Commands</b>\n"+commandList)
}

func (b *Bot) handleNewHabit(ctx context.Context, msg *tgbotapi.Message) error {
	input, err := parseNewHabitArgs(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, escape(err.Error()+"\n"+newHabitUsage))
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	habit, err := b.habits.Create(ctx, user.ID, input)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			return b.sendText(msg.Chat.ID, escape(err.Error()))
		}
		return err
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("➕ Added <b>%s</b> (%s, %s, %s). Worth %d XP per day.",
		escape(habit.Title), escape(habit.Category), habit.Difficulty, habit.Frequency, habit.XPReward))
}

func (b *Bot) handleHabits(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	habits, err := b.habits.List(ctx, user.ID)
	if err != nil {
		return err
	}
	if len(habits) == 0 {
		return b.sendText(msg.Chat.ID, "You have no habits yet. Add one with /newhabit.")
	}

	calc := streak.NewCalculator(b.now)
	var builder strings.Builder
	builder.WriteString("📋 <b>Your habits</b>\nTap a button to mark a habit done today.\n\n")

	var buttons [][]tgbotapi.InlineKeyboardButton
	for i, h := range habits {
		info := calc.Info(h.CompletedDates())
		builder.WriteString(formatHabitLine(i+1, h, info))
		if !info.CompletedToday {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✅ %d · %s", i+1, shortTitle(h.Title, 24)), cbDonePrefix+h.ID),
			))
		}
	}

	out := tgbotapi.NewMessage(msg.Chat.ID, strings.TrimSpace(builder.String()))
	out.ParseMode = tgbotapi.ModeHTML
	if len(buttons) > 0 {
		out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	}
	_, err = b.api.Send(out)
	return err
}

func (b *Bot) handleDone(ctx context.Context, msg *tgbotapi.Message) error {
	n, err := parseIndex(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Give the habit number from /habits, for example /done 2")
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	habits, err := b.habits.List(ctx, user.ID)
	if err != nil {
		return err
	}
	if n > len(habits) {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("You only have %d habits.", len(habits)))
	}
	return b.complete(ctx, msg.Chat.ID, user, habits[n-1].ID)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Warn("callback ack", "error", err)
	}
	if !strings.HasPrefix(cb.Data, cbDonePrefix) {
		return nil
	}
	user, err := b.ensureUser(ctx, cb.From)
	if err != nil {
		return err
	}
	return b.complete(ctx, cb.Message.Chat.ID, user, strings.TrimPrefix(cb.Data, cbDonePrefix))
}

func (b *Bot) complete(ctx context.Context, chatID int64, user *model.User, habitID string) error {
	res, err := b.habits.Complete(ctx, user.ID, habitID, b.now())
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrForbidden):
		return b.sendText(chatID, "Habit not found.")
	case err != nil:
		return err
	}
	return b.sendText(chatID, completionText(res))
}

func (b *Bot) handleStreaks(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	habits, err := b.habits.List(ctx, user.ID)
	if err != nil {
		return err
	}
	if len(habits) == 0 {
		return b.sendText(msg.Chat.ID, "No habits yet, so no streaks. Start with /newhabit.")
	}
	calc := streak.NewCalculator(b.now)
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("🔥 <b>Streaks</b> · best ever %d days\n\n", user.Stats.LongestStreak))
	for i, h := range habits {
		builder.WriteString(formatHabitLine(i+1, h, calc.Info(h.CompletedDates())))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handlePartners(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	matches, err := b.partners.Discover(ctx, user.ID, service.DefaultPartnerCount)
	if err != nil {
		return err
	}
	return b.sendText(msg.Chat.ID, formatMatches(matches))
}

func (b *Bot) handleReport(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	text, err := b.reminders.DailySummary(ctx, *user, b.now())
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not build the report: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, text)
}

// SendDailyReports sends a digest to every user linked to Telegram.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	users, err := b.users.ListLinked(ctx)
	if err != nil {
		return err
	}
	now := b.now()
	sent := 0
	for _, user := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if user.TelegramID == nil {
			continue
		}
		text, err := b.reminders.DailySummary(ctx, user, now)
		if err != nil {
			b.log.Warn("build summary", "user_id", user.ID, "error", err)
			continue
		}
		if err := b.sendText(*user.TelegramID, text); err != nil {
			b.log.Warn("send summary", "user_id", user.ID, "error", err)
			continue
		}
		sent++
	}
	b.log.Info("daily reports sent", "users", len(users), "sent", sent)
	return nil
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	return b.users.UpsertFromTelegram(ctx, from.ID, from.UserName)
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelHabits),
			tgbotapi.NewKeyboardButton(menuLabelStreaks),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelPartners),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

// parseNewHabitArgs reads "title;category;difficulty;frequency". Difficulty
// and frequency may be omitted.
func parseNewHabitArgs(args string) (service.HabitInput, error) {
	parts := strings.Split(args, ";")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return service.HabitInput{}, errors.New("title and category are required")
	}
	if len(parts) > 4 {
		return service.HabitInput{}, errors.New("too many fields")
	}
	input := service.HabitInput{
		Title:      parts[0],
		Category:   strings.ToLower(parts[1]),
		Difficulty: string(matching.DifficultyMedium),
	}
	if len(parts) > 2 && parts[2] != "" {
		input.Difficulty = strings.ToLower(parts[2])
	}
	if len(parts) > 3 {
		input.Frequency = strings.ToLower(parts[3])
	}
	return input, nil
}

// parseIndex reads a 1-based list position.
func parseIndex(args string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("index %d out of range", n)
	}
	return n, nil
}

func formatHabitLine(n int, h model.Habit, info streak.Info) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d. %s %s <i>(%s)</i>", n, statusIcon(info), escape(h.Title), escape(h.Category)))
	switch info.Status {
	case streak.StatusAtRisk:
		sb.WriteString(fmt.Sprintf("\n   ⏳ %d day streak, complete today to keep it", info.Streak))
	case streak.StatusActive:
		sb.WriteString(fmt.Sprintf("\n   🔥 %d day streak", info.Streak))
	}
	sb.WriteByte('\n')
	return sb.String()
}

func statusIcon(info streak.Info) string {
	switch {
	case info.CompletedToday:
		return "✅"
	case info.Status == streak.StatusAtRisk:
		return "⏳"
	default:
		return "🟢"
	}
}

func completionText(res *service.CompletionResult) string {
	title := escape(res.Habit.Title)
	if res.AlreadyCompleted {
		return fmt.Sprintf("«%s» is already done today. Streak: %d.", title, res.NewStreak)
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("✅ «%s» done! +%d XP, streak %d.", title, res.PointsAdded, res.NewStreak))
	if !res.StreakMaintained && res.NewStreak == 1 {
		sb.WriteString(" A fresh start!")
	}
	if res.LevelUp {
		sb.WriteString(fmt.Sprintf("\n🎉 Level up! You are now level %d.", res.Level))
	}
	for _, id := range res.NewBadges {
		for _, badge := range service.BadgeCatalog {
			if badge.ID == id {
				sb.WriteString(fmt.Sprintf("\n%s Badge unlocked: <b>%s</b>", badge.Icon, escape(badge.Name)))
			}
		}
	}
	return sb.String()
}

func formatMatches(matches []matching.Match) string {
	if len(matches) == 0 {
		return "No partner suggestions yet. Check back when more people are tracking habits."
	}
	var sb strings.Builder
	sb.WriteString("🤝 <b>Suggested partners</b>\n\n")
	for i, m := range matches {
		sb.WriteString(fmt.Sprintf("%d. <code>%s</code> · %.0f%% match · %s · %d habits\n",
			i+1, escape(m.UserID), m.MatchScore, escape(m.Timezone), m.HabitCount))
		if len(m.CommonHabits) > 0 {
			sb.WriteString("   shares: " + escape(strings.Join(m.CommonHabits, ", ")) + "\n")
		} else if len(m.CommonCategories) > 0 {
			sb.WriteString("   likes: " + escape(strings.Join(m.CommonCategories, ", ")) + "\n")
		}
	}
	return strings.TrimSpace(sb.String())
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func escape(s string) string {
	return html.EscapeString(s)
}
