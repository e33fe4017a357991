package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"habit-tracker/internal/bot"
	"habit-tracker/internal/config"
	"habit-tracker/internal/httpapi"
	"habit-tracker/internal/logger"
	"habit-tracker/internal/matching"
	"habit-tracker/internal/repository"
	"habit-tracker/internal/service"
	"habit-tracker/internal/streak"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logg.Sync()

	db, err := repository.NewDB(cfg.DatabaseURL, logg)
	if err != nil {
		logg.Fatal("open database", "error", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	habitRepo := repository.NewHabitRepository(db)
	partnershipRepo := repository.NewPartnershipRepository(db)
	challengeRepo := repository.NewChallengeRepository(db)

	calc := streak.NewCalculator(time.Now)
	matcher := matching.NewMatcher(time.Now)

	badgeSvc := service.NewBadgeService(habitRepo, userRepo, calc, time.Now)
	habitSvc := service.NewHabitService(habitRepo, userRepo, badgeSvc, calc, logg)
	partnerSvc := service.NewPartnerService(userRepo, habitRepo, partnershipRepo, matcher, logg, time.Now)
	userSvc := service.NewUserService(userRepo)
	streakSvc := service.NewStreakService(habitRepo, userRepo, calc, logg)
	reminderSvc := service.NewReminderService(habitRepo)
	challengeSvc := service.NewChallengeService(challengeRepo, userRepo, logg, time.Now)
	leaderboardSvc := service.NewLeaderboardService(userRepo, habitRepo, partnershipRepo, calc, logg)

	var telegramBot *bot.Bot
	if cfg.BotEnabled() {
		telegramBot, err = bot.New(cfg.TelegramToken, userRepo, habitSvc, partnerSvc, reminderSvc, logg)
		if err != nil {
			logg.Fatal("start bot", "error", err)
		}
	}

	scheduler := service.NewSchedulerService(time.UTC, logg)
	recalcID, err := scheduler.ScheduleDaily(cfg.RecalcTime, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := streakSvc.RecalculateAll(jobCtx); err != nil {
			logg.Error("streak recalculation", "error", err)
		}
	})
	if err != nil {
		logg.Fatal("schedule streak recalculation", "error", err)
	}
	if telegramBot != nil {
		if _, err := scheduler.ScheduleInterval(cfg.ReportInterval, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			if err := telegramBot.SendDailyReports(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				logg.Error("daily reports", "error", err)
			}
		}); err != nil {
			logg.Fatal("schedule reports", "error", err)
		}
	}
	scheduler.Start()
	defer scheduler.Stop()
	logg.Info("scheduler started", "next_recalc", scheduler.Next(recalcID))

	router := httpapi.NewRouter(httpapi.RouterConfig{
		UserHandler:        httpapi.NewUserHandler(userSvc),
		HabitHandler:       httpapi.NewHabitHandler(habitSvc, badgeSvc),
		PartnerHandler:     httpapi.NewPartnerHandler(partnerSvc),
		ChallengeHandler:   httpapi.NewChallengeHandler(challengeSvc),
		LeaderboardHandler: httpapi.NewLeaderboardHandler(leaderboardSvc),
		Logger:             logg,
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logg.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if telegramBot != nil {
		g.Go(func() error {
			return telegramBot.Start(gctx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error("stopped with error", "error", err)
		return
	}
	logg.Info("shutdown complete")
}
