package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"habit-tracker/internal/logger"
)

type RouterConfig struct {
	UserHandler        *UserHandler
	HabitHandler       *HabitHandler
	PartnerHandler     *PartnerHandler
	ChallengeHandler   *ChallengeHandler
	LeaderboardHandler *LeaderboardHandler
	Logger             *logger.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(cfg.Logger))
	r.Use(CORS())

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	api := r.Group("/api")
	if cfg.UserHandler != nil {
		api.POST("/users", cfg.UserHandler.Create)
	}

	protected := api.Group("/")
	protected.Use(RequireUser())
	{
		// Users
		if cfg.UserHandler != nil {
			protected.GET("/users/me", cfg.UserHandler.GetMe)
			protected.PATCH("/users/me", cfg.UserHandler.UpdateMe)
		}

		// Habits
		if cfg.HabitHandler != nil {
			protected.GET("/habits", cfg.HabitHandler.List)
			protected.POST("/habits", cfg.HabitHandler.Create)
			protected.GET("/habits/:id", cfg.HabitHandler.Get)
			protected.PATCH("/habits/:id", cfg.HabitHandler.Update)
			protected.DELETE("/habits/:id", cfg.HabitHandler.Delete)
			protected.POST("/habits/:id/complete", cfg.HabitHandler.Complete)
			protected.GET("/habits/:id/streak", cfg.HabitHandler.Streak)
			protected.GET("/habits/:id/history", cfg.HabitHandler.History)
			protected.GET("/badges", cfg.HabitHandler.Badges)
		}

		// Partners
		if cfg.PartnerHandler != nil {
			protected.GET("/partners", cfg.PartnerHandler.List)
			protected.GET("/partners/discover", cfg.PartnerHandler.Discover)
			protected.POST("/partners/search", cfg.PartnerHandler.Search)
			protected.POST("/partners/requests", cfg.PartnerHandler.SendRequest)
			protected.POST("/partners/:id/respond", cfg.PartnerHandler.Respond)
			protected.GET("/partners/:id/evaluate", cfg.PartnerHandler.Evaluate)
			protected.DELETE("/partners/:id", cfg.PartnerHandler.End)
		}

		// Challenges
		if cfg.ChallengeHandler != nil {
			protected.GET("/challenges", cfg.ChallengeHandler.List)
			protected.POST("/challenges", cfg.ChallengeHandler.Create)
			protected.GET("/challenges/joined", cfg.ChallengeHandler.Joined)
			protected.GET("/challenges/:id", cfg.ChallengeHandler.Get)
			protected.PATCH("/challenges/:id", cfg.ChallengeHandler.Update)
			protected.DELETE("/challenges/:id", cfg.ChallengeHandler.Delete)
			protected.POST("/challenges/:id/join", cfg.ChallengeHandler.Join)
			protected.POST("/challenges/:id/leave", cfg.ChallengeHandler.Leave)
			protected.PUT("/challenges/:id/progress", cfg.ChallengeHandler.Progress)
		}

		// Leaderboards
		if cfg.LeaderboardHandler != nil {
			protected.GET("/leaderboard/streaks", cfg.LeaderboardHandler.Streaks)
			protected.GET("/leaderboard/partners", cfg.LeaderboardHandler.Pairs)
			protected.GET("/partners/:id/streak", cfg.LeaderboardHandler.PairStreak)
		}
	}

	return r
}
