package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"habit-tracker/internal/matching"
	"habit-tracker/internal/service"
	"habit-tracker/internal/streak"
)

type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// POST /api/users
func (h *UserHandler) Create(c *gin.Context) {
	var req service.UserInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	user, err := h.users.Create(c.Request.Context(), req)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// GET /api/users/me
func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), currentUser(c))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, user)
}

// PATCH /api/users/me
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req service.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	user, err := h.users.Update(c.Request.Context(), currentUser(c), req)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, user)
}

type HabitHandler struct {
	habits *service.HabitService
	badges *service.BadgeService
}

func NewHabitHandler(habits *service.HabitService, badges *service.BadgeService) *HabitHandler {
	return &HabitHandler{habits: habits, badges: badges}
}

// GET /api/habits
func (h *HabitHandler) List(c *gin.Context) {
	habits, err := h.habits.List(c.Request.Context(), currentUser(c))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"habits": habits})
}

// POST /api/habits
func (h *HabitHandler) Create(c *gin.Context) {
	var req service.HabitInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	habit, err := h.habits.Create(c.Request.Context(), currentUser(c), req)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, habit)
}

// GET /api/habits/:id
func (h *HabitHandler) Get(c *gin.Context) {
	habit, err := h.habits.Get(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, habit)
}

// PATCH /api/habits/:id
func (h *HabitHandler) Update(c *gin.Context) {
	var req service.HabitUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	habit, err := h.habits.Update(c.Request.Context(), currentUser(c), c.Param("id"), req)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, habit)
}

// DELETE /api/habits/:id
func (h *HabitHandler) Delete(c *gin.Context) {
	if err := h.habits.Delete(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/habits/:id/complete
// body: { "date": "2026-03-15" }
func (h *HabitHandler) Complete(c *gin.Context) {
	var req struct {
		Date string `json:"date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	day, err := streak.ParseDay(req.Date)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_date", err)
		return
	}
	res, err := h.habits.Complete(c.Request.Context(), currentUser(c), c.Param("id"), day)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, res)
}

// GET /api/habits/:id/streak
func (h *HabitHandler) Streak(c *gin.Context) {
	info, err := h.habits.StreakInfo(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, info)
}

// GET /api/habits/:id/history
func (h *HabitHandler) History(c *gin.Context) {
	days, err := h.habits.History(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"days": days})
}

// GET /api/badges
func (h *HabitHandler) Badges(c *gin.Context) {
	badges, err := h.badges.List(c.Request.Context(), currentUser(c))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"badges": badges})
}

type PartnerHandler struct {
	partners *service.PartnerService
}

func NewPartnerHandler(partners *service.PartnerService) *PartnerHandler {
	return &PartnerHandler{partners: partners}
}

// GET /api/partners
func (h *PartnerHandler) List(c *gin.Context) {
	list, err := h.partners.List(c.Request.Context(), currentUser(c))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"partnerships": list})
}

// GET /api/partners/discover?k=5
func (h *PartnerHandler) Discover(c *gin.Context) {
	k := service.DefaultPartnerCount
	if raw := c.Query("k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("k must be a positive integer"))
			return
		}
		k = n
	}
	matches, err := h.partners.Discover(c.Request.Context(), currentUser(c), k)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"matches": matches})
}

// POST /api/partners/search
// Fields missing from the body keep their DefaultFilter values.
func (h *PartnerHandler) Search(c *gin.Context) {
	f := matching.DefaultFilter()
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&f); err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
	}
	matches, err := h.partners.DiscoverWithCriteria(c.Request.Context(), currentUser(c), f)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"matches": matches})
}

// POST /api/partners/requests
// body: { "partnerId": "...", "message": "..." }
func (h *PartnerHandler) SendRequest(c *gin.Context) {
	var req struct {
		PartnerID string `json:"partnerId" binding:"required"`
		Message   string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	p, err := h.partners.SendRequest(c.Request.Context(), currentUser(c), req.PartnerID, req.Message)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// POST /api/partners/:id/respond
// body: { "accept": true }
func (h *PartnerHandler) Respond(c *gin.Context) {
	var req struct {
		Accept *bool `json:"accept" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	p, err := h.partners.Respond(c.Request.Context(), currentUser(c), c.Param("id"), *req.Accept)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, p)
}

// GET /api/partners/:id/evaluate
func (h *PartnerHandler) Evaluate(c *gin.Context) {
	eval, err := h.partners.Evaluate(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, eval)
}

// DELETE /api/partners/:id
func (h *PartnerHandler) End(c *gin.Context) {
	p, err := h.partners.End(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, p)
}

type ChallengeHandler struct {
	challenges *service.ChallengeService
}

func NewChallengeHandler(challenges *service.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{challenges: challenges}
}

// GET /api/challenges
func (h *ChallengeHandler) List(c *gin.Context) {
	list, err := h.challenges.List(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"challenges": list})
}

// GET /api/challenges/joined
func (h *ChallengeHandler) Joined(c *gin.Context) {
	list, err := h.challenges.ListJoined(c.Request.Context(), currentUser(c))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"challenges": list})
}

// POST /api/challenges
func (h *ChallengeHandler) Create(c *gin.Context) {
	var req service.ChallengeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	ch, err := h.challenges.Create(c.Request.Context(), currentUser(c), req)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ch)
}

// GET /api/challenges/:id
func (h *ChallengeHandler) Get(c *gin.Context) {
	ch, err := h.challenges.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, ch)
}

// PATCH /api/challenges/:id
func (h *ChallengeHandler) Update(c *gin.Context) {
	var req service.ChallengeUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	ch, err := h.challenges.Update(c.Request.Context(), currentUser(c), c.Param("id"), req)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, ch)
}

// DELETE /api/challenges/:id
func (h *ChallengeHandler) Delete(c *gin.Context) {
	if err := h.challenges.Delete(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/challenges/:id/join
func (h *ChallengeHandler) Join(c *gin.Context) {
	ch, err := h.challenges.Join(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, ch)
}

// POST /api/challenges/:id/leave
func (h *ChallengeHandler) Leave(c *gin.Context) {
	ch, err := h.challenges.Leave(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, ch)
}

// PUT /api/challenges/:id/progress
// body: { "progress": 40 }
func (h *ChallengeHandler) Progress(c *gin.Context) {
	var req struct {
		Progress *float64 `json:"progress" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.challenges.UpdateProgress(c.Request.Context(), currentUser(c), c.Param("id"), *req.Progress)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, res)
}

type LeaderboardHandler struct {
	leaderboard *service.LeaderboardService
}

func NewLeaderboardHandler(leaderboard *service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboard: leaderboard}
}

// GET /api/leaderboard/streaks?limit=10
func (h *LeaderboardHandler) Streaks(c *gin.Context) {
	limit, ok := limitParam(c)
	if !ok {
		return
	}
	board, err := h.leaderboard.Streaks(c.Request.Context(), limit)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"leaderboard": board, "total": len(board)})
}

// GET /api/leaderboard/partners?limit=10
func (h *LeaderboardHandler) Pairs(c *gin.Context) {
	limit, ok := limitParam(c)
	if !ok {
		return
	}
	board, err := h.leaderboard.Pairs(c.Request.Context(), limit)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"leaderboard": board, "total": len(board)})
}

// GET /api/partners/:id/streak
func (h *LeaderboardHandler) PairStreak(c *gin.Context) {
	duo, err := h.leaderboard.PairStreak(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, duo)
}

func limitParam(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return service.DefaultLeaderboardSize, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > service.MaxLeaderboardSize {
		RespondError(c, http.StatusBadRequest, "invalid_request",
			fmt.Errorf("limit must be between 1 and %d", service.MaxLeaderboardSize))
		return 0, false
	}
	return n, true
}
