package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"BC_telegram_miniapp/internal/middleware"
	"BC_telegram_miniapp/internal/model"
	"BC_telegram_miniapp/internal/service"
	"BC_telegram_miniapp/pkg/auth"
	"BC_telegram_miniapp/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

type userRoutes struct {
	us service.UserServiceI
	a  *auth.TelegramAuth
}

func NewUserRoutes(handler *gin.RouterGroup, us service.UserServiceI,
	a *auth.TelegramAuth, p *middleware.Provision, adm *middleware.Authorization) {
	r := &userRoutes{us: us, a: a}
	h := handler.Group("/users")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.POST("/", p.EnsureUser(), r.RegisterUser)
		h.GET("/me", p.EnsureUser(), r.GetProfile)
		h.POST("/me/exchange-uid", p.EnsureUser(), r.SubmitExchangeUID)
		h.GET("/me/referrals", p.EnsureUser(), r.GetUserReferrals)
		h.GET("/me/transactions", p.EnsureUser(), r.GetUserTransactions)
		h.GET("/leaderboard", r.GetLeaderboard)

		h.POST("/:telegram_id/points", adm.AdminOnly(), r.AdjustPoints)
	}
}

func telegramUserFromContext(c *gin.Context) (*auth.TelegramUserData, bool) {
	userData, exists := c.Get("telegram_user")
	if !exists {
		logger.Logger().Error("telegram user data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return nil, false
	}

	user, ok := userData.(*auth.TelegramUserData)
	if !ok {
		logger.Logger().Error("invalid type assertion for telegram user data")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return nil, false
	}

	return user, true
}

func currentUserFromContext(c *gin.Context) (*model.User, bool) {
	userData, exists := c.Get("current_user")
	if !exists {
		logger.Logger().Error("current user not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return nil, false
	}

	user, ok := userData.(*model.User)
	if !ok {
		logger.Logger().Error("invalid type assertion for current user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return nil, false
	}

	return user, true
}

type RegisterUserResponse struct {
	TelegramID int64  `json:"telegram_id"`
	Username   string `json:"username"`
	FirstName  string `json:"first_name"`
	Points     int    `json:"points"`
	ReferrerID *int64 `json:"referrer_id"`
}

// RegisterUser is the provisioning entry point. The row itself is created by
// the EnsureUser middleware; this handler only reports the resulting state.
func (r *userRoutes) RegisterUser(c *gin.Context) {
	user, ok := currentUserFromContext(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, RegisterUserResponse{
		TelegramID: user.TelegramID,
		Username:   user.Username,
		FirstName:  user.FirstName,
		Points:     user.Points,
		ReferrerID: user.ReferrerID,
	})
}

type ProfileResponse struct {
	TelegramID        int64    `json:"telegram_id"`
	Username          string   `json:"username"`
	FirstName         string   `json:"first_name"`
	Points            int      `json:"points"`
	ExchangeUIDSet    bool     `json:"exchange_uid_set"`
	ReferralCount     int      `json:"referral_count"`
	CompletedQuestIDs []string `json:"completed_quest_ids"`
}

func (r *userRoutes) GetProfile(c *gin.Context) {
	log := logger.Logger()

	user, ok := currentUserFromContext(c)
	if !ok {
		return
	}

	profile, err := r.us.GetProfile(c.Request.Context(), user.TelegramID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		log.Error("failed to get profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get profile"})
		return
	}

	questIDs := make([]string, 0, len(profile.CompletedQuestIDs))
	for _, id := range profile.CompletedQuestIDs {
		questIDs = append(questIDs, id.String())
	}

	c.JSON(http.StatusOK, ProfileResponse{
		TelegramID:        profile.TelegramID,
		Username:          profile.Username,
		FirstName:         profile.FirstName,
		Points:            profile.Points,
		ExchangeUIDSet:    profile.ExchangeUIDSet,
		ReferralCount:     profile.ReferralCount,
		CompletedQuestIDs: questIDs,
	})
}

type SubmitExchangeUIDRequest struct {
	UID string `json:"uid" binding:"required"`
}

func (r *userRoutes) SubmitExchangeUID(c *gin.Context) {
	log := logger.Logger()

	user, ok := currentUserFromContext(c)
	if !ok {
		return
	}

	var req SubmitExchangeUIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	err := r.us.SubmitExchangeUID(c.Request.Context(), user.TelegramID, req.UID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, service.ErrUIDAlreadySet):
			c.JSON(http.StatusConflict, gin.H{"error": "exchange uid already submitted"})
		default:
			log.Error("failed to submit exchange uid", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit exchange uid"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type ReferralEntry struct {
	TelegramID  int64  `json:"telegram_id"`
	Username    string `json:"username"`
	FirstName   string `json:"first_name"`
	Points      int    `json:"points"`
	BonusEarned int    `json:"bonus_earned"`
}

func (r *userRoutes) GetUserReferrals(c *gin.Context) {
	log := logger.Logger()

	user, ok := currentUserFromContext(c)
	if !ok {
		return
	}

	referrals, err := r.us.GetUserReferrals(c.Request.Context(), user.TelegramID)
	if err != nil {
		log.Error("failed to get user referrals", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get referrals"})
		return
	}

	out := make([]ReferralEntry, 0, len(referrals))
	for _, ref := range referrals {
		out = append(out, ReferralEntry{
			TelegramID:  ref.TelegramID,
			Username:    ref.Username,
			FirstName:   ref.FirstName,
			Points:      ref.Points,
			BonusEarned: ref.BonusEarned,
		})
	}

	c.JSON(http.StatusOK, gin.H{"referrals": out})
}

type TransactionEntry struct {
	ID             int64     `json:"id"`
	Delta          int       `json:"delta"`
	Reason         string    `json:"reason"`
	RelatedQuestID *string   `json:"related_quest_id,omitempty"`
	RelatedUserID  *int64    `json:"related_user_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func (r *userRoutes) GetUserTransactions(c *gin.Context) {
	log := logger.Logger()

	user, ok := currentUserFromContext(c)
	if !ok {
		return
	}

	transactions, err := r.us.GetUserTransactions(c.Request.Context(), user.TelegramID)
	if err != nil {
		log.Error("failed to get transactions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get transactions"})
		return
	}

	out := make([]TransactionEntry, 0, len(transactions))
	for _, tr := range transactions {
		entry := TransactionEntry{
			ID:            tr.ID,
			Delta:         tr.Delta,
			Reason:        string(tr.Reason),
			RelatedUserID: tr.RelatedUserID,
			CreatedAt:     tr.CreatedAt,
		}
		if tr.RelatedQuestID != nil {
			id := tr.RelatedQuestID.String()
			entry.RelatedQuestID = &id
		}
		out = append(out, entry)
	}

	c.JSON(http.StatusOK, gin.H{"transactions": out})
}

type LeaderboardEntry struct {
	Rank       int    `json:"rank"`
	TelegramID int64  `json:"telegram_id"`
	Username   string `json:"username"`
	FirstName  string `json:"first_name"`
	Points     int    `json:"points"`
}

func (r *userRoutes) GetLeaderboard(c *gin.Context) {
	log := logger.Logger()

	limit := 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	entries, err := r.us.GetLeaderboard(c.Request.Context(), limit)
	if err != nil {
		log.Error("failed to get leaderboard", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get leaderboard"})
		return
	}

	out := make([]LeaderboardEntry, 0, len(entries))
	for i, e := range entries {
		out = append(out, LeaderboardEntry{
			Rank:       i + 1,
			TelegramID: e.TelegramID,
			Username:   e.Username,
			FirstName:  e.FirstName,
			Points:     e.Points,
		})
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": out})
}

type AdjustPointsRequest struct {
	Delta  int    `json:"delta" binding:"required"`
	Reason string `json:"reason"`
}

// AdjustPoints applies a manual balance correction. Reserved for admins;
// the default reason is data_recovery.
func (r *userRoutes) AdjustPoints(c *gin.Context) {
	log := logger.Logger()

	id, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return
	}

	var req AdjustPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	reason := model.ReasonDataRecovery
	if req.Reason != "" {
		reason = model.Reason(req.Reason)
	}

	err = r.us.AdjustPoints(c.Request.Context(), id, req.Delta, reason)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		log.Error("failed to adjust points", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to adjust points"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
