package api

import (
	"errors"
	"net/http"

	"BC_telegram_miniapp/internal/middleware"
	"BC_telegram_miniapp/internal/service"
	"BC_telegram_miniapp/pkg/auth"
	"BC_telegram_miniapp/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

type checkInRoutes struct {
	cs service.CheckInServiceI
	a  *auth.TelegramAuth
}

func NewCheckInRoutes(handler *gin.RouterGroup, cs service.CheckInServiceI,
	a *auth.TelegramAuth, p *middleware.Provision) {
	r := &checkInRoutes{cs: cs, a: a}
	h := handler.Group("/checkin")
	h.Use(a.TelegramAuthMiddleware(), p.EnsureUser())
	{
		h.GET("/", r.Status)
		h.POST("/", r.CheckIn)
	}
}

func (r *checkInRoutes) Status(c *gin.Context) {
	log := logger.Logger()

	user, ok := currentUserFromContext(c)
	if !ok {
		return
	}

	status, err := r.cs.Status(c.Request.Context(), user.TelegramID)
	if err != nil {
		log.Error("failed to get check-in status", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get check-in status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"is_available":   status.IsAvailable,
		"last_check_in":  status.LastCheckIn,
		"next_available": status.NextAvailable,
		"reward":         status.Reward,
	})
}

func (r *checkInRoutes) CheckIn(c *gin.Context) {
	log := logger.Logger()

	user, ok := currentUserFromContext(c)
	if !ok {
		return
	}

	reward, err := r.cs.CheckIn(c.Request.Context(), user.TelegramID)
	if err != nil {
		if errors.Is(err, service.ErrCheckInNotAvailable) {
			c.JSON(http.StatusConflict, gin.H{"error": "check-in not available yet"})
			return
		}
		log.Error("failed to check in", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check in"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"points_awarded": reward,
	})
}
