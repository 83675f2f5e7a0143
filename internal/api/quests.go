package api

import (
	"errors"
	"net/http"
	"time"

	"BC_telegram_miniapp/internal/middleware"
	"BC_telegram_miniapp/internal/model"
	"BC_telegram_miniapp/internal/service"
	"BC_telegram_miniapp/pkg/auth"
	"BC_telegram_miniapp/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type questRoutes struct {
	qs service.QuestServiceI
	a  *auth.TelegramAuth
}

func NewQuestRoutes(handler *gin.RouterGroup, qs service.QuestServiceI,
	a *auth.TelegramAuth, p *middleware.Provision, adm *middleware.Authorization) {
	r := &questRoutes{qs: qs, a: a}
	h := handler.Group("/quests")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.GET("/", p.EnsureUser(), r.ListQuests)
		h.POST("/:quest_id/complete", p.EnsureUser(), r.CompleteQuest)

		admin := h.Group("/admin", adm.AdminOnly())
		{
			admin.GET("/", r.GetAllQuests)
			admin.POST("/", r.CreateQuest)
			admin.PATCH("/:quest_id/active", r.SetQuestActive)
		}
	}
}

type QuestResponse struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	PointsReward int        `json:"points_reward"`
	Type         string     `json:"type"`
	DayNumber    *int       `json:"day_number,omitempty"`
	Question     string     `json:"question,omitempty"`
	Options      []string   `json:"options,omitempty"`
	URL          string     `json:"url,omitempty"`
	IsCompleted  bool       `json:"is_completed"`
	IsAvailable  bool       `json:"is_available"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

func (r *questRoutes) ListQuests(c *gin.Context) {
	log := logger.Logger()

	user, ok := currentUserFromContext(c)
	if !ok {
		return
	}

	statuses, day, err := r.qs.ListQuests(c.Request.Context(), user.TelegramID)
	if err != nil {
		log.Error("failed to list quests", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list quests"})
		return
	}

	out := make([]QuestResponse, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, QuestResponse{
			ID:           s.Quest.ID.String(),
			Title:        s.Quest.Title,
			Description:  s.Quest.Description,
			PointsReward: s.Quest.PointsReward,
			Type:         string(s.Quest.Type),
			DayNumber:    s.Quest.DayNumber,
			Question:     s.Quest.Payload.Question,
			Options:      s.Quest.Payload.Options,
			URL:          s.Quest.Payload.URL,
			IsCompleted:  s.IsCompleted,
			IsAvailable:  s.IsAvailable,
			CompletedAt:  s.CompletedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"current_day": day,
		"quests":      out,
	})
}

type CompleteQuestRequest struct {
	Answer string `json:"answer"`
}

func (r *questRoutes) CompleteQuest(c *gin.Context) {
	log := logger.Logger()

	user, ok := currentUserFromContext(c)
	if !ok {
		return
	}

	questID, err := uuid.Parse(c.Param("quest_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quest_id"})
		return
	}

	// A body is only required for answer-gated quest types.
	var req CompleteQuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req.Answer = ""
	}

	reward, err := r.qs.CompleteQuest(c.Request.Context(), user.TelegramID, questID, req.Answer)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrQuestNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "quest not found"})
		case errors.Is(err, service.ErrQuestNotAvailable):
			c.JSON(http.StatusForbidden, gin.H{"error": "quest not yet available"})
		case errors.Is(err, service.ErrAlreadyCompleted):
			c.JSON(http.StatusConflict, gin.H{"error": "quest already completed"})
		case errors.Is(err, service.ErrIncorrectAnswer):
			c.JSON(http.StatusBadRequest, gin.H{"error": "incorrect answer"})
		case errors.Is(err, service.ErrNotVerified):
			c.JSON(http.StatusForbidden, gin.H{"error": "membership not verified"})
		default:
			log.Error("failed to complete quest", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to complete quest"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "completed",
		"points_awarded": reward,
	})
}

func (r *questRoutes) GetAllQuests(c *gin.Context) {
	log := logger.Logger()

	quests, err := r.qs.GetAllQuests(c.Request.Context())
	if err != nil {
		log.Error("failed to get quests", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get quests"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"quests": quests})
}

type CreateQuestRequest struct {
	Title        string   `json:"title" binding:"required"`
	Description  string   `json:"description"`
	PointsReward int      `json:"points_reward" binding:"required"`
	Type         string   `json:"type" binding:"required"`
	DayNumber    *int     `json:"day_number"`
	Question     string   `json:"question"`
	Answer       string   `json:"answer"`
	Options      []string `json:"options"`
	URL          string   `json:"url"`
	ChatID       int64    `json:"chat_id"`
}

func (r *questRoutes) CreateQuest(c *gin.Context) {
	log := logger.Logger()

	var req CreateQuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	quest := &model.Quest{
		Title:        req.Title,
		Description:  req.Description,
		PointsReward: req.PointsReward,
		Type:         model.QuestType(req.Type),
		IsActive:     true,
		DayNumber:    req.DayNumber,
		Payload: model.QuestPayload{
			Question: req.Question,
			Answer:   req.Answer,
			Options:  req.Options,
			URL:      req.URL,
			ChatID:   req.ChatID,
		},
	}

	id, err := r.qs.CreateQuest(c.Request.Context(), quest)
	if err != nil {
		log.Error("failed to create quest", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create quest"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id.String()})
}

type SetQuestActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

func (r *questRoutes) SetQuestActive(c *gin.Context) {
	log := logger.Logger()

	questID, err := uuid.Parse(c.Param("quest_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quest_id"})
		return
	}

	var req SetQuestActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	err = r.qs.SetQuestActive(c.Request.Context(), questID, *req.Active)
	if err != nil {
		if errors.Is(err, service.ErrQuestNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "quest not found"})
			return
		}
		log.Error("failed to update quest", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update quest"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
