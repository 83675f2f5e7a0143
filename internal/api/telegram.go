package api

import (
	"net/http"
	"strconv"
	"strings"

	"BC_telegram_miniapp/internal/service"
	"BC_telegram_miniapp/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const referralPayloadPrefix = "ref_"

type telegramRoutes struct {
	us        service.UserServiceI
	qs        service.QuestServiceI
	rs        service.ReferralServiceI
	bot       *tgbotapi.BotAPI
	webAppURL string
	secret    string
}

// NewTelegramRoutes registers the bot webhook. Referral links are recorded
// here, before the referred user ever opens the Mini App.
func NewTelegramRoutes(handler *gin.RouterGroup, us service.UserServiceI,
	qs service.QuestServiceI, rs service.ReferralServiceI,
	bot *tgbotapi.BotAPI, webAppURL, secret string) {
	r := &telegramRoutes{
		us:        us,
		qs:        qs,
		rs:        rs,
		bot:       bot,
		webAppURL: webAppURL,
		secret:    secret,
	}
	h := handler.Group("/telegram")
	{
		h.POST("/webhook", r.HandleWebhook)
	}
}

func (r *telegramRoutes) HandleWebhook(c *gin.Context) {
	log := logger.Logger()

	if r.secret != "" && c.GetHeader("X-Telegram-Bot-Api-Secret-Token") != r.secret {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var update tgbotapi.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		log.Error("failed to parse telegram update", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid update"})
		return
	}

	if update.Message != nil {
		switch {
		case update.Message.IsCommand() && update.Message.Command() == "start":
			r.handleStart(c, update.Message)
		case update.Message.LeftChatMember != nil:
			r.handleLeftChatMember(c, update.Message)
		}
	}

	// Telegram only needs a 200; errors are logged, never surfaced.
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (r *telegramRoutes) handleStart(c *gin.Context, msg *tgbotapi.Message) {
	log := logger.Logger()

	if msg.From == nil {
		return
	}
	userID := msg.From.ID

	payload := strings.TrimSpace(msg.CommandArguments())
	if strings.HasPrefix(payload, referralPayloadPrefix) {
		referrerID, err := strconv.ParseInt(strings.TrimPrefix(payload, referralPayloadPrefix), 10, 64)
		if err != nil {
			log.Info("ignoring malformed referral payload",
				zap.String("payload", payload),
				zap.Int64("user_id", userID))
		} else if err := r.rs.NotePendingReferral(c.Request.Context(), userID, referrerID); err != nil {
			log.Error("failed to record pending referral",
				zap.Error(err),
				zap.Int64("user_id", userID),
				zap.Int64("referrer_id", referrerID))
		}
	}

	exists, err := r.us.UserExists(c.Request.Context(), userID)
	if err != nil {
		log.Error("failed to check user existence", zap.Error(err), zap.Int64("user_id", userID))
		return
	}
	if exists {
		return
	}

	r.sendWelcome(msg.Chat.ID)
}

func (r *telegramRoutes) sendWelcome(chatID int64) {
	log := logger.Logger()

	reply := tgbotapi.NewMessage(chatID,
		"Welcome! Open the app to start earning points with daily check-ins and quests.")
	reply.ReplyMarkup = tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{{
			{
				Text:   "Open app",
				WebApp: &tgbotapi.WebAppInfo{URL: r.webAppURL},
			},
		}},
	}

	if _, err := r.bot.Send(reply); err != nil {
		log.Error("failed to send welcome message", zap.Error(err), zap.Int64("chat_id", chatID))
	}
}

func (r *telegramRoutes) handleLeftChatMember(c *gin.Context, msg *tgbotapi.Message) {
	log := logger.Logger()

	left := msg.LeftChatMember
	if left.IsBot {
		return
	}

	err := r.qs.HandleMembershipLost(c.Request.Context(), left.ID, msg.Chat.ID)
	if err != nil {
		log.Error("failed to process membership loss",
			zap.Error(err),
			zap.Int64("user_id", left.ID),
			zap.Int64("chat_id", msg.Chat.ID))
	}
}
