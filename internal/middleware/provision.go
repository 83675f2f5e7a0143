package middleware

import (
	"net/http"
	"strconv"

	"BC_telegram_miniapp/internal/service"
	"BC_telegram_miniapp/pkg/auth"
	"BC_telegram_miniapp/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

type Provision struct {
	userService service.UserServiceI
}

func NewProvision(userService service.UserServiceI) *Provision {
	return &Provision{
		userService: userService,
	}
}

// EnsureUser guarantees that a row exists for the authenticated Telegram
// identity before the handler runs. An optional referrerId query parameter
// serves as the web-app attribution fallback; it only matters on the very
// first request for an identity.
func (p *Provision) EnsureUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()

		userData, exists := c.Get("telegram_user")
		if !exists {
			log.Error("telegram user data not found in context")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		telegramUser, ok := userData.(*auth.TelegramUserData)
		if !ok {
			log.Error("invalid type assertion for telegram user data")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		var fallbackReferrer *int64
		if raw := c.Query("referrerId"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				log.Info("ignoring malformed referrerId parameter", zap.String("referrerId", raw))
			} else {
				fallbackReferrer = &id
			}
		}

		identity := service.TelegramIdentity{
			ID:        telegramUser.ID,
			Username:  telegramUser.Username,
			FirstName: telegramUser.FirstName,
		}

		user, err := p.userService.ProvisionUser(c.Request.Context(), identity, fallbackReferrer)
		if err != nil {
			log.Error("failed to provision user", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to provision user"})
			return
		}

		c.Set("current_user", user)
		c.Next()
	}
}
