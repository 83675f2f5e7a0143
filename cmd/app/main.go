package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"BC_telegram_miniapp/internal/api"
	"BC_telegram_miniapp/internal/janitor"
	"BC_telegram_miniapp/internal/middleware"
	"BC_telegram_miniapp/internal/repository"
	"BC_telegram_miniapp/internal/service"
	"BC_telegram_miniapp/pkg/auth"
	"BC_telegram_miniapp/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	err = logger.Initialize(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zapLogger := logger.Logger()

	repo, err := repository.New(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	eventStart, err := cfg.Event.StartTime()
	if err != nil {
		zapLogger.Fatal("Failed to parse event start date", zap.Error(err))
	}
	event, err := repo.EnsureEventConfig(context.Background(), cfg.Event.Name, eventStart)
	if err != nil {
		zapLogger.Fatal("Failed to ensure event config", zap.Error(err))
	}
	zapLogger.Info("Event configured",
		zap.String("name", event.Name),
		zap.Time("start", event.StartDate),
		zap.Time("end", event.EndDate))

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramAuth.TelegramBotToken)
	if err != nil {
		zapLogger.Fatal("Failed to initialize telegram bot", zap.Error(err))
	}

	verifier := service.NewTelegramVerifier(bot)

	userService := service.NewUserService(repo)
	questService := service.NewQuestService(repo, verifier)
	referralService := service.NewReferralService(repo)
	checkInService := service.NewCheckInService(repo)

	j := janitor.New(referralService)
	j.Start()
	defer j.Stop()

	telegramAuth := auth.NewTelegramAuth(cfg.TelegramAuth.TelegramBotToken, cfg.TelegramAuth.DebugMode)
	provision := middleware.NewProvision(userService)
	authorization := middleware.NewAuthorization(userService)

	router := gin.New()
	router.Use(gin.Recovery())

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{
		http.MethodHead,
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
	}
	config.AllowHeaders = []string{"*"}
	config.AllowCredentials = true
	config.MaxAge = 12 * time.Hour

	router.Use(cors.New(config))

	a := router.Group("/api/v1")
	api.NewUserRoutes(a, userService, telegramAuth, provision, authorization)
	api.NewQuestRoutes(a, questService, telegramAuth, provision, authorization)
	api.NewCheckInRoutes(a, checkInService, telegramAuth, provision)
	api.NewTelegramRoutes(a, userService, questService, referralService, bot,
		cfg.TelegramAuth.WebAppURL, cfg.TelegramAuth.WebhookSecret)
	api.NewLeaderboardWSRoutes(a, userService)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	zapLogger.Info("Starting server", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		zapLogger.Fatal("Failed to start server", zap.Error(err))
	}
}
