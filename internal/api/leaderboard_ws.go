package api

import (
	"context"
	"net/http"
	"time"

	"BC_telegram_miniapp/internal/service"
	"BC_telegram_miniapp/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const leaderboardPushInterval = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type leaderboardWSRoutes struct {
	us    service.UserServiceI
	limit int
}

// NewLeaderboardWSRoutes exposes a push feed of leaderboard snapshots so the
// Mini App can render live standings without polling.
func NewLeaderboardWSRoutes(handler *gin.RouterGroup, us service.UserServiceI) {
	r := &leaderboardWSRoutes{us: us, limit: 10}
	handler.GET("/ws/leaderboard", r.handleWebSocket)
}

func (r *leaderboardWSRoutes) handleWebSocket(c *gin.Context) {
	log := logger.Logger()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	go r.leaderboardLoop(conn)
}

type leaderboardMessage struct {
	Type        string             `json:"type"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
	SentAt      time.Time          `json:"sent_at"`
}

func (r *leaderboardWSRoutes) leaderboardLoop(conn *websocket.Conn) {
	log := logger.Logger()
	defer conn.Close()

	// Discard inbound frames; close shuts the loop down.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(leaderboardPushInterval)
	defer ticker.Stop()

	if err := r.pushSnapshot(conn); err != nil {
		return
	}

	for range ticker.C {
		if err := r.pushSnapshot(conn); err != nil {
			log.Debug("leaderboard push stopped", zap.Error(err))
			return
		}
	}
}

func (r *leaderboardWSRoutes) pushSnapshot(conn *websocket.Conn) error {
	entries, err := r.us.GetLeaderboard(context.TODO(), r.limit)
	if err != nil {
		return err
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

	msg := leaderboardMessage{
		Type:        "leaderboard_snapshot",
		Leaderboard: out,
		SentAt:      time.Now().UTC(),
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return conn.WriteMessage(websocket.TextMessage, payload)
}
