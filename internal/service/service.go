package service

import (
	"context"
	"errors"
	"time"

	"BC_telegram_miniapp/internal/model"

	"github.com/google/uuid"
)

var (
	ErrInvalidIdentity     = errors.New("invalid telegram identity")
	ErrUserNotFound        = errors.New("user not found")
	ErrQuestNotFound       = errors.New("quest not found")
	ErrQuestNotAvailable   = errors.New("quest not yet available")
	ErrAlreadyCompleted    = errors.New("quest already completed")
	ErrIncorrectAnswer     = errors.New("incorrect answer")
	ErrNotVerified         = errors.New("membership not verified")
	ErrUIDAlreadySet       = errors.New("exchange uid already submitted")
	ErrCheckInNotAvailable = errors.New("daily check-in not available yet")
)

type Service struct {
	*UserService
	*QuestService
	*ReferralService
	*CheckInService
}

func NewService(us *UserService, qs *QuestService, rs *ReferralService, cs *CheckInService) *Service {
	return &Service{
		UserService:     us,
		QuestService:    qs,
		ReferralService: rs,
		CheckInService:  cs,
	}
}

type UserServiceI interface {
	ProvisionUser(ctx context.Context, identity TelegramIdentity, fallbackReferrerID *int64) (*model.User, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	UserExists(ctx context.Context, telegramID int64) (bool, error)
	GetProfile(ctx context.Context, telegramID int64) (*model.Profile, error)
	SubmitExchangeUID(ctx context.Context, telegramID int64, uid string) error
	GetLeaderboard(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error)
	GetUserReferrals(ctx context.Context, telegramID int64) ([]*model.UserReferral, error)
	GetUserTransactions(ctx context.Context, telegramID int64) ([]*model.PointTransaction, error)
	AdjustPoints(ctx context.Context, telegramID int64, delta int, reason model.Reason) error
}

type QuestServiceI interface {
	ListQuests(ctx context.Context, telegramID int64) ([]*model.QuestStatus, int, error)
	CompleteQuest(ctx context.Context, telegramID int64, questID uuid.UUID, answer string) (int, error)
	HandleMembershipLost(ctx context.Context, telegramID int64, chatID int64) error
	CreateQuest(ctx context.Context, quest *model.Quest) (uuid.UUID, error)
	SetQuestActive(ctx context.Context, questID uuid.UUID, active bool) error
	GetAllQuests(ctx context.Context) ([]*model.Quest, error)
}

type ReferralServiceI interface {
	NotePendingReferral(ctx context.Context, newUserID, referrerID int64) error
	ExpireStale(ctx context.Context, cutoff time.Time) (int64, error)
}

type CheckInServiceI interface {
	CheckIn(ctx context.Context, telegramID int64) (int, error)
	Status(ctx context.Context, telegramID int64) (*model.CheckInStatus, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User, inviteBonus int) (bool, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	UserExists(ctx context.Context, telegramID int64) (bool, error)
	GetPendingReferral(ctx context.Context, newUserID int64) (*model.PendingReferral, error)
	SetExchangeUID(ctx context.Context, telegramID int64, uid string) error
	GetProfile(ctx context.Context, telegramID int64) (*model.Profile, error)
	GetTopUsers(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error)
	GetUserReferrals(ctx context.Context, telegramID int64) ([]*model.UserReferral, error)
	GetUserTransactions(ctx context.Context, userID int64) ([]*model.PointTransaction, error)
	AddPoints(ctx context.Context, userID int64, delta int, reason model.Reason, relatedQuestID *uuid.UUID, relatedUserID *int64) error
	CheckIn(ctx context.Context, telegramID int64, reward int, now time.Time) error
}

type QuestRepository interface {
	GetQuestByID(ctx context.Context, questID uuid.UUID) (*model.Quest, error)
	GetActiveQuests(ctx context.Context, telegramID int64) ([]*model.QuestStatus, error)
	GetAllQuests(ctx context.Context) ([]*model.Quest, error)
	CreateQuest(ctx context.Context, quest *model.Quest) error
	SetQuestActive(ctx context.Context, questID uuid.UUID, active bool) error
	GetSocialQuestsByChatID(ctx context.Context, chatID int64) ([]*model.Quest, error)
	IsQuestCompleted(ctx context.Context, telegramID int64, questID uuid.UUID) (bool, error)
	CompleteQuest(ctx context.Context, telegramID int64, questID uuid.UUID, reward int, reason model.Reason) error
	ReverseCompletion(ctx context.Context, telegramID int64, questID uuid.UUID, reward int) error
	GetEventConfig(ctx context.Context) (*model.EventConfig, error)
}

type ReferralRepository interface {
	UserExists(ctx context.Context, telegramID int64) (bool, error)
	UpsertPendingReferral(ctx context.Context, newUserID, referrerID int64) error
	ExpirePendingReferrals(ctx context.Context, cutoff time.Time) (int64, error)
}

// MembershipVerifier checks membership in a Telegram chat via the bot API.
// It is consulted before the completion transaction, never inside it.
type MembershipVerifier interface {
	IsChatMember(ctx context.Context, chatID, userID int64) (bool, error)
}
