package mocks

import (
	"context"
	"time"

	"BC_telegram_miniapp/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *model.User, inviteBonus int) (bool, error) {
	args := m.Called(ctx, user, inviteBonus)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) UserExists(ctx context.Context, telegramID int64) (bool, error) {
	args := m.Called(ctx, telegramID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) GetPendingReferral(ctx context.Context, newUserID int64) (*model.PendingReferral, error) {
	args := m.Called(ctx, newUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PendingReferral), args.Error(1)
}

func (m *MockUserRepository) SetExchangeUID(ctx context.Context, telegramID int64, uid string) error {
	args := m.Called(ctx, telegramID, uid)
	return args.Error(0)
}

func (m *MockUserRepository) GetProfile(ctx context.Context, telegramID int64) (*model.Profile, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *MockUserRepository) GetTopUsers(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.LeaderboardEntry), args.Error(1)
}

func (m *MockUserRepository) GetUserReferrals(ctx context.Context, telegramID int64) ([]*model.UserReferral, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.UserReferral), args.Error(1)
}

func (m *MockUserRepository) GetUserTransactions(ctx context.Context, userID int64) ([]*model.PointTransaction, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PointTransaction), args.Error(1)
}

func (m *MockUserRepository) AddPoints(ctx context.Context, userID int64, delta int, reason model.Reason, relatedQuestID *uuid.UUID, relatedUserID *int64) error {
	args := m.Called(ctx, userID, delta, reason, relatedQuestID, relatedUserID)
	return args.Error(0)
}

func (m *MockUserRepository) CheckIn(ctx context.Context, telegramID int64, reward int, now time.Time) error {
	args := m.Called(ctx, telegramID, reward, now)
	return args.Error(0)
}

type MockQuestRepository struct {
	mock.Mock
}

func (m *MockQuestRepository) GetQuestByID(ctx context.Context, questID uuid.UUID) (*model.Quest, error) {
	args := m.Called(ctx, questID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Quest), args.Error(1)
}

func (m *MockQuestRepository) GetActiveQuests(ctx context.Context, telegramID int64) ([]*model.QuestStatus, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.QuestStatus), args.Error(1)
}

func (m *MockQuestRepository) GetAllQuests(ctx context.Context) ([]*model.Quest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Quest), args.Error(1)
}

func (m *MockQuestRepository) CreateQuest(ctx context.Context, quest *model.Quest) error {
	args := m.Called(ctx, quest)
	return args.Error(0)
}

func (m *MockQuestRepository) SetQuestActive(ctx context.Context, questID uuid.UUID, active bool) error {
	args := m.Called(ctx, questID, active)
	return args.Error(0)
}

func (m *MockQuestRepository) GetSocialQuestsByChatID(ctx context.Context, chatID int64) ([]*model.Quest, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Quest), args.Error(1)
}

func (m *MockQuestRepository) IsQuestCompleted(ctx context.Context, telegramID int64, questID uuid.UUID) (bool, error) {
	args := m.Called(ctx, telegramID, questID)
	return args.Bool(0), args.Error(1)
}

func (m *MockQuestRepository) CompleteQuest(ctx context.Context, telegramID int64, questID uuid.UUID, reward int, reason model.Reason) error {
	args := m.Called(ctx, telegramID, questID, reward, reason)
	return args.Error(0)
}

func (m *MockQuestRepository) ReverseCompletion(ctx context.Context, telegramID int64, questID uuid.UUID, reward int) error {
	args := m.Called(ctx, telegramID, questID, reward)
	return args.Error(0)
}

func (m *MockQuestRepository) GetEventConfig(ctx context.Context) (*model.EventConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EventConfig), args.Error(1)
}

type MockReferralRepository struct {
	mock.Mock
}

func (m *MockReferralRepository) UserExists(ctx context.Context, telegramID int64) (bool, error) {
	args := m.Called(ctx, telegramID)
	return args.Bool(0), args.Error(1)
}

func (m *MockReferralRepository) UpsertPendingReferral(ctx context.Context, newUserID, referrerID int64) error {
	args := m.Called(ctx, newUserID, referrerID)
	return args.Error(0)
}

func (m *MockReferralRepository) ExpirePendingReferrals(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type MockMembershipVerifier struct {
	mock.Mock
}

func (m *MockMembershipVerifier) IsChatMember(ctx context.Context, chatID, userID int64) (bool, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Bool(0), args.Error(1)
}
