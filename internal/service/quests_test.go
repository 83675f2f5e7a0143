package service

import (
	"context"
	"testing"
	"time"

	"BC_telegram_miniapp/internal/model"
	"BC_telegram_miniapp/internal/repository"
	"BC_telegram_miniapp/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func eventStartedDaysAgo(days int) *model.EventConfig {
	start := time.Now().UTC().Add(-time.Duration(days) * 24 * time.Hour)
	return &model.EventConfig{
		ID:        1,
		Name:      "launch",
		StartDate: start,
		EndDate:   start.AddDate(0, 0, model.EventDurationDays),
	}
}

func TestQuestService_CompleteQuest(t *testing.T) {
	questID := uuid.New()
	userID := int64(123)
	day5 := 5

	tests := []struct {
		name           string
		answer         string
		setupMocks     func(repo *mocks.MockQuestRepository, verifier *mocks.MockMembershipVerifier)
		expectedError  error
		expectedReward int
	}{
		{
			name: "Quest not found",
			setupMocks: func(repo *mocks.MockQuestRepository, verifier *mocks.MockMembershipVerifier) {
				repo.On("GetQuestByID", mock.Anything, questID).
					Return(nil, repository.ErrQuestNotFound)
			},
			expectedError: ErrQuestNotFound,
		},
		{
			name: "Inactive quest treated as missing",
			setupMocks: func(repo *mocks.MockQuestRepository, verifier *mocks.MockMembershipVerifier) {
				repo.On("GetQuestByID", mock.Anything, questID).
					Return(&model.Quest{ID: questID, IsActive: false, PointsReward: 50}, nil)
			},
			expectedError: ErrQuestNotFound,
		},
		{
			name: "Day-gated quest not yet unlocked",
			setupMocks: func(repo *mocks.MockQuestRepository, verifier *mocks.MockMembershipVerifier) {
				repo.On("GetQuestByID", mock.Anything, questID).
					Return(&model.Quest{
						ID: questID, IsActive: true, PointsReward: 50,
						Type: model.QuestTypeDaily, DayNumber: &day5,
						Payload: model.QuestPayload{Answer: "go"},
					}, nil)
				repo.On("GetEventConfig", mock.Anything).Return(eventStartedDaysAgo(2), nil)
			},
			expectedError: ErrQuestNotAvailable,
		},
		{
			name: "Already completed",
			setupMocks: func(repo *mocks.MockQuestRepository, verifier *mocks.MockMembershipVerifier) {
				repo.On("GetQuestByID", mock.Anything, questID).
					Return(&model.Quest{
						ID: questID, IsActive: true, PointsReward: 50,
						Type: model.QuestTypeSocialFollow,
					}, nil)
				repo.On("IsQuestCompleted", mock.Anything, userID, questID).Return(true, nil)
			},
			expectedError: ErrAlreadyCompleted,
		},
		{
			name:   "Incorrect answer",
			answer: "rust",
			setupMocks: func(repo *mocks.MockQuestRepository, verifier *mocks.MockMembershipVerifier) {
				repo.On("GetQuestByID", mock.Anything, questID).
					Return(&model.Quest{
						ID: questID, IsActive: true, PointsReward: 50,
						Type:    model.QuestTypeQA,
						Payload: model.QuestPayload{Question: "best language?", Answer: "go"},
					}, nil)
				repo.On("IsQuestCompleted", mock.Anything, userID, questID).Return(false, nil)
			},
			expectedError: ErrIncorrectAnswer,
		},
		{
			name:   "Answer match is case-insensitive",
			answer: "  GO ",
			setupMocks: func(repo *mocks.MockQuestRepository, verifier *mocks.MockMembershipVerifier) {
				repo.On("GetQuestByID", mock.Anything, questID).
					Return(&model.Quest{
						ID: questID, IsActive: true, PointsReward: 50,
						Type:    model.QuestTypeQA,
						Payload: model.QuestPayload{Question: "best language?", Answer: "go"},
					}, nil)
				repo.On("IsQuestCompleted", mock.Anything, userID, questID).Return(false, nil)
				repo.On("CompleteQuest", mock.Anything, userID, questID, 50,
					model.QuestCompletionReason(model.QuestTypeQA)).Return(nil)
			},
			expectedReward: 50,
		},
		{
			name: "Social quest fails verification",
			setupMocks: func(repo *mocks.MockQuestRepository, verifier *mocks.MockMembershipVerifier) {
				repo.On("GetQuestByID", mock.Anything, questID).
					Return(&model.Quest{
						ID: questID, IsActive: true, PointsReward: 80,
						Type:    model.QuestTypeSocialFollow,
						Payload: model.QuestPayload{ChatID: -100500},
					}, nil)
				repo.On("IsQuestCompleted", mock.Anything, userID, questID).Return(false, nil)
				verifier.On("IsChatMember", mock.Anything, int64(-100500), userID).Return(false, nil)
			},
			expectedError: ErrNotVerified,
		},
		{
			name: "Social quest completes when member",
			setupMocks: func(repo *mocks.MockQuestRepository, verifier *mocks.MockMembershipVerifier) {
				repo.On("GetQuestByID", mock.Anything, questID).
					Return(&model.Quest{
						ID: questID, IsActive: true, PointsReward: 80,
						Type:    model.QuestTypeSocialFollow,
						Payload: model.QuestPayload{ChatID: -100500},
					}, nil)
				repo.On("IsQuestCompleted", mock.Anything, userID, questID).Return(false, nil)
				verifier.On("IsChatMember", mock.Anything, int64(-100500), userID).Return(true, nil)
				repo.On("CompleteQuest", mock.Anything, userID, questID, 80,
					model.QuestCompletionReason(model.QuestTypeSocialFollow)).Return(nil)
			},
			expectedReward: 80,
		},
		{
			name:   "Completion race reports already completed",
			answer: "go",
			setupMocks: func(repo *mocks.MockQuestRepository, verifier *mocks.MockMembershipVerifier) {
				repo.On("GetQuestByID", mock.Anything, questID).
					Return(&model.Quest{
						ID: questID, IsActive: true, PointsReward: 50,
						Type:    model.QuestTypeQA,
						Payload: model.QuestPayload{Answer: "go"},
					}, nil)
				repo.On("IsQuestCompleted", mock.Anything, userID, questID).Return(false, nil)
				repo.On("CompleteQuest", mock.Anything, userID, questID, 50,
					model.QuestCompletionReason(model.QuestTypeQA)).
					Return(repository.ErrAlreadyCompleted)
			},
			expectedError: ErrAlreadyCompleted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockQuestRepository{}
			mockVerifier := &mocks.MockMembershipVerifier{}
			tt.setupMocks(mockRepo, mockVerifier)
			service := NewQuestService(mockRepo, mockVerifier)

			reward, err := service.CompleteQuest(context.Background(), userID, questID, tt.answer)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Zero(t, reward)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedReward, reward)
			}

			mockRepo.AssertExpectations(t)
			mockVerifier.AssertExpectations(t)
		})
	}
}

func TestQuestService_ListQuests(t *testing.T) {
	mockRepo := &mocks.MockQuestRepository{}
	mockVerifier := &mocks.MockMembershipVerifier{}
	service := NewQuestService(mockRepo, mockVerifier)

	day3 := 3
	day20 := 20
	statuses := []*model.QuestStatus{
		{Quest: &model.Quest{ID: uuid.New(), Type: model.QuestTypeQA}},
		{Quest: &model.Quest{ID: uuid.New(), Type: model.QuestTypeDaily, DayNumber: &day3}},
		{Quest: &model.Quest{ID: uuid.New(), Type: model.QuestTypeDaily, DayNumber: &day20}},
	}

	mockRepo.On("GetEventConfig", mock.Anything).Return(eventStartedDaysAgo(4), nil)
	mockRepo.On("GetActiveQuests", mock.Anything, int64(9)).Return(statuses, nil)

	got, day, err := service.ListQuests(context.Background(), 9)
	assert.NoError(t, err)
	assert.Equal(t, 5, day)
	assert.True(t, got[0].IsAvailable)
	assert.True(t, got[1].IsAvailable)
	assert.False(t, got[2].IsAvailable)
	mockRepo.AssertExpectations(t)
}

func TestQuestService_HandleMembershipLost(t *testing.T) {
	mockRepo := &mocks.MockQuestRepository{}
	mockVerifier := &mocks.MockMembershipVerifier{}
	service := NewQuestService(mockRepo, mockVerifier)

	chatID := int64(-100500)
	completedQuest := &model.Quest{ID: uuid.New(), Type: model.QuestTypeSocialFollow, PointsReward: 80}
	untouchedQuest := &model.Quest{ID: uuid.New(), Type: model.QuestTypeSocialFollow, PointsReward: 30}

	mockRepo.On("GetSocialQuestsByChatID", mock.Anything, chatID).
		Return([]*model.Quest{completedQuest, untouchedQuest}, nil)
	mockRepo.On("ReverseCompletion", mock.Anything, int64(7), completedQuest.ID, 80).Return(nil)
	mockRepo.On("ReverseCompletion", mock.Anything, int64(7), untouchedQuest.ID, 30).
		Return(repository.ErrNotFound)

	err := service.HandleMembershipLost(context.Background(), 7, chatID)
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}
