package service

import (
	"context"
	"testing"
	"time"

	"BC_telegram_miniapp/internal/model"
	"BC_telegram_miniapp/internal/repository"
	"BC_telegram_miniapp/internal/service/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestCheckInService_CheckIn(t *testing.T) {
	tests := []struct {
		name           string
		repoError      error
		expectedError  error
		expectedReward int
	}{
		{name: "Successful check-in", expectedReward: CheckInReward},
		{
			name:          "Already checked in today",
			repoError:     repository.ErrAlreadyCheckedIn,
			expectedError: ErrCheckInNotAvailable,
		},
		{
			name:          "Unknown user",
			repoError:     repository.ErrUserNotFound,
			expectedError: ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockUserRepository{}
			mockRepo.On("CheckIn", mock.Anything, int64(42), CheckInReward, mock.Anything).
				Return(tt.repoError)
			service := NewCheckInService(mockRepo)

			reward, err := service.CheckIn(context.Background(), 42)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Zero(t, reward)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedReward, reward)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestCheckInService_Status(t *testing.T) {
	now := time.Now().UTC()
	today := now.Truncate(24 * time.Hour).Add(time.Hour)
	yesterday := now.Truncate(24 * time.Hour).Add(-2 * time.Hour)

	tests := []struct {
		name              string
		lastCheckIn       *time.Time
		expectedAvailable bool
	}{
		{name: "Never checked in", lastCheckIn: nil, expectedAvailable: true},
		{name: "Checked in yesterday", lastCheckIn: &yesterday, expectedAvailable: true},
		{name: "Checked in today", lastCheckIn: &today, expectedAvailable: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockUserRepository{}
			mockRepo.On("GetUserByTelegramID", mock.Anything, int64(42)).
				Return(&model.User{TelegramID: 42, LastCheckIn: tt.lastCheckIn}, nil)
			service := NewCheckInService(mockRepo)

			status, err := service.Status(context.Background(), 42)

			assert.NoError(t, err)
			assert.Equal(t, tt.expectedAvailable, status.IsAvailable)
			assert.Equal(t, CheckInReward, status.Reward)
			if !tt.expectedAvailable {
				assert.NotNil(t, status.NextAvailable)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}
