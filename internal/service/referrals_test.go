package service

import (
	"context"
	"testing"
	"time"

	"BC_telegram_miniapp/internal/service/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestReferralService_NotePendingReferral(t *testing.T) {
	tests := []struct {
		name       string
		newUserID  int64
		referrerID int64
		setupMocks func(mockRepo *mocks.MockReferralRepository)
	}{
		{
			name:       "Valid claim is stored",
			newUserID:  200,
			referrerID: 100,
			setupMocks: func(mockRepo *mocks.MockReferralRepository) {
				mockRepo.On("UserExists", mock.Anything, int64(100)).Return(true, nil)
				mockRepo.On("UpsertPendingReferral", mock.Anything, int64(200), int64(100)).Return(nil)
			},
		},
		{
			name:       "Self-referral dropped",
			newUserID:  200,
			referrerID: 200,
			setupMocks: func(mockRepo *mocks.MockReferralRepository) {},
		},
		{
			name:       "Non-positive referrer dropped",
			newUserID:  200,
			referrerID: 0,
			setupMocks: func(mockRepo *mocks.MockReferralRepository) {},
		},
		{
			name:       "Unknown referrer dropped",
			newUserID:  200,
			referrerID: 100,
			setupMocks: func(mockRepo *mocks.MockReferralRepository) {
				mockRepo.On("UserExists", mock.Anything, int64(100)).Return(false, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockReferralRepository{}
			tt.setupMocks(mockRepo)
			service := NewReferralService(mockRepo)

			err := service.NotePendingReferral(context.Background(), tt.newUserID, tt.referrerID)

			assert.NoError(t, err)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestReferralService_ExpireStale(t *testing.T) {
	mockRepo := &mocks.MockReferralRepository{}
	service := NewReferralService(mockRepo)

	cutoff := time.Now().UTC().Add(-30 * 24 * time.Hour)
	mockRepo.On("ExpirePendingReferrals", mock.Anything, cutoff).Return(int64(3), nil)

	n, err := service.ExpireStale(context.Background(), cutoff)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
	mockRepo.AssertExpectations(t)
}
