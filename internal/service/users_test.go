package service

import (
	"context"
	"testing"

	"BC_telegram_miniapp/internal/model"
	"BC_telegram_miniapp/internal/repository"
	"BC_telegram_miniapp/internal/service/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestUserService_ProvisionUser(t *testing.T) {
	referrer := int64(777)
	other := int64(888)

	tests := []struct {
		name             string
		identity         TelegramIdentity
		fallbackReferrer *int64
		setupMocks       func(mockRepo *mocks.MockUserRepository)
		expectedError    error
		expectedReferrer *int64
	}{
		{
			name:          "Invalid identity",
			identity:      TelegramIdentity{ID: 0},
			setupMocks:    func(mockRepo *mocks.MockUserRepository) {},
			expectedError: ErrInvalidIdentity,
		},
		{
			name:     "Existing user returned unchanged",
			identity: TelegramIdentity{ID: 100, Username: "alice"},
			setupMocks: func(mockRepo *mocks.MockUserRepository) {
				mockRepo.On("GetUserByTelegramID", mock.Anything, int64(100)).
					Return(&model.User{TelegramID: 100, Username: "alice", Points: 50}, nil).Once()
			},
		},
		{
			name:     "New user with pending referral",
			identity: TelegramIdentity{ID: 101, Username: "bob", FirstName: "Bob"},
			setupMocks: func(mockRepo *mocks.MockUserRepository) {
				mockRepo.On("GetUserByTelegramID", mock.Anything, int64(101)).
					Return(nil, repository.ErrNotFound).Once()
				mockRepo.On("GetPendingReferral", mock.Anything, int64(101)).
					Return(&model.PendingReferral{NewUserID: 101, ReferrerID: referrer}, nil)
				mockRepo.On("UserExists", mock.Anything, referrer).Return(true, nil)
				mockRepo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
					return u.TelegramID == 101 && u.ReferrerID != nil && *u.ReferrerID == referrer
				}), InviteBonusPoints).Return(true, nil)
				mockRepo.On("GetUserByTelegramID", mock.Anything, int64(101)).
					Return(&model.User{TelegramID: 101, ReferrerID: &referrer}, nil).Once()
			},
			expectedReferrer: &referrer,
		},
		{
			name:             "Pending referral wins over fallback",
			identity:         TelegramIdentity{ID: 102},
			fallbackReferrer: &other,
			setupMocks: func(mockRepo *mocks.MockUserRepository) {
				mockRepo.On("GetUserByTelegramID", mock.Anything, int64(102)).
					Return(nil, repository.ErrNotFound).Once()
				mockRepo.On("GetPendingReferral", mock.Anything, int64(102)).
					Return(&model.PendingReferral{NewUserID: 102, ReferrerID: referrer}, nil)
				mockRepo.On("UserExists", mock.Anything, referrer).Return(true, nil)
				mockRepo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
					return u.ReferrerID != nil && *u.ReferrerID == referrer
				}), InviteBonusPoints).Return(true, nil)
				mockRepo.On("GetUserByTelegramID", mock.Anything, int64(102)).
					Return(&model.User{TelegramID: 102, ReferrerID: &referrer}, nil).Once()
			},
			expectedReferrer: &referrer,
		},
		{
			name:             "Fallback referrer used when no pending referral",
			identity:         TelegramIdentity{ID: 103},
			fallbackReferrer: &other,
			setupMocks: func(mockRepo *mocks.MockUserRepository) {
				mockRepo.On("GetUserByTelegramID", mock.Anything, int64(103)).
					Return(nil, repository.ErrNotFound).Once()
				mockRepo.On("GetPendingReferral", mock.Anything, int64(103)).
					Return(nil, repository.ErrNotFound)
				mockRepo.On("UserExists", mock.Anything, other).Return(true, nil)
				mockRepo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
					return u.ReferrerID != nil && *u.ReferrerID == other
				}), InviteBonusPoints).Return(true, nil)
				mockRepo.On("GetUserByTelegramID", mock.Anything, int64(103)).
					Return(&model.User{TelegramID: 103, ReferrerID: &other}, nil).Once()
			},
			expectedReferrer: &other,
		},
		{
			name:     "Self-referral in pending record is ignored",
			identity: TelegramIdentity{ID: 104},
			setupMocks: func(mockRepo *mocks.MockUserRepository) {
				mockRepo.On("GetUserByTelegramID", mock.Anything, int64(104)).
					Return(nil, repository.ErrNotFound).Once()
				mockRepo.On("GetPendingReferral", mock.Anything, int64(104)).
					Return(&model.PendingReferral{NewUserID: 104, ReferrerID: 104}, nil)
				mockRepo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
					return u.ReferrerID == nil
				}), InviteBonusPoints).Return(true, nil)
				mockRepo.On("GetUserByTelegramID", mock.Anything, int64(104)).
					Return(&model.User{TelegramID: 104}, nil).Once()
			},
		},
		{
			name:     "Dangling pending referrer discarded",
			identity: TelegramIdentity{ID: 105},
			setupMocks: func(mockRepo *mocks.MockUserRepository) {
				mockRepo.On("GetUserByTelegramID", mock.Anything, int64(105)).
					Return(nil, repository.ErrNotFound).Once()
				mockRepo.On("GetPendingReferral", mock.Anything, int64(105)).
					Return(&model.PendingReferral{NewUserID: 105, ReferrerID: referrer}, nil)
				mockRepo.On("UserExists", mock.Anything, referrer).Return(false, nil)
				mockRepo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
					return u.ReferrerID == nil
				}), InviteBonusPoints).Return(true, nil)
				mockRepo.On("GetUserByTelegramID", mock.Anything, int64(105)).
					Return(&model.User{TelegramID: 105}, nil).Once()
			},
		},
		{
			name:     "Insert race loser reads existing row",
			identity: TelegramIdentity{ID: 106},
			setupMocks: func(mockRepo *mocks.MockUserRepository) {
				mockRepo.On("GetUserByTelegramID", mock.Anything, int64(106)).
					Return(nil, repository.ErrNotFound).Once()
				mockRepo.On("GetPendingReferral", mock.Anything, int64(106)).
					Return(nil, repository.ErrNotFound)
				mockRepo.On("CreateUser", mock.Anything, mock.Anything, InviteBonusPoints).
					Return(false, nil)
				mockRepo.On("GetUserByTelegramID", mock.Anything, int64(106)).
					Return(&model.User{TelegramID: 106, ReferrerID: &referrer}, nil).Once()
			},
			expectedReferrer: &referrer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockUserRepository{}
			tt.setupMocks(mockRepo)
			service := NewUserService(mockRepo)

			user, err := service.ProvisionUser(context.Background(), tt.identity, tt.fallbackReferrer)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, user)
				return
			}

			assert.NoError(t, err)
			assert.NotNil(t, user)
			assert.Equal(t, tt.identity.ID, user.TelegramID)
			if tt.expectedReferrer != nil {
				assert.NotNil(t, user.ReferrerID)
				assert.Equal(t, *tt.expectedReferrer, *user.ReferrerID)
			} else {
				assert.Nil(t, user.ReferrerID)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestUserService_SubmitExchangeUID(t *testing.T) {
	tests := []struct {
		name          string
		repoError     error
		expectedError error
	}{
		{name: "First submission accepted"},
		{
			name:          "Second submission rejected",
			repoError:     repository.ErrUIDAlreadySet,
			expectedError: ErrUIDAlreadySet,
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
			mockRepo.On("SetExchangeUID", mock.Anything, int64(42), "UID-1").Return(tt.repoError)
			service := NewUserService(mockRepo)

			err := service.SubmitExchangeUID(context.Background(), 42, "UID-1")

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestUserService_GetLeaderboard(t *testing.T) {
	mockRepo := &mocks.MockUserRepository{}
	service := NewUserService(mockRepo)

	entries := []*model.LeaderboardEntry{
		{TelegramID: 1, Points: 300},
		{TelegramID: 2, Points: 200},
	}

	// A non-positive limit falls back to the default page size.
	mockRepo.On("GetTopUsers", mock.Anything, 10).Return(entries, nil)

	got, err := service.GetLeaderboard(context.Background(), 0)
	assert.NoError(t, err)
	assert.Equal(t, entries, got)
	mockRepo.AssertExpectations(t)
}

func TestUserService_AdjustPoints(t *testing.T) {
	mockRepo := &mocks.MockUserRepository{}
	service := NewUserService(mockRepo)

	mockRepo.On("AddPoints", mock.Anything, int64(55), -40, model.ReasonDataRecovery,
		mock.Anything, mock.Anything).Return(nil)

	err := service.AdjustPoints(context.Background(), 55, -40, model.ReasonDataRecovery)
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}
