package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"BC_telegram_miniapp/internal/model"
	"BC_telegram_miniapp/internal/repository"
)

// CheckInReward is the fixed daily check-in grant.
const CheckInReward = 10

type CheckInService struct {
	repo UserRepository
}

func NewCheckInService(repo UserRepository) *CheckInService {
	return &CheckInService{
		repo: repo,
	}
}

// CheckIn awards the daily reward once per UTC day.
func (s *CheckInService) CheckIn(ctx context.Context, telegramID int64) (int, error) {
	err := s.repo.CheckIn(ctx, telegramID, CheckInReward, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			return 0, ErrUserNotFound
		case errors.Is(err, repository.ErrAlreadyCheckedIn):
			return 0, ErrCheckInNotAvailable
		default:
			return 0, fmt.Errorf("failed to check in: %w", err)
		}
	}
	return CheckInReward, nil
}

func (s *CheckInService) Status(ctx context.Context, telegramID int64) (*model.CheckInStatus, error) {
	user, err := s.repo.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	now := time.Now().UTC()
	status := &model.CheckInStatus{
		LastCheckIn: user.LastCheckIn,
		IsAvailable: true,
		Reward:      CheckInReward,
	}

	if user.LastCheckIn != nil {
		dayStart := now.Truncate(24 * time.Hour)
		if !user.LastCheckIn.UTC().Before(dayStart) {
			next := dayStart.Add(24 * time.Hour)
			status.IsAvailable = false
			status.NextAvailable = &next
		}
	}
	return status, nil
}
