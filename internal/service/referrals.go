package service

import (
	"context"
	"fmt"
	"time"

	"BC_telegram_miniapp/pkg/logger"
	"go.uber.org/zap"
)

type ReferralService struct {
	repo ReferralRepository
}

func NewReferralService(repo ReferralRepository) *ReferralService {
	return &ReferralService{
		repo: repo,
	}
}

// NotePendingReferral records a bot-observed /start deep link claim.
// Self-referrals and claims naming a referrer that does not exist yet are
// dropped silently: the bot flow must never fail the user over a bad link.
func (s *ReferralService) NotePendingReferral(ctx context.Context, newUserID, referrerID int64) error {
	log := logger.Logger()

	if referrerID <= 0 || referrerID == newUserID {
		log.Info("ignoring invalid referral claim",
			zap.Int64("new_user_id", newUserID),
			zap.Int64("referrer_id", referrerID))
		return nil
	}

	exists, err := s.repo.UserExists(ctx, referrerID)
	if err != nil {
		return fmt.Errorf("failed to check referrer existence: %w", err)
	}
	if !exists {
		log.Info("ignoring referral claim from unknown referrer",
			zap.Int64("new_user_id", newUserID),
			zap.Int64("referrer_id", referrerID))
		return nil
	}

	err = s.repo.UpsertPendingReferral(ctx, newUserID, referrerID)
	if err != nil {
		return fmt.Errorf("failed to store pending referral: %w", err)
	}
	return nil
}

// ExpireStale retires unprocessed pending referrals created before cutoff.
func (s *ReferralService) ExpireStale(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := s.repo.ExpirePendingReferrals(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to expire pending referrals: %w", err)
	}
	return n, nil
}
