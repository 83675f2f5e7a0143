package service

import (
	"context"
	"errors"
	"fmt"

	"BC_telegram_miniapp/internal/model"
	"BC_telegram_miniapp/internal/repository"
	"BC_telegram_miniapp/pkg/logger"
	"go.uber.org/zap"
)

// InviteBonusPoints is the flat reward a referrer receives when a user they
// invited is provisioned for the first time.
const InviteBonusPoints = 100

// TelegramIdentity is the caller-supplied identity extracted from validated
// Mini App init data.
type TelegramIdentity struct {
	ID        int64
	Username  string
	FirstName string
}

type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{
		repo: repo,
	}
}

// ProvisionUser is the idempotent get-or-create gate every authenticated
// request passes through. On first sight of an identity it resolves the
// referrer, inserts the user row and grants the invite bonus; afterwards it
// only returns the existing row. The referrer, once set, never changes.
func (s *UserService) ProvisionUser(ctx context.Context, identity TelegramIdentity, fallbackReferrerID *int64) (*model.User, error) {
	if identity.ID == 0 {
		return nil, ErrInvalidIdentity
	}

	user, err := s.repo.GetUserByTelegramID(ctx, identity.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	referrerID, err := s.resolveReferrer(ctx, identity.ID, fallbackReferrerID)
	if err != nil {
		return nil, err
	}

	newUser := &model.User{
		TelegramID: identity.ID,
		Username:   identity.Username,
		FirstName:  identity.FirstName,
		ReferrerID: referrerID,
	}

	created, err := s.repo.CreateUser(ctx, newUser, InviteBonusPoints)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if created {
		logger.Logger().Info("provisioned new user",
			zap.Int64("telegram_id", identity.ID),
			zap.Int64p("referrer_id", referrerID))
	}

	// Either we created the row or a concurrent call won the insert race;
	// the persisted row is authoritative in both cases.
	user, err = s.repo.GetUserByTelegramID(ctx, identity.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read back user: %w", err)
	}
	return user, nil
}

// resolveReferrer applies the attribution priority: the bot-recorded pending
// referral first, the web-app fallback second. Self-referrals and referrers
// that no longer exist degrade to "no referrer" rather than failing.
func (s *UserService) resolveReferrer(ctx context.Context, newUserID int64, fallbackID *int64) (*int64, error) {
	log := logger.Logger()

	pending, err := s.repo.GetPendingReferral(ctx, newUserID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up pending referral: %w", err)
	}
	if err == nil && pending.ReferrerID != newUserID {
		exists, err := s.repo.UserExists(ctx, pending.ReferrerID)
		if err != nil {
			return nil, fmt.Errorf("failed to check referrer existence: %w", err)
		}
		if exists {
			id := pending.ReferrerID
			return &id, nil
		}
		log.Warn("discarding pending referral with unknown referrer",
			zap.Int64("new_user_id", newUserID),
			zap.Int64("referrer_id", pending.ReferrerID))
	}

	if fallbackID != nil && *fallbackID > 0 && *fallbackID != newUserID {
		exists, err := s.repo.UserExists(ctx, *fallbackID)
		if err != nil {
			return nil, fmt.Errorf("failed to check fallback referrer existence: %w", err)
		}
		if exists {
			return fallbackID, nil
		}
		log.Warn("discarding unknown fallback referrer",
			zap.Int64("new_user_id", newUserID),
			zap.Int64("referrer_id", *fallbackID))
	}

	return nil, nil
}

func (s *UserService) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	user, err := s.repo.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *UserService) UserExists(ctx context.Context, telegramID int64) (bool, error) {
	return s.repo.UserExists(ctx, telegramID)
}

func (s *UserService) GetProfile(ctx context.Context, telegramID int64) (*model.Profile, error) {
	profile, err := s.repo.GetProfile(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

func (s *UserService) SubmitExchangeUID(ctx context.Context, telegramID int64, uid string) error {
	err := s.repo.SetExchangeUID(ctx, telegramID, uid)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			return ErrUserNotFound
		case errors.Is(err, repository.ErrUIDAlreadySet):
			return ErrUIDAlreadySet
		default:
			return fmt.Errorf("failed to submit exchange uid: %w", err)
		}
	}
	return nil
}

func (s *UserService) GetLeaderboard(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	entries, err := s.repo.GetTopUsers(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	return entries, nil
}

func (s *UserService) GetUserReferrals(ctx context.Context, telegramID int64) ([]*model.UserReferral, error) {
	referrals, err := s.repo.GetUserReferrals(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user referrals: %w", err)
	}
	return referrals, nil
}

// GetUserTransactions exposes the user's point ledger, newest first.
func (s *UserService) GetUserTransactions(ctx context.Context, telegramID int64) ([]*model.PointTransaction, error) {
	transactions, err := s.repo.GetUserTransactions(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	return transactions, nil
}

// AdjustPoints applies a manual correction to a user's balance, typically
// with reason data_recovery. It goes through the same ledger path as every
// other grant.
func (s *UserService) AdjustPoints(ctx context.Context, telegramID int64, delta int, reason model.Reason) error {
	err := s.repo.AddPoints(ctx, telegramID, delta, reason, nil, nil)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to adjust points: %w", err)
	}
	return nil
}
