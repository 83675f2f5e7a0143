package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"BC_telegram_miniapp/internal/model"
	"BC_telegram_miniapp/internal/repository"
	"BC_telegram_miniapp/pkg/logger"
	"go.uber.org/zap"

	"github.com/google/uuid"
)

type QuestService struct {
	repo     QuestRepository
	verifier MembershipVerifier
}

func NewQuestService(repo QuestRepository, verifier MembershipVerifier) *QuestService {
	return &QuestService{
		repo:     repo,
		verifier: verifier,
	}
}

// ListQuests returns all active quests annotated for the user, plus the
// current event day used for gating.
func (s *QuestService) ListQuests(ctx context.Context, telegramID int64) ([]*model.QuestStatus, int, error) {
	cfg, err := s.repo.GetEventConfig(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get event config: %w", err)
	}
	day := cfg.CurrentDay(time.Now().UTC())

	statuses, err := s.repo.GetActiveQuests(ctx, telegramID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get quests: %w", err)
	}

	for _, status := range statuses {
		status.IsAvailable = status.Quest.DayNumber == nil || *status.Quest.DayNumber <= day
	}
	return statuses, day, nil
}

// CompleteQuest runs the completion gate: the quest must exist and be active,
// a day-numbered quest must have unlocked, the user must not have completed
// it before, the answer (if required) must match, and a chat-bound social
// quest must pass membership verification. Only then is the reward granted,
// atomically with the completion record.
func (s *QuestService) CompleteQuest(ctx context.Context, telegramID int64, questID uuid.UUID, answer string) (int, error) {
	quest, err := s.repo.GetQuestByID(ctx, questID)
	if err != nil {
		if errors.Is(err, repository.ErrQuestNotFound) {
			return 0, ErrQuestNotFound
		}
		return 0, fmt.Errorf("failed to get quest: %w", err)
	}
	if !quest.IsActive {
		return 0, ErrQuestNotFound
	}

	if quest.DayNumber != nil {
		cfg, err := s.repo.GetEventConfig(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to get event config: %w", err)
		}
		if *quest.DayNumber > cfg.CurrentDay(time.Now().UTC()) {
			return 0, ErrQuestNotAvailable
		}
	}

	completed, err := s.repo.IsQuestCompleted(ctx, telegramID, questID)
	if err != nil {
		return 0, fmt.Errorf("failed to check completion: %w", err)
	}
	if completed {
		return 0, ErrAlreadyCompleted
	}

	if quest.Type.RequiresAnswer() {
		if !answersMatch(answer, quest.Payload.Answer) {
			return 0, ErrIncorrectAnswer
		}
	}

	if quest.Type == model.QuestTypeSocialFollow && quest.Payload.ChatID != 0 {
		member, err := s.verifier.IsChatMember(ctx, quest.Payload.ChatID, telegramID)
		if err != nil {
			return 0, fmt.Errorf("failed to verify membership: %w", err)
		}
		if !member {
			return 0, ErrNotVerified
		}
	}

	err = s.repo.CompleteQuest(ctx, telegramID, questID, quest.PointsReward, model.QuestCompletionReason(quest.Type))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyCompleted):
			return 0, ErrAlreadyCompleted
		case errors.Is(err, repository.ErrUserNotFound):
			return 0, ErrUserNotFound
		default:
			return 0, fmt.Errorf("failed to complete quest: %w", err)
		}
	}

	return quest.PointsReward, nil
}

// HandleMembershipLost reverses any completed social follow quest tied to the
// chat the user just left: the completion record is removed and the reward
// subtracted through the ledger.
func (s *QuestService) HandleMembershipLost(ctx context.Context, telegramID int64, chatID int64) error {
	log := logger.Logger()

	quests, err := s.repo.GetSocialQuestsByChatID(ctx, chatID)
	if err != nil {
		return fmt.Errorf("failed to find quests for chat: %w", err)
	}

	for _, quest := range quests {
		err := s.repo.ReverseCompletion(ctx, telegramID, quest.ID, quest.PointsReward)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return fmt.Errorf("failed to reverse completion of quest %s: %w", quest.ID, err)
		}
		log.Info("reversed quest completion after channel leave",
			zap.Int64("telegram_id", telegramID),
			zap.Int64("chat_id", chatID),
			zap.String("quest_id", quest.ID.String()),
			zap.Int("points_removed", quest.PointsReward))
	}
	return nil
}

func (s *QuestService) CreateQuest(ctx context.Context, quest *model.Quest) (uuid.UUID, error) {
	if quest.ID == uuid.Nil {
		quest.ID = uuid.New()
	}
	if err := s.repo.CreateQuest(ctx, quest); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create quest: %w", err)
	}
	return quest.ID, nil
}

func (s *QuestService) SetQuestActive(ctx context.Context, questID uuid.UUID, active bool) error {
	err := s.repo.SetQuestActive(ctx, questID, active)
	if err != nil {
		if errors.Is(err, repository.ErrQuestNotFound) {
			return ErrQuestNotFound
		}
		return fmt.Errorf("failed to toggle quest: %w", err)
	}
	return nil
}

func (s *QuestService) GetAllQuests(ctx context.Context) ([]*model.Quest, error) {
	return s.repo.GetAllQuests(ctx)
}

func answersMatch(given, expected string) bool {
	return strings.EqualFold(strings.TrimSpace(given), strings.TrimSpace(expected))
}
