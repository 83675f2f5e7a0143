package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"BC_telegram_miniapp/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type quest struct {
	ID           uuid.UUID `db:"quest_id"`
	Title        string    `db:"title"`
	Description  string    `db:"description"`
	PointsReward int       `db:"points_reward"`
	Type         string    `db:"quest_type"`
	IsActive     bool      `db:"is_active"`
	Payload      []byte    `db:"payload"`
	DayNumber    *int      `db:"day_number"`
	CreatedAt    time.Time `db:"created_at"`
}

type questWithCompletion struct {
	quest
	CompletedAt *time.Time `db:"completed_at"`
}

func (q *quest) toModel() (*model.Quest, error) {
	m := &model.Quest{
		ID:           q.ID,
		Title:        q.Title,
		Description:  q.Description,
		PointsReward: q.PointsReward,
		Type:         model.QuestType(q.Type),
		IsActive:     q.IsActive,
		DayNumber:    q.DayNumber,
		CreatedAt:    q.CreatedAt,
	}
	if len(q.Payload) > 0 {
		if err := json.Unmarshal(q.Payload, &m.Payload); err != nil {
			return nil, fmt.Errorf("malformed payload for quest %s: %w", q.ID, err)
		}
	}
	return m, nil
}

func (r *Repository) CreateQuest(ctx context.Context, q *model.Quest) error {
	payload, err := json.Marshal(q.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal quest payload: %w", err)
	}

	query, args, err := squirrel.
		Insert("quests").
		SetMap(map[string]interface{}{
			"quest_id":      q.ID,
			"title":         q.Title,
			"description":   q.Description,
			"points_reward": q.PointsReward,
			"quest_type":    string(q.Type),
			"is_active":     q.IsActive,
			"payload":       payload,
			"day_number":    q.DayNumber,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build quest insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert quest: %w", err)
	}
	return nil
}

func (r *Repository) GetQuestByID(ctx context.Context, questID uuid.UUID) (*model.Quest, error) {
	query, args, err := squirrel.
		Select("*").
		From("quests").
		Where(squirrel.Eq{"quest_id": questID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var q quest
	err = r.db.GetContext(ctx, &q, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQuestNotFound
		}
		return nil, err
	}
	return q.toModel()
}

// GetActiveQuests returns all active quests annotated with the user's
// completion state.
func (r *Repository) GetActiveQuests(ctx context.Context, telegramID int64) ([]*model.QuestStatus, error) {
	query := squirrel.Select(
		"q.quest_id",
		"q.title",
		"q.description",
		"q.points_reward",
		"q.quest_type",
		"q.is_active",
		"q.payload",
		"q.day_number",
		"q.created_at",
		"uq.completed_at",
	).
		From("quests q").
		LeftJoin("user_quests uq ON uq.quest_id = q.quest_id AND uq.user_id = ?", telegramID).
		Where(squirrel.Eq{"q.is_active": true}).
		OrderBy("q.created_at", "q.quest_id").
		PlaceholderFormat(squirrel.Dollar)

	sqlQuery, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build quests query: %w", err)
	}

	var rows []*questWithCompletion
	err = r.db.SelectContext(ctx, &rows, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get quests: %w", err)
	}

	statuses := make([]*model.QuestStatus, len(rows))
	for i, row := range rows {
		q, err := row.toModel()
		if err != nil {
			return nil, err
		}
		statuses[i] = &model.QuestStatus{
			Quest:       q,
			IsCompleted: row.CompletedAt != nil,
			CompletedAt: row.CompletedAt,
		}
	}
	return statuses, nil
}

// GetAllQuests returns every quest regardless of activity flag.
func (r *Repository) GetAllQuests(ctx context.Context) ([]*model.Quest, error) {
	query, args, err := squirrel.
		Select("*").
		From("quests").
		OrderBy("created_at", "quest_id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []*quest
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get quests: %w", err)
	}

	quests := make([]*model.Quest, len(rows))
	for i, row := range rows {
		q, err := row.toModel()
		if err != nil {
			return nil, err
		}
		quests[i] = q
	}
	return quests, nil
}

func (r *Repository) SetQuestActive(ctx context.Context, questID uuid.UUID, active bool) error {
	query, args, err := squirrel.
		Update("quests").
		Set("is_active", active).
		Where(squirrel.Eq{"quest_id": questID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update quest: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrQuestNotFound
	}
	return nil
}

// GetSocialQuestsByChatID finds social follow quests tied to a chat, for the
// membership-lost reversal path.
func (r *Repository) GetSocialQuestsByChatID(ctx context.Context, chatID int64) ([]*model.Quest, error) {
	query, args, err := squirrel.
		Select("*").
		From("quests").
		Where(squirrel.And{
			squirrel.Eq{"quest_type": string(model.QuestTypeSocialFollow)},
			squirrel.Expr("payload->>'chat_id' = ?", strconv.FormatInt(chatID, 10)),
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []*quest
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get social quests: %w", err)
	}

	quests := make([]*model.Quest, len(rows))
	for i, row := range rows {
		q, err := row.toModel()
		if err != nil {
			return nil, err
		}
		quests[i] = q
	}
	return quests, nil
}

func (r *Repository) IsQuestCompleted(ctx context.Context, telegramID int64, questID uuid.UUID) (bool, error) {
	query, args, err := squirrel.
		Select("1").
		From("user_quests").
		Where(squirrel.Eq{
			"user_id":  telegramID,
			"quest_id": questID,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return false, err
	}

	var one int
	err = r.db.GetContext(ctx, &one, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CompleteQuest records the completion and grants the reward atomically. The
// completion insert uses ON CONFLICT DO NOTHING on the (user, quest) primary
// key, so a concurrent duplicate attempt observes zero affected rows and the
// whole transaction, points included, is abandoned without side effects.
func (r *Repository) CompleteQuest(ctx context.Context, telegramID int64, questID uuid.UUID, reward int, reason model.Reason) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Insert("user_quests").
			SetMap(map[string]interface{}{
				"user_id":  telegramID,
				"quest_id": questID,
			}).
			Suffix("ON CONFLICT (user_id, quest_id) DO NOTHING").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build completion insert query: %w", err)
		}

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to insert completion: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrAlreadyCompleted
		}

		return r.addPointsTx(ctx, tx, telegramID, reward, reason, &questID, nil)
	})
}

// ReverseCompletion undoes a quest completion: the completion row is deleted
// and the reward subtracted in one transaction. Returns ErrNotFound when the
// user never completed the quest.
func (r *Repository) ReverseCompletion(ctx context.Context, telegramID int64, questID uuid.UUID, reward int) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Delete("user_quests").
			Where(squirrel.Eq{
				"user_id":  telegramID,
				"quest_id": questID,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to delete completion: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrNotFound
		}

		return r.addPointsTx(ctx, tx, telegramID, -reward, model.ReasonLeftChannel, &questID, nil)
	})
}
