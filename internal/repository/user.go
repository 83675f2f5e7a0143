package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"BC_telegram_miniapp/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type user struct {
	TelegramID  int64      `db:"telegram_id"`
	Username    *string    `db:"username"`
	FirstName   *string    `db:"first_name"`
	Points      int        `db:"points"`
	ExchangeUID *string    `db:"exchange_uid"`
	ReferrerID  *int64     `db:"referrer_id"`
	IsAdmin     bool       `db:"is_admin"`
	LastCheckIn *time.Time `db:"last_check_in"`
	CreatedAt   time.Time  `db:"created_at"`
}

func (u *user) toModel() *model.User {
	m := &model.User{
		TelegramID:  u.TelegramID,
		Points:      u.Points,
		ExchangeUID: u.ExchangeUID,
		ReferrerID:  u.ReferrerID,
		IsAdmin:     u.IsAdmin,
		LastCheckIn: u.LastCheckIn,
		CreatedAt:   u.CreatedAt,
	}
	if u.Username != nil {
		m.Username = *u.Username
	}
	if u.FirstName != nil {
		m.FirstName = *u.FirstName
	}
	return m
}

// CreateUser inserts the user row, and, when the insert wins and a referrer
// was resolved, grants the invite bonus and consumes the pending referral in
// the same transaction. The insert uses ON CONFLICT DO NOTHING so a
// concurrent duplicate call loses the race cleanly: created=false, no bonus,
// and the caller re-reads the winner's row.
func (r *Repository) CreateUser(ctx context.Context, u *model.User, inviteBonus int) (created bool, err error) {
	err = r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Insert("users").
			SetMap(map[string]interface{}{
				"telegram_id": u.TelegramID,
				"username":    nullString(u.Username),
				"first_name":  nullString(u.FirstName),
				"referrer_id": u.ReferrerID,
			}).
			Suffix("ON CONFLICT (telegram_id) DO NOTHING").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build user insert query: %w", err)
		}

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to insert user: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return nil
		}
		created = true

		if u.ReferrerID == nil {
			return nil
		}

		err = r.addPointsTx(ctx, tx, *u.ReferrerID, inviteBonus, model.ReasonSuccessfulInvite, nil, &u.TelegramID)
		if err != nil {
			return fmt.Errorf("failed to grant invite bonus: %w", err)
		}

		markQuery, markArgs, err := squirrel.
			Update("pending_referrals").
			Set("processed", true).
			Where(squirrel.Eq{
				"new_user_telegram_id": u.TelegramID,
				"referrer_telegram_id": *u.ReferrerID,
				"processed":            false,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build pending referral update query: %w", err)
		}

		_, err = tx.ExecContext(ctx, markQuery, markArgs...)
		if err != nil {
			return fmt.Errorf("failed to mark pending referral processed: %w", err)
		}

		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

func (r *Repository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	var u user
	query, args, err := squirrel.
		Select("*").
		From("users").
		Where(squirrel.Eq{"telegram_id": telegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &u, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return u.toModel(), nil
}

func (r *Repository) UserExists(ctx context.Context, telegramID int64) (bool, error) {
	query, args, err := squirrel.
		Select("1").
		From("users").
		Where(squirrel.Eq{"telegram_id": telegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return false, err
	}

	var exists int
	err = r.db.GetContext(ctx, &exists, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// SetExchangeUID stores the write-once exchange UID. The WHERE clause makes
// the write-once rule atomic: a second submission matches no rows.
func (r *Repository) SetExchangeUID(ctx context.Context, telegramID int64, uid string) error {
	query, args, err := squirrel.
		Update("users").
		Set("exchange_uid", uid).
		Where(squirrel.And{
			squirrel.Eq{"telegram_id": telegramID},
			squirrel.Eq{"exchange_uid": nil},
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to set exchange uid: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		exists, err := r.UserExists(ctx, telegramID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrUserNotFound
		}
		return ErrUIDAlreadySet
	}
	return nil
}

type profileRow struct {
	TelegramID    int64          `db:"telegram_id"`
	Username      *string        `db:"username"`
	FirstName     *string        `db:"first_name"`
	Points        int            `db:"points"`
	ExchangeUID   *string        `db:"exchange_uid"`
	ReferralCount int            `db:"referral_count"`
	QuestIDs      pq.StringArray `db:"completed_quest_ids"`
}

func (r *Repository) GetProfile(ctx context.Context, telegramID int64) (*model.Profile, error) {
	query := squirrel.Select(
		"u.telegram_id",
		"u.username",
		"u.first_name",
		"u.points",
		"u.exchange_uid",
		"(SELECT COUNT(*) FROM users WHERE referrer_id = u.telegram_id) AS referral_count",
		"array_remove(array_agg(uq.quest_id::text), NULL) AS completed_quest_ids",
	).
		From("users u").
		LeftJoin("user_quests uq ON uq.user_id = u.telegram_id").
		Where(squirrel.Eq{"u.telegram_id": telegramID}).
		GroupBy("u.telegram_id").
		PlaceholderFormat(squirrel.Dollar)

	sqlQuery, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build profile query: %w", err)
	}

	var row profileRow
	err = r.db.GetContext(ctx, &row, sqlQuery, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	questIDs := make([]uuid.UUID, 0, len(row.QuestIDs))
	for _, raw := range row.QuestIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("malformed quest id %q in completions: %w", raw, err)
		}
		questIDs = append(questIDs, id)
	}

	profile := &model.Profile{
		TelegramID:        row.TelegramID,
		Points:            row.Points,
		ExchangeUIDSet:    row.ExchangeUID != nil,
		ReferralCount:     row.ReferralCount,
		CompletedQuestIDs: questIDs,
	}
	if row.Username != nil {
		profile.Username = *row.Username
	}
	if row.FirstName != nil {
		profile.FirstName = *row.FirstName
	}
	return profile, nil
}

type leaderboardRow struct {
	TelegramID int64   `db:"telegram_id"`
	Username   *string `db:"username"`
	FirstName  *string `db:"first_name"`
	Points     int     `db:"points"`
}

// GetTopUsers returns the leaderboard, ties broken by telegram id ascending.
func (r *Repository) GetTopUsers(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error) {
	query, args, err := squirrel.
		Select("telegram_id", "username", "first_name", "points").
		From("users").
		OrderBy("points DESC", "telegram_id ASC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []leaderboardRow
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get top users: %w", err)
	}

	entries := make([]*model.LeaderboardEntry, len(rows))
	for i, row := range rows {
		entries[i] = &model.LeaderboardEntry{
			TelegramID: row.TelegramID,
			Points:     row.Points,
		}
		if row.Username != nil {
			entries[i].Username = *row.Username
		}
		if row.FirstName != nil {
			entries[i].FirstName = *row.FirstName
		}
	}
	return entries, nil
}

type userReferralRow struct {
	TelegramID  int64     `db:"telegram_id"`
	Username    *string   `db:"username"`
	FirstName   *string   `db:"first_name"`
	Points      int       `db:"points"`
	BonusEarned int       `db:"bonus_earned"`
	CreatedAt   time.Time `db:"created_at"`
}

// GetUserReferrals lists users referred by telegramID along with the
// referral_bonus total the referrer earned from each of them.
func (r *Repository) GetUserReferrals(ctx context.Context, telegramID int64) ([]*model.UserReferral, error) {
	query := squirrel.Select(
		"u.telegram_id",
		"u.username",
		"u.first_name",
		"u.points",
		`COALESCE((
			SELECT SUM(pt.points_change)
			FROM point_transactions pt
			WHERE pt.user_id = u.referrer_id
			  AND pt.reason = 'referral_bonus'
			  AND pt.related_user_id = u.telegram_id
		), 0) AS bonus_earned`,
		"u.created_at",
	).
		From("users u").
		Where(squirrel.Eq{"u.referrer_id": telegramID}).
		OrderBy("u.created_at DESC").
		PlaceholderFormat(squirrel.Dollar)

	sqlQuery, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build referrals query: %w", err)
	}

	var rows []*userReferralRow
	err = r.db.SelectContext(ctx, &rows, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get user referrals: %w", err)
	}

	referrals := make([]*model.UserReferral, len(rows))
	for i, row := range rows {
		referrals[i] = &model.UserReferral{
			TelegramID:  row.TelegramID,
			Points:      row.Points,
			BonusEarned: row.BonusEarned,
			CreatedAt:   row.CreatedAt,
		}
		if row.Username != nil {
			referrals[i].Username = *row.Username
		}
		if row.FirstName != nil {
			referrals[i].FirstName = *row.FirstName
		}
	}
	return referrals, nil
}

// CheckIn awards the daily check-in reward once per UTC day. The conditional
// UPDATE and the point grant share one transaction, so two concurrent
// check-ins cannot both pass the gate.
func (r *Repository) CheckIn(ctx context.Context, telegramID int64, reward int, now time.Time) error {
	dayStart := now.UTC().Truncate(24 * time.Hour)

	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Update("users").
			Set("last_check_in", now.UTC()).
			Where(squirrel.And{
				squirrel.Eq{"telegram_id": telegramID},
				squirrel.Or{
					squirrel.Eq{"last_check_in": nil},
					squirrel.Lt{"last_check_in": dayStart},
				},
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to update last check-in: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			var one int
			checkQuery, checkArgs, err := squirrel.
				Select("1").
				From("users").
				Where(squirrel.Eq{"telegram_id": telegramID}).
				PlaceholderFormat(squirrel.Dollar).
				ToSql()
			if err != nil {
				return err
			}
			err = tx.GetContext(ctx, &one, checkQuery, checkArgs...)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return ErrUserNotFound
				}
				return err
			}
			return ErrAlreadyCheckedIn
		}

		return r.addPointsTx(ctx, tx, telegramID, reward, model.ReasonDailyCheckIn, nil, nil)
	})
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
