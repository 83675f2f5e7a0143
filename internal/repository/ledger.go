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
)

type pointTransaction struct {
	ID             int64      `db:"id"`
	UserID         int64      `db:"user_id"`
	Delta          int        `db:"points_change"`
	Reason         string     `db:"reason"`
	RelatedQuestID *uuid.UUID `db:"related_quest_id"`
	RelatedUserID  *int64     `db:"related_user_id"`
	CreatedAt      time.Time  `db:"created_at"`
}

// AddPoints atomically applies delta to the user's balance, appends the audit
// row and, when the reason cascades, credits the user's referrer with the 10%
// bonus in the same transaction.
func (r *Repository) AddPoints(ctx context.Context, userID int64, delta int, reason model.Reason, relatedQuestID *uuid.UUID, relatedUserID *int64) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		return r.addPointsTx(ctx, tx, userID, delta, reason, relatedQuestID, relatedUserID)
	})
}

// addPointsTx is the transactional body of AddPoints, shared with the other
// mutations (user creation, quest completion, check-in) that grant points as
// part of a larger atomic unit.
func (r *Repository) addPointsTx(ctx context.Context, tx *sqlx.Tx, userID int64, delta int, reason model.Reason, relatedQuestID *uuid.UUID, relatedUserID *int64) error {
	if err := r.adjustBalanceTx(ctx, tx, userID, delta); err != nil {
		return err
	}

	if err := r.insertTransactionTx(ctx, tx, userID, delta, reason, relatedQuestID, relatedUserID); err != nil {
		return err
	}

	if !reason.Cascades() {
		return nil
	}

	referrerID, err := r.referrerOfTx(ctx, tx, userID)
	if err != nil {
		return err
	}
	if referrerID == nil {
		return nil
	}

	bonus := model.ReferralBonus(delta)
	if bonus <= 0 {
		return nil
	}

	if err := r.adjustBalanceTx(ctx, tx, *referrerID, bonus); err != nil {
		return err
	}
	return r.insertTransactionTx(ctx, tx, *referrerID, bonus, model.ReasonReferralBonus, nil, &userID)
}

func (r *Repository) adjustBalanceTx(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error {
	query, args, err := squirrel.
		Update("users").
		Set("points", squirrel.Expr("points + ?", delta)).
		Where(squirrel.Eq{"telegram_id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update points: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *Repository) insertTransactionTx(ctx context.Context, tx *sqlx.Tx, userID int64, delta int, reason model.Reason, relatedQuestID *uuid.UUID, relatedUserID *int64) error {
	query, args, err := squirrel.
		Insert("point_transactions").
		SetMap(map[string]interface{}{
			"user_id":          userID,
			"points_change":    delta,
			"reason":           string(reason),
			"related_quest_id": relatedQuestID,
			"related_user_id":  relatedUserID,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert point transaction: %w", err)
	}
	return nil
}

func (r *Repository) referrerOfTx(ctx context.Context, tx *sqlx.Tx, userID int64) (*int64, error) {
	query, args, err := squirrel.
		Select("referrer_id").
		From("users").
		Where(squirrel.Eq{"telegram_id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var referrerID *int64
	err = tx.GetContext(ctx, &referrerID, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return referrerID, nil
}

// GetUserTransactions returns the audit ledger for a user, newest first.
func (r *Repository) GetUserTransactions(ctx context.Context, userID int64) ([]*model.PointTransaction, error) {
	query, args, err := squirrel.
		Select("id", "user_id", "points_change", "reason", "related_quest_id", "related_user_id", "created_at").
		From("point_transactions").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []*pointTransaction
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get point transactions: %w", err)
	}

	transactions := make([]*model.PointTransaction, len(rows))
	for i, row := range rows {
		transactions[i] = &model.PointTransaction{
			ID:             row.ID,
			UserID:         row.UserID,
			Delta:          row.Delta,
			Reason:         model.Reason(row.Reason),
			RelatedQuestID: row.RelatedQuestID,
			RelatedUserID:  row.RelatedUserID,
			CreatedAt:      row.CreatedAt,
		}
	}
	return transactions, nil
}
