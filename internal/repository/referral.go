package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"BC_telegram_miniapp/internal/model"

	"github.com/Masterminds/squirrel"
)

type pendingReferral struct {
	NewUserID  int64     `db:"new_user_telegram_id"`
	ReferrerID int64     `db:"referrer_telegram_id"`
	Processed  bool      `db:"processed"`
	CreatedAt  time.Time `db:"created_at"`
}

// UpsertPendingReferral stores the bot-observed referral claim. While the row
// is still unprocessed a later /start with a different referrer overwrites it
// (last referrer wins); a processed row is never touched again.
func (r *Repository) UpsertPendingReferral(ctx context.Context, newUserID, referrerID int64) error {
	query, args, err := squirrel.
		Insert("pending_referrals").
		SetMap(map[string]interface{}{
			"new_user_telegram_id": newUserID,
			"referrer_telegram_id": referrerID,
			"processed":            false,
		}).
		Suffix(`ON CONFLICT (new_user_telegram_id) DO UPDATE
			SET referrer_telegram_id = EXCLUDED.referrer_telegram_id,
			    created_at = now()
			WHERE pending_referrals.processed = FALSE`).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build pending referral upsert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to upsert pending referral: %w", err)
	}
	return nil
}

// GetPendingReferral returns the unprocessed pending referral for a new user,
// or ErrNotFound.
func (r *Repository) GetPendingReferral(ctx context.Context, newUserID int64) (*model.PendingReferral, error) {
	query, args, err := squirrel.
		Select("new_user_telegram_id", "referrer_telegram_id", "processed", "created_at").
		From("pending_referrals").
		Where(squirrel.Eq{
			"new_user_telegram_id": newUserID,
			"processed":            false,
		}).
		OrderBy("created_at DESC").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row pendingReferral
	err = r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &model.PendingReferral{
		NewUserID:  row.NewUserID,
		ReferrerID: row.ReferrerID,
		Processed:  row.Processed,
		CreatedAt:  row.CreatedAt,
	}, nil
}

// ExpirePendingReferrals marks unprocessed pending referrals created before
// the cutoff as processed so they can never fire after the campaign window.
func (r *Repository) ExpirePendingReferrals(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args, err := squirrel.
		Update("pending_referrals").
		Set("processed", true).
		Where(squirrel.And{
			squirrel.Eq{"processed": false},
			squirrel.Lt{"created_at": cutoff},
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to expire pending referrals: %w", err)
	}
	return result.RowsAffected()
}
