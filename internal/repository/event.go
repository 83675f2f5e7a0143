package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"BC_telegram_miniapp/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

type eventConfig struct {
	ID        int       `db:"id"`
	Name      string    `db:"event_name"`
	StartDate time.Time `db:"start_date"`
	EndDate   time.Time `db:"end_date"`
	CreatedAt time.Time `db:"created_at"`
}

func (r *Repository) GetEventConfig(ctx context.Context) (*model.EventConfig, error) {
	query, args, err := squirrel.
		Select("*").
		From("event_config").
		Where(squirrel.Eq{"id": 1}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row eventConfig
	err = r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &model.EventConfig{
		ID:        row.ID,
		Name:      row.Name,
		StartDate: row.StartDate,
		EndDate:   row.EndDate,
		CreatedAt: row.CreatedAt,
	}, nil
}

// EnsureEventConfig creates the singleton campaign row on first startup. An
// existing row is left untouched so redeploys never shift the event window.
func (r *Repository) EnsureEventConfig(ctx context.Context, name string, start time.Time) (*model.EventConfig, error) {
	end := start.AddDate(0, 0, model.EventDurationDays)

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Insert("event_config").
			SetMap(map[string]interface{}{
				"id":         1,
				"event_name": name,
				"start_date": start,
				"end_date":   end,
			}).
			Suffix("ON CONFLICT (id) DO NOTHING").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build event config insert query: %w", err)
		}

		_, err = tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to insert event config: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.GetEventConfig(ctx)
}
