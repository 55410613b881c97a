package repository

import (
	"context"

	"github.com/jmehdipour/shop-notifier/internal/model"
	"github.com/jmoiron/sqlx"
)

// DispatchesRepository keeps the journal of handled events in ClickHouse.
type DispatchesRepository interface {
	Insert(ctx context.Context, rec model.DispatchRecord) error
	ListByShop(ctx context.Context, shop string, outcome model.Outcome, limit, offset int) ([]model.DispatchRecord, error)
}

type chDispatchesRepository struct {
	ch *sqlx.DB // ClickHouse connection
}

func NewDispatchesRepository(ch *sqlx.DB) DispatchesRepository {
	return &chDispatchesRepository{ch: ch}
}

func (r *chDispatchesRepository) Insert(ctx context.Context, rec model.DispatchRecord) error {
	_, err := r.ch.ExecContext(ctx, `
		INSERT INTO shopnotify.dispatches (id, shop, topic, outcome, reason, recipient, template, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Shop, rec.Topic, rec.Outcome.String(), rec.Reason, rec.Recipient, rec.Template, rec.CreatedAt)
	return err
}

func (r *chDispatchesRepository) ListByShop(ctx context.Context, shop string, outcome model.Outcome, limit, offset int) ([]model.DispatchRecord, error) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	q := `
		SELECT id, shop, topic, outcome, reason, recipient, template, created_at
		FROM shopnotify.dispatches
		WHERE shop = ?
	`
	args := []any{shop}

	if outcome != "" {
		q += " AND outcome = ?"
		args = append(args, outcome.String())
	}

	q += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	var rows []model.DispatchRecord
	if err := r.ch.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}
