package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmehdipour/shop-notifier/internal/model"
	"github.com/jmoiron/sqlx"
)

// SessionsRepository stores the offline Admin API token of each installed shop.
type SessionsRepository interface {
	Get(ctx context.Context, shop string) (*model.ShopSession, error)
	Upsert(ctx context.Context, s model.ShopSession) error
}

type SessionsRepositoryImpl struct {
	db *sqlx.DB
}

func NewSessionsRepository(db *sqlx.DB) *SessionsRepositoryImpl {
	return &SessionsRepositoryImpl{db: db}
}

var _ SessionsRepository = (*SessionsRepositoryImpl)(nil)

func (r *SessionsRepositoryImpl) Get(ctx context.Context, shop string) (*model.ShopSession, error) {
	var s model.ShopSession
	err := r.db.GetContext(ctx, &s, `
		SELECT shop, access_token, scope, created_at, updated_at
		  FROM shop_sessions
		 WHERE shop = ? LIMIT 1
	`, shop)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionsRepositoryImpl) Upsert(ctx context.Context, s model.ShopSession) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO shop_sessions (shop, access_token, scope, created_at, updated_at)
		VALUES (?, ?, ?, NOW(), NOW())
		ON DUPLICATE KEY UPDATE
		    access_token = VALUES(access_token),
		    scope        = VALUES(scope),
		    updated_at   = VALUES(updated_at)
	`, s.Shop, s.AccessToken, s.Scope)
	return err
}
