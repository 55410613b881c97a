package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmehdipour/shop-notifier/internal/model"
	"github.com/jmoiron/sqlx"
)

type SettingsRepository interface {
	// Get returns (nil, nil) when the shop has never saved settings.
	Get(ctx context.Context, shop string) (*model.TenantSettings, error)
	// Upsert writes all fields; an empty AccessToken keeps the stored one.
	Upsert(ctx context.Context, s model.TenantSettings) error
}

type SettingsRepositoryImpl struct {
	db *sqlx.DB
}

func NewSettingsRepository(db *sqlx.DB) *SettingsRepositoryImpl {
	return &SettingsRepositoryImpl{db: db}
}

var _ SettingsRepository = (*SettingsRepositoryImpl)(nil)

func (r *SettingsRepositoryImpl) Get(ctx context.Context, shop string) (*model.TenantSettings, error) {
	var s model.TenantSettings
	err := r.db.GetContext(ctx, &s, `
		SELECT shop, phone_id, access_token, confirmation_template, fulfillment_template, created_at, updated_at
		  FROM whatsapp_settings
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

func (r *SettingsRepositoryImpl) Upsert(ctx context.Context, s model.TenantSettings) error {
	const q = `
		INSERT INTO whatsapp_settings
		    (shop, phone_id, access_token, confirmation_template, fulfillment_template, created_at, updated_at)
		VALUES
		    (?,    ?,        ?,            ?,                     ?,                    NOW(),      NOW())
		ON DUPLICATE KEY UPDATE
		    phone_id              = VALUES(phone_id),
		    access_token          = IF(VALUES(access_token) = '', access_token, VALUES(access_token)),
		    confirmation_template = VALUES(confirmation_template),
		    fulfillment_template  = VALUES(fulfillment_template),
		    updated_at            = VALUES(updated_at)
	`
	_, err := r.db.ExecContext(ctx, q,
		s.Shop, s.PhoneID, s.AccessToken, s.ConfirmationTemplate, s.FulfillmentTemplate,
	)
	return err
}
