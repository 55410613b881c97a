package dispatcher

import (
	"context"

	"github.com/jmehdipour/shop-notifier/internal/model"
)

// SettingsStore returns the shop's settings, or (nil, nil) when none are saved.
type SettingsStore interface {
	Get(ctx context.Context, shop string) (*model.TenantSettings, error)
}

// OrderLookup resolves an order by its Admin API GID. A nil result with a nil
// error means the order does not exist.
type OrderLookup interface {
	FetchOrderByGID(ctx context.Context, gid string) (*model.OrderDetails, error)
}

// Messenger delivers one template message. It normalizes the recipient itself.
type Messenger interface {
	Send(ctx context.Context, settings model.TenantSettings, to, templateName string, params []model.TextParameter) error
}

// Observer is told about every event the dispatcher finished without an unexpected error.
type Observer interface {
	Observe(ctx context.Context, ev Event, res Result)
}
