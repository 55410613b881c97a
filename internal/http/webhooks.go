package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/jmehdipour/shop-notifier/internal/dispatcher"
	"github.com/jmehdipour/shop-notifier/internal/http/middleware"
	"github.com/jmehdipour/shop-notifier/internal/model"
	"github.com/jmehdipour/shop-notifier/internal/shopify"
	"github.com/jmehdipour/shop-notifier/internal/util"
	echo "github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type EventHandler interface {
	Handle(ctx context.Context, ev dispatcher.Event) (dispatcher.Result, error)
}

// AdminSource hands out an order lookup client for a shop.
type AdminSource interface {
	ForShop(ctx context.Context, shop string) (dispatcher.OrderLookup, error)
}

func webhookHandler(events EventHandler, admins AdminSource, log *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		shop, ok := middleware.ShopFromCtx(c)
		if !ok {
			return c.String(http.StatusNotFound, "Webhook authenticated but no shop found.")
		}

		req := c.Request()
		topic, raw := model.ParseTopic(req.Header.Get(shopify.HeaderTopic))
		ev := dispatcher.Event{
			ID:       util.IDOr(req.Header.Get(shopify.HeaderWebhookID)),
			Topic:    topic,
			RawTopic: raw,
			Shop:     shop,
			Payload:  middleware.RawBodyFromCtx(c),
		}

		// only fulfillments need the Admin API
		if topic == model.TopicFulfillmentsCreate && admins != nil {
			admin, err := admins.ForShop(req.Context(), shop)
			switch {
			case errors.Is(err, shopify.ErrNoSession):
				log.Warn("no admin session for shop", zap.String("shop", shop))
			case err != nil:
				log.Error("could not resolve admin client",
					zap.String("event_id", ev.ID),
					zap.String("shop", shop),
					zap.Error(err),
				)
				return c.String(http.StatusInternalServerError, err.Error())
			default:
				ev.Admin = admin
			}
		}

		if _, err := events.Handle(req.Context(), ev); err != nil {
			log.Error("could not process webhook",
				zap.String("event_id", ev.ID),
				zap.String("shop", shop),
				zap.String("topic", raw),
				zap.Error(err),
			)
			return c.String(http.StatusInternalServerError, err.Error())
		}

		return c.String(http.StatusOK, "Webhook processed.")
	}
}

func notFound(c echo.Context) error {
	return c.String(http.StatusNotFound, "Not Found")
}
