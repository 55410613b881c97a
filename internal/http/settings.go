package http

import (
	"net/http"
	"strings"

	"github.com/jmehdipour/shop-notifier/internal/model"
	"github.com/jmehdipour/shop-notifier/internal/repository"
	"github.com/jmehdipour/shop-notifier/internal/shopify"
	echo "github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type settingsReq struct {
	PhoneID              string `json:"phone_id"`
	AccessToken          string `json:"access_token"`
	ConfirmationTemplate string `json:"confirmation_template"`
	FulfillmentTemplate  string `json:"fulfillment_template"`
}

func getSettingsHandler(settings repository.SettingsRepository, log *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		shop := strings.TrimSpace(c.Param("shop"))
		if !shopify.ValidShopDomain(shop) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid shop"})
		}

		s, err := settings.Get(c.Request().Context(), shop)
		if err != nil {
			log.Error("settings get failed", zap.String("shop", shop), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}
		if s == nil {
			return c.JSON(http.StatusOK, model.TenantSettings{Shop: shop})
		}

		return c.JSON(http.StatusOK, s.Masked())
	}
}

// putSettingsHandler saves a shop's settings. A blank or still-masked access
// token leaves the stored token untouched.
func putSettingsHandler(settings repository.SettingsRepository, log *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		shop := strings.TrimSpace(c.Param("shop"))
		if !shopify.ValidShopDomain(shop) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid shop"})
		}

		var req settingsReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		token := strings.TrimSpace(req.AccessToken)
		if model.IsMaskedToken(token) {
			token = ""
		}

		s := model.TenantSettings{
			Shop:                 shop,
			PhoneID:              strings.TrimSpace(req.PhoneID),
			AccessToken:          token,
			ConfirmationTemplate: strings.TrimSpace(req.ConfirmationTemplate),
			FulfillmentTemplate:  strings.TrimSpace(req.FulfillmentTemplate),
		}
		if err := settings.Upsert(c.Request().Context(), s); err != nil {
			log.Error("settings upsert failed", zap.String("shop", shop), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}

		return c.JSON(http.StatusOK, map[string]any{"success": true})
	}
}
