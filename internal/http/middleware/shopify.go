package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/jmehdipour/shop-notifier/internal/shopify"
	echo "github.com/labstack/echo/v4"
)

const (
	ctxShop    = "shop"
	ctxRawBody = "raw_body"

	maxWebhookBody = 2 << 20
)

// ShopFromCtx returns the verified shop domain set by ShopifyWebhookMiddleware.
func ShopFromCtx(c echo.Context) (string, bool) {
	shop, ok := c.Get(ctxShop).(string)
	return shop, ok && shop != ""
}

// RawBodyFromCtx returns the verified request body.
func RawBodyFromCtx(c echo.Context) []byte {
	b, _ := c.Get(ctxRawBody).([]byte)
	return b
}

// ShopifyWebhookMiddleware verifies X-Shopify-Hmac-Sha256 against the raw
// body and establishes the shop context. Anything that cannot be verified
// is answered with 404.
func ShopifyWebhookMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			body, err := io.ReadAll(io.LimitReader(req.Body, maxWebhookBody))
			if err != nil {
				return c.String(http.StatusNotFound, "Not Found")
			}
			req.Body = io.NopCloser(bytes.NewReader(body))

			if !shopify.VerifyWebhook(secret, body, req.Header.Get(shopify.HeaderHmac)) {
				return c.String(http.StatusNotFound, "Not Found")
			}

			shop := strings.TrimSpace(req.Header.Get(shopify.HeaderShop))
			if !shopify.ValidShopDomain(shop) {
				return c.String(http.StatusNotFound, "Webhook authenticated but no shop found.")
			}

			c.Set(ctxShop, shop)
			c.Set(ctxRawBody, body)
			return next(c)
		}
	}
}
