package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/jmehdipour/shop-notifier/internal/model"
	"github.com/jmehdipour/shop-notifier/internal/repository"
	"github.com/jmehdipour/shop-notifier/internal/shopify"
	echo "github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func listDispatchesHandler(chRepo repository.DispatchesRepository, log *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		shop := strings.TrimSpace(c.QueryParam("shop"))
		if !shopify.ValidShopDomain(shop) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid shop"})
		}

		limit := 50
		offset := 0
		if v := c.QueryParam("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
				limit = n
			}
		}
		if v := c.QueryParam("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				offset = n
			}
		}

		var outcome model.Outcome
		if raw := strings.TrimSpace(c.QueryParam("outcome")); raw != "" {
			tmp := model.Outcome(raw)
			if tmp.Valid() {
				outcome = tmp
			}
		}

		rows, err := chRepo.ListByShop(c.Request().Context(), shop, outcome, limit, offset)
		if err != nil {
			log.Error("clickhouse list failed", zap.String("shop", shop), zap.Error(err))

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"limit":   limit,
			"offset":  offset,
			"count":   len(rows),
			"results": rows,
		})
	}
}
