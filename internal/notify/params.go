package notify

import (
	"strings"

	"github.com/jmehdipour/shop-notifier/internal/model"
)

const (
	FallbackCustomerName   = "Valued Customer"
	FallbackTrackingNumber = "N/A"
	FallbackTrackingURL    = "Tracking info will be updated soon"
)

// Parameter order matches the {{1}}..{{4}} placeholders of the approved templates.

// OrderConfirmationParams fills name, order, "<total> <currency>" and product summary.
func OrderConfirmationParams(firstName, orderName, totalPrice, currency, productSummary string) []model.TextParameter {
	return []model.TextParameter{
		model.Text(or(firstName, FallbackCustomerName)),
		model.Text(orderName),
		model.Text(strings.TrimSpace(totalPrice + " " + currency)),
		model.Text(productSummary),
	}
}

// FulfillmentParams fills name, order, tracking number and tracking link.
func FulfillmentParams(firstName, orderName, trackingNumber, trackingURL string) []model.TextParameter {
	return []model.TextParameter{
		model.Text(or(firstName, FallbackCustomerName)),
		model.Text(orderName),
		model.Text(or(trackingNumber, FallbackTrackingNumber)),
		model.Text(or(trackingURL, FallbackTrackingURL)),
	}
}

func or(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
