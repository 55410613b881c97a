package model

import (
	"bytes"
	"encoding/json"
	"strings"
)

type Topic string

const (
	TopicAppUninstalled     Topic = "APP_UNINSTALLED"
	TopicOrdersCreate       Topic = "ORDERS_CREATE"
	TopicFulfillmentsCreate Topic = "FULFILLMENTS_CREATE"
	TopicOther              Topic = "OTHER"
)

func (t Topic) String() string { return string(t) }

// ParseTopic accepts both the enum form (ORDERS_CREATE) and the header form (orders/create).
// Unknown topics map to TopicOther; the raw value is returned for logging.
func ParseTopic(raw string) (Topic, string) {
	s := strings.TrimSpace(raw)
	norm := strings.ToUpper(strings.NewReplacer("/", "_", ".", "_").Replace(s))
	switch Topic(norm) {
	case TopicAppUninstalled, TopicOrdersCreate, TopicFulfillmentsCreate:
		return Topic(norm), s
	default:
		return TopicOther, s
	}
}

type Customer struct {
	FirstName string `json:"first_name"`
	Phone     string `json:"phone"`
}

type LineItem struct {
	Title string `json:"title"`
}

// OrderPayload is the subset of the orders/create webhook body the notifier reads.
type OrderPayload struct {
	Name       string     `json:"name"`
	Customer   *Customer  `json:"customer"`
	Phone      string     `json:"phone"`
	TotalPrice string     `json:"total_price"`
	Currency   string     `json:"currency"`
	LineItems  []LineItem `json:"line_items"`
}

// CustomerPhone prefers the customer's phone and falls back to the order phone.
func (o OrderPayload) CustomerPhone() string {
	if o.Customer != nil && strings.TrimSpace(o.Customer.Phone) != "" {
		return strings.TrimSpace(o.Customer.Phone)
	}
	return strings.TrimSpace(o.Phone)
}

func (o OrderPayload) FirstName() string {
	if o.Customer == nil {
		return ""
	}
	return strings.TrimSpace(o.Customer.FirstName)
}

func (o OrderPayload) Titles() []string {
	titles := make([]string, 0, len(o.LineItems))
	for _, li := range o.LineItems {
		titles = append(titles, li.Title)
	}
	return titles
}

// FlexID decodes an id sent either as a JSON number or a JSON string.
type FlexID string

func (id *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = FlexID(n.String())
	return nil
}

func (id FlexID) String() string { return string(id) }

// FulfillmentPayload is the subset of the fulfillments/create webhook body the notifier reads.
type FulfillmentPayload struct {
	OrderID        FlexID `json:"order_id"`
	TrackingNumber string `json:"tracking_number"`
	TrackingURL    string `json:"tracking_url"`
}

// OrderCustomer is the customer block returned by the Admin API order query.
type OrderCustomer struct {
	FirstName string `json:"firstName"`
	Phone     string `json:"phone"`
}

// OrderDetails is the result of an order lookup by GID.
type OrderDetails struct {
	Name     string         `json:"name"`
	Customer *OrderCustomer `json:"customer"`
}

func (o *OrderDetails) CustomerPhone() string {
	if o == nil || o.Customer == nil {
		return ""
	}
	return strings.TrimSpace(o.Customer.Phone)
}

func (o *OrderDetails) FirstName() string {
	if o == nil || o.Customer == nil {
		return ""
	}
	return strings.TrimSpace(o.Customer.FirstName)
}

const orderGIDPrefix = "gid://shopify/Order/"

// OrderGID returns the Admin API global id for an order reference that may
// be either a bare numeric id or already a GID.
func (id FlexID) OrderGID() string {
	s := strings.TrimSpace(string(id))
	if s == "" || strings.HasPrefix(s, "gid://") {
		return s
	}
	return orderGIDPrefix + s
}
