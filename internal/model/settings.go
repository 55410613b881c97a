package model

import (
	"strings"
	"time"
)

// TokenMask is what the admin API shows instead of a stored access token.
const TokenMask = "••••••••••••••••"

type TemplateKind string

const (
	KindOrderConfirmation TemplateKind = "order_confirmation"
	KindFulfillment       TemplateKind = "fulfillment"
)

func (k TemplateKind) String() string { return string(k) }

// TenantSettings is the per-shop WhatsApp configuration. Empty string means absent.
type TenantSettings struct {
	Shop                 string    `db:"shop"                  json:"shop"`
	PhoneID              string    `db:"phone_id"              json:"phone_id"`
	AccessToken          string    `db:"access_token"          json:"access_token"`
	ConfirmationTemplate string    `db:"confirmation_template" json:"confirmation_template"`
	FulfillmentTemplate  string    `db:"fulfillment_template"  json:"fulfillment_template"`
	CreatedAt            time.Time `db:"created_at"            json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at"            json:"updated_at"`
}

// HasCredentials reports whether phone id and access token are both set.
func (s *TenantSettings) HasCredentials() bool {
	return s != nil && strings.TrimSpace(s.PhoneID) != "" && strings.TrimSpace(s.AccessToken) != ""
}

// Template returns the template name configured for kind.
func (s *TenantSettings) Template(kind TemplateKind) string {
	if s == nil {
		return ""
	}
	switch kind {
	case KindOrderConfirmation:
		return strings.TrimSpace(s.ConfirmationTemplate)
	case KindFulfillment:
		return strings.TrimSpace(s.FulfillmentTemplate)
	default:
		return ""
	}
}

// Complete reports whether a message of the given kind may be sent.
func (s *TenantSettings) Complete(kind TemplateKind) bool {
	return s.HasCredentials() && s.Template(kind) != ""
}

// Masked returns a copy safe to hand out over the admin API.
func (s TenantSettings) Masked() TenantSettings {
	if s.AccessToken != "" {
		s.AccessToken = TokenMask
	}
	return s
}

// IsMaskedToken reports whether a submitted token is the mask echoed back by a form.
func IsMaskedToken(token string) bool {
	return strings.Contains(token, "••••")
}

// ShopSession holds the offline Admin API token of an installed shop.
type ShopSession struct {
	Shop        string    `db:"shop"`
	AccessToken string    `db:"access_token"`
	Scope       string    `db:"scope"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}
