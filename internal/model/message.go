package model

import "time"

type Outcome string

const (
	OutcomeOK               Outcome = "ok"
	OutcomeConfigIncomplete Outcome = "config_incomplete"
	OutcomeFieldMissing     Outcome = "field_missing"
	OutcomeLookupFailed     Outcome = "lookup_failed"
	OutcomeDeliveryFailed   Outcome = "delivery_failed"
)

func (o Outcome) String() string {
	return string(o)
}

func (o Outcome) Valid() bool {
	switch o {
	case OutcomeOK, OutcomeConfigIncomplete, OutcomeFieldMissing, OutcomeLookupFailed, OutcomeDeliveryFailed:
		return true
	}
	return false
}

// DispatchRecord is one handled event as stored in the ClickHouse journal.
type DispatchRecord struct {
	ID        string    `db:"id"         json:"id"`
	Shop      string    `db:"shop"       json:"shop"`
	Topic     string    `db:"topic"      json:"topic"`
	Outcome   Outcome   `db:"outcome"    json:"outcome"`
	Reason    string    `db:"reason"     json:"reason"`
	Recipient string    `db:"recipient"  json:"recipient"`
	Template  string    `db:"template"   json:"template"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TextParameter fills one numbered placeholder of a template body.
type TextParameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func Text(s string) TextParameter {
	return TextParameter{Type: "text", Text: s}
}

type TemplateLanguage struct {
	Code string `json:"code"`
}

type TemplateComponent struct {
	Type       string          `json:"type"`
	Parameters []TextParameter `json:"parameters"`
}

type Template struct {
	Name       string              `json:"name"`
	Language   TemplateLanguage    `json:"language"`
	Components []TemplateComponent `json:"components"`
}

// TemplateMessage is the body posted to the WhatsApp Cloud API messages endpoint.
type TemplateMessage struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Template         Template `json:"template"`
}

// NewTemplateMessage builds a body-only template message in en_US.
func NewTemplateMessage(to, name string, params []TextParameter) TemplateMessage {
	return TemplateMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "template",
		Template: Template{
			Name:     name,
			Language: TemplateLanguage{Code: "en_US"},
			Components: []TemplateComponent{
				{Type: "body", Parameters: params},
			},
		},
	}
}
