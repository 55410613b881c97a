// Package whatsapp sends template messages through the WhatsApp Cloud API.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jmehdipour/shop-notifier/internal/model"
	"github.com/jmehdipour/shop-notifier/internal/util"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL    = "https://graph.facebook.com"
	DefaultAPIVersion = "v20.0"

	maxErrorBody = 2048
)

type Config struct {
	BaseURL        string
	APIVersion     string
	Timeout        time.Duration
	CountryCode    string
	NationalLength int
}

// Client posts template messages on behalf of a shop. It holds no per-shop
// state; credentials travel with every call.
type Client struct {
	baseURL string
	version string
	client  *http.Client
	phones  util.PhoneNormalizer
	log     *zap.Logger
}

func NewClient(cfg Config, log *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		version: cfg.APIVersion,
		client:  &http.Client{Timeout: cfg.Timeout},
		phones:  util.NewPhoneNormalizer(cfg.CountryCode, cfg.NationalLength),
		log:     log,
	}
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// Send normalizes the recipient and posts one template message. Failures come
// back as *DeliveryError and are never retried.
func (c *Client) Send(ctx context.Context, settings model.TenantSettings, to, templateName string, params []model.TextParameter) error {
	phone := c.phones.Normalize(to)
	log := c.log.With(zap.String("shop", settings.Shop), zap.String("to", phone), zap.String("template", templateName))

	messageID, err := c.post(ctx, settings, model.NewTemplateMessage(phone, templateName, params))
	if err != nil {
		var de *DeliveryError
		if !errors.As(err, &de) {
			de = malformed(err)
			err = de
		}
		log.Error("whatsapp send failed",
			zap.String("reason", de.Kind.String()),
			zap.Int("status", de.Status),
			zap.String("body", de.Body),
			zap.NamedError("cause", de.Err),
		)
		return err
	}

	log.Info("whatsapp message sent", zap.String("message_id", messageID))
	return nil
}

func (c *Client) post(ctx context.Context, settings model.TenantSettings, msg model.TemplateMessage) (string, error) {
	switch {
	case strings.TrimSpace(settings.PhoneID) == "":
		return "", malformed(errors.New("missing phone id"))
	case msg.To == "":
		return "", malformed(errors.New("missing recipient"))
	case msg.Template.Name == "":
		return "", malformed(errors.New("missing template name"))
	}

	b, err := json.Marshal(msg)
	if err != nil {
		return "", malformed(fmt.Errorf("marshal message: %w", err))
	}

	url := fmt.Sprintf("%s/%s/%s/messages", c.baseURL, c.version, settings.PhoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", malformed(fmt.Errorf("build request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+settings.AccessToken)

	res, err := c.client.Do(req)
	if err != nil {
		return "", &DeliveryError{Kind: KindNetworkUnreachable, Err: err}
	}

	defer res.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(res.Body, 64<<10))

	if res.StatusCode/100 != 2 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		de := &DeliveryError{Kind: KindRemoteRejected, Status: res.StatusCode, Body: string(body)}
		if readErr != nil {
			de.Err = fmt.Errorf("read response body: %w", readErr)
		}
		return "", de
	}
	if readErr != nil {
		// accepted, only the message id is lost
		return "", nil
	}

	var out sendResponse
	if err := json.Unmarshal(body, &out); err == nil && len(out.Messages) > 0 {
		return out.Messages[0].ID, nil
	}

	return "", nil
}
