// Package shopify talks to the Shopify Admin API and verifies its webhooks.
package shopify

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

	"github.com/jmehdipour/shop-notifier/internal/dispatcher"
	"github.com/jmehdipour/shop-notifier/internal/model"
)

const DefaultAPIVersion = "2024-07"

const orderQuery = `query getOrder($id: ID!) {
  order(id: $id) {
    name
    customer {
      firstName
      phone
    }
  }
}`

type AdminConfig struct {
	APIVersion string
	Timeout    time.Duration
	// BaseURL replaces https://<shop> when set.
	BaseURL string
}

// AdminClient runs Admin GraphQL queries for a single shop.
type AdminClient struct {
	endpoint string
	token    string
	client   *http.Client
}

var _ dispatcher.OrderLookup = (*AdminClient)(nil)

func NewAdminClient(cfg AdminConfig, shop, token string) *AdminClient {
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	base := "https://" + shop
	if cfg.BaseURL != "" {
		base = strings.TrimRight(cfg.BaseURL, "/")
	}

	return &AdminClient{
		endpoint: fmt.Sprintf("%s/admin/api/%s/graphql.json", base, cfg.APIVersion),
		token:    token,
		client:   &http.Client{Timeout: cfg.Timeout},
	}
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type orderResponse struct {
	Data struct {
		Order *model.OrderDetails `json:"order"`
	} `json:"data"`
	Errors []graphqlError `json:"errors"`
}

// FetchOrderByGID returns the order name and customer contact, or nil when
// the order does not exist.
func (c *AdminClient) FetchOrderByGID(ctx context.Context, gid string) (*model.OrderDetails, error) {
	b, err := json.Marshal(graphqlRequest{Query: orderQuery, Variables: map[string]any{"id": gid}})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.token)

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("admin api: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if res.StatusCode/100 != 2 {
		return nil, fmt.Errorf("admin api returned %d: %s", res.StatusCode, string(body))
	}

	var out orderResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(out.Errors) > 0 {
		msgs := make([]string, 0, len(out.Errors))
		for _, e := range out.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, fmt.Errorf("admin api: %s", strings.Join(msgs, "; "))
	}

	return out.Data.Order, nil
}

// SessionStore returns the stored offline session of a shop, or (nil, nil).
type SessionStore interface {
	Get(ctx context.Context, shop string) (*model.ShopSession, error)
}

var ErrNoSession = errors.New("no admin session for shop")

// AdminFactory builds per-shop admin clients from stored sessions.
type AdminFactory struct {
	cfg      AdminConfig
	sessions SessionStore
}

func NewAdminFactory(cfg AdminConfig, sessions SessionStore) *AdminFactory {
	return &AdminFactory{cfg: cfg, sessions: sessions}
}

// ForShop returns ErrNoSession when the shop has no usable offline token.
func (f *AdminFactory) ForShop(ctx context.Context, shop string) (dispatcher.OrderLookup, error) {
	s, err := f.sessions.Get(ctx, shop)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if s == nil || strings.TrimSpace(s.AccessToken) == "" {
		return nil, ErrNoSession
	}
	return NewAdminClient(f.cfg, shop, s.AccessToken), nil
}
