package repository

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmehdipour/shop-notifier/internal/model"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/nacl/secretbox"
)

const absentMarker = "null"

var errSealedToken = errors.New("settings cache: cannot open sealed token")

// cacheEntry is what lands in Redis. The access token is only stored sealed.
type cacheEntry struct {
	Shop                 string    `json:"shop"`
	PhoneID              string    `json:"phone_id"`
	SealedToken          string    `json:"sealed_token,omitempty"`
	ConfirmationTemplate string    `json:"confirmation_template"`
	FulfillmentTemplate  string    `json:"fulfillment_template"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// CachedSettings is a Redis read-through cache in front of a SettingsRepository.
// Redis errors fall back to the underlying repository; the cache is never
// the source of truth. Rows carrying an access token are cached only when a
// sealing secret is configured.
type CachedSettings struct {
	inner     SettingsRepository
	rdb       *redis.Client
	ttl       time.Duration
	keyPrefix string
	key       *[32]byte // nil: tokens are never cached
}

func NewCachedSettings(inner SettingsRepository, rdb *redis.Client, ttl time.Duration, secret string) *CachedSettings {
	if ttl <= 0 {
		ttl = time.Minute
	}
	c := &CachedSettings{inner: inner, rdb: rdb, ttl: ttl, keyPrefix: "settings:shop:"}
	if secret != "" {
		k := sha256.Sum256([]byte("shopnotify/settings-cache:" + secret))
		c.key = &k
	}
	return c
}

var _ SettingsRepository = (*CachedSettings)(nil)

func (c *CachedSettings) cacheKey(shop string) string { return c.keyPrefix + shop }

func (c *CachedSettings) Get(ctx context.Context, shop string) (*model.TenantSettings, error) {
	if c.rdb == nil {
		return c.inner.Get(ctx, shop)
	}

	overwrite := false
	raw, err := c.rdb.Get(ctx, c.cacheKey(shop)).Bytes()
	switch {
	case err == nil:
		s, ok := c.decode(raw)
		if ok {
			return s, nil
		}
		// unreadable or sealed with another secret
		overwrite = true
	case !errors.Is(err, redis.Nil):
		return c.inner.Get(ctx, shop)
	}

	s, err := c.inner.Get(ctx, shop)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, shop, s, overwrite)

	return s, nil
}

// Upsert writes through and then replaces the cached copy with the stored row.
// Refills use SET NX, so a Get that read the old row before this write cannot
// put it back once the fresh row is cached.
func (c *CachedSettings) Upsert(ctx context.Context, s model.TenantSettings) error {
	if err := c.inner.Upsert(ctx, s); err != nil {
		return err
	}
	if c.rdb == nil {
		return nil
	}

	fresh, err := c.inner.Get(ctx, s.Shop)
	if err != nil {
		_ = c.rdb.Del(ctx, c.cacheKey(s.Shop)).Err()
		return nil
	}
	c.fill(ctx, s.Shop, fresh, true)
	return nil
}

func (c *CachedSettings) fill(ctx context.Context, shop string, s *model.TenantSettings, overwrite bool) {
	val, ok := c.encode(s)
	if !ok {
		if overwrite {
			_ = c.rdb.Del(ctx, c.cacheKey(shop)).Err()
		}
		return
	}
	if overwrite {
		_ = c.rdb.Set(ctx, c.cacheKey(shop), val, c.ttl).Err()
		return
	}
	_ = c.rdb.SetNX(ctx, c.cacheKey(shop), val, c.ttl).Err()
}

func (c *CachedSettings) encode(s *model.TenantSettings) ([]byte, bool) {
	if s == nil {
		return []byte(absentMarker), true
	}

	e := cacheEntry{
		Shop:                 s.Shop,
		PhoneID:              s.PhoneID,
		ConfirmationTemplate: s.ConfirmationTemplate,
		FulfillmentTemplate:  s.FulfillmentTemplate,
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt,
	}
	if s.AccessToken != "" {
		if c.key == nil {
			return nil, false
		}
		sealed, err := c.seal(s.AccessToken)
		if err != nil {
			return nil, false
		}
		e.SealedToken = sealed
	}

	b, err := json.Marshal(e)
	if err != nil {
		return nil, false
	}
	return b, true
}

func (c *CachedSettings) decode(raw []byte) (*model.TenantSettings, bool) {
	if string(raw) == absentMarker {
		return nil, true
	}

	var e cacheEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, false
	}
	s := &model.TenantSettings{
		Shop:                 e.Shop,
		PhoneID:              e.PhoneID,
		ConfirmationTemplate: e.ConfirmationTemplate,
		FulfillmentTemplate:  e.FulfillmentTemplate,
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            e.UpdatedAt,
	}
	if e.SealedToken != "" {
		token, err := c.open(e.SealedToken)
		if err != nil {
			return nil, false
		}
		s.AccessToken = token
	}
	return s, true
}

func (c *CachedSettings) seal(token string) (string, error) {
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", err
	}
	box := secretbox.Seal(nonce[:], []byte(token), &nonce, c.key)
	return base64.RawStdEncoding.EncodeToString(box), nil
}

func (c *CachedSettings) open(sealed string) (string, error) {
	if c.key == nil {
		return "", errSealedToken
	}
	box, err := base64.RawStdEncoding.DecodeString(sealed)
	if err != nil || len(box) < 24+secretbox.Overhead {
		return "", errSealedToken
	}
	var nonce [24]byte
	copy(nonce[:], box[:24])
	plain, ok := secretbox.Open(nil, box[24:], &nonce, c.key)
	if !ok {
		return "", errSealedToken
	}
	return string(plain), nil
}
