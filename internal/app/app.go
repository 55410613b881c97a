// Package app wires the storage pools, clients and dispatcher shared by the
// serve and worker commands.
package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jmehdipour/shop-notifier/internal/config"
	"github.com/jmehdipour/shop-notifier/internal/db"
	"github.com/jmehdipour/shop-notifier/internal/dispatcher"
	"github.com/jmehdipour/shop-notifier/internal/repository"
	"github.com/jmehdipour/shop-notifier/internal/service/audit"
	"github.com/jmehdipour/shop-notifier/internal/shopify"
	"github.com/jmehdipour/shop-notifier/internal/whatsapp"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type App struct {
	MySQL      *sqlx.DB
	ClickHouse *sqlx.DB // nil when clickhouse.dsn is empty
	Redis      *redis.Client

	Settings   repository.SettingsRepository
	Sessions   repository.SessionsRepository
	Dispatches repository.DispatchesRepository // nil without ClickHouse
	Admins     *shopify.AdminFactory
	Dispatcher *dispatcher.Dispatcher

	closers []func() error
}

// New opens MySQL, Redis and (optionally) ClickHouse and builds the dispatcher.
// On error every pool opened so far is closed.
func New(cfg config.Config, log *zap.Logger) (a *App, err error) {
	if log == nil {
		log = zap.NewNop()
	}
	a = &App{}
	defer func() {
		if err != nil {
			_ = a.Close()
			a = nil
		}
	}()

	a.MySQL, err = db.OpenMySQL(cfg.MySQL)
	if err != nil {
		return nil, fmt.Errorf("mysql connect: %w", err)
	}
	a.closers = append(a.closers, a.MySQL.Close)

	a.Redis, err = db.OpenRedis(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("redis connect: %w", err)
	}
	a.closers = append(a.closers, a.Redis.Close)

	if strings.TrimSpace(cfg.ClickHouse.DSN) != "" {
		a.ClickHouse, err = db.OpenClickHouse(cfg.ClickHouse)
		if err != nil {
			return nil, fmt.Errorf("clickhouse connect: %w", err)
		}
		a.closers = append(a.closers, a.ClickHouse.Close)
		a.Dispatches = repository.NewDispatchesRepository(a.ClickHouse)
	} else {
		log.Warn("clickhouse disabled, dispatch journal off")
	}

	a.Settings = repository.NewCachedSettings(repository.NewSettingsRepository(a.MySQL), a.Redis, cfg.Redis.SettingsTTL, cfg.SettingsCacheSecret())
	a.Sessions = repository.NewSessionsRepository(a.MySQL)
	a.Admins = shopify.NewAdminFactory(AdminConfig(cfg.Shopify), a.Sessions)
	a.Dispatcher = NewDispatcher(cfg, a.Settings, a.Dispatches, log)

	return a, nil
}

// NewDispatcher builds the event dispatcher over the given settings store.
// journal may be nil.
func NewDispatcher(cfg config.Config, settings dispatcher.SettingsStore, journal repository.DispatchesRepository, log *zap.Logger) *dispatcher.Dispatcher {
	return dispatcher.New(dispatcher.Deps{
		Settings:     settings,
		Messenger:    whatsapp.NewClient(WhatsAppConfig(cfg.WhatsApp), log),
		Logger:       log,
		Observer:     audit.NewRecorder(journal, log),
		SummaryLimit: cfg.WhatsApp.SummaryLimit,
	})
}

func WhatsAppConfig(c config.WhatsAppConfig) whatsapp.Config {
	return whatsapp.Config{
		BaseURL:        c.BaseURL,
		APIVersion:     c.APIVersion,
		Timeout:        c.Timeout,
		CountryCode:    c.DefaultCountryCode,
		NationalLength: c.NationalNumberLength,
	}
}

func AdminConfig(c config.ShopifyConfig) shopify.AdminConfig {
	return shopify.AdminConfig{
		APIVersion: c.APIVersion,
		Timeout:    c.Timeout,
	}
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
