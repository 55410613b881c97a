package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jmehdipour/shop-notifier/internal/config"
	"github.com/jmehdipour/shop-notifier/internal/db"
	"github.com/jmehdipour/shop-notifier/internal/model"
	"github.com/jmehdipour/shop-notifier/internal/repository"
	"github.com/jmehdipour/shop-notifier/internal/shopify"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var settingsIn model.TenantSettings

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage per-shop WhatsApp settings",
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Create or update the settings of a shop",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !shopify.ValidShopDomain(settingsIn.Shop) {
			return fmt.Errorf("invalid shop domain %q", settingsIn.Shop)
		}
		s := settingsIn
		if model.IsMaskedToken(s.AccessToken) {
			s.AccessToken = ""
		}

		return withSettings(cmd.Context(), func(ctx context.Context, repo repository.SettingsRepository) error {
			if err := repo.Upsert(ctx, s); err != nil {
				return fmt.Errorf("save settings: %w", err)
			}
			fmt.Printf(">> settings saved for %s\n", s.Shop)
			return nil
		})
	},
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the settings of a shop (token masked)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSettings(cmd.Context(), func(ctx context.Context, repo repository.SettingsRepository) error {
			s, err := repo.Get(ctx, settingsIn.Shop)
			if err != nil {
				return fmt.Errorf("load settings: %w", err)
			}
			out := model.TenantSettings{Shop: settingsIn.Shop}
			if s != nil {
				out = s.Masked()
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		})
	},
}

func init() {
	f := settingsSetCmd.Flags()
	f.StringVar(&settingsIn.Shop, "shop", "", "shop domain, e.g. demo.myshopify.com")
	f.StringVar(&settingsIn.PhoneID, "phone-id", "", "WhatsApp phone number ID")
	f.StringVar(&settingsIn.AccessToken, "access-token", "", "WhatsApp access token (empty keeps the stored one)")
	f.StringVar(&settingsIn.ConfirmationTemplate, "confirmation-template", "", "order confirmation template name")
	f.StringVar(&settingsIn.FulfillmentTemplate, "fulfillment-template", "", "fulfillment template name")
	_ = settingsSetCmd.MarkFlagRequired("shop")

	settingsShowCmd.Flags().StringVar(&settingsIn.Shop, "shop", "", "shop domain")
	_ = settingsShowCmd.MarkFlagRequired("shop")

	settingsCmd.AddCommand(settingsSetCmd, settingsShowCmd)
}

// withSettings opens MySQL and, when reachable, Redis so that writes
// invalidate the cached copy read by running servers.
func withSettings(ctx context.Context, fn func(context.Context, repository.SettingsRepository) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	sqlDB, err := db.OpenMySQL(cfg.MySQL)
	if err != nil {
		return fmt.Errorf("mysql connect: %w", err)
	}
	defer sqlDB.Close()

	var rdb *redis.Client
	if c, err := db.OpenRedis(cfg.Redis); err != nil {
		fmt.Fprintf(os.Stderr, ">> redis unavailable, cache not invalidated: %v\n", err)
	} else {
		rdb = c
		defer func() { _ = rdb.Close() }()
	}

	repo := repository.NewCachedSettings(repository.NewSettingsRepository(sqlDB), rdb, cfg.Redis.SettingsTTL, cfg.SettingsCacheSecret())

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return fn(ctx, repo)
}
