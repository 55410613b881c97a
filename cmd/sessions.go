package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/jmehdipour/shop-notifier/internal/config"
	"github.com/jmehdipour/shop-notifier/internal/db"
	"github.com/jmehdipour/shop-notifier/internal/model"
	"github.com/jmehdipour/shop-notifier/internal/repository"
	"github.com/jmehdipour/shop-notifier/internal/shopify"
	"github.com/spf13/cobra"
)

var sessionIn model.ShopSession

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage offline Admin API sessions used for order lookups",
}

var sessionsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store the offline Admin API token of a shop",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !shopify.ValidShopDomain(sessionIn.Shop) {
			return fmt.Errorf("invalid shop domain %q", sessionIn.Shop)
		}
		if sessionIn.AccessToken == "" {
			return fmt.Errorf("--access-token is required")
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

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := repository.NewSessionsRepository(sqlDB).Upsert(ctx, sessionIn); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		fmt.Printf(">> session saved for %s\n", sessionIn.Shop)
		return nil
	},
}

func init() {
	f := sessionsSetCmd.Flags()
	f.StringVar(&sessionIn.Shop, "shop", "", "shop domain")
	f.StringVar(&sessionIn.AccessToken, "access-token", "", "offline Admin API access token")
	f.StringVar(&sessionIn.Scope, "scope", "read_orders", "granted scopes")
	_ = sessionsSetCmd.MarkFlagRequired("shop")

	sessionsCmd.AddCommand(sessionsSetCmd)
}
