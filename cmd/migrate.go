package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmehdipour/shop-notifier/internal/config"
	"github.com/jmehdipour/shop-notifier/internal/db"
	"github.com/jmehdipour/shop-notifier/migrations"
	"github.com/spf13/cobra"
)

var skipClickHouse bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create settings, sessions and journal tables (idempotent)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		sqlDB, err := db.OpenMySQL(cfg.MySQL)
		if err != nil {
			return fmt.Errorf("open mysql: %w", err)
		}
		defer sqlDB.Close()

		n, err := db.ExecScript(ctx, sqlDB, migrations.MySQL)
		if err != nil {
			return fmt.Errorf("mysql migration: %w", err)
		}
		fmt.Printf(">> mysql: %d statements applied\n", n)

		if skipClickHouse || strings.TrimSpace(cfg.ClickHouse.DSN) == "" {
			fmt.Println(">> clickhouse: skipped")
			return nil
		}

		chDB, err := db.OpenClickHouse(cfg.ClickHouse)
		if err != nil {
			return fmt.Errorf("open clickhouse: %w", err)
		}
		defer chDB.Close()

		n, err = db.ExecScript(ctx, chDB, migrations.ClickHouse)
		if err != nil {
			return fmt.Errorf("clickhouse migration: %w", err)
		}
		fmt.Printf(">> clickhouse: %d statements applied\n", n)

		fmt.Println(">> Migration complete ✅")
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&skipClickHouse, "skip-clickhouse", false, "only migrate MySQL")
}
