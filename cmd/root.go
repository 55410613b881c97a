package cmd

import (
	"fmt"
	"os"

	"github.com/jmehdipour/shop-notifier/cmd/worker"
	"github.com/spf13/cobra"
)

var (
	cfgPath string
	rootCmd = &cobra.Command{
		Use:   "shop-notifier",
		Short: "Shopify order notifications over WhatsApp",
	}
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "path to YAML config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(worker.NewWorkerCmd())
}
