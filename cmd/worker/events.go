package worker

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmehdipour/shop-notifier/internal/app"
	"github.com/jmehdipour/shop-notifier/internal/config"
	"github.com/jmehdipour/shop-notifier/internal/kafka"
	"github.com/jmehdipour/shop-notifier/internal/logger"
	"github.com/jmehdipour/shop-notifier/internal/metrics"
	"github.com/jmehdipour/shop-notifier/internal/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Consume shop events from Kafka and dispatch notifications",
	RunE:  runEvents,
}

func runEvents(cmd *cobra.Command, args []string) error {
	// 1) load config
	cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	metrics.MustRegister(prometheus.DefaultRegisterer)

	// 2) storage + dispatcher
	a, err := app.New(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	// 3) kafka consumer
	topic := cfg.Kafka.Topic
	if topic == "" {
		topic = "shop.events"
	}
	groupID := cfg.Kafka.GroupID
	if groupID == "" {
		groupID = "shopnotify-events"
	}

	consumer := kafka.NewConsumerFromConfig(kafka.Config{
		Brokers:        cfg.Kafka.Brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       cfg.Kafka.MinBytes,
		MaxBytes:       cfg.Kafka.MaxBytes,
		CommitInterval: time.Duration(cfg.Kafka.CommitInterval) * time.Millisecond,
	})
	defer consumer.Close()

	w := worker.NewEventConsumer(consumer, a.Dispatcher, a.Admins, log)
	if cfg.Worker.Count > 0 {
		w.Workers = cfg.Worker.Count
	}

	// 4) graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("event worker started",
		zap.String("topic", topic),
		zap.String("group", groupID),
		zap.Int("workers", w.Workers),
	)

	return w.Run(ctx)
}
