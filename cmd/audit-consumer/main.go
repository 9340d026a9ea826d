package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"idverify/internal/platform/config"
	"idverify/internal/platform/logger"
	"idverify/pkg/platform/audit/consumer"
	"idverify/pkg/platform/audit/publishers/kafka"
	auditpostgres "idverify/pkg/platform/audit/store/postgres"
)

// main copies audit events from the Kafka topic into the audit_events table
// so they can be queried after the topic's retention has passed.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err := run(cfg, log); err != nil {
		log.Error("audit consumer stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	if len(cfg.Audit.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS is required")
	}
	if cfg.Records.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	topic := cfg.Audit.Topic
	if topic == "" {
		topic = kafka.DefaultTopic
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("pgx", cfg.Records.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	store := auditpostgres.New(db)
	if err := store.Migrate(ctx); err != nil {
		return err
	}

	c, err := consumer.New(cfg.Audit.KafkaBrokers, topic, cfg.Audit.ConsumerGroup, consumer.NewHandler(store, log), log)
	if err != nil {
		return err
	}
	defer c.Close()

	log.Info("consuming audit events", "topic", topic, "brokers", cfg.Audit.KafkaBrokers)
	return c.Run(ctx)
}
