package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	kafkautil "github.com/afikmenashe/fleet-platform/pkg/kafka"
	"github.com/afikmenashe/fleet-platform/pkg/metrics"
	"github.com/afikmenashe/fleet-platform/pkg/shared"
	"github.com/afikmenashe/fleet-platform/services/emergency/internal/config"
	"github.com/afikmenashe/fleet-platform/services/emergency/internal/database"
	"github.com/afikmenashe/fleet-platform/services/emergency/internal/dispatch"
	"github.com/afikmenashe/fleet-platform/services/emergency/internal/processor"
)

func main() {
	if err := shared.LoadEnvFile(".env"); err != nil {
		slog.Warn("Ignoring .env file", "error", err)
	}

	cfg := &config.Config{}
	flag.StringVar(&cfg.KafkaBrokers, "kafka-brokers", shared.GetEnvOrDefault("KAFKA_BROKERS", "localhost:9092"), "Kafka broker addresses (comma-separated)")
	flag.StringVar(&cfg.EmergencyTopic, "emergency-topic", shared.GetEnvOrDefault("EMERGENCY_TOPIC", kafkautil.TopicEmergency), "Kafka topic for emergency signals")
	flag.StringVar(&cfg.ConsumerGroupID, "consumer-group-id", shared.GetEnvOrDefault("CONSUMER_GROUP_ID", "emergency-group"), "Kafka consumer group ID")
	flag.StringVar(&cfg.StartOffset, "start-offset", shared.GetEnvOrDefault("START_OFFSET", string(kafkautil.StartLatest)), "Where a new consumer group starts: earliest or latest")
	flag.StringVar(&cfg.PostgresDSN, "postgres-dsn", shared.GetEnvOrDefault("POSTGRES_DSN", ""), "PostgreSQL connection string (empty disables emergency tracking)")
	flag.StringVar(&cfg.RedisAddr, "redis-addr", shared.GetEnvOrDefault("REDIS_ADDR", "localhost:6379"), "Redis server address")
	flag.DurationVar(&cfg.MetricsInterval, "metrics-interval", shared.GetEnvDuration("METRICS_INTERVAL", metrics.DefaultReportInterval), "Interval for writing metrics to Redis")
	flag.StringVar(&cfg.Responder, "responder", shared.GetEnvOrDefault("EMERGENCY_RESPONDER", config.ResponderSimulated), "Action responder: simulated or webhook")
	flag.StringVar(&cfg.WebhookURL, "webhook-url", shared.GetEnvOrDefault("EMERGENCY_WEBHOOK_URL", ""), "Dispatch center URL for the webhook responder")
	flag.DurationVar(&cfg.DispatchTimeout, "dispatch-timeout", shared.GetEnvDuration("DISPATCH_TIMEOUT", processor.SLA), "Upper bound for dispatching one emergency")
	flag.Parse()

	shared.ConfigureLogging()

	slog.Info("Starting emergency service",
		"kafka_brokers", cfg.KafkaBrokers,
		"emergency_topic", cfg.EmergencyTopic,
		"consumer_group_id", cfg.ConsumerGroupID,
		"start_offset", cfg.StartOffset,
		"responder", cfg.Responder,
		"dispatch_timeout", cfg.DispatchTimeout,
		"store", cfg.StoreEnabled(),
	)

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	startPolicy, _ := kafkautil.ParseStartPolicy(cfg.StartOffset)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	slog.Info("Connecting to Redis", "addr", cfg.RedisAddr)
	redisClient, err := shared.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		slog.Info("Tip: Start Redis with 'docker compose up -d redis'")
		os.Exit(1)
	}
	defer redisClient.Close()

	metricsCollector := metrics.NewCollector("emergency", redisClient)
	metricsCollector.SetReportInterval(cfg.MetricsInterval)
	metricsCollector.Start(ctx)
	defer metricsCollector.Stop()

	var store processor.EmergencyStore
	if cfg.StoreEnabled() {
		slog.Info("Connecting to database", "dsn", shared.MaskDSN(cfg.PostgresDSN))
		db, err := database.NewDB(cfg.PostgresDSN)
		if err != nil {
			slog.Error("Failed to connect to database", "error", err)
			slog.Info("Tip: Start Postgres with 'docker compose up -d postgres' and run scripts/seed-vehicles")
			os.Exit(1)
		}
		defer db.Close()
		store = db
	}

	var responder dispatch.Responder
	switch cfg.Responder {
	case config.ResponderWebhook:
		responder = dispatch.NewWebhookResponder(cfg.WebhookURL, cfg.DispatchTimeout)
	default:
		responder = dispatch.NewSimulatedResponder(nil)
	}
	dispatcher := dispatch.NewDispatcher(responder)
	dispatcher.SetTimeout(cfg.DispatchTimeout)

	slog.Info("Connecting to Kafka consumer", "topic", cfg.EmergencyTopic)
	kafkautil.EnsureTopics(kafkautil.ParseBrokers(cfg.KafkaBrokers)[0], cfg.EmergencyTopic)
	kafkaConsumer, err := kafkautil.NewConsumer(cfg.KafkaBrokers, []string{cfg.EmergencyTopic}, cfg.ConsumerGroupID, startPolicy)
	if err != nil {
		slog.Error("Failed to create Kafka consumer", "error", err)
		slog.Info("Tip: Start Kafka with 'docker compose up -d kafka'")
		os.Exit(1)
	}
	defer kafkaConsumer.Close()

	proc := processor.NewProcessor(kafkaConsumer, dispatcher, store)
	proc.SetMetrics(metricsCollector)

	if err := proc.ProcessEmergencies(ctx); err != nil {
		slog.Error("Emergency processing failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Emergency service stopped")
}
