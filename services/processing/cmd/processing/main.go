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
	"github.com/afikmenashe/fleet-platform/services/processing/internal/config"
	"github.com/afikmenashe/fleet-platform/services/processing/internal/engine"
	"github.com/afikmenashe/fleet-platform/services/processing/internal/history"
	"github.com/afikmenashe/fleet-platform/services/processing/internal/processor"
	"github.com/afikmenashe/fleet-platform/services/processing/internal/publisher"
	"github.com/afikmenashe/fleet-platform/services/processing/internal/rules"
	"github.com/afikmenashe/fleet-platform/services/processing/internal/vehiclestate"
)

func main() {
	if err := shared.LoadEnvFile(".env"); err != nil {
		slog.Warn("Ignoring .env file", "error", err)
	}

	// Parse command-line flags with environment variable fallbacks
	cfg := &config.Config{}
	flag.StringVar(&cfg.KafkaBrokers, "kafka-brokers", shared.GetEnvOrDefault("KAFKA_BROKERS", "localhost:9092"), "Kafka broker addresses (comma-separated)")
	flag.StringVar(&cfg.TelemetryTopic, "telemetry-topic", shared.GetEnvOrDefault("TELEMETRY_TOPIC", kafkautil.TopicTelemetry), "Kafka topic for vehicle telemetry")
	flag.StringVar(&cfg.AlertsTopic, "alerts-topic", shared.GetEnvOrDefault("ALERTS_TOPIC", kafkautil.TopicAlerts), "Kafka topic for rule alerts")
	flag.StringVar(&cfg.ConsumerGroupID, "consumer-group-id", shared.GetEnvOrDefault("CONSUMER_GROUP_ID", "processing-group"), "Kafka consumer group ID")
	flag.StringVar(&cfg.StartOffset, "start-offset", shared.GetEnvOrDefault("START_OFFSET", string(kafkautil.StartEarliest)), "Where a new consumer group starts: earliest or latest")
	flag.StringVar(&cfg.RedisAddr, "redis-addr", shared.GetEnvOrDefault("REDIS_ADDR", "localhost:6379"), "Redis server address")
	flag.DurationVar(&cfg.MetricsInterval, "metrics-interval", shared.GetEnvDuration("METRICS_INTERVAL", metrics.DefaultReportInterval), "Interval for writing metrics to Redis")
	flag.BoolVar(&cfg.VehicleStateEnabled, "vehicle-state", shared.GetEnvOrDefault("VEHICLE_STATE_ENABLED", "true") == "true", "Keep live vehicle state in Redis")
	flag.StringVar(&cfg.InfluxURL, "influx-url", shared.GetEnvOrDefault("INFLUX_URL", ""), "InfluxDB URL for telemetry history (empty disables)")
	flag.StringVar(&cfg.InfluxToken, "influx-token", shared.GetEnvOrDefault("INFLUX_TOKEN", ""), "InfluxDB API token")
	flag.StringVar(&cfg.InfluxOrg, "influx-org", shared.GetEnvOrDefault("INFLUX_ORG", "fleet"), "InfluxDB organization")
	flag.StringVar(&cfg.InfluxBucket, "influx-bucket", shared.GetEnvOrDefault("INFLUX_BUCKET", "telemetry"), "InfluxDB bucket")
	flag.Parse()

	shared.ConfigureLogging()

	slog.Info("Starting processing service",
		"kafka_brokers", cfg.KafkaBrokers,
		"telemetry_topic", cfg.TelemetryTopic,
		"alerts_topic", cfg.AlertsTopic,
		"consumer_group_id", cfg.ConsumerGroupID,
		"start_offset", cfg.StartOffset,
		"redis_addr", cfg.RedisAddr,
		"vehicle_state", cfg.VehicleStateEnabled,
		"history", cfg.HistoryEnabled(),
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

	// Initialize Redis client for metrics and vehicle state
	slog.Info("Connecting to Redis", "addr", cfg.RedisAddr)
	redisClient, err := shared.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		slog.Info("Tip: Start Redis with 'docker compose up -d redis'")
		os.Exit(1)
	}
	defer redisClient.Close()
	slog.Info("Successfully connected to Redis")

	metricsCollector := metrics.NewCollector("processing", redisClient)
	metricsCollector.SetReportInterval(cfg.MetricsInterval)
	metricsCollector.Start(ctx)
	defer metricsCollector.Stop()

	// Initialize alert publisher
	slog.Info("Connecting to Kafka producer", "topic", cfg.AlertsTopic)
	alertPublisher, err := publisher.New(cfg.KafkaBrokers, cfg.AlertsTopic)
	if err != nil {
		slog.Error("Failed to create alert publisher", "error", err)
		slog.Info("Tip: Start Kafka with 'docker compose up -d kafka'")
		os.Exit(1)
	}
	defer alertPublisher.Close()
	alertPublisher.SetRecorder(metricsCollector)

	// Build the rules engine once; the rule set is fixed for the life of the process
	engineLogger := slog.Default().With("component", "rules_engine")
	rulesEngine := engine.New(rules.NewEnv(alertPublisher, engineLogger), engineLogger, rules.Defaults()...)
	for _, r := range rulesEngine.Rules() {
		slog.Info("Rule loaded", "rule_id", r.ID(), "rule_name", r.Name(), "priority", r.Priority())
	}

	var sinks []processor.Sink
	if cfg.VehicleStateEnabled {
		sinks = append(sinks, vehiclestate.NewStore(redisClient))
	}
	if cfg.HistoryEnabled() {
		historySink := history.NewSink(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket)
		defer historySink.Close()
		sinks = append(sinks, historySink)
	}

	// Initialize Kafka consumer
	slog.Info("Connecting to Kafka consumer", "topic", cfg.TelemetryTopic)
	kafkautil.EnsureTopics(kafkautil.ParseBrokers(cfg.KafkaBrokers)[0], cfg.TelemetryTopic)
	kafkaConsumer, err := kafkautil.NewConsumer(cfg.KafkaBrokers, []string{cfg.TelemetryTopic}, cfg.ConsumerGroupID, startPolicy)
	if err != nil {
		slog.Error("Failed to create Kafka consumer", "error", err)
		slog.Info("Tip: Start Kafka with 'docker compose up -d kafka'")
		os.Exit(1)
	}
	defer kafkaConsumer.Close()
	slog.Info("Successfully connected to Kafka consumer")

	proc := processor.NewProcessor(kafkaConsumer, rulesEngine, sinks...)
	proc.SetMetrics(metricsCollector)

	if err := proc.ProcessTelemetry(ctx); err != nil {
		slog.Error("Telemetry processing failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Processing service stopped")
}
