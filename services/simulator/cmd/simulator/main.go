// Package main is the entry point for the fleet simulator, which publishes synthetic
// telemetry and emergencies for the seeded fleet.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/afikmenashe/fleet-platform/pkg/fleet"
	kafkautil "github.com/afikmenashe/fleet-platform/pkg/kafka"
	"github.com/afikmenashe/fleet-platform/pkg/metrics"
	"github.com/afikmenashe/fleet-platform/pkg/shared"
	"github.com/afikmenashe/fleet-platform/services/simulator/internal/config"
	"github.com/afikmenashe/fleet-platform/services/simulator/internal/generator"
	"github.com/afikmenashe/fleet-platform/services/simulator/internal/processor"
	"github.com/afikmenashe/fleet-platform/services/simulator/internal/producer"
)

func main() {
	if err := shared.LoadEnvFile(".env"); err != nil {
		slog.Warn("Ignoring .env file", "error", err)
	}

	cfg := config.Config{}
	var mockMode bool
	flag.StringVar(&cfg.KafkaBrokers, "kafka-brokers", shared.GetEnvOrDefault("KAFKA_BROKERS", "localhost:9092"), "Kafka broker addresses (comma-separated)")
	flag.StringVar(&cfg.TelemetryTopic, "telemetry-topic", shared.GetEnvOrDefault("TELEMETRY_TOPIC", kafkautil.TopicTelemetry), "Kafka topic for telemetry")
	flag.StringVar(&cfg.EmergencyTopic, "emergency-topic", shared.GetEnvOrDefault("EMERGENCY_TOPIC", kafkautil.TopicEmergency), "Kafka topic for emergencies")
	flag.IntVar(&cfg.Vehicles, "vehicles", shared.GetEnvInt("SIM_VEHICLES", 10), "Number of vehicles to simulate (must match the seeded registry)")
	flag.Float64Var(&cfg.RPS, "rps", 10.0, "Readings per second")
	flag.DurationVar(&cfg.Duration, "duration", 60*time.Second, "Duration to run (e.g., 60s, 5m)")
	flag.IntVar(&cfg.BurstSize, "burst", 0, "Burst mode: send N readings immediately, then stop (0 = continuous)")
	flag.Int64Var(&cfg.Seed, "seed", 0, "Random seed for deterministic generation (0 = random)")
	flag.Float64Var(&cfg.SpeedingProb, "speeding-prob", 0.05, "Probability a reading exceeds its class speed limit")
	flag.Float64Var(&cfg.CargoExcursionProb, "cargo-prob", 0.05, "Probability a truck reading leaves the safe cargo band")
	flag.Float64Var(&cfg.UnplannedStopProb, "stop-prob", 0.03, "Probability a reading is an unplanned stop")
	flag.Float64Var(&cfg.EmergencyProb, "emergency-prob", 0.01, "Probability a reading is accompanied by an emergency")
	flag.StringVar(&cfg.RedisAddr, "redis-addr", shared.GetEnvOrDefault("REDIS_ADDR", "localhost:6379"), "Redis address for metrics (empty disables)")
	flag.DurationVar(&cfg.MetricsInterval, "metrics-interval", shared.GetEnvDuration("METRICS_INTERVAL", metrics.DefaultReportInterval), "Interval for writing metrics to Redis")
	flag.BoolVar(&mockMode, "mock", false, "Use mock producer (no Kafka required, logs events instead)")
	flag.Parse()

	shared.ConfigureLogging()

	slog.Info("Starting simulator",
		"kafka_brokers", cfg.KafkaBrokers,
		"telemetry_topic", cfg.TelemetryTopic,
		"emergency_topic", cfg.EmergencyTopic,
		"vehicles", cfg.Vehicles,
		"rps", cfg.RPS,
		"duration", cfg.Duration,
		"burst_size", cfg.BurstSize,
		"seed", cfg.Seed,
	)

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

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

	var publisher producer.EventPublisher
	if mockMode {
		publisher = producer.NewMock()
	} else {
		kafkaProd, err := producer.New(cfg.KafkaBrokers, cfg.TelemetryTopic, cfg.EmergencyTopic)
		if err != nil {
			slog.Error("Failed to create Kafka producer", "error", err)
			slog.Info("Tip: Start Kafka with 'docker compose up -d' or use --mock flag to run without Kafka")
			os.Exit(1)
		}
		publisher = kafkaProd
	}
	defer publisher.Close()

	gen := generator.New(fleet.Roster(cfg.Vehicles), generator.Probabilities{
		Speeding:       cfg.SpeedingProb,
		CargoExcursion: cfg.CargoExcursionProb,
		UnplannedStop:  cfg.UnplannedStopProb,
		Emergency:      cfg.EmergencyProb,
	}, cfg.Seed)

	proc := processor.NewProcessor(gen, publisher, &cfg)

	// Metrics are optional for a load generator; run without them when Redis is absent.
	if cfg.RedisAddr != "" {
		redisClient, err := shared.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			slog.Warn("Redis unavailable, metrics disabled", "error", err)
		} else {
			defer redisClient.Close()
			collector := metrics.NewCollector("simulator", redisClient)
			collector.SetReportInterval(cfg.MetricsInterval)
			collector.Start(ctx)
			defer collector.Stop()
			proc.SetMetrics(collector)
		}
	}

	if err := proc.Process(ctx); err != nil {
		slog.Error("Simulation failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Simulator completed successfully")
}
