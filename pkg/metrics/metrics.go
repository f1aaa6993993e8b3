// Package metrics provides a shared metrics collection and reporting system.
// Every fleet service writes a periodic snapshot to Redis; the metrics service reads them back.
package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// MetricsKeyPrefix is the Redis key prefix for service metrics.
	MetricsKeyPrefix = "metrics:"
	// MetricsTTL is how long metrics stay in Redis if not refreshed.
	MetricsTTL = 2 * time.Minute
	// DefaultReportInterval is the default interval for writing metrics to Redis.
	DefaultReportInterval = 30 * time.Second
)

// ErrNoMetrics is returned when a service has not reported (or its snapshot expired).
var ErrNoMetrics = errors.New("no metrics found")

// ServiceMetrics is the snapshot a service publishes.
type ServiceMetrics struct {
	ServiceName string    `json:"service_name"`
	StartedAt   time.Time `json:"started_at"`
	LastUpdated time.Time `json:"last_updated"`
	Status      string    `json:"status"` // "healthy" or "unhealthy"

	// Counters (monotonically increasing since start). For the emergency service
	// "processed" means dispatched, for processing it means evaluated by the rules engine.
	MessagesReceived  uint64 `json:"messages_received"`
	MessagesProcessed uint64 `json:"messages_processed"`
	MessagesPublished uint64 `json:"messages_published"`
	ProcessingErrors  uint64 `json:"processing_errors"`

	MessagesPerSecond float64 `json:"messages_per_second"`

	AvgProcessingLatencyNs float64 `json:"avg_processing_latency_ns"`
	MaxProcessingLatencyNs uint64  `json:"max_processing_latency_ns"`

	CustomCounters map[string]uint64 `json:"custom_counters,omitempty"`
}

// Collector collects and reports metrics for a service.
type Collector struct {
	serviceName    string
	redis          *redis.Client
	startedAt      time.Time
	reportInterval time.Duration

	messagesReceived  atomic.Uint64
	messagesProcessed atomic.Uint64
	messagesPublished atomic.Uint64
	processingErrors  atomic.Uint64

	totalLatencyNs atomic.Uint64
	latencyCount   atomic.Uint64
	maxLatencyNs   atomic.Uint64

	// rate window, guarded by rateMu
	rateMu             sync.Mutex
	lastReportTime     time.Time
	lastProcessedCount uint64

	customMu       sync.RWMutex
	customCounters map[string]*atomic.Uint64

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewCollector creates a new metrics collector for a service.
// A nil Redis client is allowed: counters are still kept and snapshots can be read in-process.
func NewCollector(serviceName string, redisClient *redis.Client) *Collector {
	now := time.Now().UTC()
	return &Collector{
		serviceName:    serviceName,
		redis:          redisClient,
		startedAt:      now,
		reportInterval: DefaultReportInterval,
		lastReportTime: now,
		customCounters: make(map[string]*atomic.Uint64),
		stopCh:         make(chan struct{}),
	}
}

// SetReportInterval sets the interval for writing metrics to Redis. Call before Start.
func (c *Collector) SetReportInterval(interval time.Duration) {
	if interval > 0 {
		c.reportInterval = interval
	}
}

// Start begins the periodic metrics reporting to Redis.
func (c *Collector) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.reportInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				c.flush()
				return
			case <-c.stopCh:
				c.flush()
				return
			case <-ticker.C:
				c.writeMetrics(ctx)
			}
		}
	}()
}

// Stop stops the metrics reporting after a final write. Safe to call more than once.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	c.wg.Wait()
}

func (c *Collector) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c.writeMetrics(ctx)
}

// RecordReceived increments the messages received counter.
func (c *Collector) RecordReceived() {
	c.messagesReceived.Add(1)
}

// RecordProcessed increments the messages processed counter with latency.
func (c *Collector) RecordProcessed(latency time.Duration) {
	c.messagesProcessed.Add(1)
	ns := uint64(latency.Nanoseconds())
	c.totalLatencyNs.Add(ns)
	c.latencyCount.Add(1)
	for {
		cur := c.maxLatencyNs.Load()
		if ns <= cur || c.maxLatencyNs.CompareAndSwap(cur, ns) {
			return
		}
	}
}

// RecordPublished increments the messages published counter.
func (c *Collector) RecordPublished() {
	c.messagesPublished.Add(1)
}

// RecordError increments the processing errors counter.
func (c *Collector) RecordError() {
	c.processingErrors.Add(1)
}

// IncrementCustom increments a custom counter by name.
func (c *Collector) IncrementCustom(name string) {
	c.custom(name).Add(1)
}

// AddCustom adds a value to a custom counter.
func (c *Collector) AddCustom(name string, value uint64) {
	c.custom(name).Add(value)
}

func (c *Collector) custom(name string) *atomic.Uint64 {
	c.customMu.RLock()
	counter, ok := c.customCounters[name]
	c.customMu.RUnlock()
	if ok {
		return counter
	}

	c.customMu.Lock()
	defer c.customMu.Unlock()
	if counter, ok = c.customCounters[name]; !ok {
		counter = &atomic.Uint64{}
		c.customCounters[name] = counter
	}
	return counter
}

// GetSnapshot returns current metrics without writing to Redis.
func (c *Collector) GetSnapshot() *ServiceMetrics {
	now := time.Now().UTC()
	processed := c.messagesProcessed.Load()

	c.rateMu.Lock()
	elapsed := now.Sub(c.lastReportTime).Seconds()
	var rate float64
	if elapsed > 0 {
		rate = float64(processed-c.lastProcessedCount) / elapsed
	}
	c.rateMu.Unlock()

	var avgLatencyNs float64
	if n := c.latencyCount.Load(); n > 0 {
		avgLatencyNs = float64(c.totalLatencyNs.Load()) / float64(n)
	}

	c.customMu.RLock()
	customCounters := make(map[string]uint64, len(c.customCounters))
	for name, counter := range c.customCounters {
		customCounters[name] = counter.Load()
	}
	c.customMu.RUnlock()

	return &ServiceMetrics{
		ServiceName:            c.serviceName,
		StartedAt:              c.startedAt,
		LastUpdated:            now,
		Status:                 "healthy",
		MessagesReceived:       c.messagesReceived.Load(),
		MessagesProcessed:      processed,
		MessagesPublished:      c.messagesPublished.Load(),
		ProcessingErrors:       c.processingErrors.Load(),
		MessagesPerSecond:      rate,
		AvgProcessingLatencyNs: avgLatencyNs,
		MaxProcessingLatencyNs: c.maxLatencyNs.Load(),
		CustomCounters:         customCounters,
	}
}

// writeMetrics writes current metrics to Redis.
func (c *Collector) writeMetrics(ctx context.Context) {
	if c.redis == nil {
		return
	}

	snapshot := c.GetSnapshot()

	c.rateMu.Lock()
	c.lastReportTime = snapshot.LastUpdated
	c.lastProcessedCount = snapshot.MessagesProcessed
	c.rateMu.Unlock()

	data, err := json.Marshal(snapshot)
	if err != nil {
		slog.Error("Failed to marshal metrics", "service", c.serviceName, "error", err)
		return
	}

	key := MetricsKeyPrefix + c.serviceName
	if err := c.redis.Set(ctx, key, data, MetricsTTL).Err(); err != nil {
		slog.Error("Failed to write metrics to Redis", "service", c.serviceName, "error", err)
		return
	}

	slog.Debug("Metrics written to Redis", "service", c.serviceName, "key", key)
}

// Reader reads service metrics from Redis.
type Reader struct {
	redis *redis.Client
}

// NewReader creates a new metrics reader.
func NewReader(redisClient *redis.Client) *Reader {
	return &Reader{redis: redisClient}
}

// GetServiceMetrics retrieves metrics for a specific service.
func (r *Reader) GetServiceMetrics(ctx context.Context, serviceName string) (*ServiceMetrics, error) {
	data, err := r.redis.Get(ctx, MetricsKeyPrefix+serviceName).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w for service: %s", ErrNoMetrics, serviceName)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read metrics: %w", err)
	}

	var m ServiceMetrics
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metrics: %w", err)
	}
	if time.Since(m.LastUpdated) > MetricsTTL {
		m.Status = "unhealthy"
	}
	return &m, nil
}

// GetAllServiceMetrics retrieves metrics for every service that has reported.
// Keys are walked with SCAN so a large keyspace does not block Redis.
func (r *Reader) GetAllServiceMetrics(ctx context.Context) (map[string]*ServiceMetrics, error) {
	var names []string
	iter := r.redis.Scan(ctx, 0, MetricsKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		names = append(names, iter.Val()[len(MetricsKeyPrefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list metrics keys: %w", err)
	}
	sort.Strings(names)

	result := make(map[string]*ServiceMetrics, len(names))
	for _, name := range names {
		m, err := r.GetServiceMetrics(ctx, name)
		if err != nil {
			slog.Warn("Failed to read metrics for service", "service", name, "error", err)
			continue
		}
		result[name] = m
	}
	return result, nil
}

// ServiceNames is the list of platform services that report metrics.
var ServiceNames = []string{
	"ingestion",
	"processing",
	"emergency",
	"notification",
	"simulator",
}
