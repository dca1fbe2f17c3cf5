// Device Inventory Service
//
// This is the main entry point for the device inventory. It serves the
// device REST API over a SQLite or PostgreSQL store and publishes device
// lifecycle events to MQTT and InfluxDB when enabled.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nerrad567/device-inventory/migrations"

	"github.com/nerrad567/device-inventory/internal/api"
	"github.com/nerrad567/device-inventory/internal/device"
	"github.com/nerrad567/device-inventory/internal/infrastructure/config"
	"github.com/nerrad567/device-inventory/internal/infrastructure/database"
	"github.com/nerrad567/device-inventory/internal/infrastructure/influxdb"
	"github.com/nerrad567/device-inventory/internal/infrastructure/logging"
	"github.com/nerrad567/device-inventory/internal/infrastructure/mqtt"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// historyPruneInterval is how often expired state history is removed.
const historyPruneInterval = 24 * time.Hour

func main() {
	// Cancel on Ctrl+C or SIGTERM for graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting device inventory",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	db, err := database.Open(ctx, database.Config{
		Driver:       cfg.Database.Driver,
		Path:         cfg.Database.Path,
		DSN:          cfg.Database.DSN,
		WALMode:      cfg.Database.WALMode,
		BusyTimeout:  cfg.Database.BusyTimeout,
		MaxOpenConns: cfg.Database.MaxOpenConns,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "driver", db.Driver(), "path", db.Path())

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	if applied, _, statusErr := db.GetMigrationStatus(ctx); statusErr == nil && len(applied) > 0 {
		log.Info("database migrations complete",
			"applied", len(applied),
			"schema_version", applied[len(applied)-1].Version,
		)
	}

	dialect := device.Dialect(db.Driver())
	repo := device.NewSQLRepository(db.DB, dialect)

	var (
		policy  device.Policy = device.NoopPolicy{}
		breaker api.BreakerStater
	)
	if cfg.Resilience.Enabled {
		rp := device.NewResiliencePolicy(resilienceOptions(cfg.Resilience), log.Component("resilience"))
		policy, breaker = rp, rp
		log.Info("store resilience enabled",
			"timeout_ms", cfg.Resilience.TimeoutMS,
			"max_retries", cfg.Resilience.MaxRetries,
			"breaker_threshold", cfg.Resilience.Breaker.FailureThreshold,
		)
	}

	svc := device.NewService(repo, policy)
	svc.SetLogger(log.Component("device"))

	if cfg.History.Enabled {
		history := device.NewSQLHistoryRepository(db.DB, dialect)
		svc.SetHistory(history)
		if retention := cfg.GetHistoryRetention(); retention > 0 {
			go pruneHistoryLoop(ctx, history, retention, historyPruneInterval, log.Component("history"))
		}
		log.Info("state history enabled", "retention_days", cfg.History.RetentionDays)
	}

	components := make(map[string]api.HealthChecker)
	var sinks device.MultiSink

	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT)
		if mqttErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", mqttErr)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log.Component("mqtt"))
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT connected")
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		components["mqtt"] = mqttClient
		sinks = append(sinks, newMQTTSink(mqttClient))
	} else {
		log.Info("MQTT disabled")
	}

	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(ctx, cfg.InfluxDB)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		components["influxdb"] = influxClient
		sinks = append(sinks, newInfluxSink(influxClient))
	} else {
		log.Info("InfluxDB disabled")
	}

	if len(sinks) > 0 {
		svc.SetEventSink(sinks)
	}

	if err := healthCheck(ctx, db, components); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	server, err := api.New(api.Deps{
		Config:     cfg.API,
		Pagination: cfg.Pagination,
		Logger:     log.Component("api"),
		Service:    svc,
		Version:    version,
		Database:   db,
		Components: components,
		Pool:       db,
		Breaker:    breaker,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	// Deferred Close() calls run in reverse order: API server, InfluxDB,
	// MQTT, database.
	log.Info("shutdown signal received, cleaning up")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses INVENTORY_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("INVENTORY_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// resilienceOptions converts the resilience config section into policy options.
func resilienceOptions(cfg config.ResilienceConfig) device.ResilienceOptions {
	opts := device.DefaultResilienceOptions()
	opts.Timeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
	opts.MaxRetries = cfg.MaxRetries
	opts.InitialInterval = time.Duration(cfg.InitialIntervalMS) * time.Millisecond
	opts.MaxInterval = time.Duration(cfg.MaxIntervalMS) * time.Millisecond
	opts.OpenTimeout = time.Duration(cfg.Breaker.OpenTimeout) * time.Second
	if cfg.Breaker.FailureThreshold > 0 {
		opts.FailureThreshold = uint32(cfg.Breaker.FailureThreshold) // #nosec G115 -- checked positive
	}
	if cfg.Breaker.HalfOpenRequests > 0 {
		opts.HalfOpenRequests = uint32(cfg.Breaker.HalfOpenRequests) // #nosec G115 -- checked positive
	}
	return opts
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - components: Optional connections (MQTT, InfluxDB) to check
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db api.HealthChecker, components map[string]api.HealthChecker) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	for name, c := range components {
		if err := c.HealthCheck(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// historyPruner is the part of device.HistoryRepository used for retention.
type historyPruner interface {
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}

// pruneHistoryLoop removes state history older than retention once at
// startup and then every interval until ctx is cancelled.
func pruneHistoryLoop(ctx context.Context, history historyPruner, retention, interval time.Duration, log *logging.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		removed, err := history.Prune(ctx, retention)
		switch {
		case err != nil && ctx.Err() == nil:
			log.Warn("failed to prune state history", "error", err)
		case removed > 0:
			log.Info("pruned state history", "removed", removed)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
