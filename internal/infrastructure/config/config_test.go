package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
database:
  driver: "sqlite3"
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
api:
  host: "127.0.0.1"
  port: 9090
pagination:
  default_size: 10
  max_size: 50
resilience:
  enabled: true
  timeout_ms: 250
  max_retries: 2
  breaker:
    failure_threshold: 3
mqtt:
  enabled: true
  broker:
    host: "broker.local"
    port: 1883
  qos: 1
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port = %d, want 9090", cfg.API.Port)
	}
	if cfg.Pagination.DefaultSize != 10 || cfg.Pagination.MaxSize != 50 {
		t.Errorf("Pagination = %+v, want 10/50", cfg.Pagination)
	}
	if cfg.Resilience.TimeoutMS != 250 || cfg.Resilience.Breaker.FailureThreshold != 3 {
		t.Errorf("Resilience = %+v, want timeout 250 and threshold 3", cfg.Resilience)
	}
	// Unset keys keep their defaults.
	if cfg.Resilience.Breaker.OpenTimeout != 30 {
		t.Errorf("Breaker.OpenTimeout = %d, want default 30", cfg.Resilience.Breaker.OpenTimeout)
	}
	if !cfg.MQTT.Enabled || cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT = %+v, want enabled broker.local", cfg.MQTT)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("Load() error = %v, want defaults", err)
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Errorf("Database.Driver = %q, want %q", cfg.Database.Driver, DriverSQLite)
	}
	if cfg.Pagination.DefaultSize != 20 || cfg.Pagination.MaxSize != 100 {
		t.Errorf("Pagination = %+v, want 20/100", cfg.Pagination)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "invalid: [yaml: content")

	if _, err := Load(configPath); err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	configPath := writeConfig(t, `
database:
  driver: "postgres"
  dsn: ""
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected validation error for missing dsn, got nil")
	}
	if !strings.Contains(err.Error(), "database.dsn") {
		t.Errorf("Load() error = %v, want mention of database.dsn", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("INVENTORY_DATABASE_DRIVER", "postgres")
	t.Setenv("INVENTORY_DATABASE_DSN", "postgres://u:p@localhost/inv?sslmode=disable")
	t.Setenv("INVENTORY_API_PORT", "7070")
	t.Setenv("INVENTORY_MQTT_ENABLED", "true")
	t.Setenv("INVENTORY_LOG_LEVEL", "debug")

	cfg, err := Load(writeConfig(t, "api:\n  port: 8080\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Driver != DriverPostgres {
		t.Errorf("Database.Driver = %q, want %q", cfg.Database.Driver, DriverPostgres)
	}
	if cfg.API.Port != 7070 {
		t.Errorf("API.Port = %d, want 7070 (env wins over file)", cfg.API.Port)
	}
	if !cfg.MQTT.Enabled {
		t.Error("MQTT.Enabled = false, want true")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoad_EnvOverrideInvalid(t *testing.T) {
	t.Setenv("INVENTORY_API_PORT", "eighty")

	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("Load() expected error for non-integer port, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:    "defaults",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Database.Driver = "mysql" },
			wantErr: true,
		},
		{
			name:    "sqlite without path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: true,
		},
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.API.Port = 0 },
			wantErr: true,
		},
		{
			name:    "max size above hard limit",
			mutate:  func(c *Config) { c.Pagination.MaxSize = 101 },
			wantErr: true,
		},
		{
			name:    "default size above max",
			mutate:  func(c *Config) { c.Pagination.DefaultSize = 200 },
			wantErr: true,
		},
		{
			name:    "negative retries",
			mutate:  func(c *Config) { c.Resilience.MaxRetries = -1 },
			wantErr: true,
		},
		{
			name:    "resilience disabled ignores breaker",
			mutate:  func(c *Config) { c.Resilience.Enabled = false; c.Resilience.Breaker.FailureThreshold = 0 },
			wantErr: false,
		},
		{
			name:    "invalid qos",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name:    "influxdb enabled without bucket",
			mutate:  func(c *Config) { c.InfluxDB.Enabled = true; c.InfluxDB.Bucket = "" },
			wantErr: true,
		},
		{
			name:    "negative retention",
			mutate:  func(c *Config) { c.History.RetentionDays = -1 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Durations(t *testing.T) {
	cfg := Default()

	if got := cfg.API.Timeouts.ReadTimeout(); got != 30*time.Second {
		t.Errorf("ReadTimeout() = %v, want 30s", got)
	}
	if got := cfg.API.Timeouts.WriteTimeout(); got != 30*time.Second {
		t.Errorf("WriteTimeout() = %v, want 30s", got)
	}
	if got := cfg.API.Timeouts.IdleTimeout(); got != 60*time.Second {
		t.Errorf("IdleTimeout() = %v, want 60s", got)
	}
	if got := cfg.GetHistoryRetention(); got != 90*24*time.Hour {
		t.Errorf("GetHistoryRetention() = %v, want 90 days", got)
	}
}
