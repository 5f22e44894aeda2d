package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Settings is the full runtime configuration of the service. Values come
// from an optional YAML file overridden by PROVISIOND_* environment
// variables.
type Settings struct {
	API       APISettings       `mapstructure:"api"`
	Database  DatabaseSettings  `mapstructure:"database"`
	Kafka     KafkaSettings     `mapstructure:"kafka"`
	Telemetry TelemetrySettings `mapstructure:"telemetry"`
	Catalog   CatalogSettings   `mapstructure:"catalog"`
	RateLimit RateLimitSettings `mapstructure:"rate_limit"`
	Leader    LeaderSettings    `mapstructure:"leader"`
}

// APISettings configures the HTTP listener.
type APISettings struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	DebugHost       string        `mapstructure:"debug_host"`
}

// DatabaseSettings configures the postgres connection.
type DatabaseSettings struct {
	// URL takes precedence over the individual fields when set.
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

// DSN returns the connection string for the configured database.
func (d DatabaseSettings) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// KafkaSettings configures the event bus.
type KafkaSettings struct {
	Brokers           string `mapstructure:"brokers"`
	HostStateTopic    string `mapstructure:"host_state_topic"`
	ClusterStateTopic string `mapstructure:"cluster_state_topic"`
	LifecycleTopic    string `mapstructure:"lifecycle_topic"`
	GroupID           string `mapstructure:"group_id"`
	ClientID          string `mapstructure:"client_id"`
}

// TelemetrySettings configures tracing export.
type TelemetrySettings struct {
	Enabled       bool    `mapstructure:"enabled"`
	Host          string  `mapstructure:"host"`
	Probability   float64 `mapstructure:"probability"`
	ServiceName   string  `mapstructure:"service_name"`
	ExcludeHealth bool    `mapstructure:"exclude_health"`
}

// CatalogSettings points at the adapter/OS catalog file.
type CatalogSettings struct {
	Path string `mapstructure:"path"`
}

// RateLimitSettings bounds progress-report ingestion.
type RateLimitSettings struct {
	ProgressRPS   float64 `mapstructure:"progress_rps"`
	ProgressBurst int     `mapstructure:"progress_burst"`
}

// LeaderSettings configures optional leader election for replicated
// deployments.
type LeaderSettings struct {
	Enabled      bool   `mapstructure:"enabled"`
	Namespace    string `mapstructure:"namespace"`
	LeaderLockID string `mapstructure:"leader_lock_id"`
	Identity     string `mapstructure:"identity"`
}

// LoadSettings reads configuration from the given YAML file (may be empty to
// skip file loading) with PROVISIOND_* environment variables taking
// precedence, e.g. PROVISIOND_DATABASE_HOST overrides database.host.
func LoadSettings(path string) (*Settings, error) {
	v := viper.New()

	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", "8080")
	v.SetDefault("api.read_timeout", 5*time.Second)
	v.SetDefault("api.write_timeout", 10*time.Second)
	v.SetDefault("api.idle_timeout", 120*time.Second)
	v.SetDefault("api.shutdown_timeout", 20*time.Second)
	v.SetDefault("api.debug_host", "0.0.0.0:6060")
	v.SetDefault("database.host", "postgres")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "provisiond")
	v.SetDefault("kafka.brokers", "kafka:9092")
	v.SetDefault("kafka.host_state_topic", "host-state-events")
	v.SetDefault("kafka.cluster_state_topic", "cluster-state-events")
	v.SetDefault("kafka.lifecycle_topic", "provisioning-lifecycle-events")
	v.SetDefault("kafka.group_id", "provisiond")
	v.SetDefault("kafka.client_id", "provisiond-api")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.host", "tempo:4317")
	v.SetDefault("telemetry.probability", 0.05)
	v.SetDefault("telemetry.service_name", "provisiond")
	v.SetDefault("telemetry.exclude_health", true)
	v.SetDefault("catalog.path", "config/catalog.yaml")
	v.SetDefault("rate_limit.progress_rps", 50.0)
	v.SetDefault("rate_limit.progress_burst", 100)
	v.SetDefault("leader.enabled", false)
	v.SetDefault("leader.namespace", "default")
	v.SetDefault("leader.leader_lock_id", "provisiond-writer-lock")

	v.SetEnvPrefix("PROVISIOND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("unmarshaling settings: %w", err)
	}
	return &settings, nil
}
