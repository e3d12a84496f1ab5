package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"bin-telemetry-service/internal/analytics"
	"bin-telemetry-service/internal/routing"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`

	Database struct {
		URL      string `mapstructure:"url"`
		SeedPath string `mapstructure:"seed_path"`
	} `mapstructure:"database"`

	Redis struct {
		Addr     string        `mapstructure:"addr"`
		Password string        `mapstructure:"password"`
		DB       int           `mapstructure:"db"`
		TTL      time.Duration `mapstructure:"ttl"`
	} `mapstructure:"redis"`

	MQTT struct {
		Broker   string `mapstructure:"broker"`
		ClientID string `mapstructure:"client_id"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		Topic    string `mapstructure:"topic"`
	} `mapstructure:"mqtt"`

	ORS struct {
		APIKey  string `mapstructure:"api_key"`
		BaseURL string `mapstructure:"base_url"`
		Profile string `mapstructure:"profile"`
	} `mapstructure:"ors"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`

	Watch struct {
		Debounce time.Duration `mapstructure:"debounce"`
		Lookback time.Duration `mapstructure:"lookback"`
	} `mapstructure:"watch"`

	Analysis  analytics.Config       `mapstructure:"analysis"`
	Selection routing.SelectionRules `mapstructure:"selection"`
}

// Load reads config.yaml from dir when present, then lets environment
// variables override any key (analysis.max_fill_percent -> ANALYSIS_MAX_FILL_PERCENT).
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("load config: read %q: %w", dir, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("load config: decode: %w", err)
	}

	if err := cfg.Analysis.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return &cfg, nil
}

// Every key needs a default so that AutomaticEnv can see it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")

	v.SetDefault("database.url", "")
	v.SetDefault("database.seed_path", "data/seeds/telemetry.json")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 10*time.Minute)

	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.client_id", "bin-telemetry-service")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.topic", "bins/+/telemetry")

	v.SetDefault("ors.api_key", "")
	v.SetDefault("ors.base_url", "https://api.openrouteservice.org")
	v.SetDefault("ors.profile", "foot-walking")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("watch.debounce", 2*time.Second)
	v.SetDefault("watch.lookback", 30*24*time.Hour)

	a := analytics.DefaultConfig()
	v.SetDefault("analysis.max_fill_percent", a.MaxFillPercent)
	v.SetDefault("analysis.threshold_hours", a.ThresholdHours)
	v.SetDefault("analysis.low_fill_rate_limit", a.LowFillRateLimit)
	v.SetDefault("analysis.sudden_change_delta", a.SuddenChangeDelta)
	v.SetDefault("analysis.anomaly_min", a.AnomalyMin)
	v.SetDefault("analysis.anomaly_max", a.AnomalyMax)
	v.SetDefault("analysis.emptying_from_percent", a.EmptyingFromPercent)
	v.SetDefault("analysis.emptying_to_percent", a.EmptyingToPercent)
	v.SetDefault("analysis.report_reset_from_percent", a.ReportResetFromPercent)
	v.SetDefault("analysis.report_reset_to_percent", a.ReportResetToPercent)
	v.SetDefault("analysis.parallelism", a.Parallelism)

	s := routing.DefaultSelectionRules()
	v.SetDefault("selection.level_alert_percent", s.LevelAlertPercent)
	v.SetDefault("selection.battery_alert_percent", s.BatteryAlertPercent)
}

// Get returns the environment value for key or fallback when unset.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
