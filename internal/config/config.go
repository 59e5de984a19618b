package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Zones    ZonesConfig    `yaml:"zones" mapstructure:"zones"`
	Overpass OverpassConfig `yaml:"overpass" mapstructure:"overpass"`
	Penalty  PenaltyConfig  `yaml:"penalty" mapstructure:"penalty"`
	Engine   EngineConfig   `yaml:"engine" mapstructure:"engine"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// ZonesConfig configures the static zone database source.
type ZonesConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Watch       bool   `yaml:"watch" mapstructure:"watch"`
}

// OverpassConfig configures the external road and amenity lookups.
type OverpassConfig struct {
	BaseURL        string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RoadRadiusM    int     `yaml:"road_radius_m" mapstructure:"road_radius_m"`
	AmenityRadiusM int     `yaml:"amenity_radius_m" mapstructure:"amenity_radius_m"`
	HazardRadiusM  int     `yaml:"hazard_radius_m" mapstructure:"hazard_radius_m"`
	RateLimit      float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst      int     `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// PenaltyConfig configures fine calculation.
type PenaltyConfig struct {
	Base float64 `yaml:"base" mapstructure:"base"`
}

// EngineConfig configures evaluation behavior.
type EngineConfig struct {
	DynamicEnabled bool `yaml:"dynamic_enabled" mapstructure:"dynamic_enabled"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RISKZONE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("zones.driver", "file")
	v.SetDefault("zones.path", "zones.json")
	v.SetDefault("zones.watch", true)
	v.SetDefault("overpass.base_url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("overpass.timeout_secs", 5)
	v.SetDefault("overpass.road_radius_m", 30)
	v.SetDefault("overpass.amenity_radius_m", 100)
	v.SetDefault("overpass.hazard_radius_m", 500)
	v.SetDefault("overpass.rate_limit", 2)
	v.SetDefault("overpass.rate_burst", 2)
	v.SetDefault("penalty.base", 500)
	v.SetDefault("engine.dynamic_enabled", true)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
