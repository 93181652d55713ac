package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"rando/internal/render"
)

// Config holds all application configuration.
type Config struct {
	Scene    SceneConfig     `mapstructure:"scene"`
	Render   render.Settings `mapstructure:"render"`
	Fetch    FetchConfig     `mapstructure:"fetch"`
	Kafka    KafkaConfig     `mapstructure:"kafka"`
	Minio    MinioConfig     `mapstructure:"minio"`
	Database DatabaseConfig  `mapstructure:"database"`
	Valkey   ValkeyConfig    `mapstructure:"valkey"`
	NATS     NATSConfig      `mapstructure:"nats"`
	Metrics  MetricsConfig   `mapstructure:"metrics"`
	Log      LogConfig       `mapstructure:"log"`
}

// SceneConfig describes the one-shot build run by cmd/scene.
type SceneConfig struct {
	BuildID    string `mapstructure:"build_id"`
	Version    string `mapstructure:"version"`
	DemURL     string `mapstructure:"dem_url"`
	ProfileURL string `mapstructure:"profile_url"`
	PoiURL     string `mapstructure:"poi_url"`
	Demo       bool   `mapstructure:"demo"`
}

type FetchConfig struct {
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

// MinioConfig configures the object store. An empty Endpoint disables it.
type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
}

// Enabled reports whether scene documents go to the object store.
func (m MinioConfig) Enabled() bool { return m.Endpoint != "" && m.Bucket != "" }

// DatabaseConfig points at the build history database. An empty Host
// disables history.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}

// ValkeyConfig configures the payload cache. An empty Addr disables it.
type ValkeyConfig struct {
	Addr string        `mapstructure:"addr"`
	TTL  time.Duration `mapstructure:"ttl"`
}

// NATSConfig configures transition events. An empty URL disables them.
type NATSConfig struct {
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from defaults, an optional config.yaml and
// RANDO_ prefixed environment variables, in increasing precedence.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	// Environment variables: RANDO_SCENE_DEM_URL → scene.dem_url
	v.SetEnvPrefix("RANDO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	rs := render.DefaultSettings()

	v.SetDefault("scene.build_id", "")
	v.SetDefault("scene.version", "1.0")
	v.SetDefault("scene.dem_url", "")
	v.SetDefault("scene.profile_url", "")
	v.SetDefault("scene.poi_url", "")
	v.SetDefault("scene.demo", false)
	v.SetDefault("render.cam_offset", rs.CamOffset)
	v.SetDefault("render.cam_speed_trek", rs.CamSpeedTrek)
	v.SetDefault("render.cam_speed_fly", rs.CamSpeedFly)
	v.SetDefault("render.min_thickness", rs.MinThickness)
	v.SetDefault("render.trek_offset", rs.TrekOffset)
	v.SetDefault("render.trek_width", rs.TrekWidth)
	v.SetDefault("render.trek_color.r", rs.TrekColor.R)
	v.SetDefault("render.trek_color.g", rs.TrekColor.G)
	v.SetDefault("render.trek_color.b", rs.TrekColor.B)
	v.SetDefault("render.tile_zoom", rs.TileZoom)
	v.SetDefault("fetch.user_agent", "rando-scene/1.0")
	v.SetDefault("fetch.timeout", 30*time.Second)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "scene-builds")
	v.SetDefault("kafka.group_id", "rando-scened")
	v.SetDefault("minio.endpoint", "")
	v.SetDefault("minio.access_key", "")
	v.SetDefault("minio.secret_key", "")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket", "")
	v.SetDefault("minio.region", "us-east-1")
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "rando")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "rando")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("valkey.addr", "")
	v.SetDefault("valkey.ttl", time.Hour)
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.subject_prefix", "rando.scene")
	v.SetDefault("metrics.addr", ":9090")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	switch c.Scene.Version {
	case "1.0":
	case "1.1":
		if c.Scene.DemURL != "" && c.Scene.PoiURL == "" {
			errs = append(errs, "scene.poi_url is required for version 1.1")
		}
	default:
		errs = append(errs, fmt.Sprintf("scene.version must be 1.0 or 1.1, got %q", c.Scene.Version))
	}
	if c.Scene.DemURL != "" && c.Scene.ProfileURL == "" {
		errs = append(errs, "scene.profile_url is required with scene.dem_url")
	}

	if c.Render.MinThickness < 0 {
		errs = append(errs, "render.min_thickness must not be negative")
	}
	if c.Render.TrekWidth <= 0 {
		errs = append(errs, "render.trek_width must be positive")
	}
	if c.Render.CamSpeedTrek < 0 || c.Render.CamSpeedTrek > 2 {
		errs = append(errs, fmt.Sprintf("render.cam_speed_trek must be 0-2, got %g", c.Render.CamSpeedTrek))
	}
	if c.Render.TileZoom < 0 || c.Render.TileZoom > 22 {
		errs = append(errs, fmt.Sprintf("render.tile_zoom must be 0-22, got %d", c.Render.TileZoom))
	}
	if c.Fetch.Timeout < 0 {
		errs = append(errs, "fetch.timeout must not be negative")
	}

	if len(c.Kafka.Brokers) == 0 {
		errs = append(errs, "kafka.brokers is required")
	}
	if c.Kafka.Topic == "" {
		errs = append(errs, "kafka.topic is required")
	}
	if c.Minio.Endpoint != "" && (c.Minio.AccessKey == "" || c.Minio.SecretKey == "") {
		errs = append(errs, "minio.access_key and minio.secret_key are required with minio.endpoint")
	}
	if c.Database.Host != "" && (c.Database.Port <= 0 || c.Database.Port > 65535) {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Valkey.Addr != "" && c.Valkey.TTL <= 0 {
		errs = append(errs, "valkey.ttl must be positive")
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("log.format must be json or text, got %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
