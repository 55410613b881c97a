package config

import (
	"bytes"
	_ "embed"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed defaults.yaml
var defaults []byte

// ---- Root ----

type Config struct {
	HTTP       HTTPConfig     `mapstructure:"http"`
	Log        LogConfig      `mapstructure:"log"`
	MySQL      DatabaseConfig `mapstructure:"mysql"`
	ClickHouse DatabaseConfig `mapstructure:"clickhouse"`
	Redis      RedisConfig    `mapstructure:"redis"`
	Kafka      KafkaConfig    `mapstructure:"kafka"`
	WhatsApp   WhatsAppConfig `mapstructure:"whatsapp"`
	Shopify    ShopifyConfig  `mapstructure:"shopify"`
	Admin      AdminConfig    `mapstructure:"admin"`
	Worker     WorkerConfig   `mapstructure:"worker"`
}

// ---- Leaf structs ----

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idletime"`
	PingTimeout     time.Duration `mapstructure:"ping_timeout"`
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	SettingsTTL time.Duration `mapstructure:"settings_ttl"`
	// TokenKey seals access tokens in the settings cache; falls back to shopify.api_secret.
	TokenKey string `mapstructure:"token_key"`
}

type KafkaConfig struct {
	Brokers        []string `mapstructure:"brokers"`
	Topic          string   `mapstructure:"topic"`
	GroupID        string   `mapstructure:"group_id"`
	MinBytes       int      `mapstructure:"min_bytes"`
	MaxBytes       int      `mapstructure:"max_bytes"`
	CommitInterval int      `mapstructure:"commit_interval_ms"`
}

type WhatsAppConfig struct {
	BaseURL              string        `mapstructure:"base_url"`
	APIVersion           string        `mapstructure:"api_version"`
	Timeout              time.Duration `mapstructure:"timeout"`
	DefaultCountryCode   string        `mapstructure:"default_country_code"`
	NationalNumberLength int           `mapstructure:"national_number_length"`
	SummaryLimit         int           `mapstructure:"summary_limit"`
}

type ShopifyConfig struct {
	APISecret  string        `mapstructure:"api_secret"`
	APIVersion string        `mapstructure:"api_version"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type AdminConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type WorkerConfig struct {
	Count int `mapstructure:"count"`
}

// SettingsCacheSecret returns the secret used to seal cached access tokens.
// Empty means tokens are not cached.
func (c Config) SettingsCacheSecret() string {
	if k := strings.TrimSpace(c.Redis.TokenKey); k != "" {
		return k
	}
	return strings.TrimSpace(c.Shopify.APISecret)
}

// Load reads embedded defaults, merges user YAML (if provided), and applies env overrides (SHOPNOTIFY_*).
func Load(path string) (Config, error) {
	v := viper.New()

	// embedded defaults
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		_ = v.MergeInConfig()
	}

	// env override (SHOPNOTIFY_*), e.g. SHOPNOTIFY_SHOPIFY_API_SECRET
	v.SetEnvPrefix("SHOPNOTIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
