package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// SecurityConfig holds the session-token and cookie contract. CookieCrossSite
// switches the cookie to SameSite=None, which browsers only accept together
// with the Secure attribute.
type SecurityConfig struct {
	SessionSecret   string
	SessionTTL      time.Duration
	CookieName      string
	CookieSecure    bool
	CookieCrossSite bool
	MinPasswordLen  int
}

// ChatConfig carries the credentials for the external chat-identity service.
type ChatConfig struct {
	APIKey    string
	APISecret string
	BaseURL   string
}

type SyncConfig struct {
	Stream        string
	Group         string
	Consumer      string
	ClaimInterval time.Duration
	ReconcileSpec string
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Security         SecurityConfig
	Chat             ChatConfig
	Sync             SyncConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("STREAMIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate enforces the credentials the process cannot run without. Their
// absence is a startup failure, never a per-request one.
func (cfg *AppConfig) validate() error {
	if cfg.Security.SessionSecret == "" {
		return fmt.Errorf("security.sessionsecret is required")
	}
	if cfg.Postgres.DSN == "" {
		return fmt.Errorf("postgres.dsn is required")
	}
	if cfg.Chat.APIKey == "" || cfg.Chat.APISecret == "" {
		return fmt.Errorf("chat.apikey and chat.apisecret are required")
	}
	if cfg.Security.CookieCrossSite && !cfg.Security.CookieSecure {
		return fmt.Errorf("security.cookiecrosssite requires security.cookiesecure")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	// Required keys get empty defaults so viper resolves their env overrides
	// during Unmarshal; validate() rejects them when still empty.
	v.SetDefault("security.sessionsecret", "")
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("chat.apikey", "")
	v.SetDefault("chat.apisecret", "")
	v.SetDefault("allowcorsorigins", "")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 10)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("security.sessionttl", "168h") // 7 days
	v.SetDefault("security.cookiename", "session")
	v.SetDefault("security.cookiesecure", false)
	v.SetDefault("security.cookiecrosssite", false)
	v.SetDefault("security.minpasswordlen", 6)

	v.SetDefault("chat.baseurl", "https://chat.stream-io-api.com")

	v.SetDefault("sync.stream", "identity:sync")
	v.SetDefault("sync.group", "identity-sync")
	v.SetDefault("sync.consumer", "api-1")
	v.SetDefault("sync.claiminterval", "1m")
	v.SetDefault("sync.reconcilespec", "0 0 4 * * *") // daily, 04:00
}
