package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds all configuration for the eSaúdeZap backend.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Google    GoogleConfig    `mapstructure:"google"`
	Secrets   SecretsConfig   `mapstructure:"secrets"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Bot       BotConfig       `mapstructure:"bot"`
}

type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	FrontendURL string `mapstructure:"frontend_url"`
}

// DatabaseConfig selects the gorm driver: "mysql" in production,
// "sqlite" for local development.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type AuthConfig struct {
	JWTSecret   string `mapstructure:"jwt_secret"`
	TokenTTLMin int    `mapstructure:"token_ttl_minutes"`
}

// GoogleConfig holds the OAuth client used for Google sign-in.
type GoogleConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

// SecretsConfig holds the key that seals stored provider API keys.
// KeyHex must decode to 32 bytes.
type SecretsConfig struct {
	KeyHex string `mapstructure:"key_hex"`
}

type RateLimitConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	RequestsPerHour int  `mapstructure:"requests_per_hour"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// BotConfig holds provider endpoints and model names. Provider API keys are
// not configured here; they live in the bot_api_keys table and are managed
// through the admin surface.
type BotConfig struct {
	OpenAIBaseURL string `mapstructure:"openai_base_url"`
	OpenAIModel   string `mapstructure:"openai_model"`
	GeminiBaseURL string `mapstructure:"gemini_base_url"`
	GeminiModel   string `mapstructure:"gemini_model"`
}

// Load reads configuration from an optional file plus ESAUDEZAP_* env vars.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("ESAUDEZAP")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// no config file: defaults + env only
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.frontend_url", "http://localhost:3000")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./data/esaudezap.db")

	v.SetDefault("auth.jwt_secret", "dev-secret-change-me")
	v.SetDefault("auth.token_ttl_minutes", 60)

	v.SetDefault("google.redirect_url", "http://localhost:8080/api/auth/google/callback")

	v.SetDefault("secrets.key_hex", "")

	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.requests_per_hour", 100)

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("bot.openai_base_url", "https://api.openai.com/v1")
	v.SetDefault("bot.openai_model", "gpt-4o-mini")
	v.SetDefault("bot.gemini_base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("bot.gemini_model", "gemini-1.5-flash")
}

// Address returns the listen address.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
