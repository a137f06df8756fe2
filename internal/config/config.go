package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Store  StoreConfig  `mapstructure:"store"`
	Cipher CipherConfig `mapstructure:"cipher"`
	AI     AIConfig     `mapstructure:"ai"`
	Auth   AuthConfig   `mapstructure:"auth"`
	Recall RecallConfig `mapstructure:"recall"`
	Log    LogConfig    `mapstructure:"log"`
}

type ServerConfig struct {
	Host        string   `mapstructure:"host"`
	Port        int      `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// Addr returns host:port for listening.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type StoreConfig struct {
	Type     string         `mapstructure:"type"`
	Encrypt  bool           `mapstructure:"encrypt"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Bolt     BoltConfig     `mapstructure:"bolt"`
	Postgres DatabaseConfig `mapstructure:"postgres"`
	Supabase SupabaseConfig `mapstructure:"supabase"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type BoltConfig struct {
	Path string `mapstructure:"path"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`
}

type SupabaseConfig struct {
	URL      string        `mapstructure:"url"`
	APIKey   string        `mapstructure:"api_key"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type CipherConfig struct {
	RotationInterval time.Duration `mapstructure:"rotation_interval"`
	// MasterSecret switches to keys derived per rotation epoch, shared by
	// every process configured with the same secret.
	MasterSecret string `mapstructure:"master_secret"`
}

type AIConfig struct {
	BaseURL            string        `mapstructure:"base_url"`
	Token              string        `mapstructure:"token"`
	ChatModel          string        `mapstructure:"chat_model"`
	TitleModel         string        `mapstructure:"title_model"`
	ImageModel         string        `mapstructure:"image_model"`
	TranscriptionModel string        `mapstructure:"transcription_model"`
	EmbeddingModel     string        `mapstructure:"embedding_model"`
	Temperature        float32       `mapstructure:"temperature"`
	TopP               float32       `mapstructure:"top_p"`
	TokenLimit         int           `mapstructure:"token_limit"`
	TitleTimeout       time.Duration `mapstructure:"title_timeout"`
}

type AuthConfig struct {
	JWTSecret     string `mapstructure:"jwt_secret"`
	Issuer        string `mapstructure:"issuer"`
	OwnerClaim    string `mapstructure:"owner_claim"`
	CookieName    string `mapstructure:"cookie_name"`
	AutoProvision bool   `mapstructure:"auto_provision"`
}

type RecallConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	QdrantURL  string `mapstructure:"qdrant_url"`
	Collection string `mapstructure:"collection"`
	APIKey     string `mapstructure:"api_key"`
	TopK       int    `mapstructure:"top_k"`
	Dimension  uint64 `mapstructure:"dimension"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var storeTypes = []string{"memory", "redis", "bolt", "postgres", "supabase"}

// Load reads configuration from path, or from synister.{yaml,json,toml} in
// the usual locations when path is empty. A missing config file is not an
// error; defaults and environment variables apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("synister")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".synister"))
		}
	}

	v.SetEnvPrefix("SYNISTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Variable names used by the original deployment
	_ = v.BindEnv("ai.token", "SYNISTER_AI_TOKEN", "GITHUB_TOKEN")
	_ = v.BindEnv("auth.jwt_secret", "SYNISTER_AUTH_JWT_SECRET", "NEXTAUTH_SECRET")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("store.type", "memory")
	v.SetDefault("store.encrypt", true)
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.ttl", 24*time.Hour)
	v.SetDefault("store.bolt.path", "data/synister.bolt")
	v.SetDefault("store.postgres.host", "localhost")
	v.SetDefault("store.postgres.port", 5432)
	v.SetDefault("store.postgres.user", "synister")
	v.SetDefault("store.postgres.password", "")
	v.SetDefault("store.postgres.database", "synister")
	v.SetDefault("store.postgres.sslmode", "disable")
	v.SetDefault("store.supabase.url", "")
	v.SetDefault("store.supabase.api_key", "")
	v.SetDefault("store.supabase.cache_ttl", 5*time.Minute)

	v.SetDefault("cipher.rotation_interval", 10*time.Minute)
	v.SetDefault("cipher.master_secret", "")

	v.SetDefault("ai.base_url", "https://models.github.ai/inference")
	v.SetDefault("ai.chat_model", "openai/gpt-4.1-nano")
	v.SetDefault("ai.title_model", "openai/gpt-4.1-nano")
	v.SetDefault("ai.image_model", "dall-e-3")
	v.SetDefault("ai.transcription_model", "whisper-1")
	v.SetDefault("ai.embedding_model", "text-embedding-3-small")
	v.SetDefault("ai.temperature", 1.0)
	v.SetDefault("ai.top_p", 1.0)
	v.SetDefault("ai.token_limit", 100000)
	v.SetDefault("ai.title_timeout", 15*time.Second)

	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.owner_claim", "sub")
	v.SetDefault("auth.cookie_name", "synister_token")
	v.SetDefault("auth.auto_provision", true)

	v.SetDefault("recall.enabled", false)
	v.SetDefault("recall.qdrant_url", "http://localhost:6334")
	v.SetDefault("recall.collection", "synister_memory")
	v.SetDefault("recall.api_key", "")
	v.SetDefault("recall.top_k", 8)
	v.SetDefault("recall.dimension", 1536)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	known := false
	for _, t := range storeTypes {
		if c.Store.Type == t {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown store type %q", c.Store.Type)
	}

	switch c.Store.Type {
	case "redis":
		if c.Store.Redis.Addr == "" {
			return errors.New("store.redis.addr is required")
		}
	case "bolt":
		if c.Store.Bolt.Path == "" {
			return errors.New("store.bolt.path is required")
		}
	case "supabase":
		if c.Store.Supabase.URL == "" || c.Store.Supabase.APIKey == "" {
			return errors.New("store.supabase.url and store.supabase.api_key are required")
		}
	}

	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if c.Cipher.RotationInterval <= 0 {
		return errors.New("cipher.rotation_interval must be positive")
	}
	if c.Recall.Enabled && c.Recall.QdrantURL == "" {
		return errors.New("recall.qdrant_url is required when recall is enabled")
	}
	return nil
}

// DSN returns the connection URL used by lib/pq and golang-migrate.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode)
}
