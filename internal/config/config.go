package config

import "time"

const (
	EnvDev   = "dev"
	EnvProd  = "prod"
	EnvLocal = "local"
)

var globalConfig *Config

func Global() *Config {
	return globalConfig
}

func SetGlobal(cfg *Config) {
	globalConfig = cfg
}

type Config struct {
	Env         string `env:"ENV" env-required:"true"`
	HTTP        HTTPConfig
	Postgres    PostgresConfig
	Redis       RedisConfig
	Session     SessionConfig
	RateLimit   RateLimitConfig
	Pinecone    PineconeConfig
	HuggingFace HuggingFaceConfig
	GoogleOAuth GoogleOAuthConfig
}

type HTTPConfig struct {
	Host            string        `env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port            string        `env:"HTTP_PORT" env-default:"8080"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
	AllowedOrigins  string        `env:"HTTP_ALLOWED_ORIGINS" env-default:"*"`
}

type PostgresConfig struct {
	Host           string        `env:"POSTGRES_HOST" env-required:"true"`
	Port           int           `env:"POSTGRES_PORT" env-default:"5432"`
	Username       string        `env:"POSTGRES_USERNAME" env-required:"true"`
	Password       string        `env:"POSTGRES_PASSWORD" env-required:"true"`
	Database       string        `env:"POSTGRES_DATABASE" env-required:"true"`
	SSLMode        string        `env:"POSTGRES_SSL_MODE" env-default:"disable"`
	ConnectTimeout time.Duration `env:"POSTGRES_CONNECT_TIMEOUT" env-default:"10s"`
	PingTimeout    time.Duration `env:"POSTGRES_PING_TIMEOUT" env-default:"10s"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR" env-default:"localhost:6379"`
}

type SessionConfig struct {
	// TTL defaults to 30 days, matching the lifetime the clients assume
	// for the session_id cookie.
	TTL time.Duration `env:"SESSION_TTL" env-default:"720h"`
}

type RateLimitConfig struct {
	Requests int           `env:"RATE_LIMIT_REQUESTS" env-default:"120"`
	Window   time.Duration `env:"RATE_LIMIT_WINDOW" env-default:"1m"`
}

type PineconeConfig struct {
	APIKey string `env:"PINECONE_API_KEY"`
	// IndexHost is the full https URL of the serverless index,
	// e.g. https://ai-task-assistant-xxxxxxx.svc.us-west1-gcp.pinecone.io.
	IndexHost string `env:"PINECONE_INDEX_HOST"`
}

type HuggingFaceConfig struct {
	Token string `env:"HF_TOKEN"`
	Model string `env:"HF_MODEL" env-default:"sentence-transformers/all-mpnet-base-v2"`
}

type GoogleOAuthConfig struct {
	ClientID     string        `env:"GOOGLE_CLIENT_ID"`
	ClientSecret string        `env:"GOOGLE_CLIENT_SECRET"`
	RedirectURL  string        `env:"GOOGLE_REDIRECT_URL"`
	StateKey     string        `env:"OAUTH_STATE_KEY" env-default:"change-me"`
	StateTTL     time.Duration `env:"OAUTH_STATE_TTL" env-default:"5m"`
}
