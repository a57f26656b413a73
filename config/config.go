package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App    AppConfig
	DB     DBConfig
	Redis  RedisConfig
	Worker WorkerConfig
	LLM    LLMConfig
	JWT    JWTConfig
}

type AppConfig struct {
	Port     string
	Env      string
	LogLevel string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type WorkerConfig struct {
	QueueKey       string
	Concurrency    int
	DequeueTimeout time.Duration
}

type LLMConfig struct {
	Provider        string
	UseMock         bool
	OpenAIAPIKey    string
	OpenAIModel     string
	AnthropicAPIKey string
	ClaudeModel     string
}

// JWTConfig configures intake partner tokens. An empty Secret disables
// partner authentication.
type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8000")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "pharmacy_user")
	v.SetDefault("DB_PASSWORD", "pharmacy_pass")
	v.SetDefault("DB_NAME", "pharmacy_db")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("QUEUE_KEY", "careplan:jobs")
	v.SetDefault("WORKER_CONCURRENCY", 4)
	v.SetDefault("WORKER_DEQUEUE_TIMEOUT", "5s")
	v.SetDefault("LLM_PROVIDER", "openai")
	v.SetDefault("USE_MOCK_LLM", true)
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("CLAUDE_MODEL", "claude-3-5-sonnet-20241022")
	v.SetDefault("INTAKE_JWT_EXPIRY", "720h")
}

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)

	// .env is optional; environment variables alone are enough.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	dequeueTimeout, err := time.ParseDuration(v.GetString("WORKER_DEQUEUE_TIMEOUT"))
	if err != nil || dequeueTimeout <= 0 {
		dequeueTimeout = 5 * time.Second
	}

	jwtExpiry, err := time.ParseDuration(v.GetString("INTAKE_JWT_EXPIRY"))
	if err != nil {
		jwtExpiry = 30 * 24 * time.Hour
	}

	concurrency := v.GetInt("WORKER_CONCURRENCY")
	if concurrency < 1 {
		concurrency = 1
	}

	return &Config{
		App: AppConfig{
			Port:     v.GetString("APP_PORT"),
			Env:      v.GetString("APP_ENV"),
			LogLevel: v.GetString("LOG_LEVEL"),
		},
		DB: DBConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Worker: WorkerConfig{
			QueueKey:       v.GetString("QUEUE_KEY"),
			Concurrency:    concurrency,
			DequeueTimeout: dequeueTimeout,
		},
		LLM: LLMConfig{
			Provider:        v.GetString("LLM_PROVIDER"),
			UseMock:         v.GetBool("USE_MOCK_LLM"),
			OpenAIAPIKey:    v.GetString("OPENAI_API_KEY"),
			OpenAIModel:     v.GetString("OPENAI_MODEL"),
			AnthropicAPIKey: v.GetString("ANTHROPIC_API_KEY"),
			ClaudeModel:     v.GetString("CLAUDE_MODEL"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("INTAKE_JWT_SECRET"),
			Expiry: jwtExpiry,
		},
	}
}

// DatabaseURL returns the postgres URL used by the migration runner.
func (c DBConfig) DatabaseURL() string {
	u := url.URL{
		Scheme:   "pgx5",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%s", c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}
