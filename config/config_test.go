package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViper_Defaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, "8000", cfg.App.Port)
	assert.Equal(t, "careplan:jobs", cfg.Worker.QueueKey)
	assert.Equal(t, 4, cfg.Worker.Concurrency)
	assert.Equal(t, 5*time.Second, cfg.Worker.DequeueTimeout)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.True(t, cfg.LLM.UseMock)
	assert.Empty(t, cfg.JWT.Secret)
	assert.Equal(t, 720*time.Hour, cfg.JWT.Expiry)
}

func TestFromViper_InvalidValuesFallBack(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("WORKER_CONCURRENCY", 0)
	v.Set("WORKER_DEQUEUE_TIMEOUT", "soon")

	cfg := fromViper(v)

	assert.Equal(t, 1, cfg.Worker.Concurrency)
	assert.Equal(t, 5*time.Second, cfg.Worker.DequeueTimeout)
}

func TestDatabaseURL_EscapesCredentials(t *testing.T) {
	db := DBConfig{Host: "db", Port: "5432", User: "app", Password: "p@ss/word", Name: "pharmacy", SSLMode: "disable"}

	assert.Equal(t, "pgx5://app:p%40ss%2Fword@db:5432/pharmacy?sslmode=disable", db.DatabaseURL())
}
