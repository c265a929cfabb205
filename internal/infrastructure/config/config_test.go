package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func clearEnv() {
	for _, k := range []string{"PORT", "LOG_LEVEL", "DATABASE_DSN", "OPENAI_API_KEY", "MAX_ITERATIONS_DEFAULT"} {
		os.Unsetenv(k)
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnv()

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "", cfg.DatabaseDSN)
	assert.Equal(t, 100, cfg.GetMaxIterationsDefault())
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv()
	os.Setenv("PORT", "9090")
	os.Setenv("MAX_ITERATIONS_DEFAULT", "50")
	defer clearEnv()

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 9090, cfg.GetPortInt())
	assert.Equal(t, 50, cfg.GetMaxIterationsDefault())
}

func TestGetMaxIterationsDefault_FallsBackOnInvalidValue(t *testing.T) {
	clearEnv()
	os.Setenv("MAX_ITERATIONS_DEFAULT", "not-a-number")
	defer clearEnv()

	cfg := Load()
	assert.Equal(t, 100, cfg.GetMaxIterationsDefault())
}
