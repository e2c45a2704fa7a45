package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("TOKEN_AUTH_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "test-secret", cfg.TokenSecret)
	assert.NotEmpty(t, cfg.DatabaseURL)
	assert.NotZero(t, cfg.TokenTTL)
}
