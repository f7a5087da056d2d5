package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopedidos/config"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "segredo")
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := config.LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "SAG", cfg.OrderNumberPrefix)
	assert.Equal(t, 4, cfg.OrderNumberWidth)
	assert.False(t, cfg.OrderAllowReopen)
	assert.Equal(t, 5*time.Second, cfg.DBTimeout)
	assert.Equal(t, 20*time.Millisecond, cfg.SequenceRetryBackoff)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Empty(t, cfg.ExportCompanyName)
	assert.True(t, cfg.IsMemoryStore())
}

func TestLoadConfig_Fail_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "")
	require.NoError(t, os.Unsetenv("JWT_SECRET_KEY"))
	t.Setenv("STORE_DRIVER", "memory")

	_, err := config.LoadConfig()

	assert.Error(t, err)
}

func TestValidate_Fail_PostgresWithoutDSN(t *testing.T) {
	cfg := config.Config{StoreDriver: "postgres", OrderNumberWidth: 4, OrderNumberPrefix: "SAG", SequenceRetryBackoff: time.Millisecond}

	err := cfg.Validate()

	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestValidate_Fail_WidthOutOfRange(t *testing.T) {
	cfg := config.Config{StoreDriver: "memory", OrderNumberWidth: 8, OrderNumberPrefix: "SAG", SequenceRetryBackoff: time.Millisecond}

	err := cfg.Validate()

	assert.ErrorContains(t, err, "ORDER_NUMBER_WIDTH")
}

func TestValidate_Fail_UnknownDriver(t *testing.T) {
	cfg := config.Config{StoreDriver: "firestore", OrderNumberWidth: 4, OrderNumberPrefix: "SAG", SequenceRetryBackoff: time.Millisecond}

	assert.Error(t, cfg.Validate())
}
