package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"SERVER_PORT", "STORAGE_BACKEND", "DAILY_LIMIT_POLICY", "MAX_DEPOSIT_AMOUNT", "DB_INITIAL_BACKOFF", "LEDGER_OWNER"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, BackendPostgres, cfg.StorageBackend)
	assert.Equal(t, PolicyPerTransaction, cfg.DailyLimitPolicy)
	assert.True(t, cfg.MaxDepositAmount.IsZero())
	assert.Equal(t, 100*time.Millisecond, cfg.DBInitialBackoff)
	assert.Equal(t, "local", cfg.LedgerOwner)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "Snapshot")
	t.Setenv("DAILY_LIMIT_POLICY", "cumulative")
	t.Setenv("MAX_DEPOSIT_AMOUNT", "250000.50")
	t.Setenv("DB_MAX_RETRIES", "7")
	t.Setenv("DB_INITIAL_BACKOFF", "2s")
	t.Setenv("DEFAULT_CURRENCY", "usd")
	t.Setenv("DB_HOST", "db.internal")

	cfg := Load()
	assert.Equal(t, BackendSnapshot, cfg.StorageBackend)
	assert.Equal(t, PolicyCumulative, cfg.DailyLimitPolicy)
	assert.True(t, cfg.MaxDepositAmount.Equal(decimal.RequireFromString("250000.50")))
	assert.Equal(t, 7, cfg.DBMaxRetries)
	assert.Equal(t, 2*time.Second, cfg.DBInitialBackoff)
	assert.Equal(t, "USD", cfg.DefaultCurrency)
	assert.Contains(t, cfg.GetDBConnectionString(), "host=db.internal")
}

func TestLoad_IgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("DB_MAX_RETRIES", "many")
	t.Setenv("MAX_DEPOSIT_AMOUNT", "lots")

	cfg := Load()
	assert.Equal(t, 3, cfg.DBMaxRetries)
	assert.True(t, cfg.MaxDepositAmount.IsZero())
}

func TestValidate(t *testing.T) {
	cfg := Load()
	cfg.StorageBackend = "redis"
	assert.Error(t, cfg.Validate())

	cfg = Load()
	cfg.DailyLimitPolicy = "weekly"
	assert.Error(t, cfg.Validate())

	cfg = Load()
	cfg.MaxDepositAmount = decimal.NewFromInt(-1)
	assert.Error(t, cfg.Validate())
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\nexport VB_TEST_A=\"from file\"\nVB_TEST_B=kept\nnot a pair\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("VB_TEST_B", "from env")
	t.Setenv("VB_TEST_A", "")
	os.Unsetenv("VB_TEST_A")

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from file", os.Getenv("VB_TEST_A"))
	assert.Equal(t, "from env", os.Getenv("VB_TEST_B"))

	assert.Error(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}
