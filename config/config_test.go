package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/etnz/cryptofolio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfolio.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "ledger.jsonl"), cfg.LedgerFile)
	assert.Equal(t, filepath.Join(dir, "snapshots"), cfg.SnapshotDir)
	assert.Equal(t, []string{"USD"}, cfg.Currencies)
	assert.Equal(t, 5*time.Minute, cfg.Feed.CacheTTL)

	policy, err := cfg.RedeploymentPolicy()
	require.NoError(t, err)
	assert.Equal(t, cryptofolio.Transfer, policy)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
ledger_file: /data/ledger.jsonl
currencies: [USD, VND]
policy: disposal
log_level: debug
snapshot_schedule: "0 18 * * *"
feed:
  url: https://api.example.com/price?ids={symbol}
  currency: USD
  lower: true
  cache_ttl: 30s
  paths:
    BTC: $.bitcoin.usd
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/ledger.jsonl", cfg.LedgerFile)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "quotes.json"), cfg.QuotesFile, "unset fields keep their default")
	assert.Equal(t, []string{"USD", "VND"}, cfg.Currencies)
	assert.Equal(t, "0 18 * * *", cfg.SnapshotSchedule)
	assert.Equal(t, 30*time.Second, cfg.Feed.CacheTTL)
	assert.Equal(t, "$.bitcoin.usd", cfg.Feed.Paths["BTC"])
	assert.True(t, cfg.Feed.Lower)

	policy, err := cfg.RedeploymentPolicy()
	require.NoError(t, err)
	assert.Equal(t, cryptofolio.Disposal, policy)
}

func TestLoad_Env(t *testing.T) {
	path := writeConfig(t, "policy: disposal\n")
	t.Setenv(EnvPolicy, "transfer")
	t.Setenv(EnvLedgerFile, "/tmp/other.jsonl")
	t.Setenv(EnvCurrencies, "EUR,VND")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "transfer", cfg.Policy)
	assert.Equal(t, "/tmp/other.jsonl", cfg.LedgerFile)
	assert.Equal(t, []string{"EUR", "VND"}, cfg.Currencies)
}

func TestLoad_Invalid(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		want    string
	}{
		{"policy", "policy: sell\n", "Policy"},
		{"log level", "log_level: loud\n", "LogLevel"},
		{"currency", "currencies: [usd]\n", "Currencies"},
		{"no currency", "currencies: []\n", "Currencies"},
		{"feed path", "feed:\n  paths:\n    BTC: bitcoin\n", "Paths"},
		{"feed currency", "feed:\n  url: https://example.com/{symbol}\n", "feed currency"},
		{"yaml", "policy: [\n", "cannot parse"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
