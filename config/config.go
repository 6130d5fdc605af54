// Package config loads the settings of the cfolio tool from a YAML file and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/etnz/cryptofolio"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"gopkg.in/yaml.v3"
	validation "gopkg.in/go-playground/validator.v9"
	en_translations "gopkg.in/go-playground/validator.v9/translations/en"
)

// Environment variables overriding the file.
const (
	EnvLedgerFile  = "CFOLIO_LEDGER_FILE"
	EnvQuotesFile  = "CFOLIO_QUOTES_FILE"
	EnvSnapshotDir = "CFOLIO_SNAPSHOT_DIR"
	EnvPolicy      = "CFOLIO_POLICY"
	EnvLogLevel    = "CFOLIO_LOG_LEVEL"
	EnvCurrencies  = "CFOLIO_CURRENCIES"
)

type Config struct {
	LedgerFile       string   `yaml:"ledger_file" validate:"required"`
	QuotesFile       string   `yaml:"quotes_file" validate:"required"`
	SnapshotDir      string   `yaml:"snapshot_dir" validate:"required"`
	Currencies       []string `yaml:"currencies" validate:"required,min=1,dive,min=3,max=5,uppercase"`
	Policy           string   `yaml:"policy" validate:"omitempty,oneof=transfer disposal"`
	LogLevel         string   `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	SnapshotSchedule string   `yaml:"snapshot_schedule"`
	Feed             Feed     `yaml:"feed"`
}

// Feed configures the HTTP price feed. The {symbol} placeholder of URL is
// replaced by the asset symbol, and Paths gives, per symbol, the JSONPath of
// the price in the response.
type Feed struct {
	URL      string            `yaml:"url" validate:"omitempty,startswith=http"`
	Currency string            `yaml:"currency"`
	Lower    bool              `yaml:"lower"` // lower-case symbols in URL
	Paths    map[string]string `yaml:"paths" validate:"dive,keys,uppercase,endkeys,startswith=$"`
	CacheTTL time.Duration     `yaml:"cache_ttl"`
}

// Default returns the configuration of a portfolio kept in dir.
func Default(dir string) *Config {
	return &Config{
		LedgerFile:       filepath.Join(dir, "ledger.jsonl"),
		QuotesFile:       filepath.Join(dir, "quotes.json"),
		SnapshotDir:      filepath.Join(dir, "snapshots"),
		Currencies:       []string{"USD"},
		Policy:           "transfer",
		LogLevel:         "info",
		SnapshotSchedule: "@daily",
		Feed:             Feed{CacheTTL: 5 * time.Minute},
	}
}

// Load reads the configuration file at path over the defaults of its
// directory, applies environment overrides and validates the result. A missing
// file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default(filepath.Dir(path))
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("cannot read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("cannot parse config %q: %w", path, err)
		}
	}
	cfg.applyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	for env, dst := range map[string]*string{
		EnvLedgerFile:  &c.LedgerFile,
		EnvQuotesFile:  &c.QuotesFile,
		EnvSnapshotDir: &c.SnapshotDir,
		EnvPolicy:      &c.Policy,
		EnvLogLevel:    &c.LogLevel,
	} {
		if v, ok := lookup(env); ok && v != "" {
			*dst = v
		}
	}
	if v, ok := lookup(EnvCurrencies); ok && v != "" {
		c.Currencies = strings.Split(v, ",")
	}
}

// Validate checks the configuration and reports every invalid field.
func (c *Config) Validate() error {
	v := validation.New()
	trans, err := translator(v)
	if err != nil {
		return err
	}
	var msgs []string
	err = v.Struct(c)
	var verrs validation.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		for _, fe := range verrs {
			msgs = append(msgs, fe.Translate(trans))
		}
	case err != nil:
		return err
	}
	if c.Feed.URL != "" && c.Feed.Currency == "" {
		msgs = append(msgs, "feed currency is required when a feed url is set")
	}
	if len(msgs) == 0 {
		return nil
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func translator(v *validation.Validate) (ut.Translator, error) {
	english := en.New()
	trans, found := ut.New(english, english).GetTranslator("en")
	if !found {
		return nil, errors.New("translator not found")
	}
	if err := en_translations.RegisterDefaultTranslations(v, trans); err != nil {
		return nil, err
	}
	return trans, nil
}

// RedeploymentPolicy returns the configured policy.
func (c *Config) RedeploymentPolicy() (cryptofolio.RedeploymentPolicy, error) {
	return cryptofolio.ParseRedeploymentPolicy(c.Policy)
}
