// Package config loads the service configuration from an optional
// config.yaml, an optional .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. MEALPRICE_JWT_SECRET.
const EnvPrefix = "MEALPRICE"

// JWTConfig signs API tokens. An empty Secret disables them.
type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

// OIDCConfig holds the SSO provider settings.
type OIDCConfig struct {
	Issuer       string `mapstructure:"issuer"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

// Enabled reports whether SSO login is configured.
func (c OIDCConfig) Enabled() bool {
	return c.Issuer != "" && c.ClientID != ""
}

// Config is the resolved application configuration.
type Config struct {
	Addr string `mapstructure:"addr"`
	// DatabaseURL selects the Postgres store. Empty means in-memory.
	DatabaseURL string        `mapstructure:"database_url"`
	SessionTTL  time.Duration `mapstructure:"session_ttl"`
	JWT         JWTConfig     `mapstructure:"jwt"`
	OIDC        OIDCConfig    `mapstructure:"oidc"`
	// Rates maps "FROM_TO" currency pairs to exchange rates.
	Rates map[string]string `mapstructure:"-"`
}

// Load reads the configuration. When path is empty, config.yaml in the
// working directory is used if it exists.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetDefault("addr", ":8080")
	v.SetDefault("database_url", "")
	v.SetDefault("session_ttl", "24h")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.ttl", "720h")
	v.SetDefault("oidc.issuer", "")
	v.SetDefault("oidc.client_id", "")
	v.SetDefault("oidc.client_secret", "")
	v.SetDefault("oidc.redirect_url", "")

	// environment overrides, e.g. MEALPRICE_OIDC_CLIENT_ID=...
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("addr", EnvPrefix+"_ADDR", "ADDR")
	_ = v.BindEnv("database_url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	rates, err := parseRates(v.Get("rates"))
	if err != nil {
		return nil, err
	}
	c.Rates = rates

	if c.SessionTTL <= 0 {
		return nil, fmt.Errorf("session_ttl must be positive, got %s", c.SessionTTL)
	}
	if c.JWT.TTL <= 0 {
		return nil, fmt.Errorf("jwt.ttl must be positive, got %s", c.JWT.TTL)
	}
	return &c, nil
}

// parseRates accepts a map from a config file or a "GBP_EUR=1.17,EUR_GBP=0.85"
// string from the environment.
func parseRates(raw any) (map[string]string, error) {
	out := make(map[string]string)
	switch r := raw.(type) {
	case nil:
	case map[string]any:
		for k, v := range r {
			out[k] = fmt.Sprint(v)
		}
	case string:
		for _, entry := range strings.Split(r, ",") {
			entry = strings.TrimSpace(entry)
			if entry == "" {
				continue
			}
			pair, rate, ok := strings.Cut(entry, "=")
			if !ok {
				return nil, fmt.Errorf("rates: entry %q must be FROM_TO=rate", entry)
			}
			out[strings.TrimSpace(pair)] = strings.TrimSpace(rate)
		}
	default:
		return nil, fmt.Errorf("rates: unsupported value of type %T", raw)
	}
	return out, nil
}
