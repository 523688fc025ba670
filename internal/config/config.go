package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Report ReportConfig `mapstructure:"report"`
	Run    RunConfig    `mapstructure:"run"`
}

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Port           string `mapstructure:"port"`
	LogLevel       string `mapstructure:"log_level"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`
}

// ReportConfig holds the wording printed on the documents.
type ReportConfig struct {
	Organization   string `mapstructure:"organization"`
	RegimeNotice   string `mapstructure:"regime_notice"`
	CurrencySymbol string `mapstructure:"currency_symbol"`
}

// RunConfig holds the reconciliation defaults a request may override.
type RunConfig struct {
	Variant      string `mapstructure:"variant"`
	OnInvalidRow string `mapstructure:"on_invalid_row"`
	LedgerSheet  string `mapstructure:"ledger_sheet"`
}

// Load reads configuration from an optional TOML file and the environment.
// Env var overrides use prefix CORRISPETTIVI_ (CORRISPETTIVI_SERVER_PORT).
// PORT is honoured as well, as hosting platforms set it.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.max_upload_bytes", 32<<20)
	v.SetDefault("report.organization", "AZIENDA AGRICOLA PEDRA E LUNA")
	v.SetDefault("report.regime_notice", "Regime Speciale IVA art.34 DPR 633/72")
	v.SetDefault("report.currency_symbol", "€")
	v.SetDefault("run.variant", "auto")
	v.SetDefault("run.on_invalid_row", "drop")
	v.SetDefault("run.ledger_sheet", "corrispettivi")

	v.SetConfigType("toml")
	if cfgPath := os.Getenv("CORRISPETTIVI_CONFIG"); cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("corrispettivi")
	}

	v.SetEnvPrefix("CORRISPETTIVI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The file is optional unless named explicitly.
	if err := v.ReadInConfig(); err != nil && os.Getenv("CORRISPETTIVI_CONFIG") != "" {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Port = port
	}
	return c, nil
}
