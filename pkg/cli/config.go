// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of s3touch.
//
// s3touch is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/jeremyhahn/s3touch/pkg/adapters"
	"github.com/jeremyhahn/s3touch/pkg/factory"
	"github.com/jeremyhahn/s3touch/pkg/target"
)

// Config holds the CLI configuration settings.
type Config struct {
	Region    string
	Endpoint  string
	Proxy     string
	AccessKey string
	SecretKey string

	CACert             string
	InsecureSkipVerify bool

	Topic  string
	Lambda string

	Workers       int
	Rate          float64
	Recursive     bool
	RequesterPays bool
	DryRun        bool

	OutputFormat string
	LogLevel     string
	LogJSON      bool
}

// InitConfig initializes the configuration using Viper.
// Configuration priority: flags > env vars > config file > defaults.
func InitConfig(cfgFile string) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault("region", factory.DefaultRegion)
	v.SetDefault("workers", 1)
	v.SetDefault("rate", 0)
	v.SetDefault("output-format", "text")
	v.SetDefault("log-level", "info")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".s3touch")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("S3TOUCH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// The standard AWS and proxy variables apply when the prefixed ones are unset.
	if err := v.BindEnv("region", "S3TOUCH_REGION", "AWS_REGION", "AWS_DEFAULT_REGION"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("proxy", "S3TOUCH_PROXY", "HTTPS_PROXY", "https_proxy"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("ca-cert", "S3TOUCH_CA_CERT", "AWS_CA_BUNDLE"); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	return v, nil
}

// GetConfig extracts the configuration from Viper into a Config struct.
func GetConfig(v *viper.Viper) *Config {
	return &Config{
		Region:        v.GetString("region"),
		Endpoint:      v.GetString("endpoint"),
		Proxy:         v.GetString("proxy"),
		AccessKey:     v.GetString("access-key"),
		SecretKey:     v.GetString("secret-key"),
		CACert:        v.GetString("ca-cert"),
		Topic:         v.GetString("topic"),
		Lambda:        v.GetString("lambda"),
		Workers:       v.GetInt("workers"),
		Rate:          v.GetFloat64("rate"),
		Recursive:     v.GetBool("recursive"),
		RequesterPays: v.GetBool("requester-pays"),
		DryRun:        v.GetBool("dry-run"),
		OutputFormat:  v.GetString("output-format"),
		LogLevel:      v.GetString("log-level"),
		LogJSON:       v.GetBool("log-json"),

		InsecureSkipVerify: v.GetBool("insecure-skip-verify"),
	}
}

// Override returns the explicit delivery target, if any.
func (c *Config) Override() target.Override {
	return target.Override{Topic: c.Topic, Function: c.Lambda}
}

// FactoryOptions converts Config to AWS client options.
func (c *Config) FactoryOptions() factory.Options {
	return factory.Options{
		Region:    c.Region,
		Endpoint:  c.Endpoint,
		Proxy:     c.Proxy,
		AccessKey: c.AccessKey,
		SecretKey: c.SecretKey,

		CACert:             c.CACert,
		InsecureSkipVerify: c.InsecureSkipVerify,
	}
}

// DisplayConfig formats and displays the current configuration.
func DisplayConfig(cfg *Config, format string) string {
	switch format {
	case string(FormatJSON):
		return formatConfigJSON(cfg)
	case string(FormatTable):
		return formatConfigTable(cfg)
	default:
		return formatConfigText(cfg)
	}
}

type setting struct {
	label string
	key   string
	value string
}

// settings lists the displayable configuration, omitting unset optional values.
func settings(cfg *Config) []setting {
	all := []setting{
		{"Region", "region", cfg.Region},
		{"Endpoint", "endpoint", cfg.Endpoint},
		{"Proxy", "proxy", cfg.Proxy},
		{"Access Key", "access_key", maskSecret(cfg.AccessKey)},
		{"Secret Key", "secret_key", maskSecret(cfg.SecretKey)},
		{"CA Cert", "ca_cert", cfg.CACert},
		{"Topic", "topic", cfg.Topic},
		{"Lambda", "lambda", cfg.Lambda},
		{"Workers", "workers", fmt.Sprintf("%d", cfg.Workers)},
		{"Rate", "rate", fmt.Sprintf("%g", cfg.Rate)},
		{"Recursive", "recursive", fmt.Sprintf("%t", cfg.Recursive)},
		{"Requester Pays", "requester_pays", fmt.Sprintf("%t", cfg.RequesterPays)},
		{"Dry Run", "dry_run", fmt.Sprintf("%t", cfg.DryRun)},
		{"Skip TLS Verify", "insecure_skip_verify", fmt.Sprintf("%t", cfg.InsecureSkipVerify)},
		{"Log Level", "log_level", cfg.LogLevel},
		{"Output Format", "output_format", cfg.OutputFormat},
	}

	out := all[:0]
	for _, s := range all {
		if s.value != "" {
			out = append(out, s)
		}
	}
	return out
}

func formatConfigText(cfg *Config) string {
	var result string
	for _, s := range settings(cfg) {
		result += fmt.Sprintf("%s: %s\n", s.label, s.value)
	}
	return result
}

func formatConfigTable(cfg *Config) string {
	var result string
	result += "┌──────────────────┬────────────────────────────────────────┐\n"
	result += "│ Setting          │ Value                                  │\n"
	result += "├──────────────────┼────────────────────────────────────────┤\n"
	for _, s := range settings(cfg) {
		result += fmt.Sprintf("│ %-16s │ %-38s │\n", s.label, truncate(s.value, 38))
	}
	result += "└──────────────────┴────────────────────────────────────────┘\n"
	return result
}

func formatConfigJSON(cfg *Config) string {
	entries := settings(cfg)
	result := "{\n"
	for i, s := range entries {
		sep := ","
		if i == len(entries)-1 {
			sep = ""
		}
		result += fmt.Sprintf("  %q: %q%s\n", s.key, s.value, sep)
	}
	result += "}\n"
	return result
}

// maskSecret masks sensitive information, showing only first 4 characters.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) < 5 {
		return "****"
	}
	return s[:4] + "****"
}

// truncate truncates a string to maxLen characters.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// ValidateConfig validates the configuration before any remote call is made.
func ValidateConfig(cfg *Config) error {
	if err := cfg.Override().Validate(); err != nil {
		return err
	}
	if cfg.Workers < 1 {
		return ErrInvalidWorkers
	}
	if cfg.Rate < 0 {
		return ErrInvalidRate
	}
	if _, err := adapters.ParseLevel(cfg.LogLevel); err != nil {
		return ErrInvalidLogLevel
	}

	switch OutputFormat(cfg.OutputFormat) {
	case FormatText, FormatJSON, FormatTable:
	default:
		return ErrUnsupportedOutputFormat
	}

	return nil
}
