// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config resolves the process configuration from built-in defaults,
// an optional YAML file, a .env file, and environment variables, in rising
// order of precedence. The result is a types.Config value that callers copy
// and never mutate.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdfmd/pkg/types"
)

// Name is the config file base name and the env prefix source.
const Name = "pdfmd"

// envAliases maps config keys to the unprefixed variables deployments of the
// service already set.
var envAliases = map[string][]string{
	"ai.api_key":     {"AZURE_API_KEY"},
	"ai.endpoint":    {"AZURE_API_BASE"},
	"ai.api_version": {"AZURE_API_VERSION"},
	"server.api_key": {"PDF_PARSER_API_KEY"},
}

// providerKeyEnv names the variable consulted when ai.api_key is unset.
var providerKeyEnv = map[types.AIProvider][]string{
	types.ProviderOpenAI:    {"OPENAI_API_KEY"},
	types.ProviderGemini:    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	types.ProviderAnthropic: {"ANTHROPIC_API_KEY"},
}

// New returns a viper instance with every default registered and the
// environment bound. file may be empty to search the default locations.
func New(file string) (*viper.Viper, error) {
	v := viper.New()
	if err := setDefaults(v, types.DefaultConfig()); err != nil {
		return nil, err
	}

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(Name)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", Name))
		}
	}

	v.SetEnvPrefix(strings.ToUpper(Name))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, aliases := range envAliases {
		names := append([]string{envName(key)}, aliases...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}
	return v, nil
}

// ReadFile reads the config file into v. A missing file in the default
// locations is not an error; an explicitly named one must exist.
func ReadFile(v *viper.Viper) (string, error) {
	err := v.ReadInConfig()
	if err == nil {
		return v.ConfigFileUsed(), nil
	}
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return "", nil
	}
	return "", fmt.Errorf("reading config: %w", err)
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables already set. Missing files are
// skipped.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// Resolve unmarshals v into a Config and fills the provider key from its
// conventional environment variable when none was configured.
func Resolve(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.AI.APIKey == "" {
		for _, name := range providerKeyEnv[cfg.AI.Provider] {
			if val := os.Getenv(name); val != "" {
				cfg.AI.APIKey = val
				break
			}
		}
	}
	return cfg, Validate(cfg)
}

// Load is New, ReadFile and Resolve in one call.
func Load(file string) (types.Config, error) {
	v, err := New(file)
	if err != nil {
		return types.Config{}, err
	}
	if _, err := ReadFile(v); err != nil {
		return types.Config{}, err
	}
	return Resolve(v)
}

// Validate rejects settings no run could work with.
func Validate(cfg types.Config) error {
	var errs []error
	switch cfg.AI.Provider {
	case types.ProviderNone, types.ProviderAzure, types.ProviderOpenAI, types.ProviderGemini, types.ProviderAnthropic:
	case "":
	default:
		errs = append(errs, fmt.Errorf("ai.provider: unknown provider %q", cfg.AI.Provider))
	}
	if cfg.AI.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("ai.max_attempts: must be at least 1, got %d", cfg.AI.MaxAttempts))
	}
	if cfg.AI.MaxConcurrency < 0 {
		errs = append(errs, fmt.Errorf("ai.max_concurrency: must not be negative, got %d", cfg.AI.MaxConcurrency))
	}
	if cfg.Cleanup.MaxConsecutiveLinebreaks < 0 {
		errs = append(errs, fmt.Errorf("cleanup.max_consecutive_linebreaks: must not be negative, got %d", cfg.Cleanup.MaxConsecutiveLinebreaks))
	}
	if cfg.Processing.MaxPDFSize < 0 || cfg.Processing.MaxImageSize < 0 {
		errs = append(errs, errors.New("processing: size limits must not be negative"))
	}
	if cfg.Classifier.MinPalette < 0 || cfg.Classifier.MaxScanPixels < 0 {
		errs = append(errs, errors.New("classifier: min_palette and max_scan_pixels must not be negative"))
	}
	if cfg.Loader.TableMinConfidence < 0 || cfg.Loader.TableMinConfidence > 1 {
		errs = append(errs, fmt.Errorf("loader.table_min_confidence: must be within 0-1, got %g", cfg.Loader.TableMinConfidence))
	}
	return errors.Join(errs...)
}

// Redacted returns cfg with every credential masked, for display.
func Redacted(cfg types.Config) types.Config {
	cfg.AI.APIKey = mask(cfg.AI.APIKey)
	cfg.Server.APIKey = mask(cfg.Server.APIKey)
	cfg.Server.AllowedOrigins = append([]string(nil), cfg.Server.AllowedOrigins...)
	return cfg
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}

// setDefaults registers every leaf of def so that environment variables and
// partial config files resolve against the full key set.
func setDefaults(v *viper.Viper, def types.Config) error {
	raw, err := yaml.Marshal(def)
	if err != nil {
		return fmt.Errorf("encoding defaults: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return fmt.Errorf("decoding defaults: %w", err)
	}
	flatten("", tree, v.SetDefault)
	return nil
}

func flatten(prefix string, tree map[string]any, set func(string, any)) {
	for k, val := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]any); ok {
			flatten(key, sub, set)
			continue
		}
		set(key, val)
	}
}

func envName(key string) string {
	return strings.ToUpper(Name + "_" + strings.ReplaceAll(key, ".", "_"))
}
