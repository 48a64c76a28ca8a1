// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// The filename is the key name and the trimmed contents are the value.
//
// Recognized key files: azure-api-key, openai-api-key, gemini-api-key,
// anthropic-api-key, pdfmd-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/pdfmd/pkg/types"
)

// Key file names.
const (
	AzureKey     = "azure-api-key"
	OpenAIKey    = "openai-api-key"
	GeminiKey    = "gemini-api-key"
	AnthropicKey = "anthropic-api-key"
	ServerKey    = "pdfmd-api-key"
)

var providerKeys = map[types.AIProvider]string{
	types.ProviderAzure:     AzureKey,
	types.ProviderOpenAI:    OpenAIKey,
	types.ProviderGemini:    GeminiKey,
	types.ProviderAnthropic: AnthropicKey,
}

// Load reads every regular, non-hidden file in dir. A missing directory
// yields an empty map. Unreadable files are logged and skipped.
func Load(dir string, logger *logrus.Logger) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	out := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.WithError(err).WithField("secret", name).Warn("could not read secret")
			continue
		}
		if v := strings.TrimSpace(string(data)); v != "" {
			out[name] = v
		}
	}
	return out, nil
}

// Apply fills credentials cfg leaves empty: the key for the configured AI
// provider and the server token. Configured values always win.
func Apply(cfg types.Config, s map[string]string) types.Config {
	if cfg.AI.APIKey == "" {
		if name, ok := providerKeys[cfg.AI.Provider]; ok {
			cfg.AI.APIKey = s[name]
		}
	}
	if cfg.Server.APIKey == "" {
		cfg.Server.APIKey = s[ServerKey]
	}
	return cfg
}
