// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdfmd/pkg/types"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		want  map[string]string
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, AzureKey, "  az_abc123  \n")
				writeFile(t, dir, ServerKey, "tok_xyz789")
				return dir
			},
			want: map[string]string{
				AzureKey:  "az_abc123",
				ServerKey: "tok_xyz789",
			},
		},
		{
			name: "missing directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: map[string]string{},
		},
		{
			name: "skips blank files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, AnthropicKey, "valid-key")
				writeFile(t, dir, OpenAIKey, "")
				writeFile(t, dir, GeminiKey, "   \n\t  ")
				return dir
			},
			want: map[string]string{AnthropicKey: "valid-key"},
		},
		{
			name: "skips dotfiles and directories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ".gitkeep", "")
				writeFile(t, dir, ".hidden-key", "secret")
				writeFile(t, dir, OpenAIKey, "sk_real")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir
			},
			want: map[string]string{OpenAIKey: "sk_real"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.setup(t), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits do not apply to root")
	}
	dir := t.TempDir()
	writeFile(t, dir, AzureKey, "value123")

	badPath := filepath.Join(dir, GeminiKey)
	require.NoError(t, os.WriteFile(badPath, []byte("secret"), 0o000))
	t.Cleanup(func() { os.Chmod(badPath, 0o644) })

	logger, hook := test.NewNullLogger()
	got, err := Load(dir, logger)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{AzureKey: "value123"}, got)

	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, GeminiKey, hook.LastEntry().Data["secret"])
}

func TestApply(t *testing.T) {
	s := map[string]string{
		AzureKey:     "az",
		AnthropicKey: "ant",
		ServerKey:    "tok",
	}

	tests := []struct {
		name       string
		provider   types.AIProvider
		preset     string
		wantAI     string
		wantServer string
	}{
		{name: "azure key for azure provider", provider: types.ProviderAzure, wantAI: "az", wantServer: "tok"},
		{name: "anthropic key for anthropic provider", provider: types.ProviderAnthropic, wantAI: "ant", wantServer: "tok"},
		{name: "missing provider key", provider: types.ProviderOpenAI, wantAI: "", wantServer: "tok"},
		{name: "no provider", provider: types.ProviderNone, wantAI: "", wantServer: "tok"},
		{name: "configured key wins", provider: types.ProviderAzure, preset: "configured", wantAI: "configured", wantServer: "tok"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := types.DefaultConfig()
			cfg.AI.Provider = tc.provider
			cfg.AI.APIKey = tc.preset

			got := Apply(cfg, s)
			assert.Equal(t, tc.wantAI, got.AI.APIKey)
			assert.Equal(t, tc.wantServer, got.Server.APIKey)
		})
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
