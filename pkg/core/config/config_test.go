// Copyright MeiGen Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"MEIGEN_API_TOKEN", "MEIGEN_BASE_URL", "OPENAI_API_KEY", "OPENAI_BASE_URL",
	"OPENAI_MODEL", "COMFYUI_URL", "UPLOAD_GATEWAY_URL", "LIBRARY_TYPE",
	"LIBRARY_PATH", "LIBRARY_DSN",
}

// isolate clears the environment and points the user file at path.
func isolate(t *testing.T, userFilePath string) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
	old := userConfigPath
	userConfigPath = userFilePath
	t.Cleanup(func() { userConfigPath = old })
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	isolate(t, filepath.Join(t.TempDir(), "missing.json"))
	t.Setenv("HOME", "/home/tester")

	cfg := Default()
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, DefaultMeiGenBaseURL, cfg.MeiGen.BaseURL)
	assert.Equal(t, DefaultOpenAIBaseURL, cfg.OpenAI.BaseURL)
	assert.Equal(t, DefaultOpenAIModel, cfg.OpenAI.Model)
	assert.Equal(t, DefaultUploadGatewayURL, cfg.UploadGatewayURL)
	assert.Equal(t, "memory", cfg.Library.Type)
	assert.Zero(t, cfg.OpenAI.DownloadTimeout)
	assert.Equal(t, "/home/tester/.config/meigen/workflows", cfg.ComfyUI.WorkflowDir)
	assert.Empty(t, cfg.Signals().MeiGenToken)
	assert.Empty(t, cfg.Signals().OpenAIKey)
}

func TestLoad_Layering(t *testing.T) {
	user := writeFile(t, "config.json", `{
		"meigenApiToken": "mg-from-user-file",
		"openaiApiKey": "sk-user",
		"openaiModel": "dall-e-3",
		"comfyuiDefaultWorkflow": "portrait"
	}`)
	isolate(t, user)

	path := writeFile(t, "config.yaml", `
server:
  port: 9090
openai:
  api_key: sk-yaml
  download_timeout: 30s
comfyui:
  workflow_dir: /srv/workflows
library:
  type: sqlite
  dsn: /var/lib/meigen/library.db
`)
	t.Setenv("OPENAI_BASE_URL", "https://proxy.example")

	cfg, err := Load(path)
	require.NoError(t, err)

	// env > yaml > user file > defaults
	assert.Equal(t, "https://proxy.example", cfg.OpenAI.BaseURL)
	assert.Equal(t, "sk-yaml", cfg.OpenAI.APIKey)
	assert.Equal(t, "dall-e-3", cfg.OpenAI.Model)
	assert.Equal(t, "mg-from-user-file", cfg.MeiGen.APIToken)
	assert.Equal(t, "portrait", cfg.ComfyUI.DefaultWorkflow)
	assert.Equal(t, DefaultMeiGenBaseURL, cfg.MeiGen.BaseURL)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.OpenAI.DownloadTimeout)
	assert.Equal(t, "/srv/workflows", cfg.ComfyUI.WorkflowDir)
	assert.Equal(t, "sqlite", cfg.Library.Type)
	assert.Equal(t, "/var/lib/meigen/library.db", cfg.Library.DSN)

	sig := cfg.Signals()
	assert.Equal(t, "mg-from-user-file", sig.MeiGenToken)
	assert.Equal(t, "sk-yaml", sig.OpenAIKey)
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t, filepath.Join(t.TempDir(), "missing.json"))
	path := writeFile(t, "config.yaml", "meigen:\n  api_token: from-file\n")

	t.Setenv("MEIGEN_API_TOKEN", "from-env")
	t.Setenv("LIBRARY_TYPE", "postgres")
	t.Setenv("LIBRARY_DSN", "postgres://localhost/meigen")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.MeiGen.APIToken)
	assert.Equal(t, "postgres", cfg.Library.Type)
	assert.Equal(t, "postgres://localhost/meigen", cfg.Library.DSN)
}

func TestUserFile_Malformed(t *testing.T) {
	isolate(t, writeFile(t, "config.json", "{not json"))

	cfg := Default()
	assert.Empty(t, cfg.MeiGen.APIToken)
	assert.Equal(t, DefaultOpenAIModel, cfg.OpenAI.Model)
}

func TestLoadOrDefault(t *testing.T) {
	isolate(t, filepath.Join(t.TempDir(), "missing.json"))

	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)

	_, err = LoadOrDefault(writeFile(t, "bad.yaml", "server: [\n"))
	assert.Error(t, err)
}

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	assert.Equal(t, "/home/tester/.config/meigen", expandHome("~/.config/meigen"))
	assert.Equal(t, "/abs/path", expandHome("/abs/path"))
	assert.Equal(t, "~user/x", expandHome("~user/x"))
}
