// Copyright MeiGen Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/leseb/meigen-gw/pkg/provider"
)

const (
	DefaultMeiGenBaseURL    = "https://www.meigen.ai"
	DefaultOpenAIBaseURL    = "https://api.openai.com"
	DefaultOpenAIModel      = "gpt-image-1.5"
	DefaultUploadGatewayURL = "https://gen.meigen.art/api"
)

// Config represents the main configuration
type Config struct {
	Server           ServerConfig  `yaml:"server"`
	Logging          LoggingConfig `yaml:"logging"`
	MeiGen           MeiGenConfig  `yaml:"meigen"`
	OpenAI           OpenAIConfig  `yaml:"openai"`
	ComfyUI          ComfyUIConfig `yaml:"comfyui"`
	Library          LibraryConfig `yaml:"library"`
	UploadGatewayURL string        `yaml:"upload_gateway_url"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host    string        `yaml:"host"`
	Port    int           `yaml:"port"`
	Timeout time.Duration `yaml:"timeout"`
}

// LoggingConfig selects log level ("debug", "info", ...) and format ("json", "text").
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MeiGenConfig holds the MeiGen platform credentials. BaseURL also serves the
// gallery search API.
type MeiGenConfig struct {
	APIToken string `yaml:"api_token"`
	BaseURL  string `yaml:"base_url"`
}

// OpenAIConfig configures the OpenAI-compatible generation adapter
type OpenAIConfig struct {
	APIKey          string        `yaml:"api_key"`
	BaseURL         string        `yaml:"base_url"` // without the /v1 suffix
	Model           string        `yaml:"model"`
	DownloadTimeout time.Duration `yaml:"download_timeout"` // 0 = bounded by the request context only
}

// ComfyUIConfig locates a local ComfyUI install and its exported workflows
type ComfyUIConfig struct {
	URL             string `yaml:"url"`
	DefaultWorkflow string `yaml:"default_workflow"`
	WorkflowDir     string `yaml:"workflow_dir"`
}

// LibraryConfig selects the local prompt library backend
type LibraryConfig struct {
	Type string `yaml:"type"` // "memory" (default), "sqlite" or "postgres"
	Path string `yaml:"path"` // JSON file for the memory backend
	DSN  string `yaml:"dsn"`  // database for sqlite/postgres
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyUserFile(&cfg, userConfigPath)
	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadOrDefault loads path, falling back to Default when the file does not
// exist. A malformed file is still an error.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Default returns default configuration
func Default() *Config {
	var cfg Config
	applyUserFile(&cfg, userConfigPath)
	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg
}

// Signals extracts the provider availability signals.
func (c *Config) Signals() provider.Signals {
	return provider.Signals{
		MeiGenToken: c.MeiGen.APIToken,
		OpenAIKey:   c.OpenAI.APIKey,
	}
}

// userConfigPath is the per-user JSON file shared with the MeiGen CLI tools.
var userConfigPath = "~/.config/meigen/config.json"

type userFile struct {
	MeiGenAPIToken         string `json:"meigenApiToken"`
	OpenAIAPIKey           string `json:"openaiApiKey"`
	OpenAIBaseURL          string `json:"openaiBaseUrl"`
	OpenAIModel            string `json:"openaiModel"`
	UploadGatewayURL       string `json:"uploadGatewayUrl"`
	ComfyUIURL             string `json:"comfyuiUrl"`
	ComfyUIDefaultWorkflow string `json:"comfyuiDefaultWorkflow"`
}

// applyUserFile fills fields the YAML file left empty. A missing or
// unreadable user file is the same as an empty one.
func applyUserFile(cfg *Config, path string) {
	data, err := os.ReadFile(expandHome(path))
	if err != nil {
		return
	}
	var f userFile
	if err := json.Unmarshal(data, &f); err != nil {
		return
	}
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&cfg.MeiGen.APIToken, f.MeiGenAPIToken)
	fill(&cfg.OpenAI.APIKey, f.OpenAIAPIKey)
	fill(&cfg.OpenAI.BaseURL, f.OpenAIBaseURL)
	fill(&cfg.OpenAI.Model, f.OpenAIModel)
	fill(&cfg.UploadGatewayURL, f.UploadGatewayURL)
	fill(&cfg.ComfyUI.URL, f.ComfyUIURL)
	fill(&cfg.ComfyUI.DefaultWorkflow, f.ComfyUIDefaultWorkflow)
}

// Load from environment variables (override file config)
func applyEnv(cfg *Config) {
	override := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	override(&cfg.MeiGen.APIToken, "MEIGEN_API_TOKEN")
	override(&cfg.MeiGen.BaseURL, "MEIGEN_BASE_URL")
	override(&cfg.OpenAI.APIKey, "OPENAI_API_KEY")
	override(&cfg.OpenAI.BaseURL, "OPENAI_BASE_URL")
	override(&cfg.OpenAI.Model, "OPENAI_MODEL")
	override(&cfg.ComfyUI.URL, "COMFYUI_URL")
	override(&cfg.UploadGatewayURL, "UPLOAD_GATEWAY_URL")
	override(&cfg.Library.Type, "LIBRARY_TYPE")
	override(&cfg.Library.Path, "LIBRARY_PATH")
	override(&cfg.Library.DSN, "LIBRARY_DSN")
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Timeout == 0 {
		cfg.Server.Timeout = 120 * time.Second
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.MeiGen.BaseURL == "" {
		cfg.MeiGen.BaseURL = DefaultMeiGenBaseURL
	}
	if cfg.OpenAI.BaseURL == "" {
		cfg.OpenAI.BaseURL = DefaultOpenAIBaseURL
	}
	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = DefaultOpenAIModel
	}
	if cfg.ComfyUI.WorkflowDir == "" {
		cfg.ComfyUI.WorkflowDir = defaultWorkflowDir()
	} else {
		cfg.ComfyUI.WorkflowDir = expandHome(cfg.ComfyUI.WorkflowDir)
	}
	if cfg.UploadGatewayURL == "" {
		cfg.UploadGatewayURL = DefaultUploadGatewayURL
	}
	if cfg.Library.Type == "" {
		cfg.Library.Type = "memory"
	}
}

func defaultWorkflowDir() string {
	return expandHome("~/.config/meigen/workflows")
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
