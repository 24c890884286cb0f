// Package config loads the language-model provider settings.
//
// The settings file is JSON with comments and trailing commas allowed:
//
//	{
//	  // "openai" or "anthropic"; inferred from provider when omitted
//	  "provider": "anthropic",
//	  "api_key": "sk-...",
//	  "base_url": "https://api.anthropic.com/v1",
//	  "model": "claude-3-sonnet-20240229",
//	}
//
// A missing file is not an error: Default is used instead.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
)

// Wire protocol families understood by the stream normalizer.
const (
	ProtocolOpenAI    = "openai"
	ProtocolAnthropic = "anthropic"
)

// Environment variables that override values from the settings file.
const (
	EnvAPIKey  = "PROMPTMUX_API_KEY"
	EnvBaseURL = "PROMPTMUX_BASE_URL"
	EnvModel   = "PROMPTMUX_MODEL"
)

// Provider is the active provider configuration.
type Provider struct {
	Provider string `json:"provider"`
	Protocol string `json:"protocol,omitempty"`
	APIKey   string `json:"api_key"`
	BaseURL  string `json:"base_url"`
	Model    string `json:"model,omitempty"`
}

// fileFormat also accepts the camelCase keys of older settings files.
type fileFormat struct {
	Provider
	LegacyAPIKey  string `json:"apiKey,omitempty"`
	LegacyBaseURL string `json:"baseUrl,omitempty"`
}

var defaultBaseURLs = map[string]string{
	ProtocolOpenAI:    "https://api.openai.com/v1",
	ProtocolAnthropic: "https://api.anthropic.com/v1",
}

var defaultModels = map[string]string{
	ProtocolOpenAI:    "gpt-4",
	ProtocolAnthropic: "claude-3-sonnet-20240229",
}

// Default is the configuration used when no settings file exists: the
// OpenAI chat-completions endpoint with no API key.
func Default() Provider {
	return Provider{
		Provider: ProtocolOpenAI,
		Protocol: ProtocolOpenAI,
		BaseURL:  defaultBaseURLs[ProtocolOpenAI],
		Model:    defaultModels[ProtocolOpenAI],
	}
}

// InferProtocol guesses the protocol family from a free-form provider label.
func InferProtocol(provider string) string {
	label := strings.ToLower(provider)
	if strings.Contains(label, "anthropic") || strings.Contains(label, "claude") {
		return ProtocolAnthropic
	}
	return ProtocolOpenAI
}

// Normalized fills protocol, base URL and model defaults.
func (p Provider) Normalized() Provider {
	if p.Provider == "" {
		p.Provider = ProtocolOpenAI
	}
	p.Protocol = strings.ToLower(strings.TrimSpace(p.Protocol))
	if p.Protocol == "" {
		p.Protocol = InferProtocol(p.Provider)
	}
	if p.BaseURL == "" {
		p.BaseURL = defaultBaseURLs[p.Protocol]
	}
	p.BaseURL = strings.TrimRight(p.BaseURL, "/")
	if p.Model == "" {
		p.Model = defaultModels[p.Protocol]
	}
	return p
}

// Redacted returns a copy safe to show to users.
func (p Provider) Redacted() Provider {
	switch {
	case p.APIKey == "":
	case len(p.APIKey) <= 8:
		p.APIKey = "****"
	default:
		p.APIKey = p.APIKey[:4] + "****" + p.APIKey[len(p.APIKey)-4:]
	}
	return p
}

// Parse decodes a JSONC settings document.
func Parse(data []byte) (Provider, error) {
	var f fileFormat
	if err := json.Unmarshal(jsonc.ToJSON(data), &f); err != nil {
		return Provider{}, fmt.Errorf("parsing settings: %w", err)
	}
	p := f.Provider
	if p.APIKey == "" {
		p.APIKey = f.LegacyAPIKey
	}
	if p.BaseURL == "" {
		p.BaseURL = f.LegacyBaseURL
	}
	return p.Normalized(), nil
}

// Load reads the settings file at path and applies environment overrides.
func Load(path string) (Provider, error) {
	p, err := loadFile(path)
	if err != nil {
		return Provider{}, err
	}
	return applyEnv(p, os.Getenv), nil
}

func loadFile(path string) (Provider, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Provider{}, fmt.Errorf("reading %s: %w", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		return Provider{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

func applyEnv(p Provider, getenv func(string) string) Provider {
	if v := getenv(EnvAPIKey); v != "" {
		p.APIKey = v
	}
	if v := getenv(EnvBaseURL); v != "" {
		p.BaseURL = v
	}
	if v := getenv(EnvModel); v != "" {
		p.Model = v
	}
	return p.Normalized()
}

// Save writes p to path atomically.
func Save(path string, p Provider) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.json")
	if err != nil {
		return fmt.Errorf("create temp settings: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// Source supplies the provider configuration for each new request.
type Source interface {
	Active() Provider
}

// Static is a Source that never changes.
type Static Provider

// Active returns the fixed configuration.
func (s Static) Active() Provider {
	return Provider(s).Normalized()
}
