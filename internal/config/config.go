// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/slashwrite/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete slashwrite configuration.
type Config struct {
	Version string `toml:"version"`

	// Transformation backend
	Backend BackendConfig `toml:"backend"`

	// Prompt templates per command kind
	Prompts PromptsConfig `toml:"prompts"`

	// Suggestion keys
	Keys KeysConfig `toml:"keys"`

	// Command grammar
	Grammar GrammarConfig `toml:"grammar"`

	// Outcome journal
	History HistoryConfig `toml:"history"`

	// Logging
	Log LogConfig `toml:"log"`

	// Browser host
	Browser BrowserConfig `toml:"browser"`
}

// BackendConfig selects and tunes the transformation backend.
type BackendConfig struct {
	// Provider is "openai" or "ollama"
	Provider string `toml:"provider"`

	// BaseURL overrides the provider's default endpoint
	BaseURL string `toml:"base_url"`

	// Model overrides the provider's default model
	Model string `toml:"model"`

	MaxTokens         int     `toml:"max_tokens"`
	Temperature       float64 `toml:"temperature"`
	TimeoutSecs       int     `toml:"timeout_secs"`
	MaxRetries        int     `toml:"max_retries"`
	RequestsPerMinute int     `toml:"requests_per_minute"`
}

// PromptsConfig holds the prompt templates. {text} and {language} are
// substituted.
type PromptsConfig struct {
	Improve   string `toml:"improve"`
	Elaborate string `toml:"elaborate"`
	Translate string `toml:"translate"`
}

// KeysConfig names the accept and reject keys (DOM key names).
type KeysConfig struct {
	Accept string `toml:"accept"`
	Reject string `toml:"reject"`
}

// GrammarConfig tunes the command grammar.
type GrammarConfig struct {
	DefaultLanguage string `toml:"default_language"`
}

// HistoryConfig controls the sqlite outcome journal.
type HistoryConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level string `toml:"level"`
	Path  string `toml:"path"`
}

// BrowserConfig controls the DevTools browser host.
type BrowserConfig struct {
	// DebuggerURL attaches to a running Chrome; empty launches one
	DebuggerURL string `toml:"debugger_url"`

	// URL is opened when the host starts
	URL string `toml:"url"`

	Headless bool `toml:"headless"`

	// PollMS is the interval for draining page key events
	PollMS int `toml:"poll_ms"`
}

// Provider names.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Provider defaults used when base_url or model is empty.
const (
	DefaultOpenAIURL   = "https://api.openai.com/v1"
	DefaultOpenAIModel = "gpt-3.5-turbo-instruct"
	DefaultOllamaURL   = "http://127.0.0.1:11434"
	DefaultOllamaModel = "llama3.2"
)

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1",

		Backend: BackendConfig{
			Provider:          ProviderOpenAI,
			MaxTokens:         1000,
			Temperature:       0.7,
			TimeoutSecs:       60,
			MaxRetries:        3,
			RequestsPerMinute: 20,
		},

		Prompts: PromptsConfig{
			Improve:   "Rewrite the following text to make it more professional:\n\n{text}\n\nImproved text:",
			Elaborate: "Elaborate on the following text with more detail but keep it to the point. Don't write more than thrice the words there were initially.:\n\n{text}\n\nElaborated text:",
			Translate: "Translate the following text into {language}:\n\n{text}\n\nTranslation:",
		},

		Keys: KeysConfig{
			Accept: "Tab",
			Reject: "Escape",
		},

		Grammar: GrammarConfig{
			DefaultLanguage: "English",
		},

		History: HistoryConfig{
			Enabled: true,
		},

		Log: LogConfig{
			Level: "info",
		},

		Browser: BrowserConfig{
			Headless: false,
			PollMS:   100,
		},
	}
}

// ResolvedBaseURL returns the configured base URL or the provider default.
func (b BackendConfig) ResolvedBaseURL() string {
	if b.BaseURL != "" {
		return b.BaseURL
	}
	if strings.EqualFold(b.Provider, ProviderOllama) {
		return DefaultOllamaURL
	}
	return DefaultOpenAIURL
}

// ResolvedModel returns the configured model or the provider default.
func (b BackendConfig) ResolvedModel() string {
	if b.Model != "" {
		return b.Model
	}
	if strings.EqualFold(b.Provider, ProviderOllama) {
		return DefaultOllamaModel
	}
	return DefaultOpenAIModel
}

// NeedsCredential reports whether the provider requires an API key.
func (b BackendConfig) NeedsCredential() bool {
	return !strings.EqualFold(b.Provider, ProviderOllama)
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// EnvHome overrides the configuration directory.
const EnvHome = "SLASHWRITE_HOME"

// ConfigDir returns the slashwrite configuration directory path.
func ConfigDir() (string, error) {
	if dir := os.Getenv(EnvHome); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".slashwrite"), nil
}

func pathInConfigDir(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	return pathInConfigDir("config.toml")
}

// CredentialsPath returns the path to the API key file.
func CredentialsPath() (string, error) {
	return pathInConfigDir("credentials.toml")
}

// HistoryPath returns the journal path, honoring history.path.
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	return pathInConfigDir("history.db")
}

// LogPath returns the log file path, honoring log.path.
func (c *Config) LogPath() (string, error) {
	if c.Log.Path != "" {
		return c.Log.Path, nil
	}
	return pathInConfigDir("slashwrite.log")
}

// ensureSecurePermissions checks and fixes permissions on config files.
// SECURITY: Config files should be 0600 (owner read/write only).
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the default config file, falling back to
// defaults when the file does not exist. Environment overrides are applied
// last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		return cfg, nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg. Keys absent from the file keep
// their current values.
func LoadTOML(cfg *Config, path string) error {
	// Permissions are best effort; some filesystems cannot chmod.
	_ = ensureSecurePermissions(path)

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// SetDefaults fills empty values that have no meaningful zero.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Backend.Provider == "" {
		c.Backend.Provider = defaults.Backend.Provider
	}
	c.Backend.Provider = strings.ToLower(c.Backend.Provider)
	if c.Backend.MaxTokens == 0 {
		c.Backend.MaxTokens = defaults.Backend.MaxTokens
	}
	if c.Backend.TimeoutSecs == 0 {
		c.Backend.TimeoutSecs = defaults.Backend.TimeoutSecs
	}

	if strings.TrimSpace(c.Prompts.Improve) == "" {
		c.Prompts.Improve = defaults.Prompts.Improve
	}
	if strings.TrimSpace(c.Prompts.Elaborate) == "" {
		c.Prompts.Elaborate = defaults.Prompts.Elaborate
	}
	if strings.TrimSpace(c.Prompts.Translate) == "" {
		c.Prompts.Translate = defaults.Prompts.Translate
	}

	if c.Keys.Accept == "" {
		c.Keys.Accept = defaults.Keys.Accept
	}
	if c.Keys.Reject == "" {
		c.Keys.Reject = defaults.Keys.Reject
	}
	if strings.TrimSpace(c.Grammar.DefaultLanguage) == "" {
		c.Grammar.DefaultLanguage = defaults.Grammar.DefaultLanguage
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Browser.PollMS == 0 {
		c.Browser.PollMS = defaults.Browser.PollMS
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
// SECURITY: 0600 permissions (owner read/write only).
// RELIABILITY: Atomic write with fsync prevents data loss on crash
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# slashwrite configuration file\n")
	buf.WriteString("# {text} and {language} are substituted into [prompts]\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFileWithDir(path, buf.Bytes(), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// String renders the configuration as TOML.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return buf.String()
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns every problem found.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...interface{}) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// Backend
	switch strings.ToLower(c.Backend.Provider) {
	case ProviderOpenAI, ProviderOllama:
	default:
		add("backend.provider", "invalid provider '%s', must be one of: openai, ollama", c.Backend.Provider)
	}
	if c.Backend.BaseURL != "" {
		if u, err := url.Parse(c.Backend.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			add("backend.base_url", "invalid URL '%s', must be http(s)://host[/path]", c.Backend.BaseURL)
		}
	}
	if c.Backend.MaxTokens < 1 || c.Backend.MaxTokens > 32000 {
		add("backend.max_tokens", "must be between 1 and 32000, got %d", c.Backend.MaxTokens)
	}
	if c.Backend.Temperature < 0 || c.Backend.Temperature > 2 {
		add("backend.temperature", "must be between 0 and 2, got %g", c.Backend.Temperature)
	}
	if c.Backend.TimeoutSecs < 1 || c.Backend.TimeoutSecs > 600 {
		add("backend.timeout_secs", "must be between 1 and 600, got %d", c.Backend.TimeoutSecs)
	}
	if c.Backend.MaxRetries < 0 || c.Backend.MaxRetries > 10 {
		add("backend.max_retries", "must be between 0 and 10, got %d", c.Backend.MaxRetries)
	}
	if c.Backend.RequestsPerMinute < 0 {
		add("backend.requests_per_minute", "must not be negative, got %d", c.Backend.RequestsPerMinute)
	}

	// Prompts
	for field, tmpl := range map[string]string{
		"prompts.improve":   c.Prompts.Improve,
		"prompts.elaborate": c.Prompts.Elaborate,
		"prompts.translate": c.Prompts.Translate,
	} {
		if !strings.Contains(tmpl, "{text}") {
			add(field, "template must contain {text}")
		}
	}
	if !strings.Contains(c.Prompts.Translate, "{language}") {
		add("prompts.translate", "template must contain {language}")
	}

	// Keys
	if strings.TrimSpace(c.Keys.Accept) == "" {
		add("keys.accept", "must not be empty")
	}
	if strings.TrimSpace(c.Keys.Reject) == "" {
		add("keys.reject", "must not be empty")
	}
	if c.Keys.Accept != "" && c.Keys.Accept == c.Keys.Reject {
		add("keys.reject", "must differ from keys.accept")
	}

	// Grammar
	if strings.ContainsAny(c.Grammar.DefaultLanguage, "/\n") {
		add("grammar.default_language", "must be a single line without '/'")
	}

	// Log
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		add("log.level", "invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level)
	}

	// Browser
	if c.Browser.PollMS < 10 || c.Browser.PollMS > 5000 {
		add("browser.poll_ms", "must be between 10 and 5000, got %d", c.Browser.PollMS)
	}
	if c.Browser.DebuggerURL != "" {
		if u, err := url.Parse(c.Browser.DebuggerURL); err != nil || u.Scheme == "" {
			add("browser.debugger_url", "invalid URL '%s'", c.Browser.DebuggerURL)
		}
	}

	if len(errs) > 0 {
		sortErrors(errs)
		return errs
	}
	return nil
}

// sortErrors keeps map-driven checks in a stable order.
func sortErrors(errs ValidateErrors) {
	for i := 1; i < len(errs); i++ {
		for j := i; j > 0 && errs[j].Field < errs[j-1].Field; j-- {
			errs[j], errs[j-1] = errs[j-1], errs[j]
		}
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides:
//   - SLASHWRITE_PROVIDER: overrides backend.provider
//   - SLASHWRITE_MODEL: overrides backend.model
//   - SLASHWRITE_BASE_URL: overrides backend.base_url
//   - SLASHWRITE_LOG_LEVEL: overrides log.level
func (c *Config) ApplyEnvOverrides() {
	if provider := os.Getenv("SLASHWRITE_PROVIDER"); provider != "" {
		c.Backend.Provider = strings.ToLower(provider)
	}
	if model := os.Getenv("SLASHWRITE_MODEL"); model != "" {
		c.Backend.Model = model
	}
	if baseURL := os.Getenv("SLASHWRITE_BASE_URL"); baseURL != "" {
		c.Backend.BaseURL = baseURL
	}
	if level := os.Getenv("SLASHWRITE_LOG_LEVEL"); level != "" {
		c.Log.Level = strings.ToLower(level)
	}
}
