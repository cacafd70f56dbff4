// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for rigrun-chat.
//
// Configuration file location (in order of precedence):
//   - RIGRUN_CHAT_* environment variables
//   - ~/.rigrun-chat/config.toml
//   - Built-in defaults
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"

	"github.com/jeranaias/rigrun-chat/internal/model"
	"github.com/jeranaias/rigrun-chat/internal/util"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "RIGRUN_CHAT"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete rigrun-chat configuration.
type Config struct {
	// General settings
	Version string `toml:"version" json:"version"`

	// Chat behaviour
	Chat ChatConfig `toml:"chat" json:"chat"`

	// Attachment ingestion
	Attachments AttachmentsConfig `toml:"attachments" json:"attachments"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`

	// Export defaults
	Export ExportConfig `toml:"export" json:"export"`

	// Logging
	Log LogConfig `toml:"log" json:"log"`
}

// ChatConfig contains reply generation settings.
type ChatConfig struct {
	// DefaultModel is the model new conversations start with
	DefaultModel string `toml:"default_model" json:"default_model" validate:"required,known_model"`
	// ReplyTimeoutSecs bounds how long a reply may take before it is reported as failed
	ReplyTimeoutSecs int `toml:"reply_timeout_secs" json:"reply_timeout_secs" validate:"gte=1,lte=600"`
	// MinLatencyMs and MaxLatencyMs bound the simulated reply delay
	MinLatencyMs int `toml:"min_latency_ms" json:"min_latency_ms" validate:"gte=0,lte=60000"`
	MaxLatencyMs int `toml:"max_latency_ms" json:"max_latency_ms" validate:"gtefield=MinLatencyMs,lte=60000"`
	// RepliesPerMinute throttles reply requests (0 = unlimited)
	RepliesPerMinute float64 `toml:"replies_per_minute" json:"replies_per_minute" validate:"gte=0"`
	// ReplyBurst is how many requests may run back to back before throttling
	ReplyBurst int `toml:"reply_burst" json:"reply_burst" validate:"gte=1,lte=100"`
}

// AttachmentsConfig contains attachment ingestion settings.
type AttachmentsConfig struct {
	// MaxSizeMB rejects larger blobs (0 = unlimited)
	MaxSizeMB int `toml:"max_size_mb" json:"max_size_mb" validate:"gte=0,lte=1024"`
	// Workers is the number of concurrent background tasks
	Workers int `toml:"workers" json:"workers" validate:"gte=1,lte=32"`
}

// UIConfig contains presentation settings.
type UIConfig struct {
	// Theme is the initial theme when no preference file exists: "light" or "dark"
	Theme string `toml:"theme" json:"theme" validate:"oneof=light dark"`
	// WrapWidth wraps rendered text (0 = terminal width)
	WrapWidth int `toml:"wrap_width" json:"wrap_width" validate:"gte=0,lte=400"`
	// LineMode starts the line-oriented REPL instead of the full-screen TUI
	LineMode bool `toml:"line_mode" json:"line_mode"`
}

// ExportConfig contains conversation export defaults.
type ExportConfig struct {
	// OutputDir is where exports are written (empty = current directory)
	OutputDir string `toml:"output_dir" json:"output_dir"`
	// Format is the default export format: "markdown", "json" or "html"
	Format string `toml:"format" json:"format" validate:"oneof=markdown json html"`
	// IncludeMetadata adds front matter or a header block
	IncludeMetadata bool `toml:"include_metadata" json:"include_metadata"`
	// IncludeTimestamps adds per-message times
	IncludeTimestamps bool `toml:"include_timestamps" json:"include_timestamps"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is "debug", "info", "warn" or "error"
	Level string `toml:"level" json:"level" validate:"oneof=debug info warn error"`
	// File is the log file (empty = <config dir>/rigrun-chat.log)
	File string `toml:"file" json:"file"`
}

// ReplyTimeout returns the reply timeout as a duration.
func (c ChatConfig) ReplyTimeout() time.Duration {
	return time.Duration(c.ReplyTimeoutSecs) * time.Second
}

// Latency returns the simulated reply delay bounds.
func (c ChatConfig) Latency() (time.Duration, time.Duration) {
	return time.Duration(c.MinLatencyMs) * time.Millisecond, time.Duration(c.MaxLatencyMs) * time.Millisecond
}

// MaxSizeBytes returns the attachment size limit in bytes.
func (c AttachmentsConfig) MaxSizeBytes() int64 {
	return int64(c.MaxSizeMB) << 20
}

// =============================================================================
// DEFAULT CONFIG
// =============================================================================

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Version: "1",
		Chat: ChatConfig{
			DefaultModel:     model.DefaultModel,
			ReplyTimeoutSecs: 30,
			MinLatencyMs:     1000,
			MaxLatencyMs:     3000,
			RepliesPerMinute: 30,
			ReplyBurst:       3,
		},
		Attachments: AttachmentsConfig{
			MaxSizeMB: 25,
			Workers:   4,
		},
		UI: UIConfig{
			Theme:     "light",
			WrapWidth: 0,
		},
		Export: ExportConfig{
			Format:            "markdown",
			IncludeMetadata:   true,
			IncludeTimestamps: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the rigrun-chat configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".rigrun-chat"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// LogPath returns the configured log file, defaulting into the config dir.
func (c *Config) LogPath() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "rigrun-chat.log"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the default config file, falling back to
// defaults when it does not exist. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); statErr != nil {
		cfg := Default()
		if err := cfg.finish(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific TOML file with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{}
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file into cfg and fills unset values.
// Unknown keys are rejected so typos do not pass silently.
func LoadTOML(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	fillDefaults(cfg, md)
	return nil
}

// finish applies environment overrides and validates.
func (c *Config) finish() error {
	if err := c.ApplyEnvOverrides(); err != nil {
		return fmt.Errorf("invalid environment override: %w", err)
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// fillDefaults fills in values the file did not set. Booleans and numbers
// are only filled when their key is absent, so explicit zeros survive.
func fillDefaults(cfg *Config, md toml.MetaData) {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}

	// Chat
	if cfg.Chat.DefaultModel == "" {
		cfg.Chat.DefaultModel = defaults.Chat.DefaultModel
	}
	if !md.IsDefined("chat", "reply_timeout_secs") {
		cfg.Chat.ReplyTimeoutSecs = defaults.Chat.ReplyTimeoutSecs
	}
	if !md.IsDefined("chat", "min_latency_ms") {
		cfg.Chat.MinLatencyMs = defaults.Chat.MinLatencyMs
	}
	if !md.IsDefined("chat", "max_latency_ms") {
		cfg.Chat.MaxLatencyMs = max(defaults.Chat.MaxLatencyMs, cfg.Chat.MinLatencyMs)
	}
	if !md.IsDefined("chat", "replies_per_minute") {
		cfg.Chat.RepliesPerMinute = defaults.Chat.RepliesPerMinute
	}
	if !md.IsDefined("chat", "reply_burst") {
		cfg.Chat.ReplyBurst = defaults.Chat.ReplyBurst
	}

	// Attachments
	if !md.IsDefined("attachments", "max_size_mb") {
		cfg.Attachments.MaxSizeMB = defaults.Attachments.MaxSizeMB
	}
	if !md.IsDefined("attachments", "workers") {
		cfg.Attachments.Workers = defaults.Attachments.Workers
	}

	// UI
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}

	// Export
	if cfg.Export.Format == "" {
		cfg.Export.Format = defaults.Export.Format
	}
	if !md.IsDefined("export", "include_metadata") {
		cfg.Export.IncludeMetadata = defaults.Export.IncludeMetadata
	}
	if !md.IsDefined("export", "include_timestamps") {
		cfg.Export.IncludeTimestamps = defaults.Export.IncludeTimestamps
	}

	// Log
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// SaveTOML writes the configuration to a TOML file atomically.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# rigrun-chat configuration file\n")
	buf.WriteString("# Generated by rigrun-chat - edit with care\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
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
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("known_model", func(fl validator.FieldLevel) bool {
		_, ok := model.GetModelInfo(fl.Field().String())
		return ok
	})
	return v
}

// Validate checks the configuration and returns ValidateErrors describing
// every invalid field.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(ValidateErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, ValidationError{
			Field:   strings.TrimPrefix(fe.Namespace(), "Config."),
			Message: describe(fe),
		})
	}
	return out
}

// describe renders a validator failure as a short sentence.
func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "known_model":
		return fmt.Sprintf("unknown model %q (available: %s)", fe.Value(), strings.Join(model.ModelIDs(), ", "))
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %v", fe.Param(), fe.Value())
	case "gte":
		return fmt.Sprintf("must be >= %s, got %v", fe.Param(), fe.Value())
	case "lte":
		return fmt.Sprintf("must be <= %s, got %v", fe.Param(), fe.Value())
	case "gtefield":
		return fmt.Sprintf("must be >= %s, got %v", fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("failed %s check", fe.Tag())
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// envOverrides lists the supported RIGRUN_CHAT_* variables. Unset
// variables leave the loaded value alone.
type envOverrides struct {
	Model            string   `envconfig:"MODEL"`
	ReplyTimeoutSecs int      `envconfig:"REPLY_TIMEOUT_SECS"`
	MinLatencyMs     *int     `envconfig:"MIN_LATENCY_MS"`
	MaxLatencyMs     *int     `envconfig:"MAX_LATENCY_MS"`
	RepliesPerMinute *float64 `envconfig:"REPLIES_PER_MINUTE"`
	Theme            string   `envconfig:"THEME"`
	LineMode         *bool    `envconfig:"LINE_MODE"`
	ExportDir        string   `envconfig:"EXPORT_DIR"`
	LogLevel         string   `envconfig:"LOG_LEVEL"`
	LogFile          string   `envconfig:"LOG_FILE"`
}

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - RIGRUN_CHAT_MODEL: overrides chat.default_model
//   - RIGRUN_CHAT_REPLY_TIMEOUT_SECS: overrides chat.reply_timeout_secs
//   - RIGRUN_CHAT_MIN_LATENCY_MS / RIGRUN_CHAT_MAX_LATENCY_MS: simulated delay
//   - RIGRUN_CHAT_REPLIES_PER_MINUTE: overrides chat.replies_per_minute
//   - RIGRUN_CHAT_THEME: overrides ui.theme
//   - RIGRUN_CHAT_LINE_MODE: overrides ui.line_mode
//   - RIGRUN_CHAT_EXPORT_DIR: overrides export.output_dir
//   - RIGRUN_CHAT_LOG_LEVEL / RIGRUN_CHAT_LOG_FILE: logging
func (c *Config) ApplyEnvOverrides() error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return err
	}

	if env.Model != "" {
		c.Chat.DefaultModel = env.Model
	}
	if env.ReplyTimeoutSecs != 0 {
		c.Chat.ReplyTimeoutSecs = env.ReplyTimeoutSecs
	}
	if env.MinLatencyMs != nil {
		c.Chat.MinLatencyMs = *env.MinLatencyMs
	}
	if env.MaxLatencyMs != nil {
		c.Chat.MaxLatencyMs = *env.MaxLatencyMs
	}
	if env.RepliesPerMinute != nil {
		c.Chat.RepliesPerMinute = *env.RepliesPerMinute
	}
	if env.Theme != "" {
		c.UI.Theme = strings.ToLower(env.Theme)
	}
	if env.LineMode != nil {
		c.UI.LineMode = *env.LineMode
	}
	if env.ExportDir != "" {
		c.Export.OutputDir = env.ExportDir
	}
	if env.LogLevel != "" {
		c.Log.Level = strings.ToLower(env.LogLevel)
	}
	if env.LogFile != "" {
		c.Log.File = env.LogFile
	}
	return nil
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "chat.reply_timeout_secs").
func (c *Config) Get(key string) (any, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation and re-validates. On
// a validation failure the previous value is restored.
func (c *Config) Set(key string, value any) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}

	prev := reflect.New(field.Type()).Elem()
	prev.Set(field)
	if err := setFieldValue(field, value); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		field.Set(prev)
		return err
	}
	return nil
}

// lookup walks a dotted key to a struct field.
func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		result.WriteString(strings.ToUpper(part[:1]))
		result.WriteString(strings.ToLower(part[1:]))
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from a value with string conversion.
func setFieldValue(field reflect.Value, value any) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			boolVal, err := strconv.ParseBool(strVal)
			if err != nil {
				return fmt.Errorf("invalid boolean value: %v", err)
			}
			field.SetBool(boolVal)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) && val.Kind() != reflect.String && field.Kind() != reflect.String {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"chat.default_model",
		"chat.reply_timeout_secs",
		"chat.min_latency_ms",
		"chat.max_latency_ms",
		"chat.replies_per_minute",
		"chat.reply_burst",
		"attachments.max_size_mb",
		"attachments.workers",
		"ui.theme",
		"ui.wrap_width",
		"ui.line_mode",
		"export.output_dir",
		"export.format",
		"export.include_metadata",
		"export.include_timestamps",
		"log.level",
		"log.file",
	}
}

// Clone creates a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns the configuration as TOML.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return buf.String()
}
