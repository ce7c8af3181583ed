/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	applog "cinepitch/internal/log"
)

// AppConfig is the user-editable configuration persisted as YAML in the user scope.
// Environment variables (and a .env file in the working directory) are read-only overrides.
// Secrets never go to the file: the AI API key and the credits DSN live in the OS keyring.
type AppConfig struct {
	ConfigVersion int            `yaml:"config_version"`
	General       GeneralConfig  `yaml:"general"`
	Autosave      AutosaveConfig `yaml:"autosave"`
	Server        ServerConfig   `yaml:"server"`
	Gateway       GatewayConfig  `yaml:"gateway"`
	Credits       CreditsConfig  `yaml:"credits"`
	Logging       LoggingConfig  `yaml:"logging"`
}

type GeneralConfig struct {
	// ProfileDir holds the profile database; empty means <config dir>/profile.
	ProfileDir     string `yaml:"profile_dir"`
	TelemetryOptIn bool   `yaml:"telemetry_opt_in"`
	TelemetryURL   string `yaml:"telemetry_url"`
}

type AutosaveConfig struct {
	DebounceMs int    `yaml:"debounce_ms"`
	Key        string `yaml:"key"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type GatewayConfig struct {
	BaseURL    string `yaml:"base_url"`
	TextModel  string `yaml:"text_model"`
	ImageModel string `yaml:"image_model"`
	TimeoutMs  int    `yaml:"timeout_ms"`
}

type CreditsConfig struct {
	// Enabled makes generation operations spend one credit each.
	Enabled bool   `yaml:"enabled"`
	UserID  string `yaml:"user_id"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// Secrets are resolved from the environment first, then from the keyring.
type Secrets struct {
	APIKey     string
	CreditsDSN string
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Autosave:      AutosaveConfig{DebounceMs: 2000, Key: "cinepitch_autosave"},
		Server:        ServerConfig{Addr: "127.0.0.1:7878"},
		Gateway: GatewayConfig{
			BaseURL:    "https://generativelanguage.googleapis.com/v1beta",
			TextModel:  "gemini-2.5-flash",
			ImageModel: "gemini-2.5-flash-image",
			TimeoutMs:  60000,
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvConfigFile     = "CINEPITCH_CONFIG"
	EnvProfileDir     = "CINEPITCH_PROFILE_DIR"
	EnvTelemetryOptIn = "CINEPITCH_TELEMETRY_OPT_IN"
	EnvTelemetryURL   = "CINEPITCH_TELEMETRY_URL"
	EnvDebounceMs     = "CINEPITCH_AUTOSAVE_DEBOUNCE_MS"
	EnvServerAddr     = "CINEPITCH_ADDR"
	EnvGatewayURL     = "CINEPITCH_GATEWAY_URL"
	EnvGatewayTimeout = "CINEPITCH_GATEWAY_TIMEOUT_MS"
	EnvCreditsEnabled = "CINEPITCH_CREDITS_ENABLED"
	EnvCreditsUser    = "CINEPITCH_USER_ID"
	EnvAPIKey         = "CINEPITCH_API_KEY"
	EnvPGDSN          = "CINEPITCH_PG_DSN"
	EnvLogLevel       = applog.EnvLevel
	EnvLogFormat      = applog.EnvFormat
	EnvLogSource      = applog.EnvSource
	EnvLogFile        = applog.EnvFile
)

// Service/keys for the OS keyring.
const (
	keyringService = "CinePitch"
	keyringAPIKey  = "gemini_api_key"
	keyringDSN     = "credits_dsn"
)

// Dir returns the per-user configuration directory.
func Dir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "CinePitch")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "CinePitch")
	default:
		if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
			base = filepath.Join(x, "cinepitch")
		} else if h := os.Getenv("HOME"); h != "" {
			base = filepath.Join(h, ".config", "cinepitch")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return base, nil
}

// ConfigPath returns the config file path; CINEPITCH_CONFIG overrides it.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigFile)); p != "" {
		return p, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the user config file from ConfigPath.
func Load() (AppConfig, Secrets, error) {
	path, err := ConfigPath()
	if err != nil {
		return Defaults(), Secrets{}, err
	}
	return LoadFrom(path)
}

// LoadFrom applies defaults, merges the YAML file at path (a missing file is fine), loads .env,
// applies environment overrides and resolves secrets.
func LoadFrom(path string) (AppConfig, Secrets, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, Secrets{}, fmt.Errorf("parse %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	case !errors.Is(err, fs.ErrNotExist):
		return cfg, Secrets{}, fmt.Errorf("read %s: %w", path, err)
	}
	loadDotEnv()
	applyEnvOverrides(&cfg)
	if cfg.General.ProfileDir == "" {
		if dir, err := Dir(); err == nil {
			cfg.General.ProfileDir = filepath.Join(dir, "profile")
		}
	}
	return cfg, resolveSecrets(), nil
}

// loadDotEnv reads .env from the working directory. Variables already set win.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		applog.WithComponent("config").Warn("ignoring unreadable .env", "err", err)
	}
}

// Save writes cfg as YAML to path.
func Save(path string, cfg AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if v := strings.TrimSpace(src.General.ProfileDir); v != "" {
		dst.General.ProfileDir = v
	}
	// booleans are copied as-is so a file can switch them off again
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
	if v := strings.TrimSpace(src.General.TelemetryURL); v != "" {
		dst.General.TelemetryURL = v
	}
	if src.Autosave.DebounceMs > 0 {
		dst.Autosave.DebounceMs = src.Autosave.DebounceMs
	}
	if v := strings.TrimSpace(src.Autosave.Key); v != "" {
		dst.Autosave.Key = v
	}
	if v := strings.TrimSpace(src.Server.Addr); v != "" {
		dst.Server.Addr = v
	}
	if v := strings.TrimSpace(src.Gateway.BaseURL); v != "" {
		dst.Gateway.BaseURL = v
	}
	if v := strings.TrimSpace(src.Gateway.TextModel); v != "" {
		dst.Gateway.TextModel = v
	}
	if v := strings.TrimSpace(src.Gateway.ImageModel); v != "" {
		dst.Gateway.ImageModel = v
	}
	if src.Gateway.TimeoutMs > 0 {
		dst.Gateway.TimeoutMs = src.Gateway.TimeoutMs
	}
	dst.Credits.Enabled = src.Credits.Enabled
	if v := strings.TrimSpace(src.Credits.UserID); v != "" {
		dst.Credits.UserID = v
	}
	if v := strings.TrimSpace(src.Logging.Level); v != "" {
		dst.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(src.Logging.Format); v != "" {
		dst.Logging.Format = strings.ToLower(v)
	}
	dst.Logging.Source = src.Logging.Source
	if v := strings.TrimSpace(src.Logging.File); v != "" {
		dst.Logging.File = v
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	str := func(name string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				*dst = n
			}
		}
	}
	flag := func(name string, dst *bool) {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			*dst = parseBool(v)
		}
	}
	str(EnvProfileDir, &cfg.General.ProfileDir)
	flag(EnvTelemetryOptIn, &cfg.General.TelemetryOptIn)
	str(EnvTelemetryURL, &cfg.General.TelemetryURL)
	num(EnvDebounceMs, &cfg.Autosave.DebounceMs)
	str(EnvServerAddr, &cfg.Server.Addr)
	str(EnvGatewayURL, &cfg.Gateway.BaseURL)
	num(EnvGatewayTimeout, &cfg.Gateway.TimeoutMs)
	flag(EnvCreditsEnabled, &cfg.Credits.Enabled)
	str(EnvCreditsUser, &cfg.Credits.UserID)
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	flag(EnvLogSource, &cfg.Logging.Source)
	str(EnvLogFile, &cfg.Logging.File)
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

var envKeys = map[string]string{
	"general.profile_dir":      EnvProfileDir,
	"general.telemetry_opt_in": EnvTelemetryOptIn,
	"general.telemetry_url":    EnvTelemetryURL,
	"autosave.debounce_ms":     EnvDebounceMs,
	"server.addr":              EnvServerAddr,
	"gateway.base_url":         EnvGatewayURL,
	"gateway.timeout_ms":       EnvGatewayTimeout,
	"credits.enabled":          EnvCreditsEnabled,
	"credits.user_id":          EnvCreditsUser,
	"logging.level":            EnvLogLevel,
	"logging.format":           EnvLogFormat,
	"logging.source":           EnvLogSource,
	"logging.file":             EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by the environment.
func EnvOverrideFor(key string) (string, bool) {
	name, ok := envKeys[key]
	if !ok || os.Getenv(name) == "" {
		return "", false
	}
	return name, true
}

// Debounce returns the autosave quiet period.
func (a AutosaveConfig) Debounce() time.Duration {
	if a.DebounceMs <= 0 {
		return time.Duration(Defaults().Autosave.DebounceMs) * time.Millisecond
	}
	return time.Duration(a.DebounceMs) * time.Millisecond
}

// Timeout returns the gateway request timeout.
func (g GatewayConfig) Timeout() time.Duration {
	if g.TimeoutMs <= 0 {
		return time.Duration(Defaults().Gateway.TimeoutMs) * time.Millisecond
	}
	return time.Duration(g.TimeoutMs) * time.Millisecond
}

// LogOptions converts the logging section for log.Init.
func (l LoggingConfig) LogOptions() applog.Options {
	return applog.Options{Level: l.Level, Format: l.Format, AddSource: l.Source, File: l.File}
}
