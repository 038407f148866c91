/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are read-only overrides applied at load time.
//
// config_version: bump when the structure changes in a backward-incompatible way.

type GeneralConfig struct {
	Theme         string `yaml:"theme"` // "system" | "light" | "dark"
	WorkspaceRoot string `yaml:"workspace_root"`
}

// OverlayConfig holds the defaults the measurement overlay starts with.
type OverlayConfig struct {
	DefaultUnit   string  `yaml:"default_unit"` // "cm" | "in"
	LayerPreset   string  `yaml:"layer_preset"` // "all" | "labels" | "measures"
	DimOffsetPct  float64 `yaml:"dim_offset_pct"`
	CircleRPct    float64 `yaml:"circle_r_pct"`
	ArrowLenPct   float64 `yaml:"arrow_len_pct"`
	AngleArmPct   float64 `yaml:"angle_arm_pct"`
	MinCircleRPct float64 `yaml:"min_circle_r_pct"`
	UndoDepth     int     `yaml:"undo_depth"`
}

// AssetsConfig describes where diagram images are fetched from.
type AssetsConfig struct {
	BaseURL     string `yaml:"base_url"`
	TimeoutMs   int    `yaml:"timeout_ms"`
	TLSInsecure bool   `yaml:"tls_insecure"`
	// The bearer token is not stored on disk; it lives in the OS keychain.
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// LandmarkConfig is a diagram-specific landmark beyond the built-in set.
type LandmarkConfig struct {
	Key   string  `yaml:"key"`
	Label string  `yaml:"label"`
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
}

// DiagramConfig is one entry of the garment diagram catalog.
type DiagramConfig struct {
	Title            string           `yaml:"title"`
	Image            string           `yaml:"image"`
	Fallbacks        []string         `yaml:"fallbacks,omitempty"`
	AspectPercent    float64          `yaml:"aspect_percent"`
	AllowedFixedKeys []string         `yaml:"allowed_fixed_keys,omitempty"` // empty shows all built-ins
	ExtraFixed       []LandmarkConfig `yaml:"extra_fixed,omitempty"`
}

type AppConfig struct {
	ConfigVersion int                      `yaml:"config_version"`
	General       GeneralConfig            `yaml:"general"`
	Overlay       OverlayConfig            `yaml:"overlay"`
	Assets        AssetsConfig             `yaml:"assets"`
	Logging       LoggingConfig            `yaml:"logging"`
	Diagrams      map[string]DiagramConfig `yaml:"diagrams,omitempty"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{Theme: "system"},
		Overlay: OverlayConfig{
			DefaultUnit:   "cm",
			LayerPreset:   "all",
			DimOffsetPct:  8,
			CircleRPct:    6,
			ArrowLenPct:   10,
			AngleArmPct:   6,
			MinCircleRPct: 2,
			UndoDepth:     100,
		},
		Assets:  AssetsConfig{TimeoutMs: 15000},
		Logging: LoggingConfig{Level: "info", Format: "console"},
		Diagrams: map[string]DiagramConfig{
			"shirt": {
				Title:            "Shirt",
				Image:            "diagrams/shirt.png",
				Fallbacks:        []string{"diagrams/shirt.jpg"},
				AspectPercent:    125,
				AllowedFixedKeys: []string{"neck", "chest", "waist", "hip", "shoulder", "sleeve", "length", "cuff"},
			},
			"trouser": {
				Title:            "Trouser",
				Image:            "diagrams/trouser.png",
				Fallbacks:        []string{"diagrams/trouser.jpg"},
				AspectPercent:    150,
				AllowedFixedKeys: []string{"waist", "hip", "thigh", "knee", "bottom", "inseam", "length"},
				ExtraFixed:       []LandmarkConfig{{Key: "crotch", Label: "Crotch", X: 50, Y: 32}},
			},
		},
	}
}

// Env var names used as overrides.
const (
	EnvAssetBaseURL   = "TMK_ASSET_BASE_URL"
	EnvAssetTimeoutMs = "TMK_ASSET_TIMEOUT_MS"
	EnvTLSInsecure    = "TMK_TLS_INSECURE"
	EnvDefaultUnit    = "TMK_DEFAULT_UNIT"
	EnvWorkspaceRoot  = "TMK_WORKSPACE"
	EnvLogLevel       = "TMK_LOG_LEVEL"
	EnvLogFormat      = "TMK_LOG_FORMAT"
	EnvLogSource      = "TMK_LOG_SOURCE"
	EnvLogFile        = "TMK_LOG_FILE"
	// EnvConfigPath points Load/Save at an explicit file, mainly for tests and portable installs.
	EnvConfigPath = "TMK_CONFIG"
)

// Service/keys for OS keyring.
const (
	keyringService = "TailorMark"
	keyringToken   = "asset_token"
)

// TokenStore abstracts the keyring so tests can stub it.
type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

var tokenStore TokenStore = osKeyring{}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "TailorMark")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "TailorMark")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = filepath.Join(xdg, "tailormark")
		} else if home := os.Getenv("HOME"); home != "" {
			base = filepath.Join(home, ".config", "tailormark")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present) over the defaults and merges
// environment overrides. The asset token is read from the keyring and returned
// separately. A malformed file is reported but the defaults are still returned.
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	var loadErr error
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			loadErr = fmt.Errorf("parse %s: %w", path, err)
		} else {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	tok, _ := tokenStore.Get(keyringService, keyringToken)
	return cfg, tok, loadErr
}

// Save writes the user config YAML and persists the token into the OS keyring (if non-empty).
func Save(cfg AppConfig, token string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if token != "" {
		if err := tokenStore.Set(keyringService, keyringToken, token); err != nil {
			return fmt.Errorf("store token: %w", err)
		}
	}
	return nil
}

// ClearToken removes the asset token from the keyring.
func ClearToken() error { return tokenStore.Delete(keyringService, keyringToken) }

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if s := strings.TrimSpace(src.General.Theme); s != "" {
		dst.General.Theme = s
	}
	if s := strings.TrimSpace(src.General.WorkspaceRoot); s != "" {
		dst.General.WorkspaceRoot = s
	}
	// overlay: zero means "not set in file"
	o := src.Overlay
	if u := normUnit(o.DefaultUnit); u != "" {
		dst.Overlay.DefaultUnit = u
	}
	if s := strings.ToLower(strings.TrimSpace(o.LayerPreset)); s != "" {
		dst.Overlay.LayerPreset = s
	}
	setPos(&dst.Overlay.DimOffsetPct, o.DimOffsetPct)
	setPos(&dst.Overlay.CircleRPct, o.CircleRPct)
	setPos(&dst.Overlay.ArrowLenPct, o.ArrowLenPct)
	setPos(&dst.Overlay.AngleArmPct, o.AngleArmPct)
	setPos(&dst.Overlay.MinCircleRPct, o.MinCircleRPct)
	if o.UndoDepth > 0 {
		dst.Overlay.UndoDepth = o.UndoDepth
	}
	if src.Assets.BaseURL != "" {
		dst.Assets.BaseURL = src.Assets.BaseURL
	}
	if src.Assets.TimeoutMs != 0 {
		dst.Assets.TimeoutMs = src.Assets.TimeoutMs
	}
	dst.Assets.TLSInsecure = src.Assets.TLSInsecure
	if s := strings.TrimSpace(src.Logging.Level); s != "" {
		dst.Logging.Level = strings.ToLower(s)
	}
	if s := strings.TrimSpace(src.Logging.Format); s != "" {
		dst.Logging.Format = strings.ToLower(s)
	}
	dst.Logging.Source = src.Logging.Source
	if s := strings.TrimSpace(src.Logging.File); s != "" {
		dst.Logging.File = s
	}
	// diagrams from file replace built-ins of the same name
	if len(src.Diagrams) > 0 && dst.Diagrams == nil {
		dst.Diagrams = map[string]DiagramConfig{}
	}
	for name, d := range src.Diagrams {
		dst.Diagrams[strings.ToLower(strings.TrimSpace(name))] = d
	}
}

func setPos(dst *float64, v float64) {
	if v > 0 {
		*dst = v
	}
}

func normUnit(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cm":
		return "cm"
	case "in", "inch", "inches":
		return "in"
	}
	return ""
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvAssetBaseURL)); v != "" {
		cfg.Assets.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAssetTimeoutMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Assets.TimeoutMs = n
		}
	}
	if v := os.Getenv(EnvTLSInsecure); strings.TrimSpace(v) != "" {
		cfg.Assets.TLSInsecure = truthy(v)
	}
	if u := normUnit(os.Getenv(EnvDefaultUnit)); u != "" {
		cfg.Overlay.DefaultUnit = u
	}
	if v := strings.TrimSpace(os.Getenv(EnvWorkspaceRoot)); v != "" {
		cfg.General.WorkspaceRoot = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := os.Getenv(EnvLogSource); strings.TrimSpace(v) != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

var envByKey = map[string]string{
	"assets.base_url":        EnvAssetBaseURL,
	"assets.timeout_ms":      EnvAssetTimeoutMs,
	"assets.tls_insecure":    EnvTLSInsecure,
	"overlay.default_unit":   EnvDefaultUnit,
	"general.workspace_root": EnvWorkspaceRoot,
	"logging.level":          EnvLogLevel,
	"logging.format":         EnvLogFormat,
	"logging.source":         EnvLogSource,
	"logging.file":           EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	name, ok := envByKey[key]
	if !ok || os.Getenv(name) == "" {
		return "", false
	}
	return name, true
}

// Timeout returns the asset fetch timeout, falling back to the default.
func (a AssetsConfig) Timeout() time.Duration {
	ms := a.TimeoutMs
	if ms <= 0 {
		ms = Defaults().Assets.TimeoutMs
	}
	return time.Duration(ms) * time.Millisecond
}

// Diagram looks up a catalog entry by case-insensitive name.
func (c AppConfig) Diagram(name string) (DiagramConfig, bool) {
	d, ok := c.Diagrams[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}

// DiagramNames lists the catalog in sorted order.
func (c AppConfig) DiagramNames() []string {
	out := make([]string, 0, len(c.Diagrams))
	for k := range c.Diagrams {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
