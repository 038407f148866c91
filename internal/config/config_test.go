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
	"os"
	"path/filepath"
	"testing"
	"time"
)

type memTokens map[string]string

func (m memTokens) Get(service, key string) (string, error) { return m[service+"/"+key], nil }
func (m memTokens) Set(service, key, value string) error {
	m[service+"/"+key] = value
	return nil
}
func (m memTokens) Delete(service, key string) error {
	delete(m, service+"/"+key)
	return nil
}

// isolate points config at a temp file and swaps the keyring for a map.
func isolate(t *testing.T) (string, memTokens) {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(EnvConfigPath, p)
	for _, k := range []string{EnvAssetBaseURL, EnvAssetTimeoutMs, EnvTLSInsecure, EnvDefaultUnit, EnvWorkspaceRoot, EnvLogLevel, EnvLogFormat, EnvLogSource, EnvLogFile} {
		t.Setenv(k, "")
	}
	old := tokenStore
	mt := memTokens{}
	tokenStore = mt
	t.Cleanup(func() { tokenStore = old })
	return p, mt
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	isolate(t)
	cfg, tok, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if tok != "" {
		t.Fatalf("token = %q, want empty", tok)
	}
	if cfg.Overlay.DefaultUnit != "cm" || cfg.Overlay.DimOffsetPct != 8 || cfg.Overlay.CircleRPct != 6 {
		t.Fatalf("unexpected overlay defaults: %+v", cfg.Overlay)
	}
	if _, ok := cfg.Diagram("Shirt"); !ok {
		t.Fatalf("built-in shirt diagram missing")
	}
}

func TestSaveLoadRoundTripAndToken(t *testing.T) {
	_, mt := isolate(t)
	cfg := Defaults()
	cfg.Overlay.DefaultUnit = "in"
	cfg.Assets.BaseURL = "https://assets.example.test/"
	cfg.Diagrams["kurta"] = DiagramConfig{Title: "Kurta", Image: "kurta.png", AspectPercent: 140}
	if err := Save(cfg, "s3cret"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if mt[keyringService+"/"+keyringToken] != "s3cret" {
		t.Fatalf("token not stored in keyring stub")
	}
	got, tok, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tok != "s3cret" {
		t.Fatalf("token = %q", tok)
	}
	if got.Overlay.DefaultUnit != "in" || got.Assets.BaseURL != "https://assets.example.test/" {
		t.Fatalf("round trip mismatch: %+v %+v", got.Overlay, got.Assets)
	}
	if d, ok := got.Diagram("kurta"); !ok || d.AspectPercent != 140 {
		t.Fatalf("kurta diagram = %+v, %v", d, ok)
	}
	if err := ClearToken(); err != nil {
		t.Fatalf("ClearToken: %v", err)
	}
	if _, ok := mt[keyringService+"/"+keyringToken]; ok {
		t.Fatalf("token still present after ClearToken")
	}
}

func TestMalformedFileKeepsDefaults(t *testing.T) {
	p, _ := isolate(t)
	if err := os.WriteFile(p, []byte("overlay: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, _, err := Load()
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if cfg.Overlay.DefaultUnit != "cm" {
		t.Fatalf("defaults lost on parse error: %+v", cfg.Overlay)
	}
}

func TestEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv(EnvAssetBaseURL, "https://cdn.example.test")
	t.Setenv(EnvAssetTimeoutMs, "2500")
	t.Setenv(EnvTLSInsecure, "yes")
	t.Setenv(EnvDefaultUnit, "inches")
	t.Setenv(EnvLogLevel, "DEBUG")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Assets.BaseURL != "https://cdn.example.test" || cfg.Assets.Timeout() != 2500*time.Millisecond || !cfg.Assets.TLSInsecure {
		t.Fatalf("asset overrides not applied: %+v", cfg.Assets)
	}
	if cfg.Overlay.DefaultUnit != "in" {
		t.Fatalf("unit override = %q", cfg.Overlay.DefaultUnit)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("log level = %q", cfg.Logging.Level)
	}
	if name, ok := EnvOverrideFor("assets.base_url"); !ok || name != EnvAssetBaseURL {
		t.Fatalf("EnvOverrideFor = %q, %v", name, ok)
	}
	if _, ok := EnvOverrideFor("logging.file"); ok {
		t.Fatalf("logging.file should not be overridden")
	}
}

func TestMergeIgnoresZeroOverlayValues(t *testing.T) {
	dst := Defaults()
	src := AppConfig{Overlay: OverlayConfig{CircleRPct: 9, DefaultUnit: "furlong"}}
	mergeInto(&dst, &src)
	if dst.Overlay.CircleRPct != 9 {
		t.Fatalf("CircleRPct = %v", dst.Overlay.CircleRPct)
	}
	if dst.Overlay.DimOffsetPct != 8 || dst.Overlay.DefaultUnit != "cm" {
		t.Fatalf("zero/invalid values should keep defaults: %+v", dst.Overlay)
	}
}

func TestTimeoutFallback(t *testing.T) {
	if got := (AssetsConfig{}).Timeout(); got != 15*time.Second {
		t.Fatalf("Timeout() = %v", got)
	}
}

func TestDiagramNamesSorted(t *testing.T) {
	names := Defaults().DiagramNames()
	if len(names) != 2 || names[0] != "shirt" || names[1] != "trouser" {
		t.Fatalf("DiagramNames = %v", names)
	}
}
