/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestInitWritesJSONFile verifies that Init with a file handler writes JSON lines
// carrying static, contextual and sheet attributes.
func TestInitWritesJSONFile(t *testing.T) {
	// Temp dir outside t.TempDir: lumberjack keeps the handle open on Windows.
	fpath := filepath.Join(os.TempDir(), fmt.Sprintf("tmk_log_%d.json", time.Now().UnixNano()))

	Init(Options{Level: "debug", Format: "json", File: fpath})
	t.Cleanup(func() { Init(Options{Level: "info"}) })

	l := WithOperation(WithComponent("overlay"), "place")
	ctx := ContextWithSheet(context.Background(), "sheet-42")
	l.InfoContext(ctx, "placed dimension", slog.String("kind", "dim"))

	time.Sleep(50 * time.Millisecond)

	b, err := os.ReadFile(fpath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	sc := bufio.NewScanner(bytes.NewReader(b))
	var last string
	for sc.Scan() {
		if s := strings.TrimSpace(sc.Text()); s != "" {
			last = s
		}
	}
	if last == "" {
		t.Fatalf("no log lines found")
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(last), &m); err != nil {
		t.Fatalf("unmarshal json log: %v", err)
	}
	if m["app"] != "tailormark" {
		t.Fatalf("app attr = %v", m["app"])
	}
	if _, ok := m["ver"].(string); !ok {
		t.Fatalf("missing ver attr")
	}
	if m["component"] != "overlay" || m["op"] != "place" {
		t.Fatalf("component/op mismatch: %v %v", m["component"], m["op"])
	}
	if m["sheet"] != "sheet-42" {
		t.Fatalf("sheet attr = %v", m["sheet"])
	}
	if m["msg"] != "placed dimension" {
		t.Fatalf("msg = %v", m["msg"])
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("TMK_LOG_LEVEL", "warn")
	t.Setenv("TMK_LOG_FORMAT", "json")
	t.Setenv("TMK_LOG_SOURCE", "true")
	t.Setenv("TMK_LOG_FILE", "")

	opts := FromEnv()
	if opts.Level != "warn" || opts.Format != "json" || !opts.AddSource || opts.File != "" {
		t.Fatalf("FromEnv mismatch: %+v", opts)
	}
	if v := getenv("TMK_SURELY_UNSET_VAR", "fallback"); v != "fallback" {
		t.Fatalf("getenv fallback = %q", v)
	}
}

func TestPrettyTextHandler(t *testing.T) {
	var buf bytes.Buffer
	h := &prettyTextHandler{level: slog.LevelWarn, w: &buf}

	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("info should be filtered at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("error should pass at warn level")
	}

	h2 := h.WithAttrs([]slog.Attr{slog.String("k", "v")}).WithGroup("grp")
	r := slog.NewRecord(time.Now(), slog.LevelError, "boom", 0)
	r.AddAttrs(slog.Int("n", 42), slog.Float64("pi", 3.14), slog.String("label", "left hip"))
	if err := h2.Handle(context.Background(), r); err != nil {
		t.Fatalf("handle: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"ERR", "boom", " k=v", "grp.n=42", "grp.pi=3.14", `grp.label="left hip"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q missing %q", out, want)
		}
	}
}

func TestSetLevelAffectsRunningLogger(t *testing.T) {
	Init(Options{Level: "error"})
	t.Cleanup(func() { Init(Options{Level: "info"}) })
	if L().Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("info enabled at error level")
	}
	SetLevel("debug")
	if !L().Enabled(context.Background(), slog.LevelDebug) {
		t.Fatalf("debug not enabled after SetLevel")
	}
}

func TestSheetFromContextEmpty(t *testing.T) {
	if _, ok := SheetFromContext(context.Background()); ok {
		t.Fatalf("expected no sheet in empty context")
	}
	if _, ok := SheetFromContext(ContextWithSheet(context.Background(), "")); ok {
		t.Fatalf("empty id should not count")
	}
}
