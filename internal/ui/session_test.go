/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tailormark/internal/config"
	"tailormark/internal/export"
	"tailormark/internal/imageload"
	"tailormark/internal/overlay"
	"tailormark/internal/storage"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode: %v", err)
	}
}

func openTestSession(t *testing.T) (*Session, string) {
	t.Helper()
	ctx := context.Background()
	ws, err := storage.InitWorkspace(t.TempDir())
	if err != nil {
		t.Fatalf("InitWorkspace: %v", err)
	}
	cfg := config.Defaults()
	sheet, err := cfg.NewSheet("s1", "shirt", "Ada")
	if err != nil {
		t.Fatalf("NewSheet: %v", err)
	}
	if err := ws.CreateSheet(ctx, &sheet); err != nil {
		t.Fatalf("CreateSheet: %v", err)
	}
	s, err := OpenSession(ws, "s1", cfg)
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	t.Cleanup(s.Close)
	return s, t.TempDir()
}

func TestSessionLoadsImageAndEdits(t *testing.T) {
	ctx := context.Background()
	s, assets := openTestSession(t)
	writePNG(t, filepath.Join(assets, "diagrams", "shirt.png"), 200, 250)

	s.LoadImage(ctx, imageload.New(config.AssetsConfig{}, "").WithDir(assets))
	if s.Overlay.Image() != overlay.ImageReady {
		t.Fatalf("image state = %v", s.Overlay.Image())
	}
	if img, info := s.Image(); img == nil || info.Width != 200 || info.Index != 0 {
		t.Fatalf("image info = %+v", info)
	}
	if s.Dirty() {
		t.Fatalf("fresh session should be clean")
	}

	s.Overlay.SetContainerSize(200, 250)
	s.Overlay.SetTool(overlay.ToolDim)
	if !s.Overlay.Click(50, 50, false) {
		t.Fatalf("click should place a dimension")
	}
	if !s.Dirty() {
		t.Fatalf("edit should mark the session dirty")
	}

	wrote, err := s.Autosave(ctx, time.Now())
	if err != nil || !wrote {
		t.Fatalf("Autosave = %v, %v", wrote, err)
	}
	if wrote, _ := s.Autosave(ctx, time.Now()); wrote {
		t.Fatalf("second autosave without changes should be skipped")
	}
	snap, ok, err := storage.LatestSnapshot(ctx, s.WS, "s1")
	if err != nil || !ok || snap.Reason != storage.ReasonAutosave {
		t.Fatalf("LatestSnapshot = %+v %v %v", snap, ok, err)
	}

	if err := s.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if s.Dirty() {
		t.Fatalf("save should clear dirty")
	}
	got, err := s.WS.LoadSheet("s1")
	if err != nil {
		t.Fatalf("LoadSheet: %v", err)
	}
	if len(got.Annotations.Dims) != 1 {
		t.Fatalf("saved dims = %d", len(got.Annotations.Dims))
	}

	path, err := s.Export(export.FormatPNG)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if st, err := os.Stat(path); err != nil || st.Size() == 0 {
		t.Fatalf("export file: %v", err)
	}
}

func TestSessionMissingImageFails(t *testing.T) {
	s, assets := openTestSession(t)
	s.LoadImage(context.Background(), imageload.New(config.AssetsConfig{}, "").WithDir(assets))
	if s.Overlay.Image() != overlay.ImageFailed {
		t.Fatalf("image state = %v", s.Overlay.Image())
	}
	if img, _ := s.Image(); img != nil {
		t.Fatalf("image should be nil after failure")
	}
	// The sheet still exports without a background.
	if _, err := s.Export(export.FormatSVG); err != nil {
		t.Fatalf("Export: %v", err)
	}
}

func TestOpenSessionUnknownSheet(t *testing.T) {
	ws, err := storage.InitWorkspace(t.TempDir())
	if err != nil {
		t.Fatalf("InitWorkspace: %v", err)
	}
	if _, err := OpenSession(ws, "nope", config.Defaults()); err == nil {
		t.Fatalf("expected error for missing sheet")
	}
}
