//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// These tests cover the Fyne overlay widget. They are gated behind the
// "fyne" build tag so CI (which is headless) does not need Fyne or a display.
// To run locally:
//
//	go test -tags fyne ./internal/ui
package ui

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"

	"tailormark/internal/domain"
	"tailormark/internal/geom"
	"tailormark/internal/overlay"
)

func newTestWidget(t *testing.T) (*OverlayWidget, *overlay.Overlay) {
	t.Helper()
	test.NewTempApp(t)
	s := domain.Sheet{ID: "w1", AllowedFixedKeys: []string{}}
	ov := overlay.New(overlay.NewStore(s, nil), overlay.Props{})
	ov.SetNaturalSize(300, 400)
	w := NewOverlayWidget(ov)
	w.Resize(fyne.NewSize(300, 400))
	return w, ov
}

func TestOverlayWidget_Defaults(t *testing.T) {
	w, _ := newTestWidget(t)
	if sz := w.MinSize(); sz.Width != 320 || sz.Height != 400 {
		t.Fatalf("unexpected MinSize: %v", sz)
	}
	r := test.WidgetRenderer(w)
	if len(r.Objects()) < 2 {
		t.Fatalf("expected background and page, got %d objects", len(r.Objects()))
	}
}

func TestOverlayWidget_TapPlacesDimension(t *testing.T) {
	w, ov := newTestWidget(t)
	changed, toolUsed := 0, 0
	w.OnChanged = func() { changed++ }
	w.OnToolUsed = func() { toolUsed++ }
	r := test.WidgetRenderer(w)
	before := len(r.Objects())

	ov.SetTool(overlay.ToolDim)
	w.Tapped(&fyne.PointEvent{Position: fyne.NewPos(120, 200)})

	if n := len(ov.Sheet().Annotations.Dims); n != 1 {
		t.Fatalf("want 1 dimension, got %d", n)
	}
	if changed != 1 || toolUsed != 1 {
		t.Fatalf("callbacks changed=%d toolUsed=%d", changed, toolUsed)
	}
	if len(r.Objects()) <= before {
		t.Fatalf("renderer did not add objects for the dimension (%d -> %d)", before, len(r.Objects()))
	}
}

func TestOverlayWidget_FailedImageShowsPlaceholderOnly(t *testing.T) {
	w, ov := newTestWidget(t)
	ov.ImageFailed()
	w.Refresh()
	if n := len(test.WidgetRenderer(w).Objects()); n != 2 {
		t.Fatalf("expected background and placeholder text, got %d objects", n)
	}
}

func TestDashSegments(t *testing.T) {
	a, b := geom.Pt{}, geom.Pt{X: 20}
	if segs := dashSegments(a, b, false, 2); len(segs) != 1 || segs[0][1] != b {
		t.Fatalf("solid line should stay whole: %v", segs)
	}
	segs := dashSegments(a, b, true, 2)
	// dash 6, gap 4: starts at 0, 10
	if len(segs) != 2 || segs[1][0].X != 10 || segs[1][1].X != 16 {
		t.Fatalf("unexpected dashes: %v", segs)
	}
	if segs := dashSegments(a, a, true, 2); segs != nil {
		t.Fatalf("zero-length dashed line should be empty: %v", segs)
	}
}

func TestOverlayKey(t *testing.T) {
	cases := map[fyne.KeyName]string{
		fyne.KeyEscape:    overlay.KeyEscape,
		fyne.KeyDelete:    overlay.KeyDelete,
		fyne.KeyBackspace: overlay.KeyBackspace,
		fyne.KeyA:         "A",
	}
	for in, want := range cases {
		if got := overlayKey(in); got != want {
			t.Fatalf("overlayKey(%q) = %q, want %q", in, got, want)
		}
	}
}
