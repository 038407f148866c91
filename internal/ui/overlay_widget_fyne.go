//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"tailormark/internal/export"
	"tailormark/internal/geom"
	"tailormark/internal/overlay"
)

// OverlayWidget draws the diagram image with its annotation scene and
// forwards pointer input to the overlay.
type OverlayWidget struct {
	widget.BaseWidget

	ov  *overlay.Overlay
	img image.Image

	// drag state: engaged is set on the first Dragged event of a gesture so
	// hit testing runs once per gesture.
	engaged bool

	OnChanged  func()
	OnToolUsed func()
}

// NewOverlayWidget wraps an overlay.
func NewOverlayWidget(ov *overlay.Overlay) *OverlayWidget {
	w := &OverlayWidget{ov: ov}
	w.ExtendBaseWidget(w)
	return w
}

// SetImage replaces the diagram image; nil shows the placeholder.
func (w *OverlayWidget) SetImage(img image.Image) {
	w.img = img
	w.Refresh()
}

func (w *OverlayWidget) MinSize() fyne.Size { return fyne.NewSize(320, 400) }

func (w *OverlayWidget) changed() {
	w.Refresh()
	if w.OnChanged != nil {
		w.OnChanged()
	}
}

// Tapped routes through hit testing: control squares select, plain clicks
// place with the active tool or open the inline label.
func (w *OverlayWidget) Tapped(e *fyne.PointEvent) {
	tool := w.ov.Tool()
	if w.ov.Tap(float64(e.Position.X), float64(e.Position.Y)) {
		if tool != w.ov.Tool() && w.OnToolUsed != nil {
			w.OnToolUsed()
		}
		w.changed()
	}
}

// Dragged starts a drag on the element under the gesture origin and then
// feeds pointer moves.
func (w *OverlayWidget) Dragged(e *fyne.DragEvent) {
	x, y := float64(e.Position.X), float64(e.Position.Y)
	if !w.engaged {
		w.engaged = true
		start := e.Position.Subtract(e.Dragged)
		sx, sy := float64(start.X), float64(start.Y)
		if hit, ok := w.ov.HitTest(sx, sy); ok {
			w.ov.PointerDown(hit.Target, sx, sy)
		}
	}
	if w.ov.PointerMove(x, y) {
		w.Refresh()
	}
}

func (w *OverlayWidget) DragEnd() {
	w.engaged = false
	if w.ov.PointerUp() {
		w.changed()
	}
}

func (w *OverlayWidget) CreateRenderer() fyne.WidgetRenderer {
	r := &overlayRenderer{w: w, bg: canvas.NewRectangle(color.RGBA{R: 30, G: 30, B: 34, A: 255})}
	r.rebuild(w.Size())
	return r
}

type overlayRenderer struct {
	w       *OverlayWidget
	bg      *canvas.Rectangle
	objects []fyne.CanvasObject
}

func (r *overlayRenderer) Destroy()                     {}
func (r *overlayRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *overlayRenderer) MinSize() fyne.Size           { return r.w.MinSize() }
func (r *overlayRenderer) Layout(size fyne.Size)        { r.rebuild(size) }
func (r *overlayRenderer) Refresh() {
	r.rebuild(r.w.Size())
	canvas.Refresh(r.w)
}

var (
	handleColor  = color.RGBA{R: 0, G: 170, B: 255, A: 255}
	controlColor = color.RGBA{R: 255, G: 170, B: 0, A: 255}
	placeholder  = color.RGBA{R: 200, G: 200, B: 200, A: 255}
)

// rebuild lays the container out at size and recreates every scene object.
func (r *overlayRenderer) rebuild(size fyne.Size) {
	ov := r.w.ov
	ov.SetContainerSize(float64(size.Width), float64(size.Height))
	sc := ov.Scene()
	st := export.DefaultStyle()

	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))
	objs := []fyne.CanvasObject{r.bg}
	add := func(o fyne.CanvasObject) { objs = append(objs, o) }

	switch sc.Image {
	case overlay.ImageFailed:
		add(centeredText(geom.Pt{X: float64(size.Width) / 2, Y: float64(size.Height) / 2}, "image not found", placeholder, 16))
		r.objects = objs
		return
	case overlay.ImageLoading:
		add(centeredText(geom.Pt{X: float64(size.Width) / 2, Y: float64(size.Height) / 2}, "loading…", placeholder, 16))
		r.objects = objs
		return
	}
	if sc.Box.Empty() {
		r.objects = objs
		return
	}
	if r.w.img != nil {
		im := canvas.NewImageFromImage(r.w.img)
		im.FillMode = canvas.ImageFillStretch
		im.Resize(fyne.NewSize(float32(sc.Box.W), float32(sc.Box.H)))
		im.Move(fyne.NewPos(float32(sc.Box.Left), float32(sc.Box.Top)))
		add(im)
	} else {
		page := canvas.NewRectangle(color.White)
		page.Resize(fyne.NewSize(float32(sc.Box.W), float32(sc.Box.H)))
		page.Move(fyne.NewPos(float32(sc.Box.Left), float32(sc.Box.Top)))
		add(page)
	}

	lw := float32(st.LineWidth)
	line := func(a, b geom.Pt, col color.Color, dashed bool) {
		for _, seg := range dashSegments(a, b, dashed, st.LineWidth) {
			l := canvas.NewLine(col)
			l.StrokeWidth = lw
			l.Position1 = pos(seg[0])
			l.Position2 = pos(seg[1])
			add(l)
		}
	}
	polyline := func(pts []geom.Pt, col color.Color) {
		for i := 1; i < len(pts); i++ {
			line(pts[i-1], pts[i], col, false)
		}
	}
	head := func(from, tip geom.Pt, col color.Color) {
		a, b := geom.ArrowHead(from, tip, st.HeadLen)
		line(tip, a, col, false)
		line(tip, b, col, false)
	}
	control := func(rc geom.Rect, selected bool) {
		box := canvas.NewRectangle(color.Transparent)
		box.StrokeColor = controlColor
		box.StrokeWidth = 1
		if selected {
			box.FillColor = controlColor
		}
		box.Resize(fyne.NewSize(float32(rc.W), float32(rc.H)))
		box.Move(fyne.NewPos(float32(rc.X), float32(rc.Y)))
		add(box)
	}
	size12 := float32(st.FontSize)

	for _, d := range sc.Dims {
		line(d.A, d.B, st.Line, d.Dashed)
		if d.Heads {
			head(d.B, d.A, st.Line)
			head(d.A, d.B, st.Line)
		}
		add(centeredText(geom.Mid(d.A, d.B).Add(geom.Pt{Y: -14}), d.Label, st.Text, size12))
		control(d.Control, d.Selected)
	}
	for _, c := range sc.Circles {
		circ := canvas.NewCircle(color.Transparent)
		circ.StrokeColor = st.Accent
		circ.StrokeWidth = lw
		circ.Position1 = pos(geom.Pt{X: c.C.X - c.R, Y: c.C.Y - c.R})
		circ.Position2 = pos(geom.Pt{X: c.C.X + c.R, Y: c.C.Y + c.R})
		add(circ)
		if c.Note != "" {
			add(centeredText(geom.Pt{X: c.C.X, Y: c.C.Y - c.R - 16}, c.Note, st.Text, size12))
		}
		control(c.Control, c.Selected)
	}
	for _, a := range sc.Arrows {
		from := a.A
		if a.Curved {
			pts := geom.QuadPoints(a.A, a.Ctrl, a.B, 24)
			for i := 1; i < len(pts); i++ {
				line(pts[i-1], pts[i], st.Line, a.Dashed && i%2 == 0)
			}
			from = a.Ctrl
		} else {
			line(a.A, a.B, st.Line, a.Dashed)
		}
		if a.Head {
			head(from, a.B, st.Line)
		}
		if a.Text != "" {
			add(centeredText(a.A.Add(geom.Pt{Y: -16}), a.Text, st.Text, size12))
		}
		control(a.Control, a.Selected)
	}
	for _, a := range sc.Angles {
		line(a.B, a.A, st.Accent, false)
		line(a.B, a.C, st.Accent, false)
		polyline(geom.ArcPoints(a.B, a.Arc, 16), st.Accent)
		add(centeredText(a.B.Add(geom.Pt{X: a.Arc.Radius + 10, Y: -8}), fmt.Sprintf("%d°", a.Degrees), st.Text, size12))
		control(a.Control, a.Selected)
	}
	for _, n := range sc.Notes {
		t := canvas.NewText(n.Pill, st.Text)
		t.TextSize = size12
		ts := t.MinSize()
		pill := canvas.NewRectangle(st.PillFill)
		pill.StrokeColor = st.Line
		pill.StrokeWidth = 1
		pill.CornerRadius = (ts.Height + 4) / 2
		pill.Resize(fyne.NewSize(ts.Width+12, ts.Height+4))
		pill.Move(fyne.NewPos(float32(n.At.X)-(ts.Width+12)/2, float32(n.At.Y)-(ts.Height+4)/2))
		add(pill)
		t.Move(fyne.NewPos(float32(n.At.X)-ts.Width/2, float32(n.At.Y)-ts.Height/2))
		add(t)
		control(n.Control, n.Selected)
	}
	for _, l := range sc.Landmarks {
		label := l.Label
		if l.Value != "" {
			label += ": " + l.Value
		}
		add(centeredText(l.At.Add(geom.Pt{Y: -8}), label, st.Text, size12))
	}
	for _, p := range sc.Points {
		dot := canvas.NewCircle(st.Line)
		dot.Position1 = pos(p.At.Sub(geom.Pt{X: 3, Y: 3}))
		dot.Position2 = pos(p.At.Add(geom.Pt{X: 3, Y: 3}))
		add(dot)
		text := p.Label
		if p.Value != "" {
			text += " " + p.Value + p.Unit
		}
		t := canvas.NewText(text, st.Text)
		t.TextSize = size12
		t.Move(pos(p.At.Add(geom.Pt{X: 6, Y: -18})))
		add(t)
	}
	for _, h := range sc.Handles {
		c := canvas.NewCircle(color.White)
		c.StrokeColor = handleColor
		c.StrokeWidth = 1.5
		c.Position1 = pos(h.At.Sub(geom.Pt{X: 4, Y: 4}))
		c.Position2 = pos(h.At.Add(geom.Pt{X: 4, Y: 4}))
		add(c)
	}
	for _, tb := range sc.Toolbars {
		add(centeredText(tb.At.Sub(geom.Pt{Y: 8}), string(tb.Kind), controlColor, 10))
	}
	if sc.Pending != nil {
		c := canvas.NewCircle(controlColor)
		c.Position1 = pos(sc.Pending.At.Sub(geom.Pt{X: 3, Y: 3}))
		c.Position2 = pos(sc.Pending.At.Add(geom.Pt{X: 3, Y: 3}))
		add(c)
	}
	r.objects = objs
}

func pos(p geom.Pt) fyne.Position { return fyne.NewPos(float32(p.X), float32(p.Y)) }

func centeredText(at geom.Pt, s string, col color.Color, size float32) *canvas.Text {
	t := canvas.NewText(s, col)
	t.TextSize = size
	ts := t.MinSize()
	t.Move(fyne.NewPos(float32(at.X)-ts.Width/2, float32(at.Y)-ts.Height/2))
	return t
}

// dashSegments splits a-b into dash pieces; solid lines come back whole.
func dashSegments(a, b geom.Pt, dashed bool, width float64) [][2]geom.Pt {
	if !dashed {
		return [][2]geom.Pt{{a, b}}
	}
	dash, gap := width*3, width*2
	length := a.Dist(b)
	if length == 0 {
		return nil
	}
	var out [][2]geom.Pt
	at := func(d float64) geom.Pt {
		t := d / length
		return geom.Pt{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}
	}
	for d := 0.0; d < length; d += dash + gap {
		out = append(out, [2]geom.Pt{at(d), at(math.Min(d+dash, length))})
	}
	return out
}
