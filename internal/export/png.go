/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"tailormark/internal/geom"
	"tailormark/internal/overlay"
)

// RenderPNG rasterizes a scene, scaling bg into the image box when given.
func RenderPNG(sc overlay.Scene, bg image.Image, st Style) *image.RGBA {
	st = st.withDefaults()
	w := int(math.Round(sc.Container.X))
	h := int(math.Round(sc.Container.Y))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{255, 255, 255, 255}}, image.Point{}, draw.Src)
	if bg != nil && !sc.Box.Empty() {
		dst := image.Rect(
			int(math.Round(sc.Box.Left)), int(math.Round(sc.Box.Top)),
			int(math.Round(sc.Box.Left+sc.Box.W)), int(math.Round(sc.Box.Top+sc.Box.H)),
		)
		draw.CatmullRom.Scale(img, dst, bg, bg.Bounds(), draw.Over, nil)
	}

	pen := raster{img: img, width: st.LineWidth}
	for _, d := range sc.Dims {
		pen.col, pen.dashed = st.Line, d.Dashed
		pen.line(d.A, d.B)
		pen.dashed = false
		if d.Heads {
			pen.head(d.B, d.A, st.HeadLen)
			pen.head(d.A, d.B, st.HeadLen)
		} else {
			for _, p := range []geom.Pt{d.A, d.B} {
				t1, t2 := geom.Tick(d.A, d.B, p, st.HeadLen/2)
				pen.line(t1, t2)
			}
		}
		drawLabel(img, dimLabelAt(d.A, d.B), d.Label, st.Text, true)
	}
	for _, c := range sc.Circles {
		pen.col, pen.dashed = st.Accent, false
		n := int(math.Max(24, c.R))
		pts := make([]geom.Pt, 0, n+1)
		for i := 0; i <= n; i++ {
			t := 2 * math.Pi * float64(i) / float64(n)
			pts = append(pts, geom.Pt{X: c.C.X + c.R*math.Cos(t), Y: c.C.Y + c.R*math.Sin(t)})
		}
		pen.polyline(pts)
		if c.Note != "" {
			drawLabel(img, geom.Pt{X: c.C.X, Y: c.C.Y - c.R - 4}, c.Note, st.Text, true)
		}
	}
	for _, a := range sc.Arrows {
		pen.col, pen.dashed = st.Line, a.Dashed
		from := a.A
		if a.Curved {
			pen.polyline(geom.QuadPoints(a.A, a.Ctrl, a.B, 32))
			from = a.Ctrl
		} else {
			pen.line(a.A, a.B)
		}
		pen.dashed = false
		if a.Head {
			pen.head(from, a.B, st.HeadLen)
		}
		if a.Text != "" {
			drawLabel(img, a.A.Add(geom.Pt{Y: -6}), a.Text, st.Text, true)
		}
	}
	for _, a := range sc.Angles {
		pen.col, pen.dashed = st.Accent, false
		pen.line(a.B, a.A)
		pen.line(a.B, a.C)
		pen.polyline(geom.ArcPoints(a.B, a.Arc, 24))
		drawLabel(img, angleLabelAt(a.B, a.Arc), fmt.Sprintf("%d deg", a.Degrees), st.Text, true)
	}
	for _, n := range sc.Notes {
		tw := float64(font.MeasureString(basicfont.Face7x13, n.Pill).Ceil())
		r := image.Rect(
			int(n.At.X-tw/2-6), int(n.At.Y-10),
			int(n.At.X+tw/2+6), int(n.At.Y+10),
		)
		draw.Draw(img, r, &image.Uniform{C: st.PillFill}, image.Point{}, draw.Src)
		strokeRect(img, r.Min.X, r.Min.Y, r.Max.X-1, r.Max.Y-1, st.Line)
		drawLabel(img, geom.Pt{X: n.At.X, Y: n.At.Y + 4}, n.Pill, st.Text, true)
	}
	for _, l := range sc.Landmarks {
		drawLabel(img, l.At, landmarkText(l), st.Text, true)
	}
	for _, p := range sc.Points {
		pen.col = st.Line
		pen.dot(p.At, 3)
		drawLabel(img, p.At.Add(geom.Pt{X: 6, Y: -6}), pointText(p), st.Text, false)
	}
	return img
}

func writePNG(out io.Writer, sc overlay.Scene, bg image.Image, st Style) error {
	if err := png.Encode(out, RenderPNG(sc, bg, st)); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// raster strokes lines by stamping square pens along the path.
type raster struct {
	img    *image.RGBA
	col    color.RGBA
	width  float64
	dashed bool
	run    float64 // distance along the current dashed path
}

func (r *raster) line(a, b geom.Pt) {
	r.run = 0
	r.segment(a, b)
}

func (r *raster) polyline(pts []geom.Pt) {
	r.run = 0
	for i := 1; i < len(pts); i++ {
		r.segment(pts[i-1], pts[i])
	}
}

func (r *raster) segment(a, b geom.Pt) {
	length := a.Dist(b)
	steps := int(math.Ceil(length * 2))
	if steps == 0 {
		r.dot(a, r.width/2)
		return
	}
	dash, gap := r.width*3, r.width*2
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		pos := r.run + t*length
		if r.dashed && math.Mod(pos, dash+gap) >= dash {
			continue
		}
		r.dot(geom.Pt{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}, r.width/2)
	}
	r.run += length
}

func (r *raster) dot(p geom.Pt, half float64) {
	if half < 0.5 {
		half = 0.5
	}
	x0, x1 := int(math.Floor(p.X-half)), int(math.Ceil(p.X+half))
	y0, y1 := int(math.Floor(p.Y-half)), int(math.Ceil(p.Y+half))
	b := r.img.Bounds()
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if image.Pt(x, y).In(b) {
				r.img.SetRGBA(x, y, r.col)
			}
		}
	}
}

// head fills an arrowhead by scanning lines from the tip to the base.
func (r *raster) head(from, tip geom.Pt, length float64) {
	left, right := geom.ArrowHead(from, tip, length)
	steps := int(math.Ceil(left.Dist(right) * 2))
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(max(steps, 1))
		base := geom.Pt{X: left.X + (right.X-left.X)*t, Y: left.Y + (right.Y-left.Y)*t}
		r.segmentSolid(tip, base)
	}
}

func (r *raster) segmentSolid(a, b geom.Pt) {
	dashed, w := r.dashed, r.width
	r.dashed, r.width = false, 1
	r.line(a, b)
	r.dashed, r.width = dashed, w
}

// drawLabel writes ASCII text with the built-in 7x13 face. The baseline sits
// at p.Y; centered labels are shifted left by half their advance.
func drawLabel(img *image.RGBA, p geom.Pt, s string, col color.RGBA, center bool) {
	if s == "" {
		return
	}
	d := &font.Drawer{Dst: img, Src: image.NewUniform(col), Face: basicfont.Face7x13}
	x := p.X
	if center {
		x -= float64(d.MeasureString(s).Ceil()) / 2
	}
	d.Dot = fixed.P(int(math.Round(x)), int(math.Round(p.Y)))
	d.DrawString(s)
}

// strokeRect draws a 1px axis-aligned rectangle border inclusive of endpoints.
func strokeRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y0, col)
		img.SetRGBA(x, y1, col)
	}
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x0, y, col)
		img.SetRGBA(x1, y, col)
	}
}
