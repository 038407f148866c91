/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/jung-kurt/gofpdf"

	"tailormark/internal/geom"
	"tailormark/internal/overlay"
	"tailormark/internal/version"
)

func writePDF(out io.Writer, sc overlay.Scene, title string, bg image.Image, st Style) error {
	w, h := sc.Container.X, sc.Container.Y
	// One canvas pixel maps to one point.
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: w, Ht: h},
	})
	if title != "" {
		pdf.SetTitle(title, true)
	}
	pdf.SetCreator(version.String(), false)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPageFormat("", gofpdf.SizeType{Wd: w, Ht: h})
	// Built-in Helvetica keeps text vector without embedding
	pdf.SetFont("Helvetica", "", st.FontSize)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if bg != nil && !sc.Box.Empty() {
		var buf bytes.Buffer
		if err := png.Encode(&buf, bg); err != nil {
			return fmt.Errorf("encode background: %w", err)
		}
		opt := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("background", opt, &buf)
		pdf.ImageOptions("background", sc.Box.Left, sc.Box.Top, sc.Box.W, sc.Box.H, false, opt, 0, "")
	}

	pdf.SetLineWidth(st.LineWidth)
	pdf.SetLineCapStyle("round")
	text := func(p geom.Pt, s string, center bool) {
		s = tr(s)
		x := p.X
		if center {
			x -= pdf.GetStringWidth(s) / 2
		}
		pdf.Text(x, p.Y, s)
	}
	dash := func(on bool) {
		if on {
			pdf.SetDashPattern([]float64{st.LineWidth * 3, st.LineWidth * 2}, 0)
		} else {
			pdf.SetDashPattern(nil, 0)
		}
	}
	head := func(from, tip geom.Pt) {
		l, r := geom.ArrowHead(from, tip, st.HeadLen)
		pdf.Polygon([]gofpdf.PointType{{X: tip.X, Y: tip.Y}, {X: l.X, Y: l.Y}, {X: r.X, Y: r.Y}}, "F")
	}
	polyline := func(pts []geom.Pt) {
		if len(pts) == 0 {
			return
		}
		pdf.MoveTo(pts[0].X, pts[0].Y)
		for _, p := range pts[1:] {
			pdf.LineTo(p.X, p.Y)
		}
		pdf.DrawPath("D")
	}
	setTextColor(pdf, st.Text)

	for _, d := range sc.Dims {
		setDrawColor(pdf, st.Line)
		setFillColor(pdf, st.Line)
		dash(d.Dashed)
		pdf.Line(d.A.X, d.A.Y, d.B.X, d.B.Y)
		dash(false)
		if d.Heads {
			head(d.B, d.A)
			head(d.A, d.B)
		} else {
			for _, p := range []geom.Pt{d.A, d.B} {
				t1, t2 := geom.Tick(d.A, d.B, p, st.HeadLen/2)
				pdf.Line(t1.X, t1.Y, t2.X, t2.Y)
			}
		}
		text(dimLabelAt(d.A, d.B), d.Label, true)
	}
	for _, c := range sc.Circles {
		setDrawColor(pdf, st.Accent)
		pdf.Circle(c.C.X, c.C.Y, c.R, "D")
		if c.Note != "" {
			text(geom.Pt{X: c.C.X, Y: c.C.Y - c.R - 4}, c.Note, true)
		}
	}
	for _, a := range sc.Arrows {
		setDrawColor(pdf, st.Line)
		setFillColor(pdf, st.Line)
		dash(a.Dashed)
		from := a.A
		if a.Curved {
			pdf.MoveTo(a.A.X, a.A.Y)
			pdf.CurveTo(a.Ctrl.X, a.Ctrl.Y, a.B.X, a.B.Y)
			pdf.DrawPath("D")
			from = a.Ctrl
		} else {
			pdf.Line(a.A.X, a.A.Y, a.B.X, a.B.Y)
		}
		dash(false)
		if a.Head {
			head(from, a.B)
		}
		if a.Text != "" {
			text(a.A.Add(geom.Pt{Y: -6}), a.Text, true)
		}
	}
	for _, a := range sc.Angles {
		setDrawColor(pdf, st.Accent)
		pdf.Line(a.B.X, a.B.Y, a.A.X, a.A.Y)
		pdf.Line(a.B.X, a.B.Y, a.C.X, a.C.Y)
		polyline(geom.ArcPoints(a.B, a.Arc, 24))
		text(angleLabelAt(a.B, a.Arc), fmt.Sprintf("%d°", a.Degrees), true)
	}
	for _, n := range sc.Notes {
		s := tr(n.Pill)
		pw := pdf.GetStringWidth(s) + 12
		ph := st.FontSize + 8
		setFillColor(pdf, st.PillFill)
		setDrawColor(pdf, st.Line)
		pdf.SetLineWidth(1)
		pdf.Rect(n.At.X-pw/2, n.At.Y-ph/2, pw, ph, "FD")
		pdf.SetLineWidth(st.LineWidth)
		pdf.Text(n.At.X-pdf.GetStringWidth(s)/2, n.At.Y+st.FontSize/3, s)
	}
	for _, l := range sc.Landmarks {
		text(l.At, landmarkText(l), true)
	}
	for _, p := range sc.Points {
		setFillColor(pdf, st.Line)
		pdf.Circle(p.At.X, p.At.Y, 3, "F")
		text(p.At.Add(geom.Pt{X: 6, Y: -6}), pointText(p), false)
	}

	if err := pdf.Output(out); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func setDrawColor(pdf *gofpdf.Fpdf, c color.RGBA) {
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
}

func setFillColor(pdf *gofpdf.Fpdf, c color.RGBA) {
	pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}

func setTextColor(pdf *gofpdf.Fpdf, c color.RGBA) {
	pdf.SetTextColor(int(c.R), int(c.G), int(c.B))
}
