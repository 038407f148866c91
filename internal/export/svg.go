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
	"encoding/base64"
	"fmt"
	"image/color"
	"image/png"
	"io"
	"strings"
	"unicode/utf8"

	"tailormark/internal/geom"
	"tailormark/internal/overlay"
)

func writeSVG(out io.Writer, sc overlay.Scene, title string, opt Options, st Style) error {
	var buf bytes.Buffer
	var werr error
	wf := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(&buf, format, args...)
	}

	w, h := sc.Container.X, sc.Container.Y
	wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	wf("<svg xmlns=\"http://www.w3.org/2000/svg\" xmlns:xlink=\"http://www.w3.org/1999/xlink\" version=\"1.1\" width=\"%gpx\" height=\"%gpx\" viewBox=\"0 0 %g %g\">\n", w, h, w, h)
	if title != "" {
		wf("  <title>%s</title>\n", escText(title))
	}
	wf("  <rect x=\"0\" y=\"0\" width=\"%g\" height=\"%g\" fill=\"#ffffff\"/>\n", w, h)

	switch {
	case opt.BackgroundHref != "":
		wf("  <image x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" preserveAspectRatio=\"none\" xlink:href=\"%s\"/>\n",
			sc.Box.Left, sc.Box.Top, sc.Box.W, sc.Box.H, escAttr(opt.BackgroundHref))
	case opt.Background != nil:
		var img bytes.Buffer
		if err := png.Encode(&img, opt.Background); err != nil {
			return fmt.Errorf("encode background: %w", err)
		}
		wf("  <image x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" preserveAspectRatio=\"none\" xlink:href=\"data:image/png;base64,%s\"/>\n",
			sc.Box.Left, sc.Box.Top, sc.Box.W, sc.Box.H, base64.StdEncoding.EncodeToString(img.Bytes()))
	}

	lc, ac, tc := svgColor(st.Line), svgColor(st.Accent), svgColor(st.Text)
	lw := st.LineWidth
	text := func(p geom.Pt, anchor, fill, s string) {
		wf("  <text x=\"%g\" y=\"%g\" text-anchor=\"%s\" font-family=\"Helvetica, Arial, sans-serif\" font-size=\"%g\" fill=\"%s\">%s</text>\n",
			p.X, p.Y, anchor, st.FontSize, fill, escText(s))
	}
	line := func(a, b geom.Pt, stroke string, dashed bool) {
		wf("  <line x1=\"%g\" y1=\"%g\" x2=\"%g\" y2=\"%g\" stroke=\"%s\" stroke-width=\"%g\"%s/>\n",
			a.X, a.Y, b.X, b.Y, stroke, lw, dashAttr(dashed, lw))
	}
	head := func(from, tip geom.Pt, fill string) {
		l, r := geom.ArrowHead(from, tip, st.HeadLen)
		wf("  <polygon points=\"%g,%g %g,%g %g,%g\" fill=\"%s\"/>\n", tip.X, tip.Y, l.X, l.Y, r.X, r.Y, fill)
	}

	if len(sc.Dims) > 0 {
		wf("  <g id=\"dims\">\n")
		for _, d := range sc.Dims {
			line(d.A, d.B, lc, d.Dashed)
			if d.Heads {
				head(d.B, d.A, lc)
				head(d.A, d.B, lc)
			} else {
				for _, p := range []geom.Pt{d.A, d.B} {
					t1, t2 := geom.Tick(d.A, d.B, p, st.HeadLen/2)
					line(t1, t2, lc, false)
				}
			}
			text(dimLabelAt(d.A, d.B), "middle", tc, d.Label)
		}
		wf("  </g>\n")
	}
	if len(sc.Circles) > 0 {
		wf("  <g id=\"circles\">\n")
		for _, c := range sc.Circles {
			wf("  <circle cx=\"%g\" cy=\"%g\" r=\"%g\" fill=\"none\" stroke=\"%s\" stroke-width=\"%g\"/>\n", c.C.X, c.C.Y, c.R, ac, lw)
			if c.Note != "" {
				text(geom.Pt{X: c.C.X, Y: c.C.Y - c.R - 4}, "middle", tc, c.Note)
			}
		}
		wf("  </g>\n")
	}
	if len(sc.Arrows) > 0 {
		wf("  <g id=\"arrows\">\n")
		for _, a := range sc.Arrows {
			from := a.A
			if a.Curved {
				wf("  <path d=\"M %g %g Q %g %g %g %g\" fill=\"none\" stroke=\"%s\" stroke-width=\"%g\"%s/>\n",
					a.A.X, a.A.Y, a.Ctrl.X, a.Ctrl.Y, a.B.X, a.B.Y, lc, lw, dashAttr(a.Dashed, lw))
				from = a.Ctrl
			} else {
				line(a.A, a.B, lc, a.Dashed)
			}
			if a.Head {
				head(from, a.B, lc)
			}
			if a.Text != "" {
				text(a.A.Add(geom.Pt{Y: -6}), "middle", tc, a.Text)
			}
		}
		wf("  </g>\n")
	}
	if len(sc.Angles) > 0 {
		wf("  <g id=\"angles\">\n")
		for _, a := range sc.Angles {
			line(a.B, a.A, ac, false)
			line(a.B, a.C, ac, false)
			sweep := 0
			if a.Arc.Sweep {
				sweep = 1
			}
			wf("  <path d=\"M %g %g A %g %g 0 0 %d %g %g\" fill=\"none\" stroke=\"%s\" stroke-width=\"%g\"/>\n",
				a.Arc.Start.X, a.Arc.Start.Y, a.Arc.Radius, a.Arc.Radius, sweep, a.Arc.End.X, a.Arc.End.Y, ac, lw)
			text(angleLabelAt(a.B, a.Arc), "middle", tc, fmt.Sprintf("%d°", a.Degrees))
		}
		wf("  </g>\n")
	}
	if len(sc.Notes) > 0 {
		wf("  <g id=\"notes\">\n")
		for _, n := range sc.Notes {
			pw := svgTextWidth(n.Pill, st.FontSize) + 12
			ph := st.FontSize + 8
			wf("  <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" rx=\"%g\" ry=\"%g\" fill=\"%s\" stroke=\"%s\" stroke-width=\"1\"/>\n",
				n.At.X-pw/2, n.At.Y-ph/2, pw, ph, ph/2, ph/2, svgColor(st.PillFill), lc)
			text(geom.Pt{X: n.At.X, Y: n.At.Y + st.FontSize/3}, "middle", tc, n.Pill)
		}
		wf("  </g>\n")
	}
	if len(sc.Landmarks) > 0 {
		wf("  <g id=\"labels\">\n")
		for _, l := range sc.Landmarks {
			text(l.At, "middle", tc, landmarkText(l))
		}
		wf("  </g>\n")
	}
	if len(sc.Points) > 0 {
		wf("  <g id=\"points\">\n")
		for _, p := range sc.Points {
			wf("  <circle cx=\"%g\" cy=\"%g\" r=\"3\" fill=\"%s\"/>\n", p.At.X, p.At.Y, lc)
			text(p.At.Add(geom.Pt{X: 6, Y: -6}), "start", tc, pointText(p))
		}
		wf("  </g>\n")
	}

	wf("</svg>\n")
	if werr != nil {
		return fmt.Errorf("build svg: %w", werr)
	}
	if _, err := out.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

func dashAttr(dashed bool, width float64) string {
	if !dashed {
		return ""
	}
	return fmt.Sprintf(" stroke-dasharray=\"%g %g\"", width*3, width*2)
}

// svgTextWidth estimates the advance of s for a sans-serif face.
func svgTextWidth(s string, size float64) float64 {
	return float64(utf8.RuneCountInString(s)) * size * 0.6
}

func svgColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

var (
	attrEscaper = strings.NewReplacer("&", "&amp;", "\"", "&quot;", "<", "&lt;", "\n", " ", "\r", "")
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
)

func escAttr(s string) string { return attrEscaper.Replace(s) }

func escText(s string) string { return textEscaper.Replace(s) }
