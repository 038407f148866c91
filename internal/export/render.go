/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders a sheet with its annotations to SVG, PNG or PDF.
// All three renderers draw the same overlay.Scene, so labels, lengths and
// angles match what the interactive view shows.
package export

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"tailormark/internal/domain"
	"tailormark/internal/geom"
	"tailormark/internal/overlay"
)

// Format is an output format.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
	FormatPDF Format = "pdf"
)

// ParseFormat accepts a format name or a file name with extension.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimPrefix(filepath.Ext("."+s), "."))
	switch Format(s) {
	case FormatSVG, FormatPNG, FormatPDF:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// Style holds colors and stroke widths. Zero fields take defaults.
type Style struct {
	Line      color.RGBA
	Accent    color.RGBA // angle arcs and circles
	Text      color.RGBA
	PillFill  color.RGBA
	LineWidth float64
	FontSize  float64
	HeadLen   float64
}

// DefaultStyle is used for zero Style fields.
func DefaultStyle() Style {
	return Style{
		Line:      color.RGBA{R: 0x1f, G: 0x4e, B: 0xd8, A: 255},
		Accent:    color.RGBA{R: 0xd9, G: 0x2d, B: 0x20, A: 255},
		Text:      color.RGBA{R: 0x11, G: 0x18, B: 0x27, A: 255},
		PillFill:  color.RGBA{R: 0xff, G: 0xf7, B: 0xd6, A: 255},
		LineWidth: 2,
		FontSize:  12,
		HeadLen:   8,
	}
}

func (s Style) withDefaults() Style {
	d := DefaultStyle()
	if s.Line == (color.RGBA{}) {
		s.Line = d.Line
	}
	if s.Accent == (color.RGBA{}) {
		s.Accent = d.Accent
	}
	if s.Text == (color.RGBA{}) {
		s.Text = d.Text
	}
	if s.PillFill == (color.RGBA{}) {
		s.PillFill = d.PillFill
	}
	if s.LineWidth <= 0 {
		s.LineWidth = d.LineWidth
	}
	if s.FontSize <= 0 {
		s.FontSize = d.FontSize
	}
	if s.HeadLen <= 0 {
		s.HeadLen = d.HeadLen
	}
	return s
}

// Options controls an export.
type Options struct {
	Format Format
	// Width and Height of the canvas in pixels. Zero takes the background
	// size, then the sheet aspect ratio at DefaultWidth.
	Width, Height int
	// Background is the diagram image drawn under the annotations.
	Background image.Image
	// BackgroundHref links the image from SVG output instead of embedding it.
	BackgroundHref string
	Preset         overlay.Preset
	// Layers, when set, overrides Preset per layer.
	Layers map[overlay.Layer]bool
	Style  Style
}

// DefaultWidth is the canvas width used without a background image.
const DefaultWidth = 800

// CanvasSize picks the output size: explicit values win, a background
// fills in the missing side, then the sheet aspect at DefaultWidth.
func CanvasSize(s domain.Sheet, opt Options) (int, int) {
	w, h := opt.Width, opt.Height
	if opt.Background != nil {
		b := opt.Background.Bounds()
		switch {
		case w <= 0 && h <= 0:
			w, h = b.Dx(), b.Dy()
		case h <= 0:
			h = int(math.Round(float64(w) * float64(b.Dy()) / float64(b.Dx())))
		case w <= 0:
			w = int(math.Round(float64(h) * float64(b.Dx()) / float64(b.Dy())))
		}
	}
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = int(math.Round(float64(w) * sheetAspect(s) / 100))
	}
	return w, h
}

// sheetAspect is the diagram height in percent of its width.
func sheetAspect(s domain.Sheet) float64 {
	if s.AspectPercent > 0 {
		return s.AspectPercent
	}
	return 125
}

// SceneFor lays a sheet out on a w x h canvas with a read-only overlay. The
// diagram keeps the sheet aspect and is letterboxed inside the canvas.
func SceneFor(s domain.Sheet, w, h int, preset overlay.Preset) overlay.Scene {
	return sceneFor(s, w, h, nil, preset, nil)
}

func sceneFor(s domain.Sheet, w, h int, bg image.Image, preset overlay.Preset, layers map[overlay.Layer]bool) overlay.Scene {
	o := overlay.New(overlay.NewStore(s, nil), overlay.Props{Minimal: true, LayerPreset: preset})
	for l, v := range layers {
		o.SetLayer(l, v)
	}
	o.SetContainerSize(float64(w), float64(h))
	nw, nh := 100.0, sheetAspect(s)
	if bg != nil && !bg.Bounds().Empty() {
		nw, nh = float64(bg.Bounds().Dx()), float64(bg.Bounds().Dy())
	}
	o.SetNaturalSize(nw, nh)
	return o.Scene()
}

// Write renders s in opt.Format to out.
func Write(out io.Writer, s domain.Sheet, opt Options) error {
	w, h := CanvasSize(s, opt)
	sc := sceneFor(s, w, h, opt.Background, opt.Preset, opt.Layers)
	st := opt.Style.withDefaults()
	switch opt.Format {
	case FormatSVG:
		return writeSVG(out, sc, s.Title, opt, st)
	case FormatPNG:
		return writePNG(out, sc, opt.Background, st)
	case FormatPDF:
		return writePDF(out, sc, s.Title, opt.Background, st)
	}
	return fmt.Errorf("unknown export format %q", opt.Format)
}

// ToFile renders s into path, creating parent directories. The format
// defaults to the file extension.
func ToFile(path string, s domain.Sheet, opt Options) (err error) {
	if opt.Format == "" {
		f, ferr := ParseFormat(path)
		if ferr != nil {
			return ferr
		}
		opt.Format = f
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", opt.Format, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", opt.Format, cerr)
		}
	}()
	return Write(f, s, opt)
}

// --- shared geometry

// angleLabelAt places the degree label on the bisector outside the arc.
func angleLabelAt(v geom.Pt, arc geom.Arc) geom.Pt {
	m := geom.Mid(arc.Start, arc.End).Sub(v)
	n := math.Hypot(m.X, m.Y)
	if n == 0 {
		return v.Add(geom.Pt{X: arc.Radius + 4})
	}
	return v.Add(m.Scale((arc.Radius + 10) / n))
}

// dimLabelAt places the dimension label just above the midpoint.
func dimLabelAt(a, b geom.Pt) geom.Pt { return geom.Mid(a, b).Add(geom.Pt{Y: -6}) }

func landmarkText(l overlay.LandmarkView) string {
	if strings.TrimSpace(l.Value) == "" {
		return l.Label
	}
	return l.Label + ": " + l.Value
}

func pointText(p overlay.PointView) string {
	parts := []string{p.Label}
	if v := strings.TrimSpace(p.Value); v != "" {
		parts = append(parts, v+p.Unit)
	}
	return strings.Join(parts, " ")
}
