/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import "math"

// Kind names an annotation category.
type Kind string

const (
	KindDim    Kind = "dim"
	KindCircle Kind = "circle"
	KindArrow  Kind = "arrow"
	KindAngle  Kind = "angle"
	KindNote   Kind = "note"
)

// Kinds lists all annotation kinds in deletion priority order.
var Kinds = []Kind{KindDim, KindCircle, KindArrow, KindAngle, KindNote}

func (k Kind) Valid() bool {
	switch k {
	case KindDim, KindCircle, KindArrow, KindAngle, KindNote:
		return true
	}
	return false
}

// Handle names a draggable part of an annotation.
type Handle string

const (
	HandleA    Handle = "a"
	HandleB    Handle = "b"
	HandleC    Handle = "c"
	HandleCtrl Handle = "ctrl"
	HandleR    Handle = "r" // circle radius grip
	HandleMove Handle = "move"
)

// Shape is the kind-independent view of an annotation used for dragging,
// selection and hit testing. Implementations are values; every mutator
// returns a new Shape.
type Shape interface {
	ShapeID() string
	ShapeKind() Kind
	// Handles lists the point handles in drawing order (move is implicit).
	Handles() []Handle
	// HandlePos returns where a handle sits in percent space.
	HandlePos(h Handle) (Pos, bool)
	// WithHandle moves one handle to p. aspect is box height / width and is
	// only used where x and y percentages must be compared (circle radius).
	WithHandle(h Handle, p Pos, aspect float64) Shape
	// Points returns the positions translated by a move drag.
	Points() []Pos
	Translate(dx, dy float64) Shape
	// Anchor is where the selection control square is drawn, unless a
	// handle sits there too.
	Anchor() Pos
}

// --- Dimension

func (d Dimension) ShapeID() string   { return d.ID }
func (d Dimension) ShapeKind() Kind   { return KindDim }
func (d Dimension) Handles() []Handle { return []Handle{HandleA, HandleB} }
func (d Dimension) Points() []Pos     { return []Pos{d.A, d.B} }
func (d Dimension) Anchor() Pos       { return mid(d.A, d.B) }

func (d Dimension) HandlePos(h Handle) (Pos, bool) {
	switch h {
	case HandleA:
		return d.A, true
	case HandleB:
		return d.B, true
	}
	return Pos{}, false
}

func (d Dimension) WithHandle(h Handle, p Pos, _ float64) Shape {
	switch h {
	case HandleA:
		d.A = p
	case HandleB:
		d.B = p
	}
	return d
}

func (d Dimension) Translate(dx, dy float64) Shape {
	d.A, d.B = d.A.Add(dx, dy), d.B.Add(dx, dy)
	return d
}

// --- Circle

func (c Circle) ShapeID() string   { return c.ID }
func (c Circle) ShapeKind() Kind   { return KindCircle }
func (c Circle) Handles() []Handle { return []Handle{HandleC, HandleR} }
func (c Circle) Points() []Pos     { return []Pos{c.C} }
func (c Circle) Anchor() Pos       { return c.C }

func (c Circle) HandlePos(h Handle) (Pos, bool) {
	switch h {
	case HandleC:
		return c.C, true
	case HandleR:
		return c.C.Add(c.RPct, 0), true
	}
	return Pos{}, false
}

func (c Circle) WithHandle(h Handle, p Pos, aspect float64) Shape {
	switch h {
	case HandleC:
		c.C = p
	case HandleR:
		if aspect <= 0 {
			aspect = 1
		}
		c.RPct = math.Hypot(p.XPct-c.C.XPct, (p.YPct-c.C.YPct)*aspect)
	}
	return c
}

func (c Circle) Translate(dx, dy float64) Shape {
	c.C = c.C.Add(dx, dy)
	return c
}

// --- Arrow

func (a Arrow) ShapeID() string { return a.ID }
func (a Arrow) ShapeKind() Kind { return KindArrow }
func (a Arrow) Points() []Pos   { return []Pos{a.A, a.B, a.Ctrl} }
func (a Arrow) Handles() []Handle {
	if a.Curved {
		return []Handle{HandleA, HandleB, HandleCtrl}
	}
	return []Handle{HandleA, HandleB}
}

// Anchor sits on the drawn path: the line midpoint, or the curve at t=0.5.
func (a Arrow) Anchor() Pos {
	if !a.Curved {
		return mid(a.A, a.B)
	}
	return Pos{
		XPct: 0.25*a.A.XPct + 0.5*a.Ctrl.XPct + 0.25*a.B.XPct,
		YPct: 0.25*a.A.YPct + 0.5*a.Ctrl.YPct + 0.25*a.B.YPct,
	}
}

func (a Arrow) HandlePos(h Handle) (Pos, bool) {
	switch h {
	case HandleA:
		return a.A, true
	case HandleB:
		return a.B, true
	case HandleCtrl:
		return a.Ctrl, true
	}
	return Pos{}, false
}

func (a Arrow) WithHandle(h Handle, p Pos, _ float64) Shape {
	switch h {
	case HandleA:
		a.A = p
	case HandleB:
		a.B = p
	case HandleCtrl:
		a.Ctrl = p
	}
	return a
}

func (a Arrow) Translate(dx, dy float64) Shape {
	a.A, a.B, a.Ctrl = a.A.Add(dx, dy), a.B.Add(dx, dy), a.Ctrl.Add(dx, dy)
	return a
}

// --- AngleMarker

func (m AngleMarker) ShapeID() string   { return m.ID }
func (m AngleMarker) ShapeKind() Kind   { return KindAngle }
func (m AngleMarker) Handles() []Handle { return []Handle{HandleA, HandleB, HandleC} }
func (m AngleMarker) Points() []Pos     { return []Pos{m.A, m.B, m.C} }
func (m AngleMarker) Anchor() Pos       { return m.B }

func (m AngleMarker) HandlePos(h Handle) (Pos, bool) {
	switch h {
	case HandleA:
		return m.A, true
	case HandleB:
		return m.B, true
	case HandleC:
		return m.C, true
	}
	return Pos{}, false
}

func (m AngleMarker) WithHandle(h Handle, p Pos, _ float64) Shape {
	switch h {
	case HandleA:
		m.A = p
	case HandleB:
		m.B = p
	case HandleC:
		m.C = p
	}
	return m
}

func (m AngleMarker) Translate(dx, dy float64) Shape {
	m.A, m.B, m.C = m.A.Add(dx, dy), m.B.Add(dx, dy), m.C.Add(dx, dy)
	return m
}

// --- Note

func (n Note) ShapeID() string   { return n.ID }
func (n Note) ShapeKind() Kind   { return KindNote }
func (n Note) Handles() []Handle { return nil }
func (n Note) Points() []Pos     { return []Pos{n.P} }
func (n Note) Anchor() Pos       { return n.P }

func (n Note) HandlePos(Handle) (Pos, bool)          { return Pos{}, false }
func (n Note) WithHandle(Handle, Pos, float64) Shape { return n }

func (n Note) Translate(dx, dy float64) Shape {
	n.P = n.P.Add(dx, dy)
	return n
}

func mid(a, b Pos) Pos { return Pos{XPct: (a.XPct + b.XPct) / 2, YPct: (a.YPct + b.YPct) / 2} }

// ClampDelta shrinks a move delta so every point stays inside [0,100],
// which keeps the translated shape undistorted at the image edge.
func ClampDelta(pts []Pos, dx, dy float64) (float64, float64) {
	if len(pts) == 0 {
		return dx, dy
	}
	minX, maxX := pts[0].XPct, pts[0].XPct
	minY, maxY := pts[0].YPct, pts[0].YPct
	for _, p := range pts[1:] {
		minX, maxX = math.Min(minX, p.XPct), math.Max(maxX, p.XPct)
		minY, maxY = math.Min(minY, p.YPct), math.Max(maxY, p.YPct)
	}
	return clampRange(dx, -minX, 100-maxX), clampRange(dy, -minY, 100-maxY)
}

// clampRange tolerates shapes already partly outside the range (lo > hi).
func clampRange(v, lo, hi float64) float64 {
	if lo > 0 {
		lo = 0
	}
	if hi < 0 {
		hi = 0
	}
	return math.Max(lo, math.Min(hi, v))
}
