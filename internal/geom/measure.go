/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

import (
	"math"
	"strconv"

	"gonum.org/v1/gonum/spatial/r2"
)

// ArcRadius is the on-screen radius of the angle marker arc, in pixels.
const ArcRadius = 18.0

func vec(p Pt) r2.Vec { return r2.Vec{X: p.X, Y: p.Y} }

// Length returns the pixel distance between two percentage positions after
// projecting both through the box. Non-square boxes make this differ from the
// raw percentage distance.
func (b Box) Length(ax, ay, bx, by float64) float64 {
	return r2.Norm(r2.Sub(vec(b.ToScreen(bx, by)), vec(b.ToScreen(ax, ay))))
}

// FormatLength renders a pixel length for a dimension label. With a positive
// scale the value is converted to physical units with one decimal and the
// unit appended ("23.4cm"); otherwise it is the rounded pixel count.
func FormatLength(px, scalePxPerUnit float64, unit string) string {
	if scalePxPerUnit > 0 && !math.IsInf(scalePxPerUnit, 0) {
		return strconv.FormatFloat(px/scalePxPerUnit, 'f', 1, 64) + unit
	}
	return strconv.Itoa(int(math.Round(px)))
}

// AngleDeg returns the angle at vertex v between the arms to a and c, in whole
// degrees within [0,180]. All points are screen pixels. A zero-length arm uses
// a divisor of 1 so the result stays finite.
func AngleDeg(a, v, c Pt) int {
	u, w := r2.Sub(vec(a), vec(v)), r2.Sub(vec(c), vec(v))
	mag := r2.Norm(u) * r2.Norm(w)
	if mag == 0 {
		mag = 1
	}
	cos := Clamp(r2.Dot(u, w)/mag, -1, 1)
	return int(math.Round(math.Acos(cos) * 180 / math.Pi))
}

// Arc describes the angle marker arc between two arms at a fixed radius.
type Arc struct {
	Start, End Pt
	Radius     float64
	// Sweep is the SVG sweep-flag: true when the arc runs from the first arm
	// to the second in the positive angle direction (clockwise on screen).
	Sweep bool
}

// ArcFor computes the marker arc from arm a to arm c around vertex v.
// Degenerate arms fall back to the +x direction.
func ArcFor(a, v, c Pt, radius float64) Arc {
	a1 := direction(a, v)
	a2 := direction(c, v)
	d := sweepBetween(a1, a2)
	at := func(t float64) Pt { return Pt{v.X + radius*math.Cos(t), v.Y + radius*math.Sin(t)} }
	return Arc{Start: at(a1), End: at(a2), Radius: radius, Sweep: d > 0}
}

func direction(p, v Pt) float64 {
	if p == v {
		return 0
	}
	return math.Atan2(p.Y-v.Y, p.X-v.X)
}
