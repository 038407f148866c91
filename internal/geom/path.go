/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

import "math"

// Path helpers shared by the renderers. All work in screen pixels.

// ArrowHead returns the two back corners of an arrowhead pointing at tip
// from the direction of from. A zero-length shaft points along +x.
func ArrowHead(from, tip Pt, length float64) (Pt, Pt) {
	d := tip.Sub(from)
	n := math.Hypot(d.X, d.Y)
	if n == 0 {
		d, n = Pt{X: 1}, 1
	}
	u := d.Scale(1 / n)
	back := tip.Sub(u.Scale(length))
	perp := Pt{X: -u.Y, Y: u.X}.Scale(length / 2)
	return back.Add(perp), back.Sub(perp)
}

// Tick returns a short segment through p perpendicular to a-b.
func Tick(a, b, p Pt, half float64) (Pt, Pt) {
	d := b.Sub(a)
	n := math.Hypot(d.X, d.Y)
	if n == 0 {
		return p.Add(Pt{Y: -half}), p.Add(Pt{Y: half})
	}
	perp := Pt{X: -d.Y / n, Y: d.X / n}.Scale(half)
	return p.Add(perp), p.Sub(perp)
}

// QuadPoints flattens the quadratic curve a-c-b into n segments.
func QuadPoints(a, c, b Pt, n int) []Pt {
	out := make([]Pt, 0, n+1)
	for i := 0; i <= n; i++ {
		t := float64(i) / float64(n)
		mt := 1 - t
		out = append(out, Pt{
			X: mt*mt*a.X + 2*mt*t*c.X + t*t*b.X,
			Y: mt*mt*a.Y + 2*mt*t*c.Y + t*t*b.Y,
		})
	}
	return out
}

// ArcPoints flattens an angle marker arc around vertex v along the short
// way from Start to End.
func ArcPoints(v Pt, arc Arc, n int) []Pt {
	a1 := direction(arc.Start, v)
	d := sweepBetween(a1, direction(arc.End, v))
	out := make([]Pt, 0, n+1)
	for i := 0; i <= n; i++ {
		t := a1 + d*float64(i)/float64(n)
		out = append(out, Pt{X: v.X + arc.Radius*math.Cos(t), Y: v.Y + arc.Radius*math.Sin(t)})
	}
	return out
}

// sweepBetween normalizes a2-a1 into (-pi, pi].
func sweepBetween(a1, a2 float64) float64 {
	d := a2 - a1
	for d > math.Pi {
		d -= 2 * math.Pi
	}
	for d <= -math.Pi {
		d += 2 * math.Pi
	}
	return d
}
