/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package geom holds the 2D math behind the measurement overlay: fitting an
// image into its container, mapping between percentage-of-image and screen
// coordinates, and deriving lengths and angles from stored points.
//
// Screen values are float64 pixels relative to the container's top-left corner.
package geom

import "math"

// Pt is a 2D point in container pixels.
type Pt struct{ X, Y float64 }

func (p Pt) Add(q Pt) Pt        { return Pt{p.X + q.X, p.Y + q.Y} }
func (p Pt) Sub(q Pt) Pt        { return Pt{p.X - q.X, p.Y - q.Y} }
func (p Pt) Scale(s float64) Pt { return Pt{p.X * s, p.Y * s} }
func (p Pt) Dist(q Pt) float64  { return math.Hypot(q.X-p.X, q.Y-p.Y) }
func Mid(a, b Pt) Pt            { return Pt{(a.X + b.X) / 2, (a.Y + b.Y) / 2} }

// Rect is an axis-aligned rectangle defined by min corner and size.
type Rect struct {
	X, Y float64
	W, H float64
}

func (r Rect) Contains(p Pt) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X <= r.X+r.W && p.Y <= r.Y+r.H
}

// Around returns a square of side 2*half centered on p.
func Around(p Pt, half float64) Rect {
	return Rect{X: p.X - half, Y: p.Y - half, W: 2 * half, H: 2 * half}
}

// Clamp limits v to [lo, hi]. NaN maps to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampPct limits a percentage coordinate to [0, 100].
func ClampPct(v float64) float64 { return Clamp(v, 0, 100) }

// FloatRound rounds to the given number of decimal places.
func FloatRound(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
