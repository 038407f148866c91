/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

// Box is where a contain-fitted image renders inside its container.
// The zero Box means "not laid out yet".
type Box struct {
	Left, Top float64
	W, H      float64
}

// ResolveBox fits an image of natural size nw x nh into a cw x ch container,
// preserving aspect ratio and centering it. ok is false (and the box zero)
// while any dimension is unknown or non-positive.
func ResolveBox(cw, ch, nw, nh float64) (b Box, ok bool) {
	if nw <= 0 || nh <= 0 || cw <= 0 || ch <= 0 {
		return Box{}, false
	}
	scale := min(cw/nw, ch/nh)
	iw, ih := nw*scale, nh*scale
	return Box{Left: (cw - iw) / 2, Top: (ch - ih) / 2, W: iw, H: ih}, true
}

// Empty reports whether the box has no area.
func (b Box) Empty() bool { return b.W <= 0 || b.H <= 0 }

// Rect returns the box as a rectangle.
func (b Box) Rect() Rect { return Rect{X: b.Left, Y: b.Top, W: b.W, H: b.H} }

// Contains reports whether a container point lies inside the box, edges included.
func (b Box) Contains(x, y float64) bool {
	return !b.Empty() && b.Rect().Contains(Pt{x, y})
}

// ToScreen maps a percentage-of-image position to container pixels.
func (b Box) ToScreen(xPct, yPct float64) Pt {
	return Pt{X: b.Left + xPct/100*b.W, Y: b.Top + yPct/100*b.H}
}

// ToPercent maps container pixels back into percentage space. Points on the
// letterbox padding, or any point while the box is empty, are rejected.
func (b Box) ToPercent(x, y float64) (xPct, yPct float64, ok bool) {
	if !b.Contains(x, y) {
		return 0, 0, false
	}
	xPct, yPct = b.toPercent(x, y)
	return xPct, yPct, true
}

// ToPercentClamped maps container pixels into percentage space and clamps the
// result to [0,100]. Drags use it so a handle sticks to the image edge when
// the pointer leaves the box.
func (b Box) ToPercentClamped(x, y float64) (xPct, yPct float64, ok bool) {
	if b.Empty() {
		return 0, 0, false
	}
	xPct, yPct = b.toPercent(x, y)
	return ClampPct(xPct), ClampPct(yPct), true
}

func (b Box) toPercent(x, y float64) (float64, float64) {
	return (x - b.Left) / b.W * 100, (y - b.Top) / b.H * 100
}
