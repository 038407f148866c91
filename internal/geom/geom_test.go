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
	"math/rand"
	"testing"
)

func almostEq(a, b, eps float64) bool { return math.Abs(a-b) <= eps }

func TestResolveBoxLetterbox(t *testing.T) {
	// wide container, tall image: pillarbox
	b, ok := ResolveBox(800, 400, 300, 400)
	if !ok {
		t.Fatalf("expected ok")
	}
	if !almostEq(b.W, 300, 1e-9) || !almostEq(b.H, 400, 1e-9) || !almostEq(b.Left, 250, 1e-9) || b.Top != 0 {
		t.Fatalf("unexpected box %+v", b)
	}
	// scaled down
	b, _ = ResolveBox(300, 300, 600, 1200)
	if !almostEq(b.W, 150, 1e-9) || !almostEq(b.H, 300, 1e-9) || !almostEq(b.Left, 75, 1e-9) {
		t.Fatalf("unexpected scaled box %+v", b)
	}
}

func TestResolveBoxZeroNaturalSize(t *testing.T) {
	for _, c := range [][4]float64{{300, 400, 0, 400}, {300, 400, 300, 0}, {0, 0, 10, 10}} {
		b, ok := ResolveBox(c[0], c[1], c[2], c[3])
		if ok || b != (Box{}) {
			t.Fatalf("ResolveBox(%v) = %+v, %v; want zero box", c, b, ok)
		}
	}
}

func TestContainFitInvariant(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		cw, ch := 1+r.Float64()*2000, 1+r.Float64()*2000
		nw, nh := 1+r.Float64()*4000, 1+r.Float64()*4000
		b, ok := ResolveBox(cw, ch, nw, nh)
		if !ok {
			t.Fatalf("unexpected !ok")
		}
		const eps = 1e-9
		if b.W > cw+eps || b.H > ch+eps {
			t.Fatalf("box %+v exceeds container %vx%v", b, cw, ch)
		}
		if !almostEq(b.W, cw, 1e-6) && !almostEq(b.H, ch, 1e-6) {
			t.Fatalf("box %+v touches neither axis of %vx%v", b, cw, ch)
		}
		if !almostEq(b.W/b.H, nw/nh, 1e-6*nw/nh) {
			t.Fatalf("aspect changed: %v vs %v", b.W/b.H, nw/nh)
		}
	}
}

func TestMappingRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	for i := 0; i < 500; i++ {
		b, _ := ResolveBox(1+r.Float64()*1500, 1+r.Float64()*1500, 1+r.Float64()*3000, 1+r.Float64()*3000)
		x, y := r.Float64()*100, r.Float64()*100
		p := b.ToScreen(x, y)
		gx, gy, ok := b.ToPercent(p.X, p.Y)
		if !ok {
			// float noise on the far edge may land a hair outside; clamp path must agree
			gx, gy, ok = b.ToPercentClamped(p.X, p.Y)
		}
		if !ok || !almostEq(gx, x, 1e-6) || !almostEq(gy, y, 1e-6) {
			t.Fatalf("round trip (%v,%v) -> %v -> (%v,%v,%v)", x, y, p, gx, gy, ok)
		}
	}
}

func TestToPercentRejectsPadding(t *testing.T) {
	b, _ := ResolveBox(800, 400, 300, 400) // left=250, w=300
	if _, _, ok := b.ToPercent(100, 200); ok {
		t.Fatalf("click in left padding should be rejected")
	}
	if _, _, ok := b.ToPercent(551, 200); ok {
		t.Fatalf("click in right padding should be rejected")
	}
	if x, y, ok := b.ToPercent(250, 0); !ok || x != 0 || y != 0 {
		t.Fatalf("edge click = %v,%v,%v", x, y, ok)
	}
	if _, _, ok := (Box{}).ToPercent(0, 0); ok {
		t.Fatalf("empty box must reject")
	}
	if x, y, ok := b.ToPercentClamped(900, -50); !ok || x != 100 || y != 0 {
		t.Fatalf("clamped = %v,%v,%v", x, y, ok)
	}
}

func TestLengthUsesPixelSpace(t *testing.T) {
	b := Box{W: 200, H: 100}
	// 10% horizontally is 20px, 10% vertically is 10px
	if got := b.Length(0, 0, 10, 0); !almostEq(got, 20, 1e-9) {
		t.Fatalf("horizontal length = %v", got)
	}
	if got := b.Length(0, 0, 0, 10); !almostEq(got, 10, 1e-9) {
		t.Fatalf("vertical length = %v", got)
	}
}

func TestFormatLengthDeterministic(t *testing.T) {
	cases := []struct {
		px, scale float64
		unit      string
		want      string
	}{
		{px: 117, scale: 5, unit: "cm", want: "23.4cm"},
		{px: 117.4, scale: 0, unit: "cm", want: "117"},
		{px: 0, scale: 0, unit: "", want: "0"},
		{px: 24.0, scale: -3, unit: "in", want: "24"},
		{px: 10, scale: 4, unit: "in", want: "2.5in"},
	}
	for _, c := range cases {
		for i := 0; i < 3; i++ {
			if got := FormatLength(c.px, c.scale, c.unit); got != c.want {
				t.Fatalf("FormatLength(%v,%v,%q) = %q, want %q", c.px, c.scale, c.unit, got, c.want)
			}
		}
	}
}

func TestAngleDeg(t *testing.T) {
	v := Pt{50, 50}
	if got := AngleDeg(Pt{100, 50}, v, Pt{50, 0}); got != 90 {
		t.Fatalf("right angle = %d", got)
	}
	if got := AngleDeg(Pt{100, 50}, v, Pt{0, 50}); got != 180 {
		t.Fatalf("straight angle = %d", got)
	}
	if got := AngleDeg(Pt{100, 50}, v, Pt{100, 0}); got != 45 {
		t.Fatalf("45 = %d", got)
	}
}

func TestAngleNeverNaN(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	pts := []Pt{{0, 0}, {1, 1}, {0, 0}}
	for i := 0; i < 1000; i++ {
		a := Pt{float64(r.Intn(5)), float64(r.Intn(5))}
		v := Pt{float64(r.Intn(5)), float64(r.Intn(5))}
		c := Pt{float64(r.Intn(5)), float64(r.Intn(5))}
		pts = append(pts, a, v, c)
	}
	for i := 0; i+2 < len(pts); i += 3 {
		got := AngleDeg(pts[i], pts[i+1], pts[i+2])
		if got < 0 || got > 180 {
			t.Fatalf("AngleDeg(%v,%v,%v) = %d out of range", pts[i], pts[i+1], pts[i+2], got)
		}
	}
}

func TestArcSweepFollowsDirection(t *testing.T) {
	v := Pt{0, 0}
	// screen y grows downward: from +x to +y is clockwise on screen
	arc := ArcFor(Pt{10, 0}, v, Pt{0, 10}, ArcRadius)
	if !arc.Sweep {
		t.Fatalf("expected positive sweep")
	}
	if !almostEq(arc.Start.X, ArcRadius, 1e-9) || !almostEq(arc.End.Y, ArcRadius, 1e-9) {
		t.Fatalf("arc endpoints %+v", arc)
	}
	arc = ArcFor(Pt{0, 10}, v, Pt{10, 0}, ArcRadius)
	if arc.Sweep {
		t.Fatalf("expected negative sweep")
	}
	// across the +-pi seam
	arc = ArcFor(Pt{-10, 1}, v, Pt{-10, -1}, ArcRadius)
	if !arc.Sweep {
		t.Fatalf("seam crossing should pick the short way round")
	}
	deg := ArcFor(v, v, v, ArcRadius)
	if math.IsNaN(deg.Start.X) || math.IsNaN(deg.End.Y) {
		t.Fatalf("degenerate arc produced NaN")
	}
}

func TestClampAndRound(t *testing.T) {
	if ClampPct(-3) != 0 || ClampPct(140) != 100 || ClampPct(math.NaN()) != 0 || ClampPct(42) != 42 {
		t.Fatalf("ClampPct misbehaves")
	}
	if FloatRound(3.14159, 2) != 3.14 || FloatRound(2.005, 0) != 2 {
		t.Fatalf("FloatRound misbehaves")
	}
}

func TestArrowHeadAndTick(t *testing.T) {
	l, r := ArrowHead(Pt{0, 0}, Pt{10, 0}, 4)
	if !almostEq(l.X, 6, 1e-9) || !almostEq(r.X, 6, 1e-9) || !almostEq(math.Abs(l.Y-r.Y), 4, 1e-9) {
		t.Fatalf("arrowhead corners %+v %+v", l, r)
	}
	// zero-length shaft still yields a head
	l, r = ArrowHead(Pt{5, 5}, Pt{5, 5}, 4)
	if l == r {
		t.Fatalf("degenerate arrowhead collapsed")
	}
	t1, t2 := Tick(Pt{0, 0}, Pt{10, 0}, Pt{10, 0}, 3)
	if !almostEq(t1.X, 10, 1e-9) || !almostEq(t2.X, 10, 1e-9) || !almostEq(t1.Dist(t2), 6, 1e-9) {
		t.Fatalf("tick %+v %+v", t1, t2)
	}
}

func TestQuadAndArcPoints(t *testing.T) {
	pts := QuadPoints(Pt{0, 0}, Pt{5, 10}, Pt{10, 0}, 4)
	if len(pts) != 5 || pts[0] != (Pt{0, 0}) || pts[4] != (Pt{10, 0}) {
		t.Fatalf("quad endpoints %v", pts)
	}
	if !almostEq(pts[2].X, 5, 1e-9) || !almostEq(pts[2].Y, 5, 1e-9) {
		t.Fatalf("quad midpoint %+v", pts[2])
	}
	v := Pt{0, 0}
	arc := ArcFor(Pt{10, 0}, v, Pt{0, 10}, 10)
	ap := ArcPoints(v, arc, 8)
	if len(ap) != 9 {
		t.Fatalf("arc samples = %d", len(ap))
	}
	for _, p := range ap {
		if !almostEq(p.Dist(v), 10, 1e-9) || p.X < -1e-9 || p.Y < -1e-9 {
			t.Fatalf("arc sample off the short quarter: %+v", p)
		}
	}
}
