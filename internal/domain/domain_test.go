/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func TestSheetJSONFieldNames(t *testing.T) {
	s := Sheet{
		ID:   "s1",
		Unit: "cm",
		Points: []LabeledPoint{
			{ID: "p1", Label: "Hem", XPct: 10, YPct: 90, Value: "12.", Unit: "cm"},
		},
		Fixed: map[string]FixedPos{"neck": {X: 51, Y: 9}},
		Annotations: Bundle{
			Dims:    []Dimension{{ID: "d1", A: P(1, 2), B: P(3, 4), Style: DimStyle{Arrowheads: true}}},
			Circles: []Circle{{ID: "c1", C: P(5, 5), RPct: 6}},
			Meta:    Meta{ScalePxPerUnit: 4.5},
		},
	}
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	js := string(b)
	for _, want := range []string{`"xPct":10`, `"fixedPositions":{"neck":{"x":51,"y":9}}`, `"dims":[`, `"rPct":6`, `"scalePxPerUnit":4.5`, `"arrowheads":true`} {
		if !strings.Contains(js, want) {
			t.Fatalf("json %s missing %s", js, want)
		}
	}
	var got Sheet
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Points[0].Value != "12." || got.Annotations.Dims[0].B != P(3, 4) {
		t.Fatalf("unexpected round trip: %+v", got)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	b := Bundle{Dims: []Dimension{{ID: "a"}, {ID: "b"}}}
	once := b.Remove(KindDim, "a")
	if once.Len(KindDim) != 1 || once.Dims[0].ID != "b" {
		t.Fatalf("first remove: %+v", once.Dims)
	}
	twice := once.Remove(KindDim, "a")
	if twice.Len(KindDim) != 1 || twice.Dims[0].ID != "b" {
		t.Fatalf("second remove changed list: %+v", twice.Dims)
	}
	none := Bundle{}.Remove(KindNote, "zzz")
	if none.Total() != 0 {
		t.Fatalf("remove on empty bundle: %+v", none)
	}
	if b.Len(KindDim) != 2 {
		t.Fatalf("original bundle modified")
	}
}

func TestAppendReplaceDoNotAlias(t *testing.T) {
	base := Bundle{Arrows: make([]Arrow, 1, 4)}
	base.Arrows[0] = Arrow{ID: "x"}
	a := base.Append(Arrow{ID: "y"})
	b := base.Append(Arrow{ID: "z"})
	if a.Arrows[1].ID != "y" || b.Arrows[1].ID != "z" {
		t.Fatalf("appends alias a shared backing array: %v %v", a.Arrows, b.Arrows)
	}
	r := a.Replace(Arrow{ID: "x", Curved: true})
	if a.Arrows[0].Curved || !r.Arrows[0].Curved {
		t.Fatalf("replace must copy the list")
	}
	if got := a.Replace(Arrow{ID: "missing"}); len(got.Arrows) != 2 {
		t.Fatalf("replace of unknown id changed list")
	}
}

func TestFindAcrossKinds(t *testing.T) {
	b := Bundle{}.
		Append(Dimension{ID: "d"}).
		Append(Circle{ID: "c"}).
		Append(AngleMarker{ID: "g"}).
		Append(Note{ID: "n", Text: "hi"})
	for _, c := range []struct {
		k  Kind
		id string
	}{{KindDim, "d"}, {KindCircle, "c"}, {KindAngle, "g"}, {KindNote, "n"}} {
		s, ok := b.Find(c.k, c.id)
		if !ok || s.ShapeKind() != c.k || s.ShapeID() != c.id {
			t.Fatalf("Find(%s,%s) = %v, %v", c.k, c.id, s, ok)
		}
	}
	if _, ok := b.Find(KindArrow, "d"); ok {
		t.Fatalf("ids are scoped by kind")
	}
	if b.Total() != 4 {
		t.Fatalf("Total = %d", b.Total())
	}
}

func TestTranslatePreservesGeometry(t *testing.T) {
	shapes := []Shape{
		Dimension{ID: "d", A: P(10, 10), B: P(30, 20)},
		Arrow{ID: "a", A: P(10, 10), B: P(30, 20), Ctrl: P(20, 5), Curved: true},
		AngleMarker{ID: "g", A: P(40, 40), B: P(30, 40), C: P(30, 25)},
		Circle{ID: "c", C: P(50, 50), RPct: 7},
		Note{ID: "n", P: P(1, 1)},
	}
	for _, s := range shapes {
		moved := s.Translate(3.5, -2)
		before, after := s.Points(), moved.Points()
		for i := range before {
			if math.Abs(after[i].XPct-before[i].XPct-3.5) > 1e-12 || math.Abs(after[i].YPct-before[i].YPct+2) > 1e-12 {
				t.Fatalf("%s point %d moved by (%v,%v)", s.ShapeKind(), i, after[i].XPct-before[i].XPct, after[i].YPct-before[i].YPct)
			}
		}
		if c, ok := moved.(Circle); ok && c.RPct != 7 {
			t.Fatalf("translate changed radius")
		}
	}
}

func TestWithHandleAndRadius(t *testing.T) {
	d := Dimension{A: P(0, 0), B: P(1, 1)}.WithHandle(HandleB, P(9, 9), 1).(Dimension)
	if d.B != P(9, 9) || d.A != P(0, 0) {
		t.Fatalf("dimension handle: %+v", d)
	}
	c := Circle{C: P(50, 50), RPct: 2}.WithHandle(HandleR, P(50, 55), 2).(Circle)
	// 5% of height with h/w = 2 is 10% of width
	if math.Abs(c.RPct-10) > 1e-9 {
		t.Fatalf("radius = %v", c.RPct)
	}
	if p, _ := c.HandlePos(HandleR); p != P(60, 50) {
		t.Fatalf("radius grip at %+v", p)
	}
	n := Note{ID: "n", P: P(3, 3)}
	if got := n.WithHandle(HandleA, P(9, 9), 1); got != Shape(n) {
		t.Fatalf("note has no point handles")
	}
	if hs := (Arrow{}).Handles(); len(hs) != 2 {
		t.Fatalf("straight arrow handles = %v", hs)
	}
}

func TestClampDeltaKeepsShapeInside(t *testing.T) {
	pts := []Pos{P(90, 10), P(95, 20)}
	dx, dy := ClampDelta(pts, 10, -15)
	if dx != 5 || dy != -10 {
		t.Fatalf("ClampDelta = %v,%v", dx, dy)
	}
	// already outside: never pushes further out, may still move back in
	dx, _ = ClampDelta([]Pos{P(-5, 0), P(10, 0)}, -3, 0)
	if dx != 0 {
		t.Fatalf("outward delta on out-of-range shape = %v", dx)
	}
	dx, _ = ClampDelta([]Pos{P(-5, 0), P(10, 0)}, 4, 0)
	if dx != 4 {
		t.Fatalf("inward delta = %v", dx)
	}
}

func TestNewShapeDefaults(t *testing.T) {
	pl := DefaultPlacement()
	s, ok := NewShape(KindDim, "d1", P(40, 50), pl)
	if !ok {
		t.Fatal("dim not created")
	}
	d := s.(Dimension)
	if d.A != P(40, 50) || d.B != P(48, 50) || d.Style.Dashed || !d.Style.Arrowheads {
		t.Fatalf("default dimension %+v", d)
	}
	s, _ = NewShape(KindAngle, "g", P(50, 50), pl)
	g := s.(AngleMarker)
	if g.B != P(50, 50) || g.A != P(56, 50) || g.C != P(50, 44) {
		t.Fatalf("default angle %+v", g)
	}
	s, _ = NewShape(KindArrow, "a", P(95, 2), pl)
	a := s.(Arrow)
	if a.B.XPct != 100 || a.Ctrl.YPct != 0 || !a.Style.Arrowhead || a.Curved {
		t.Fatalf("arrow near edge not clamped: %+v", a)
	}
	s, _ = NewShape(KindCircle, "c", P(5, 5), pl)
	if s.(Circle).RPct != 6 {
		t.Fatalf("circle radius %v", s.(Circle).RPct)
	}
	if _, ok := NewShape(Kind("hexagon"), "x", P(0, 0), pl); ok {
		t.Fatalf("unknown kind created")
	}
}

func TestNotePill(t *testing.T) {
	cases := map[string]string{
		"":                         "",
		"Hem":                      "Hem",
		"take in waist":            "take in wa…",
		"one two three four":       "one two th…",
		"a b c d":                  "a b c…",
		"  short  ":                "short",
		"Überlänge":                "Überlänge",
		"abcdefghijklmnopqrstuvwx": "abcdefghij…",
	}
	for in, want := range cases {
		if got := NotePill(in); got != want {
			t.Fatalf("NotePill(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTrimDimText(t *testing.T) {
	if got := TrimDimText(" 12.5cm "); got != "12.5" {
		t.Fatalf("TrimDimText = %q", got)
	}
}

func TestResolveLandmarks(t *testing.T) {
	all := ResolveLandmarks(nil, nil)
	if len(all) != len(builtinLandmarks) {
		t.Fatalf("nil allowed should show all: %d", len(all))
	}
	if none := ResolveLandmarks([]string{}, nil); len(none) != 0 {
		t.Fatalf("empty allowed should show none: %v", none)
	}
	got := ResolveLandmarks([]string{"waist", "neck"}, []Landmark{
		{Key: "crotch", Label: "Crotch", Default: FixedPos{X: 50, Y: 32}},
		{Key: "neck", Label: "Collar", Default: FixedPos{X: 50, Y: 5}},
	})
	if len(got) != 3 || got[0].Key != "neck" || got[0].Label != "Collar" || got[1].Key != "waist" || got[2].Key != "crotch" {
		t.Fatalf("ResolveLandmarks = %+v", got)
	}
	fixed := map[string]FixedPos{"waist": {X: 1, Y: 2}}
	if p := PositionOf(got[1], fixed); p != (FixedPos{X: 1, Y: 2}) {
		t.Fatalf("override not applied: %+v", p)
	}
	if p := PositionOf(got[2], fixed); p != (FixedPos{X: 50, Y: 32}) {
		t.Fatalf("default not used: %+v", p)
	}
}

func TestSheetCloneIsDeep(t *testing.T) {
	s := Sheet{
		Values: map[string]string{"chest": "100"},
		Fixed:  map[string]FixedPos{"neck": {X: 1}},
		Points: []LabeledPoint{{ID: "p"}},
		Annotations: Bundle{
			Notes: []Note{{ID: "n", Text: "a"}},
		},
	}
	c := s.Clone()
	c.Values["chest"] = "1"
	c.Fixed["neck"] = FixedPos{X: 9}
	c.Points[0].Label = "changed"
	c.Annotations.Notes[0].Text = "b"
	if s.Values["chest"] != "100" || s.Fixed["neck"].X != 1 || s.Points[0].Label != "" || s.Annotations.Notes[0].Text != "a" {
		t.Fatalf("clone shares state with original")
	}
	if c.AllowedFixedKeys != nil {
		t.Fatalf("nil allowed keys must stay nil")
	}
	s.AllowedFixedKeys = []string{}
	if s.Clone().AllowedFixedKeys == nil {
		t.Fatalf("empty allowed keys must stay non-nil")
	}
}
