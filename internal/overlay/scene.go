/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package overlay

import (
	"math"

	"tailormark/internal/domain"
	"tailormark/internal/geom"
)

// Sizes of on-screen affordances, in container pixels.
const (
	ControlHalf = 6.0  // half side of the selection control square
	HandleHit   = 8.0  // pointer radius that grabs a handle
	ToolbarGap  = 14.0 // distance of the quick-action toolbar above its anchor
	// ControlOffset moves a control square off a handle that shares its anchor.
	ControlOffset = 20.0
)

// Scene is a renderer-neutral description of everything the overlay draws,
// already projected into container pixels. Hidden layers are left out.
type Scene struct {
	Container   geom.Pt // width, height
	Box         geom.Box
	Image       ImageState
	Tool        Tool
	ShowToolbar bool
	Layers      map[Layer]bool

	Landmarks []LandmarkView
	Points    []PointView
	Dims      []DimView
	Circles   []CircleView
	Arrows    []ArrowView
	Angles    []AngleView
	Notes     []NoteView
	Handles   []HandleView
	Toolbars  []ToolbarView
	Pending   *PendingView
}

type LandmarkView struct {
	Key, Label, Value string
	At                geom.Pt
	Draggable         bool
}

type PointView struct {
	ID, Label, Value, Unit string
	At                     geom.Pt
}

type DimView struct {
	ID       string
	A, B     geom.Pt
	Label    string // manual text or formatted length
	Dashed   bool
	Heads    bool
	Selected bool
	Control  geom.Rect
}

type CircleView struct {
	ID       string
	C        geom.Pt
	R        float64 // pixels
	Note     string
	Selected bool
	Control  geom.Rect
}

type ArrowView struct {
	ID         string
	A, B, Ctrl geom.Pt
	Curved     bool
	Dashed     bool
	Head       bool
	Text       string
	Selected   bool
	Control    geom.Rect
}

type AngleView struct {
	ID       string
	A, B, C  geom.Pt // B is the vertex
	Degrees  int
	Arc      geom.Arc
	Selected bool
	Control  geom.Rect
}

type NoteView struct {
	ID       string
	At       geom.Pt
	Text     string
	Pill     string
	Selected bool
	Control  geom.Rect
}

// HandleView is a draggable grip.
type HandleView struct {
	Target Target
	At     geom.Pt
}

// ToolbarView anchors the quick actions of one selected annotation.
type ToolbarView struct {
	Kind    domain.Kind
	ID      string
	At      geom.Pt
	Actions []string
}

type PendingView struct {
	At   geom.Pt
	Text string
}

// Quick action names offered per kind.
var quickActions = map[domain.Kind][]string{
	domain.KindDim:    {"dashed", "arrowheads", "text", "delete", "close"},
	domain.KindCircle: {"radius", "text", "delete", "close"},
	domain.KindArrow:  {"dashed", "arrowhead", "curved", "text", "delete", "close"},
	domain.KindAngle:  {"delete", "close"},
	domain.KindNote:   {"text", "delete", "close"},
}

// Scene derives the current view. Lengths and angles are recomputed from the
// stored points on every call.
func (o *Overlay) Scene() Scene {
	s := o.store.Get()
	sc := Scene{
		Container:   geom.Pt{X: o.containerW, Y: o.containerH},
		Box:         o.box,
		Image:       o.image,
		Tool:        o.tool,
		ShowToolbar: !o.props.Minimal,
		Layers:      o.layers.Snapshot(),
	}
	if o.box.Empty() {
		return sc
	}
	b := o.box
	at := func(p domain.Pos) geom.Pt { return b.ToScreen(p.XPct, p.YPct) }
	interactive := !o.props.Minimal

	if o.layers.Visible(LayerLabels) {
		for _, l := range s.Landmarks() {
			fp := domain.PositionOf(l, s.Fixed)
			sc.Landmarks = append(sc.Landmarks, LandmarkView{
				Key: l.Key, Label: l.Label, Value: s.Values[l.Key],
				At:        b.ToScreen(fp.X, fp.Y),
				Draggable: interactive && o.props.MoveFixed,
			})
		}
	}
	if o.layers.Visible(LayerPoints) {
		for _, p := range s.Points {
			pt := at(p.Pos())
			sc.Points = append(sc.Points, PointView{ID: p.ID, Label: p.Label, Value: p.Value, Unit: p.Unit, At: pt})
			if interactive {
				sc.Handles = append(sc.Handles, HandleView{Target: Target{Type: TargetPoint, ID: p.ID}, At: pt})
			}
		}
	}

	scale := s.Annotations.Meta.ScalePxPerUnit
	unit := s.Unit
	for _, k := range domain.Kinds {
		if !o.layers.Visible(LayerOf(k)) {
			continue
		}
		for _, shape := range s.Annotations.Shapes(k) {
			id := shape.ShapeID()
			selected := o.selected[k] == id
			ctrl := geom.Around(controlCenter(shape, at), ControlHalf)
			switch v := shape.(type) {
			case domain.Dimension:
				label := v.Text
				if label == "" {
					label = geom.FormatLength(b.Length(v.A.XPct, v.A.YPct, v.B.XPct, v.B.YPct), scale, unit)
				}
				sc.Dims = append(sc.Dims, DimView{ID: id, A: at(v.A), B: at(v.B), Label: label,
					Dashed: v.Style.Dashed, Heads: v.Style.Arrowheads, Selected: selected, Control: ctrl})
			case domain.Circle:
				if v.RPct <= 0 {
					continue
				}
				sc.Circles = append(sc.Circles, CircleView{ID: id, C: at(v.C), R: v.RPct / 100 * b.W,
					Note: v.Note, Selected: selected, Control: ctrl})
			case domain.Arrow:
				sc.Arrows = append(sc.Arrows, ArrowView{ID: id, A: at(v.A), B: at(v.B), Ctrl: at(v.Ctrl),
					Curved: v.Curved, Dashed: v.Style.Dashed, Head: v.Style.Arrowhead, Text: v.Text,
					Selected: selected, Control: ctrl})
			case domain.AngleMarker:
				pa, pb, pc := at(v.A), at(v.B), at(v.C)
				sc.Angles = append(sc.Angles, AngleView{ID: id, A: pa, B: pb, C: pc,
					Degrees: geom.AngleDeg(pa, pb, pc), Arc: geom.ArcFor(pa, pb, pc, geom.ArcRadius),
					Selected: selected, Control: ctrl})
			case domain.Note:
				sc.Notes = append(sc.Notes, NoteView{ID: id, At: at(v.P), Text: v.Text,
					Pill: domain.NotePill(v.Text), Selected: selected, Control: ctrl})
			}
			if !interactive {
				continue
			}
			for _, h := range shape.Handles() {
				hp, _ := shape.HandlePos(h)
				sc.Handles = append(sc.Handles, HandleView{Target: AnnotationTarget(k, id, h), At: at(hp)})
			}
			if selected {
				anchor := ctrl
				sc.Toolbars = append(sc.Toolbars, ToolbarView{Kind: k, ID: id,
					At:      geom.Pt{X: anchor.X + anchor.W/2, Y: anchor.Y - ToolbarGap},
					Actions: quickActions[k]})
			}
		}
	}
	if o.pending != nil {
		sc.Pending = &PendingView{At: at(o.pending.At), Text: o.pending.Text}
	}
	return sc
}

// controlOffsets are tried in order until the square clears every handle.
var controlOffsets = []geom.Pt{
	{}, {Y: -ControlOffset}, {X: ControlOffset}, {Y: ControlOffset}, {X: -ControlOffset},
	{X: ControlOffset, Y: -ControlOffset}, {X: -ControlOffset, Y: ControlOffset},
}

// controlCenter places the control square on the shape's anchor, shifted
// so no pixel of it falls inside the grab radius of one of its handles.
func controlCenter(shape domain.Shape, at func(domain.Pos) geom.Pt) geom.Pt {
	anchor := at(shape.Anchor())
	var handles []geom.Pt
	for _, h := range shape.Handles() {
		if hp, ok := shape.HandlePos(h); ok {
			handles = append(handles, at(hp))
		}
	}
	minGap := HandleHit + ControlHalf*math.Sqrt2
	for _, off := range controlOffsets {
		c := anchor.Add(off)
		free := true
		for _, hp := range handles {
			if hp.Dist(c) <= minGap {
				free = false
				break
			}
		}
		if free {
			return c
		}
	}
	return anchor.Add(controlOffsets[1])
}

// Hit is the result of a pointer hit test.
type Hit struct {
	Target Target
	// Control is true for an annotation's control square: a tap toggles
	// selection and a drag moves the whole shape.
	Control bool
}

type control struct {
	k  domain.Kind
	id string
	r  geom.Rect
}

// HitTest finds the top-most interactive element under a container point.
// Handles win over control squares, later annotations over earlier ones.
func (o *Overlay) HitTest(x, y float64) (Hit, bool) {
	if o.props.Minimal || o.box.Empty() {
		return Hit{}, false
	}
	sc := o.Scene()
	p := geom.Pt{X: x, Y: y}
	for i := len(sc.Handles) - 1; i >= 0; i-- {
		if sc.Handles[i].At.Dist(p) <= HandleHit {
			return Hit{Target: sc.Handles[i].Target}, true
		}
	}
	var controls []control
	for _, v := range sc.Dims {
		controls = append(controls, control{domain.KindDim, v.ID, v.Control})
	}
	for _, v := range sc.Circles {
		controls = append(controls, control{domain.KindCircle, v.ID, v.Control})
	}
	for _, v := range sc.Arrows {
		controls = append(controls, control{domain.KindArrow, v.ID, v.Control})
	}
	for _, v := range sc.Angles {
		controls = append(controls, control{domain.KindAngle, v.ID, v.Control})
	}
	for _, v := range sc.Notes {
		controls = append(controls, control{domain.KindNote, v.ID, v.Control})
	}
	for i := len(controls) - 1; i >= 0; i-- {
		if controls[i].r.Contains(p) {
			c := controls[i]
			return Hit{Target: AnnotationTarget(c.k, c.id, domain.HandleMove), Control: true}, true
		}
	}
	for i := len(sc.Landmarks) - 1; i >= 0; i-- {
		l := sc.Landmarks[i]
		if l.Draggable && l.At.Dist(p) <= HandleHit*2 {
			return Hit{Target: Target{Type: TargetLandmark, ID: l.Key}}, true
		}
	}
	return Hit{}, false
}

// Tap routes a primary tap through hit testing: control squares toggle
// selection, anything else falls through to Click.
func (o *Overlay) Tap(x, y float64) bool {
	if h, ok := o.HitTest(x, y); ok {
		if h.Control {
			return o.ToggleSelect(h.Target.Kind, h.Target.ID)
		}
		return false
	}
	return o.Click(x, y, false)
}
