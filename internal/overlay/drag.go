/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package overlay

import (
	"log/slog"
	"math"

	"tailormark/internal/domain"
)

// TargetKind says what a pointer target refers to.
type TargetKind int

const (
	TargetNone       TargetKind = iota
	TargetAnnotation            // Kind + ID + Handle
	TargetPoint                 // custom labeled point, ID
	TargetLandmark              // fixed landmark label, ID holds the key
)

// Target identifies something a drag can engage.
type Target struct {
	Type   TargetKind
	Kind   domain.Kind   // annotations only
	ID     string        // annotation id, point id or landmark key
	Handle domain.Handle // annotations only
}

// AnnotationTarget is shorthand for an annotation handle target.
func AnnotationTarget(k domain.Kind, id string, h domain.Handle) Target {
	return Target{Type: TargetAnnotation, Kind: k, ID: id, Handle: h}
}

// drag is the current drag descriptor. It lives outside the sheet so pointer
// moves never re-enter the store just to read it.
type drag struct {
	active bool
	target Target
	// move drags translate the shape as it was at drag start
	start   domain.Shape
	startAt domain.Pos
	moved   bool
}

// Dragging returns the active target, if any.
func (o *Overlay) Dragging() (Target, bool) { return o.drag.target, o.drag.active }

// PointerDown starts a drag on target at container coordinates. It reports
// whether a drag began.
func (o *Overlay) PointerDown(t Target, x, y float64) bool {
	if o.props.Minimal || o.box.Empty() {
		return false
	}
	at, ok := o.pointerPct(x, y)
	if !ok {
		return false
	}
	d := drag{active: true, target: t, startAt: at}
	sheet := o.store.Get()
	switch t.Type {
	case TargetAnnotation:
		if !o.layers.Visible(LayerOf(t.Kind)) {
			return false
		}
		s, found := sheet.Annotations.Find(t.Kind, t.ID)
		if !found {
			return false
		}
		if t.Handle != domain.HandleMove {
			if _, ok := s.HandlePos(t.Handle); !ok {
				return false
			}
		}
		d.start = s
	case TargetPoint:
		if !o.layers.Visible(LayerPoints) || sheet.PointIndex(t.ID) < 0 {
			return false
		}
	case TargetLandmark:
		if !o.props.MoveFixed || !o.layers.Visible(LayerLabels) || !hasLandmark(sheet, t.ID) {
			return false
		}
	default:
		return false
	}
	o.drag = d
	o.store.BeginGesture()
	o.log.Debug("drag start", slog.Int("type", int(t.Type)), slog.String("id", t.ID), slog.String("handle", string(t.Handle)))
	return true
}

// BeginFixedDrag starts dragging a landmark label by key.
func (o *Overlay) BeginFixedDrag(key string, x, y float64) bool {
	return o.PointerDown(Target{Type: TargetLandmark, ID: key}, x, y)
}

// PointerMove updates the engaged target. It is a no-op without a drag.
func (o *Overlay) PointerMove(x, y float64) bool {
	if !o.drag.active {
		return false
	}
	at, ok := o.pointerPct(x, y)
	if !ok {
		return false
	}
	var changed bool
	switch o.drag.target.Type {
	case TargetAnnotation:
		changed = o.dragAnnotation(at)
	case TargetPoint:
		changed = o.dragPoint(at)
	case TargetLandmark:
		changed = o.dragLandmark(at)
	}
	if changed {
		o.drag.moved = true
	}
	return changed
}

// PointerUp ends any drag. Releasing anywhere clears the target.
func (o *Overlay) PointerUp() bool {
	if !o.drag.active {
		return false
	}
	moved := o.drag.moved
	o.log.Debug("drag end", slog.String("id", o.drag.target.ID), slog.Bool("moved", moved))
	o.drag = drag{}
	o.store.EndGesture()
	return moved
}

func (o *Overlay) pointerPct(x, y float64) (domain.Pos, bool) {
	xp, yp, ok := o.box.ToPercentClamped(x, y)
	return domain.P(xp, yp), ok
}

func (o *Overlay) dragAnnotation(at domain.Pos) bool {
	t := o.drag.target
	var fresh domain.Shape
	next, changed := o.store.Update(func(s domain.Sheet) (domain.Sheet, bool) {
		cur, ok := s.Annotations.Find(t.Kind, t.ID)
		if !ok {
			return s, false
		}
		if t.Handle == domain.HandleMove {
			pts := o.drag.start.Points()
			dx, dy := domain.ClampDelta(pts, at.XPct-o.drag.startAt.XPct, at.YPct-o.drag.startAt.YPct)
			fresh = o.drag.start.Translate(dx, dy)
		} else {
			fresh = cur.WithHandle(t.Handle, at, o.aspect())
			if c, isCircle := fresh.(domain.Circle); isCircle && t.Handle == domain.HandleR {
				c.RPct = math.Max(c.RPct, o.props.MinCircleR)
				fresh = c
			}
		}
		if samePoints(cur, fresh) {
			return s, false
		}
		s.Annotations = s.Annotations.Replace(fresh)
		return s, true
	})
	if !changed {
		// the shape may have been deleted mid-drag
		if _, ok := next.Annotations.Find(t.Kind, t.ID); !ok {
			o.drag = drag{}
			o.store.EndGesture()
		}
		return false
	}
	o.emitAnnotations(next)
	return true
}

func samePoints(a, b domain.Shape) bool {
	if c1, ok := a.(domain.Circle); ok {
		c2 := b.(domain.Circle)
		return c1.C == c2.C && c1.RPct == c2.RPct
	}
	pa, pb := a.Points(), b.Points()
	for i := range pa {
		if pa[i] != pb[i] {
			return false
		}
	}
	return true
}

func (o *Overlay) dragPoint(at domain.Pos) bool {
	id := o.drag.target.ID
	var moved domain.LabeledPoint
	_, changed := o.store.Update(func(s domain.Sheet) (domain.Sheet, bool) {
		i := s.PointIndex(id)
		if i < 0 || (s.Points[i].XPct == at.XPct && s.Points[i].YPct == at.YPct) {
			return s, false
		}
		s.Points[i].XPct, s.Points[i].YPct = at.XPct, at.YPct
		moved = s.Points[i]
		return s, true
	})
	if changed && o.props.OnUpdatePoint != nil {
		o.props.OnUpdatePoint(moved)
	}
	return changed
}

// dragLandmark sets the landmark position directly to the pointer.
func (o *Overlay) dragLandmark(at domain.Pos) bool {
	key := o.drag.target.ID
	pos := domain.FixedPos{X: at.XPct, Y: at.YPct}
	_, changed := o.store.Update(func(s domain.Sheet) (domain.Sheet, bool) {
		if cur, ok := s.Fixed[key]; ok && cur == pos {
			return s, false
		}
		if s.Fixed == nil {
			s.Fixed = map[string]domain.FixedPos{}
		}
		s.Fixed[key] = pos
		return s, true
	})
	if changed && o.props.OnFixedUpdate != nil {
		o.props.OnFixedUpdate(key, pos)
	}
	return changed
}

func hasLandmark(s domain.Sheet, key string) bool {
	for _, l := range s.Landmarks() {
		if l.Key == key {
			return true
		}
	}
	return false
}
