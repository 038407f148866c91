/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package overlay is the interaction core of the measurement diagram: tool
// modes, placement, dragging, selection, keyboard shortcuts and layer
// visibility on top of a sheet held in a Store. It is toolkit independent;
// a UI feeds it container-relative pointer coordinates and key names and
// renders the Scene it returns.
//
// Overlay itself is not safe for concurrent use; drive it from the UI
// goroutine. Persisted state lives in the Store, which is.
package overlay

import (
	"log/slog"
	"strings"

	"tailormark/internal/domain"
	"tailormark/internal/geom"
	applog "tailormark/internal/log"
	"tailormark/internal/units"
)

// Tool is the active annotation-creation tool.
type Tool string

const (
	ToolNone   Tool = "none"
	ToolDim    Tool = "dim"
	ToolCircle Tool = "circle"
	ToolArrow  Tool = "arrow"
	ToolAngle  Tool = "angle"
	ToolNote   Tool = "note"
)

// Kind returns the annotation kind a placement tool creates.
func (t Tool) Kind() (domain.Kind, bool) {
	switch t {
	case ToolDim, ToolCircle, ToolArrow, ToolAngle, ToolNote:
		return domain.Kind(t), true
	}
	return "", false
}

// ImageState tracks the diagram image lifecycle.
type ImageState int

const (
	ImageLoading ImageState = iota
	ImageReady
	ImageFailed
)

func (s ImageState) String() string {
	switch s {
	case ImageReady:
		return "ready"
	case ImageFailed:
		return "failed"
	}
	return "loading"
}

// Props are the caller-controlled inputs and change callbacks. Callbacks
// fire after the Store committed the change; nil callbacks are skipped.
type Props struct {
	AddMode   bool // plain clicks start a new labeled point
	MoveFixed bool // landmark labels can be dragged
	Minimal   bool // read-only embed without toolbar
	Unit      string
	Placement domain.Placement
	// MinCircleR is the smallest radius the controls allow (percent of width).
	MinCircleR  float64
	LayerPreset Preset

	OnChange            func(key, value string)
	OnAddPoint          func(p domain.LabeledPoint)
	OnUpdatePoint       func(p domain.LabeledPoint)
	OnRemovePoint       func(id string)
	OnFixedUpdate       func(key string, pos domain.FixedPos)
	OnAnnotationsChange func(next domain.Bundle)
	// OnSheetRestored fires after undo or redo replaced the whole sheet.
	OnSheetRestored func(s domain.Sheet)
}

// PendingLabel is the inline label input shown after an add-mode click.
type PendingLabel struct {
	At   domain.Pos
	Text string
}

// Overlay owns the transient interaction state for one sheet.
type Overlay struct {
	props Props
	store *Store
	log   *slog.Logger

	containerW, containerH float64
	naturalW, naturalH     float64
	box                    geom.Box
	image                  ImageState

	tool     Tool
	selected map[domain.Kind]string
	layers   Layers
	pending  *PendingLabel
	drag     drag
}

// New creates an overlay over store.
func New(store *Store, props Props) *Overlay {
	if props.Placement == (domain.Placement{}) {
		props.Placement = domain.DefaultPlacement()
	}
	if props.MinCircleR <= 0 {
		props.MinCircleR = 2
	}
	if props.Unit == "" {
		props.Unit = units.CM
	}
	return &Overlay{
		props:    props,
		store:    store,
		log:      applog.WithComponent("overlay"),
		tool:     ToolNone,
		selected: map[domain.Kind]string{},
		layers:   NewLayers(props.LayerPreset),
	}
}

// Store returns the backing store.
func (o *Overlay) Store() *Store { return o.store }

// Sheet returns the current committed sheet.
func (o *Overlay) Sheet() domain.Sheet { return o.store.Get() }

// SetSheet re-renders with externally persisted data and drops selections
// that no longer exist.
func (o *Overlay) SetSheet(s domain.Sheet) {
	o.store.Replace(s)
	o.pruneSelection(s.Annotations)
}

// SetAddMode and SetMoveFixed mirror the externally controlled toggles.
func (o *Overlay) SetAddMode(on bool) {
	o.props.AddMode = on
	if !on {
		o.pending = nil
	}
}

func (o *Overlay) SetMoveFixed(on bool) { o.props.MoveFixed = on }

// SetUnit changes the unit stamped on new points.
func (o *Overlay) SetUnit(u string) {
	if n := units.Normalize(u); n != "" {
		o.props.Unit = n
	}
}

func (o *Overlay) Props() Props { return o.props }

// --- sizing and image state

// SetContainerSize records the container client size and refits the box.
func (o *Overlay) SetContainerSize(w, h float64) {
	o.containerW, o.containerH = w, h
	o.refit()
}

// SetNaturalSize records the loaded image size and marks the image ready.
func (o *Overlay) SetNaturalSize(w, h float64) {
	o.naturalW, o.naturalH = w, h
	if w > 0 && h > 0 {
		o.image = ImageReady
	}
	o.refit()
}

// ImageFailed marks every image candidate as failed. The box stays empty so
// no interaction can place anything.
func (o *Overlay) ImageFailed() {
	o.image = ImageFailed
	o.naturalW, o.naturalH = 0, 0
	o.box = geom.Box{}
	o.drag = drag{}
}

func (o *Overlay) refit() {
	if o.image == ImageFailed {
		return
	}
	if b, ok := geom.ResolveBox(o.containerW, o.containerH, o.naturalW, o.naturalH); ok {
		o.box = b
	}
}

// Box returns the fitted image box; zero until both sizes are known.
func (o *Overlay) Box() geom.Box { return o.box }

func (o *Overlay) Image() ImageState { return o.image }

func (o *Overlay) aspect() float64 {
	if o.box.W <= 0 {
		return 1
	}
	return o.box.H / o.box.W
}

// --- tools and clicks

// SetTool switches the placement tool. Selecting the active tool again
// returns to ToolNone.
func (o *Overlay) SetTool(t Tool) {
	if o.props.Minimal {
		return
	}
	if _, ok := t.Kind(); !ok || t == o.tool {
		t = ToolNone
	}
	o.tool = t
	o.pending = nil
}

func (o *Overlay) Tool() Tool { return o.tool }

// Click handles a primary click at container coordinates. onControl is true
// when the click landed on an interactive control (input, button) and must
// not place anything. It reports whether the click did something.
func (o *Overlay) Click(x, y float64, onControl bool) bool {
	if o.props.Minimal || onControl {
		return false
	}
	xp, yp, ok := o.box.ToPercent(x, y)
	if !ok {
		return false
	}
	at := domain.P(xp, yp)
	if kind, placing := o.tool.Kind(); placing {
		return o.place(kind, at)
	}
	if o.props.AddMode {
		o.pending = &PendingLabel{At: at}
		return true
	}
	return false
}

func (o *Overlay) place(kind domain.Kind, at domain.Pos) bool {
	shape, ok := domain.NewShape(kind, domain.NewID(), at, o.props.Placement)
	if !ok {
		return false
	}
	next, _ := o.store.Update(func(s domain.Sheet) (domain.Sheet, bool) {
		s.Annotations = s.Annotations.Append(shape)
		return s, true
	})
	o.tool = ToolNone
	o.selected[kind] = shape.ShapeID()
	o.layers.Set(LayerOf(kind), true)
	o.log.Debug("placed annotation", slog.String("kind", string(kind)), slog.String("id", shape.ShapeID()),
		slog.Float64("x", at.XPct), slog.Float64("y", at.YPct))
	o.emitAnnotations(next)
	return true
}

// PendingLabel returns the open inline label input, if any.
func (o *Overlay) PendingLabel() (PendingLabel, bool) {
	if o.pending == nil {
		return PendingLabel{}, false
	}
	return *o.pending, true
}

// EditLabel updates the draft text of the pending label.
func (o *Overlay) EditLabel(text string) {
	if o.pending != nil {
		o.pending.Text = text
	}
}

// CommitLabel closes the inline input. A non-empty label adds a new point
// at the clicked position; an empty one is skipped.
func (o *Overlay) CommitLabel(text string) (domain.LabeledPoint, bool) {
	p := o.pending
	o.pending = nil
	label := strings.TrimSpace(text)
	if p == nil || label == "" {
		return domain.LabeledPoint{}, false
	}
	lp := domain.LabeledPoint{
		ID:    domain.NewID(),
		Label: label,
		XPct:  p.At.XPct,
		YPct:  p.At.YPct,
		Unit:  o.props.Unit,
	}
	o.store.Update(func(s domain.Sheet) (domain.Sheet, bool) {
		s.Points = append(s.Points, lp)
		return s, true
	})
	o.layers.Set(LayerPoints, true)
	if o.props.OnAddPoint != nil {
		o.props.OnAddPoint(lp)
	}
	return lp, true
}

// CancelLabel discards the pending label input.
func (o *Overlay) CancelLabel() { o.pending = nil }

// --- field values and points

// SetValue stores a named measurement field.
func (o *Overlay) SetValue(key, value string) {
	_, changed := o.store.Update(func(s domain.Sheet) (domain.Sheet, bool) {
		if cur, ok := s.Values[key]; ok && cur == value {
			return s, false
		}
		if s.Values == nil {
			s.Values = map[string]string{}
		}
		s.Values[key] = value
		return s, true
	})
	if changed && o.props.OnChange != nil {
		o.props.OnChange(key, value)
	}
}

// UpdatePoint edits the label, value or unit of an existing point. Position
// changes go through dragging.
func (o *Overlay) UpdatePoint(p domain.LabeledPoint) bool {
	var out domain.LabeledPoint
	_, changed := o.store.Update(func(s domain.Sheet) (domain.Sheet, bool) {
		i := s.PointIndex(p.ID)
		if i < 0 {
			return s, false
		}
		cur := s.Points[i]
		cur.Label, cur.Value, cur.Unit = p.Label, p.Value, p.Unit
		if cur == s.Points[i] {
			return s, false
		}
		s.Points[i] = cur
		out = cur
		return s, true
	})
	if changed && o.props.OnUpdatePoint != nil {
		o.props.OnUpdatePoint(out)
	}
	return changed
}

// RemovePoint deletes a labeled point; unknown ids are ignored.
func (o *Overlay) RemovePoint(id string) bool {
	_, changed := o.store.Update(func(s domain.Sheet) (domain.Sheet, bool) {
		i := s.PointIndex(id)
		if i < 0 {
			return s, false
		}
		s.Points = append(s.Points[:i:i], s.Points[i+1:]...)
		return s, true
	})
	if changed && o.props.OnRemovePoint != nil {
		o.props.OnRemovePoint(id)
	}
	return changed
}

// ConvertUnit rewrites every field value and point value from the sheet's
// unit to u and makes u the unit for new points.
func (o *Overlay) ConvertUnit(u string) bool {
	to := units.Normalize(u)
	if to == "" {
		return false
	}
	var changedKeys []string
	converted := map[string]bool{}
	next, changed := o.store.Update(func(s domain.Sheet) (domain.Sheet, bool) {
		from := units.Normalize(s.Unit)
		if from == "" || from == to {
			if s.Unit == to {
				return s, false
			}
			s.Unit = to
			return s, true
		}
		conv := units.ConvertValues(s.Values, from, to)
		for k, v := range conv {
			if s.Values[k] != v {
				changedKeys = append(changedKeys, k)
			}
		}
		s.Values = conv
		for i := range s.Points {
			if units.Normalize(s.Points[i].Unit) == from {
				s.Points[i].Value = units.Convert(s.Points[i].Value, from, to)
				s.Points[i].Unit = to
				converted[s.Points[i].ID] = true
			}
		}
		s.Unit = to
		return s, true
	})
	if !changed {
		return false
	}
	o.props.Unit = to
	if o.props.OnChange != nil {
		for _, k := range changedKeys {
			o.props.OnChange(k, next.Values[k])
		}
	}
	if o.props.OnUpdatePoint != nil {
		for _, p := range next.Points {
			if converted[p.ID] {
				o.props.OnUpdatePoint(p)
			}
		}
	}
	return true
}

// --- undo

// Undo reverts the last committed change to the sheet.
func (o *Overlay) Undo() bool { return o.restore(o.store.Undo()) }

// Redo re-applies the last undone change.
func (o *Overlay) Redo() bool { return o.restore(o.store.Redo()) }

func (o *Overlay) restore(s domain.Sheet, ok bool) bool {
	if !ok {
		return false
	}
	o.drag = drag{}
	o.pruneSelection(s.Annotations)
	if o.props.OnSheetRestored != nil {
		o.props.OnSheetRestored(s)
	}
	o.emitAnnotations(s)
	return true
}

func (o *Overlay) emitAnnotations(s domain.Sheet) {
	if o.props.OnAnnotationsChange != nil {
		o.props.OnAnnotationsChange(s.Annotations)
	}
}
