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

// Key names understood by KeyDown.
const (
	KeyEscape    = "Escape"
	KeyDelete    = "Delete"
	KeyBackspace = "Backspace"
)

// ToggleSelect flips the selection of one annotation. Each kind has its own
// slot, so selecting a circle keeps the selected dimension.
func (o *Overlay) ToggleSelect(k domain.Kind, id string) bool {
	if o.props.Minimal || !o.layers.Visible(LayerOf(k)) {
		return false
	}
	if o.selected[k] == id {
		delete(o.selected, k)
		return true
	}
	if _, ok := o.store.Get().Annotations.Find(k, id); !ok {
		return false
	}
	o.selected[k] = id
	return true
}

// Selected returns the selected id for kind k.
func (o *Overlay) Selected(k domain.Kind) (string, bool) {
	id, ok := o.selected[k]
	return id, ok
}

// ClearSelection deselects everything.
func (o *Overlay) ClearSelection() { clear(o.selected) }

// Deselect closes the quick-action toolbar of one kind.
func (o *Overlay) Deselect(k domain.Kind) { delete(o.selected, k) }

func (o *Overlay) pruneSelection(b domain.Bundle) {
	for k, id := range o.selected {
		if _, ok := b.Find(k, id); !ok {
			delete(o.selected, k)
		}
	}
}

// KeyDown handles window-level shortcuts. textFocused must be true while a
// text input has focus; shortcuts are then left to the input. It reports
// whether the key was consumed.
func (o *Overlay) KeyDown(key string, textFocused bool) bool {
	if textFocused || o.props.Minimal {
		return false
	}
	switch key {
	case KeyEscape:
		had := len(o.selected) > 0 || o.tool != ToolNone || o.pending != nil
		o.ClearSelection()
		o.tool = ToolNone
		o.pending = nil
		return had
	case KeyDelete, KeyBackspace:
		for _, k := range domain.Kinds {
			if id, ok := o.selected[k]; ok {
				o.Delete(k, id)
				return true
			}
		}
	}
	return false
}

// Delete removes one annotation and clears its selection. Deleting an
// unknown id changes nothing.
func (o *Overlay) Delete(k domain.Kind, id string) bool {
	if o.selected[k] == id {
		delete(o.selected, k)
	}
	next, changed := o.store.Update(func(s domain.Sheet) (domain.Sheet, bool) {
		before := s.Annotations.Len(k)
		s.Annotations = s.Annotations.Remove(k, id)
		return s, s.Annotations.Len(k) != before
	})
	if !changed {
		return false
	}
	if o.drag.active && o.drag.target.Type == TargetAnnotation && o.drag.target.ID == id {
		o.drag = drag{}
		o.store.EndGesture()
	}
	o.log.Debug("deleted annotation", slog.String("kind", string(k)), slog.String("id", id))
	o.emitAnnotations(next)
	return true
}

// modify applies fn to one annotation and commits the result.
func (o *Overlay) modify(k domain.Kind, id string, fn func(domain.Shape) (domain.Shape, bool)) bool {
	next, changed := o.store.Update(func(s domain.Sheet) (domain.Sheet, bool) {
		cur, ok := s.Annotations.Find(k, id)
		if !ok {
			return s, false
		}
		upd, ok := fn(cur)
		if !ok {
			return s, false
		}
		s.Annotations = s.Annotations.Replace(upd)
		return s, true
	})
	if changed {
		o.emitAnnotations(next)
	}
	return changed
}

// ToggleDashed flips the dashed style of a dimension or arrow.
func (o *Overlay) ToggleDashed(k domain.Kind, id string) bool {
	return o.modify(k, id, func(s domain.Shape) (domain.Shape, bool) {
		switch v := s.(type) {
		case domain.Dimension:
			v.Style.Dashed = !v.Style.Dashed
			return v, true
		case domain.Arrow:
			v.Style.Dashed = !v.Style.Dashed
			return v, true
		}
		return s, false
	})
}

// ToggleArrowheads flips the end markers of a dimension or arrow.
func (o *Overlay) ToggleArrowheads(k domain.Kind, id string) bool {
	return o.modify(k, id, func(s domain.Shape) (domain.Shape, bool) {
		switch v := s.(type) {
		case domain.Dimension:
			v.Style.Arrowheads = !v.Style.Arrowheads
			return v, true
		case domain.Arrow:
			v.Style.Arrowhead = !v.Style.Arrowhead
			return v, true
		}
		return s, false
	})
}

// ToggleCurved switches an arrow between straight and curved.
func (o *Overlay) ToggleCurved(id string) bool {
	return o.modify(domain.KindArrow, id, func(s domain.Shape) (domain.Shape, bool) {
		a := s.(domain.Arrow)
		a.Curved = !a.Curved
		return a, true
	})
}

// SetText sets the text of an annotation: the manual label of a dimension
// (cut to four characters, empty restores the computed length), the label of
// an arrow, the note of a circle or the text of a note.
func (o *Overlay) SetText(k domain.Kind, id, text string) bool {
	return o.modify(k, id, func(s domain.Shape) (domain.Shape, bool) {
		switch v := s.(type) {
		case domain.Dimension:
			t := domain.TrimDimText(text)
			if t == v.Text {
				return s, false
			}
			v.Text = t
			return v, true
		case domain.Arrow:
			v.Text = text
			return v, v.Text != s.(domain.Arrow).Text
		case domain.Circle:
			v.Note = text
			return v, v.Note != s.(domain.Circle).Note
		case domain.Note:
			v.Text = text
			return v, v.Text != s.(domain.Note).Text
		}
		return s, false
	})
}

// SetCircleRadius sets a radius, never below the configured minimum.
func (o *Overlay) SetCircleRadius(id string, rPct float64) bool {
	if math.IsNaN(rPct) {
		return false
	}
	return o.modify(domain.KindCircle, id, func(s domain.Shape) (domain.Shape, bool) {
		c := s.(domain.Circle)
		r := math.Max(rPct, o.props.MinCircleR)
		if r == c.RPct {
			return s, false
		}
		c.RPct = r
		return c, true
	})
}

// SetScale sets pixels per unit for physical dimension labels; zero or
// negative turns it off.
func (o *Overlay) SetScale(pxPerUnit float64) bool {
	if math.IsNaN(pxPerUnit) || math.IsInf(pxPerUnit, 0) || pxPerUnit < 0 {
		pxPerUnit = 0
	}
	next, changed := o.store.Update(func(s domain.Sheet) (domain.Sheet, bool) {
		if s.Annotations.Meta.ScalePxPerUnit == pxPerUnit {
			return s, false
		}
		s.Annotations.Meta.ScalePxPerUnit = pxPerUnit
		return s, true
	})
	if changed {
		o.emitAnnotations(next)
	}
	return changed
}

// CalibrateScale derives the scale from a dimension whose real length is
// known, e.g. a 10 cm reference drawn on the diagram.
func (o *Overlay) CalibrateScale(dimID string, realLength float64) bool {
	if realLength <= 0 || o.box.Empty() {
		return false
	}
	s, ok := o.store.Get().Annotations.Find(domain.KindDim, dimID)
	if !ok {
		return false
	}
	d := s.(domain.Dimension)
	px := o.box.Length(d.A.XPct, d.A.YPct, d.B.XPct, d.B.YPct)
	if px == 0 {
		return false
	}
	return o.SetScale(px / realLength)
}

// --- layers

// LayerVisible reports whether a layer is shown.
func (o *Overlay) LayerVisible(l Layer) bool { return o.layers.Visible(l) }

// ToggleLayer flips one layer. Hiding a layer also drops the selection of
// its kind so hidden shapes cannot be deleted by keyboard.
func (o *Overlay) ToggleLayer(l Layer) bool {
	v := o.layers.Toggle(l)
	o.syncHiddenSelection()
	return v
}

func (o *Overlay) SetLayer(l Layer, visible bool) {
	o.layers.Set(l, visible)
	o.syncHiddenSelection()
}

// ApplyPreset switches all layers to a preset.
func (o *Overlay) ApplyPreset(p Preset) {
	o.layers.Apply(p)
	o.syncHiddenSelection()
}

// LayerFlags returns a copy of all layer flags.
func (o *Overlay) LayerFlags() map[Layer]bool { return o.layers.Snapshot() }

func (o *Overlay) syncHiddenSelection() {
	for k := range o.selected {
		if !o.layers.Visible(LayerOf(k)) {
			delete(o.selected, k)
		}
	}
	if !o.layers.Visible(LayerPoints) {
		o.pending = nil
	}
}
