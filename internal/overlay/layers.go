/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package overlay

import (
	"strings"

	"tailormark/internal/domain"
)

// Layer is a view category that can be hidden.
type Layer string

const (
	LayerLabels  Layer = "labels" // landmark labels
	LayerPoints  Layer = "points" // custom labeled points
	LayerDims    Layer = "dims"
	LayerCircles Layer = "circles"
	LayerArrows  Layer = "arrows"
	LayerAngles  Layer = "angles"
	LayerNotes   Layer = "notes"
)

// AllLayers lists every layer in toolbar order.
var AllLayers = []Layer{LayerLabels, LayerPoints, LayerDims, LayerCircles, LayerArrows, LayerAngles, LayerNotes}

// Preset names a common layer combination.
type Preset string

const (
	PresetAll          Preset = "all"
	PresetLabelsOnly   Preset = "labels"
	PresetMeasuresOnly Preset = "measures"
)

// ParsePreset accepts the config spellings; unknown names map to PresetAll.
func ParsePreset(s string) Preset {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "labels", "labels-only", "labels_only":
		return PresetLabelsOnly
	case "measures", "measures-only", "measures_only":
		return PresetMeasuresOnly
	}
	return PresetAll
}

// Layers holds one visibility flag per layer. It is view state only and is
// never written into a sheet.
type Layers struct {
	hidden map[Layer]bool
}

// NewLayers starts from a preset.
func NewLayers(p Preset) Layers {
	var l Layers
	l.Apply(p)
	return l
}

// Visible reports whether a layer is shown. The zero Layers shows everything.
func (l Layers) Visible(name Layer) bool { return !l.hidden[name] }

func (l *Layers) Set(name Layer, visible bool) {
	if l.hidden == nil {
		l.hidden = map[Layer]bool{}
	}
	l.hidden[name] = !visible
}

// Toggle flips a layer and returns its new visibility.
func (l *Layers) Toggle(name Layer) bool {
	v := !l.Visible(name)
	l.Set(name, v)
	return v
}

// Apply replaces all flags with a preset.
func (l *Layers) Apply(p Preset) {
	show := map[Layer]bool{}
	switch p {
	case PresetLabelsOnly:
		show[LayerLabels], show[LayerPoints] = true, true
	case PresetMeasuresOnly:
		show[LayerDims], show[LayerCircles], show[LayerAngles] = true, true, true
	default:
		for _, name := range AllLayers {
			show[name] = true
		}
	}
	l.hidden = make(map[Layer]bool, len(AllLayers))
	for _, name := range AllLayers {
		l.hidden[name] = !show[name]
	}
}

// Snapshot returns the current flags.
func (l Layers) Snapshot() map[Layer]bool {
	out := make(map[Layer]bool, len(AllLayers))
	for _, name := range AllLayers {
		out[name] = l.Visible(name)
	}
	return out
}

// LayerOf maps an annotation kind to the layer that shows it.
func LayerOf(k domain.Kind) Layer {
	switch k {
	case domain.KindDim:
		return LayerDims
	case domain.KindCircle:
		return LayerCircles
	case domain.KindArrow:
		return LayerArrows
	case domain.KindAngle:
		return LayerAngles
	case domain.KindNote:
		return LayerNotes
	}
	return ""
}
