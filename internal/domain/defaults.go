/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Placement sizes the default shape a tool drops at the click point.
// Values are percentages of the image box.
type Placement struct {
	DimOffset float64 // B is placed this far right of A
	CircleR   float64
	ArrowLen  float64
	ArrowBend float64 // how far the control point sits above the midpoint
	AngleArm  float64
	NoteText  string
}

// DefaultPlacement returns the stock placement sizes.
func DefaultPlacement() Placement {
	return Placement{DimOffset: 8, CircleR: 6, ArrowLen: 10, ArrowBend: 5, AngleArm: 6, NoteText: "Note"}
}

// NewID returns a fresh opaque id.
func NewID() string { return uuid.NewString() }

// NewShape builds the default annotation of kind k anchored at the click
// position. Generated points are clamped into the image.
func NewShape(k Kind, id string, at Pos, pl Placement) (Shape, bool) {
	switch k {
	case KindDim:
		return Dimension{
			ID:    id,
			A:     at,
			B:     at.Add(pl.DimOffset, 0).Clamp(),
			Style: DimStyle{Dashed: false, Arrowheads: true},
		}, true
	case KindCircle:
		return Circle{ID: id, C: at, RPct: pl.CircleR}, true
	case KindArrow:
		b := at.Add(pl.ArrowLen, 0).Clamp()
		return Arrow{
			ID:    id,
			A:     at,
			B:     b,
			Ctrl:  mid(at, b).Add(0, -pl.ArrowBend).Clamp(),
			Style: ArrowStyle{Arrowhead: true},
		}, true
	case KindAngle:
		return AngleMarker{
			ID: id,
			A:  at.Add(pl.AngleArm, 0).Clamp(),
			B:  at,
			C:  at.Add(0, -pl.AngleArm).Clamp(),
		}, true
	case KindNote:
		text := pl.NoteText
		if text == "" {
			text = "Note"
		}
		return Note{ID: id, P: at, Text: text}, true
	}
	return nil, false
}

// Note pill limits.
const (
	NotePillWords = 3
	NotePillRunes = 10
)

// NotePill shortens note text for the compact pill: at most three words and
// ten characters, with an ellipsis when anything was cut.
func NotePill(text string) string {
	text = strings.TrimSpace(text)
	words := strings.Fields(text)
	cut := false
	if len(words) > NotePillWords {
		words = words[:NotePillWords]
		cut = true
	}
	s := strings.Join(words, " ")
	if utf8.RuneCountInString(s) > NotePillRunes {
		s = strings.TrimSpace(string([]rune(s)[:NotePillRunes]))
		cut = true
	}
	if cut {
		s += "…"
	}
	return s
}

// TrimDimText enforces the manual dimension label limit.
func TrimDimText(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > MaxDimTextLen {
		s = strings.TrimSpace(string([]rune(s)[:MaxDimTextLen]))
	}
	return s
}
