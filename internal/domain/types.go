/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the measurement sheet data model. All annotation
// coordinates are percentages (0-100) of the fitted image box so a sheet
// renders the same at any container size. JSON names match the sheet files
// written by storage.

import "time"

// Pos is a position in percentage-of-image space.
type Pos struct {
	XPct float64 `json:"xPct"`
	YPct float64 `json:"yPct"`
}

// P is shorthand for Pos{x, y}.
func P(x, y float64) Pos { return Pos{XPct: x, YPct: y} }

func (p Pos) Add(dx, dy float64) Pos { return Pos{XPct: p.XPct + dx, YPct: p.YPct + dy} }

// Clamp limits both axes to [0,100].
func (p Pos) Clamp() Pos { return Pos{XPct: clampPct(p.XPct), YPct: clampPct(p.YPct)} }

func clampPct(v float64) float64 {
	if v < 0 || v != v {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// LabeledPoint is a custom measurement label placed on the diagram.
type LabeledPoint struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	XPct  float64 `json:"xPct"`
	YPct  float64 `json:"yPct"`
	Value string  `json:"value"` // text so partial numeric entry survives
	Unit  string  `json:"unit"`
}

func (lp LabeledPoint) Pos() Pos { return Pos{XPct: lp.XPct, YPct: lp.YPct} }

// FixedPos overrides the placement of a built-in landmark (percent).
type FixedPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DimStyle controls how a dimension line is drawn.
type DimStyle struct {
	Dashed     bool `json:"dashed"`
	Arrowheads bool `json:"arrowheads"`
}

// ArrowStyle controls how an arrow is drawn.
type ArrowStyle struct {
	Dashed    bool `json:"dashed"`
	Arrowhead bool `json:"arrowhead"`
}

// Dimension is a measured line with tick marks. Text, when set, replaces the
// computed length label and is at most MaxDimTextLen runes.
type Dimension struct {
	ID    string   `json:"id"`
	A     Pos      `json:"a"`
	B     Pos      `json:"b"`
	Style DimStyle `json:"style"`
	Text  string   `json:"text,omitempty"`
}

// MaxDimTextLen caps the manual dimension label.
const MaxDimTextLen = 4

// Circle marks a radius. RPct is a percentage of the image width; a
// non-positive radius is degenerate and not drawn.
type Circle struct {
	ID   string  `json:"id"`
	C    Pos     `json:"c"`
	RPct float64 `json:"rPct"`
	Note string  `json:"note,omitempty"`
}

// Arrow is straight or a quadratic curve through Ctrl. Ctrl is kept even
// when Curved is false so toggling back restores the previous bend.
type Arrow struct {
	ID     string     `json:"id"`
	A      Pos        `json:"a"`
	B      Pos        `json:"b"`
	Ctrl   Pos        `json:"ctrl"`
	Curved bool       `json:"curved"`
	Style  ArrowStyle `json:"style"`
	Text   string     `json:"text,omitempty"`
}

// AngleMarker measures the angle at vertex B between arms to A and C.
type AngleMarker struct {
	ID string `json:"id"`
	A  Pos    `json:"a"`
	B  Pos    `json:"b"`
	C  Pos    `json:"c"`
}

type Note struct {
	ID   string `json:"id"`
	P    Pos    `json:"p"`
	Text string `json:"text"`
}

// Meta carries bundle-wide settings.
type Meta struct {
	// ScalePxPerUnit enables physical-unit dimension labels when > 0.
	ScalePxPerUnit float64 `json:"scalePxPerUnit,omitempty"`
}

// Bundle groups all annotations of a sheet. Lists keep insertion order.
type Bundle struct {
	Dims    []Dimension   `json:"dims,omitempty"`
	Circles []Circle      `json:"circles,omitempty"`
	Arrows  []Arrow       `json:"arrows,omitempty"`
	Angles  []AngleMarker `json:"angles,omitempty"`
	Notes   []Note        `json:"notes,omitempty"`
	Meta    Meta          `json:"meta"`
}

// Landmark is a predefined named measurement location on a diagram.
type Landmark struct {
	Key     string   `json:"key"`
	Label   string   `json:"label"`
	Default FixedPos `json:"default"`
}

// Sheet is one customer's measurement diagram: field values, custom points,
// landmark overrides and annotations, plus the diagram it was drawn over.
type Sheet struct {
	SchemaVersion    int                 `json:"schemaVersion"`
	ID               string              `json:"id"`
	Title            string              `json:"title"`
	Diagram          string              `json:"diagram,omitempty"`
	ImageURL         string              `json:"imageUrl,omitempty"`
	FallbackURLs     []string            `json:"fallbackUrls,omitempty"`
	AspectPercent    float64             `json:"aspectPercent,omitempty"`
	Unit             string              `json:"unit"`
	Values           map[string]string   `json:"values,omitempty"`
	Points           []LabeledPoint      `json:"points,omitempty"`
	Fixed            map[string]FixedPos `json:"fixedPositions,omitempty"`
	AllowedFixedKeys []string            `json:"allowedFixedKeys"` // null shows all, [] none
	ExtraFixed       []Landmark          `json:"extraFixed,omitempty"`
	Annotations      Bundle              `json:"annotations"`
	CreatedAt        time.Time           `json:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt"`
}

// SheetSchemaVersion is written into new sheets.
const SheetSchemaVersion = 1

// Clone returns a deep copy so updaters can modify the result freely.
func (s Sheet) Clone() Sheet {
	out := s
	out.FallbackURLs = append([]string(nil), s.FallbackURLs...)
	out.AllowedFixedKeys = cloneKeys(s.AllowedFixedKeys)
	out.ExtraFixed = append([]Landmark(nil), s.ExtraFixed...)
	out.Points = append([]LabeledPoint(nil), s.Points...)
	if s.Values != nil {
		out.Values = make(map[string]string, len(s.Values))
		for k, v := range s.Values {
			out.Values[k] = v
		}
	}
	if s.Fixed != nil {
		out.Fixed = make(map[string]FixedPos, len(s.Fixed))
		for k, v := range s.Fixed {
			out.Fixed[k] = v
		}
	}
	out.Annotations = s.Annotations.Clone()
	return out
}

// cloneKeys keeps the nil/empty distinction: nil means "all landmarks".
func cloneKeys(k []string) []string {
	if k == nil {
		return nil
	}
	return append(make([]string, 0, len(k)), k...)
}

// Landmarks resolves the landmarks this sheet shows.
func (s Sheet) Landmarks() []Landmark { return ResolveLandmarks(s.AllowedFixedKeys, s.ExtraFixed) }

// PointIndex returns the index of the labeled point with id, or -1.
func (s Sheet) PointIndex(id string) int {
	for i, p := range s.Points {
		if p.ID == id {
			return i
		}
	}
	return -1
}
