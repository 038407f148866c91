/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"fmt"
	"strings"

	"tailormark/internal/domain"
)

// Placement converts the overlay section into tool placement sizes.
func (o OverlayConfig) Placement() domain.Placement {
	p := domain.DefaultPlacement()
	setPos(&p.DimOffset, o.DimOffsetPct)
	setPos(&p.CircleR, o.CircleRPct)
	setPos(&p.ArrowLen, o.ArrowLenPct)
	setPos(&p.AngleArm, o.AngleArmPct)
	return p
}

// NewSheet builds an empty sheet for a catalog diagram. An empty diagram
// name gives a sheet without image or landmark restrictions.
func (c AppConfig) NewSheet(id, diagram, title string) (domain.Sheet, error) {
	s := domain.Sheet{
		ID:    id,
		Title: title,
		Unit:  normUnit(c.Overlay.DefaultUnit),
	}
	if s.Unit == "" {
		s.Unit = "cm"
	}
	if strings.TrimSpace(diagram) == "" {
		return s, nil
	}
	d, ok := c.Diagram(diagram)
	if !ok {
		return domain.Sheet{}, fmt.Errorf("unknown diagram %q (known: %s)", diagram, strings.Join(c.DiagramNames(), ", "))
	}
	s.Diagram = strings.ToLower(strings.TrimSpace(diagram))
	if s.Title == "" {
		s.Title = d.Title
	}
	s.ImageURL = d.Image
	s.FallbackURLs = append([]string(nil), d.Fallbacks...)
	s.AspectPercent = d.AspectPercent
	if len(d.AllowedFixedKeys) > 0 {
		s.AllowedFixedKeys = append([]string(nil), d.AllowedFixedKeys...)
	}
	for _, e := range d.ExtraFixed {
		s.ExtraFixed = append(s.ExtraFixed, domain.Landmark{
			Key: e.Key, Label: e.Label, Default: domain.FixedPos{X: e.X, Y: e.Y},
		})
	}
	return s, nil
}
