/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import "testing"

func TestNewSheetFromCatalog(t *testing.T) {
	cfg := Defaults()
	s, err := cfg.NewSheet("s1", "Trouser", "")
	if err != nil {
		t.Fatalf("NewSheet: %v", err)
	}
	if s.Diagram != "trouser" || s.Title != "Trouser" || s.Unit != "cm" {
		t.Fatalf("unexpected sheet header: %+v", s)
	}
	if s.ImageURL != "diagrams/trouser.png" || len(s.FallbackURLs) != 1 || s.AspectPercent != 150 {
		t.Fatalf("image fields not copied: %+v", s)
	}
	if len(s.ExtraFixed) != 1 || s.ExtraFixed[0].Key != "crotch" || s.ExtraFixed[0].Default.Y != 32 {
		t.Fatalf("extra landmarks: %+v", s.ExtraFixed)
	}
	found := false
	for _, l := range s.Landmarks() {
		if l.Key == "crotch" {
			found = true
		}
	}
	if !found {
		t.Fatalf("crotch landmark should resolve")
	}
	// The catalog slice must not alias the sheet.
	s.FallbackURLs[0] = "x"
	if d, _ := cfg.Diagram("trouser"); d.Fallbacks[0] != "diagrams/trouser.jpg" {
		t.Fatalf("catalog mutated through sheet")
	}
}

func TestNewSheetUnknownDiagram(t *testing.T) {
	if _, err := Defaults().NewSheet("s1", "cape", ""); err == nil {
		t.Fatalf("expected error for unknown diagram")
	}
	s, err := Defaults().NewSheet("s1", "", "Free")
	if err != nil || s.ImageURL != "" || s.AllowedFixedKeys != nil {
		t.Fatalf("blank diagram: %+v %v", s, err)
	}
}

func TestNewSheetUnitFromConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Overlay.DefaultUnit = "inches"
	s, _ := cfg.NewSheet("s1", "", "")
	if s.Unit != "in" {
		t.Fatalf("unit = %q", s.Unit)
	}
}

func TestPlacementFromOverlayConfig(t *testing.T) {
	o := Defaults().Overlay
	o.DimOffsetPct = 12
	o.CircleRPct = 0
	p := o.Placement()
	if p.DimOffset != 12 || p.CircleR != 6 || p.ArrowBend != 5 || p.NoteText != "Note" {
		t.Fatalf("placement: %+v", p)
	}
}
