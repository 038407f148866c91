/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"tailormark/internal/domain"
)

func sampleSheet(id string) domain.Sheet {
	return domain.Sheet{
		ID:      id,
		Title:   "Ada, shirt",
		Diagram: "shirt",
		Unit:    "cm",
		Values:  map[string]string{"chest": "98", "neck": "38.5"},
		Points:  []domain.LabeledPoint{{ID: "p1", Label: "Hem", XPct: 50, YPct: 95, Value: "2", Unit: "cm"}},
		Fixed:   map[string]domain.FixedPos{"neck": {X: 50, Y: 8}},
		Annotations: domain.Bundle{
			Dims:  []domain.Dimension{{ID: "d1", A: domain.P(10, 10), B: domain.P(30, 10), Style: domain.DimStyle{Arrowheads: true}}},
			Notes: []domain.Note{{ID: "n1", P: domain.P(60, 60), Text: "take in waist"}},
		},
	}
}

func newWorkspace(t *testing.T) *Workspace {
	t.Helper()
	w, err := InitWorkspace(t.TempDir())
	if err != nil {
		t.Fatalf("InitWorkspace: %v", err)
	}
	return w
}

func TestInitWorkspaceCreatesStructure(t *testing.T) {
	w := newWorkspace(t)
	for _, d := range []string{SheetsDirName, BackupsDirName, ExportsDirName} {
		if fi, err := os.Stat(filepath.Join(w.Root, d)); err != nil || !fi.IsDir() {
			t.Fatalf("expected directory %s", d)
		}
	}
	if _, err := OpenWorkspace(w.Root); err != nil {
		t.Fatalf("OpenWorkspace: %v", err)
	}
	if _, err := OpenWorkspace(t.TempDir()); !errors.Is(err, ErrNoWorkspace) {
		t.Fatalf("OpenWorkspace on empty dir: %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	w := newWorkspace(t)
	ctx := context.Background()
	s := sampleSheet("ada-shirt")
	if err := w.CreateSheet(ctx, &s); err != nil {
		t.Fatalf("CreateSheet: %v", err)
	}
	if s.SchemaVersion != domain.SheetSchemaVersion || s.CreatedAt.IsZero() || s.UpdatedAt.IsZero() {
		t.Fatalf("sheet not stamped: %+v", s)
	}
	got, err := w.LoadSheet("ada-shirt")
	if err != nil {
		t.Fatalf("LoadSheet: %v", err)
	}
	if got.Values["neck"] != "38.5" || got.Points[0].Label != "Hem" || got.Annotations.Notes[0].Text != "take in waist" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.AllowedFixedKeys != nil {
		t.Fatalf("nil landmark filter came back as %v", got.AllowedFixedKeys)
	}
	if err := w.CreateSheet(ctx, &s); !errors.Is(err, ErrSheetExists) {
		t.Fatalf("duplicate create: %v", err)
	}
	ids, err := w.ListSheets()
	if err != nil || len(ids) != 1 || ids[0] != "ada-shirt" {
		t.Fatalf("ListSheets = %v, %v", ids, err)
	}
}

func TestEmptyLandmarkFilterSurvivesSave(t *testing.T) {
	w := newWorkspace(t)
	s := sampleSheet("none")
	s.AllowedFixedKeys = []string{}
	if err := w.SaveSheet(context.Background(), &s); err != nil {
		t.Fatalf("SaveSheet: %v", err)
	}
	got, err := w.LoadSheet("none")
	if err != nil {
		t.Fatalf("LoadSheet: %v", err)
	}
	if got.AllowedFixedKeys == nil || len(got.Landmarks()) != 0 {
		t.Fatalf("empty filter should hide all landmarks, got %v", got.AllowedFixedKeys)
	}
}

func TestSaveRejectsInvalidSheet(t *testing.T) {
	w := newWorkspace(t)
	s := sampleSheet("bad")
	s.Unit = "furlong"
	err := w.SaveSheet(context.Background(), &s)
	var ve *ValidationError
	if !errors.As(err, &ve) || len(ve.Problems) == 0 {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := os.Stat(w.SheetPath("bad")); !os.IsNotExist(err) {
		t.Fatalf("invalid sheet was written")
	}
}

func TestBadSheetIDs(t *testing.T) {
	w := newWorkspace(t)
	for _, id := range []string{"", "../x", "a/b", ".hidden"} {
		s := sampleSheet(id)
		if err := w.SaveSheet(context.Background(), &s); !errors.Is(err, ErrBadSheetID) {
			t.Fatalf("id %q: %v", id, err)
		}
	}
}

func TestSaveCreatesBackupAndLoadFallsBack(t *testing.T) {
	w := newWorkspace(t)
	w.NoIndex = true
	ctx := context.Background()
	s := sampleSheet("fb")
	if err := w.SaveSheet(ctx, &s); err != nil {
		t.Fatalf("first save: %v", err)
	}
	s.Title = "second"
	if err := w.SaveSheet(ctx, &s); err != nil {
		t.Fatalf("second save: %v", err)
	}
	baks, err := w.Backups("fb")
	if err != nil || len(baks) != 1 {
		t.Fatalf("backups = %v, %v", baks, err)
	}
	// corrupt the live file
	if err := os.WriteFile(w.SheetPath("fb"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := w.LoadSheet("fb")
	if err != nil {
		t.Fatalf("LoadSheet should fall back to backup: %v", err)
	}
	if got.Title != "Ada, shirt" {
		t.Fatalf("restored title %q", got.Title)
	}
	if _, err := w.LoadSheet("missing"); !errors.Is(err, ErrSheetMissing) {
		t.Fatalf("missing sheet: %v", err)
	}
}

func TestDeleteSheet(t *testing.T) {
	w := newWorkspace(t)
	ctx := context.Background()
	s := sampleSheet("gone")
	if err := w.SaveSheet(ctx, &s); err != nil {
		t.Fatal(err)
	}
	if err := w.DeleteSheet(ctx, "gone"); err != nil {
		t.Fatalf("DeleteSheet: %v", err)
	}
	if ids, _ := w.ListSheets(); len(ids) != 0 {
		t.Fatalf("sheet still listed: %v", ids)
	}
	if baks, _ := w.Backups("gone"); len(baks) != 1 {
		t.Fatalf("delete should leave a backup, got %v", baks)
	}
	if err := w.DeleteSheet(ctx, "gone"); !errors.Is(err, ErrSheetMissing) {
		t.Fatalf("second delete: %v", err)
	}
}

func TestValidateSheetJSON(t *testing.T) {
	if err := ValidateSheetJSON([]byte(`{"schemaVersion":1,"id":"x","unit":"in","annotations":{"meta":{}}}`)); err != nil {
		t.Fatalf("minimal sheet rejected: %v", err)
	}
	bad := `{"schemaVersion":1,"id":"x","unit":"cm","annotations":{"dims":[{"id":"d","a":{"xPct":120,"yPct":0},"b":{"xPct":0,"yPct":0},"style":{},"text":"toolong"}]}}`
	err := ValidateSheetJSON([]byte(bad))
	var ve *ValidationError
	if !errors.As(err, &ve) || len(ve.Problems) < 2 {
		t.Fatalf("expected two problems, got %v", err)
	}
}
