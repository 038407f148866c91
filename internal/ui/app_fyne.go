//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"tailormark/internal/config"
	"tailormark/internal/crash"
	"tailormark/internal/domain"
	"tailormark/internal/export"
	"tailormark/internal/imageload"
	applog "tailormark/internal/log"
	"tailormark/internal/overlay"
	"tailormark/internal/storage"
	"tailormark/internal/telemetry"
	"tailormark/internal/units"
	"tailormark/internal/version"
)

// AutosaveEvery is the snapshot interval while the editor is open.
const AutosaveEvery = 30 * time.Second

// Run opens the editor window for one sheet. An empty workspace dir falls
// back to the configured workspace root, an empty id to the first sheet.
func Run(workspaceDir, sheetID string) error {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("ui")
	l.Info("starting UI", slog.String("ver", version.String()))

	cfg, token, err := config.Load()
	if err != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", err))
	}
	if strings.TrimSpace(workspaceDir) == "" {
		workspaceDir = cfg.General.WorkspaceRoot
	}
	ws, err := storage.OpenWorkspace(workspaceDir)
	if err != nil {
		return err
	}
	if sheetID == "" {
		ids, err := ws.ListSheets()
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return fmt.Errorf("workspace %s has no sheets; create one with: tailormark new %s <id>", ws.Root, ws.Root)
		}
		sheetID = ids[0]
	}
	sess, err := OpenSession(ws, sheetID, cfg)
	if err != nil {
		return err
	}
	defer sess.Close()
	defer crash.Recover(&crash.Target{Workspace: ws, Sheet: sess.Sheet})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sess.RunAutosave(ctx, AutosaveEvery)
	telemetry.Event(telemetry.EventEditorOpened, telemetry.SheetStats(sess.Sheet()))

	fyneApp := app.NewWithID("tailormark")
	w := fyneApp.NewWindow("Tailormark - " + sess.Sheet().Title)
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1100)
	winH := prefs.IntWithFallback("window.height", 800)
	if winW < 700 {
		winW = 700
	}
	if winH < 500 {
		winH = 500
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	ov := sess.Overlay
	status := widget.NewLabel("Loading diagram…")
	canvasWidget := NewOverlayWidget(ov)

	// Inline label input for add-mode clicks. It floats over the canvas at
	// the clicked position and never blocks the event loop.
	labelEntry := widget.NewEntry()
	labelEntry.SetPlaceHolder("Label")
	labelEntry.Hide()
	labelLayer := container.NewWithoutLayout(labelEntry)

	var refresh func()
	labelEntry.OnChanged = func(s string) { ov.EditLabel(s) }
	labelEntry.OnSubmitted = func(s string) {
		if p, ok := ov.CommitLabel(s); ok {
			status.SetText("Added point " + p.Label)
		}
		refresh()
	}

	refresh = func() {
		canvasWidget.Refresh()
		if pl, ok := ov.PendingLabel(); ok {
			at := ov.Box().ToScreen(pl.At.XPct, pl.At.YPct)
			labelEntry.Resize(fyne.NewSize(160, labelEntry.MinSize().Height))
			labelEntry.Move(fyne.NewPos(float32(at.X)+6, float32(at.Y)-labelEntry.MinSize().Height/2))
			if !labelEntry.Visible() {
				labelEntry.SetText(pl.Text)
				labelEntry.Show()
				w.Canvas().Focus(labelEntry)
			}
		} else if labelEntry.Visible() {
			labelEntry.Hide()
			w.Canvas().Unfocus()
		}
	}
	canvasWidget.OnChanged = refresh

	go func() {
		loader := imageload.New(cfg.Assets, token).WithDir(ws.Root)
		lctx, lcancel := context.WithTimeout(ctx, loader.Timeout())
		defer lcancel()
		sess.LoadImage(lctx, loader)
		fyne.Do(func() {
			img, info := sess.Image()
			canvasWidget.SetImage(img)
			if img == nil {
				status.SetText("Diagram image not found")
			} else {
				status.SetText(fmt.Sprintf("Diagram %dx%d (%s)", info.Width, info.Height, info.Format))
			}
			refresh()
		})
	}()

	// Tools
	toolButtons := map[overlay.Tool]*widget.Button{}
	var syncTools func()
	for _, t := range []overlay.Tool{overlay.ToolDim, overlay.ToolCircle, overlay.ToolArrow, overlay.ToolAngle, overlay.ToolNote} {
		toolButtons[t] = widget.NewButton(toolTitle(t), func() {
			ov.SetTool(t)
			syncTools()
			refresh()
		})
	}
	syncTools = func() {
		for t, b := range toolButtons {
			if ov.Tool() == t {
				b.Importance = widget.HighImportance
			} else {
				b.Importance = widget.MediumImportance
			}
			b.Refresh()
		}
	}
	addPoint := widget.NewCheck("Add point", func(on bool) { ov.SetAddMode(on); refresh() })
	moveFixed := widget.NewCheck("Move labels", func(on bool) { ov.SetMoveFixed(on); refresh() })

	// Layers
	layerChecks := map[overlay.Layer]*widget.Check{}
	var layerBox []fyne.CanvasObject
	for _, name := range overlay.AllLayers {
		c := widget.NewCheck(string(name), func(on bool) {
			ov.SetLayer(name, on)
			refresh()
		})
		c.SetChecked(ov.LayerVisible(name))
		layerChecks[name] = c
		layerBox = append(layerBox, c)
	}
	syncLayers := func() {
		for name, c := range layerChecks {
			c.SetChecked(ov.LayerVisible(name))
		}
	}
	presetSel := widget.NewSelect([]string{string(overlay.PresetAll), string(overlay.PresetLabelsOnly), string(overlay.PresetMeasuresOnly)}, func(s string) {
		ov.ApplyPreset(overlay.ParsePreset(s))
		syncLayers()
		refresh()
	})
	presetSel.PlaceHolder = "Preset"

	// Units and scale
	unitSel := widget.NewSelect([]string{units.CM, units.IN}, nil)
	unitSel.SetSelected(sess.Sheet().Unit)
	unitSel.OnChanged = func(u string) {
		if ov.ConvertUnit(u) {
			status.SetText("Converted to " + u)
		}
		refresh()
	}
	scaleEntry := widget.NewEntry()
	scaleEntry.SetPlaceHolder("px per unit")
	if sc := sess.Sheet().Annotations.Meta.ScalePxPerUnit; sc > 0 {
		scaleEntry.SetText(strconv.FormatFloat(sc, 'f', -1, 64))
	}
	scaleEntry.OnSubmitted = func(s string) {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil && strings.TrimSpace(s) != "" {
			status.SetText("Scale must be a number")
			return
		}
		ov.SetScale(v)
		refresh()
	}
	calibEntry := widget.NewEntry()
	calibEntry.SetPlaceHolder("real length of selected dim")
	calibEntry.OnSubmitted = func(s string) {
		id, ok := ov.Selected(domain.KindDim)
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if !ok || err != nil {
			status.SetText("Select a dimension and enter its real length")
			return
		}
		if ov.CalibrateScale(id, v) {
			scaleEntry.SetText(strconv.FormatFloat(ov.Sheet().Annotations.Meta.ScalePxPerUnit, 'f', 2, 64))
			status.SetText("Scale calibrated")
		}
		refresh()
	}

	// Quick actions on the current selection
	forSelected := func(fn func(k domain.Kind, id string) bool) func() {
		return func() {
			for _, k := range domain.Kinds {
				if id, ok := ov.Selected(k); ok && fn(k, id) {
					break
				}
			}
			refresh()
		}
	}
	textEntry := widget.NewEntry()
	textEntry.SetPlaceHolder("Text for selection")
	textEntry.OnSubmitted = func(s string) {
		forSelected(func(k domain.Kind, id string) bool { return ov.SetText(k, id, s) })()
	}
	actions := container.NewHBox(
		widget.NewButton("Dashed", forSelected(ov.ToggleDashed)),
		widget.NewButton("Heads", forSelected(ov.ToggleArrowheads)),
		widget.NewButton("Curved", forSelected(func(k domain.Kind, id string) bool {
			return k == domain.KindArrow && ov.ToggleCurved(id)
		})),
		widget.NewButton("Delete", forSelected(ov.Delete)),
	)

	// Landmark values
	valueForm := widget.NewForm()
	for _, lm := range sess.Sheet().Landmarks() {
		key := lm.Key
		e := widget.NewEntry()
		e.SetText(sess.Sheet().Values[key])
		e.OnChanged = func(v string) {
			ov.SetValue(key, v)
			canvasWidget.Refresh()
		}
		valueForm.Append(lm.Label, e)
	}

	doUndo := func() {
		if ov.Undo() {
			unitSel.SetSelected(ov.Sheet().Unit)
			status.SetText("Undo")
		}
		refresh()
	}
	doRedo := func() {
		if ov.Redo() {
			unitSel.SetSelected(ov.Sheet().Unit)
			status.SetText("Redo")
		}
		refresh()
	}
	doSave := func() {
		if err := sess.Save(ctx); err != nil {
			l.Error("save failed", slog.Any("err", err))
			dialog.ShowError(err, w)
			return
		}
		status.SetText("Saved")
	}
	doExport := func(f export.Format) {
		path, err := sess.Export(f)
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		status.SetText("Exported " + path)
	}

	top := container.NewHBox(
		toolButtons[overlay.ToolDim], toolButtons[overlay.ToolCircle], toolButtons[overlay.ToolArrow],
		toolButtons[overlay.ToolAngle], toolButtons[overlay.ToolNote],
		widget.NewSeparator(), addPoint, moveFixed,
		widget.NewSeparator(),
		widget.NewButton("Undo", doUndo), widget.NewButton("Redo", doRedo),
		widget.NewButton("Save", doSave),
		widget.NewButton("SVG", func() { doExport(export.FormatSVG) }),
		widget.NewButton("PNG", func() { doExport(export.FormatPNG) }),
		widget.NewButton("PDF", func() { doExport(export.FormatPDF) }),
	)
	side := container.NewVScroll(container.NewVBox(
		widget.NewLabelWithStyle("Layers", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		presetSel,
		container.NewVBox(layerBox...),
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Units", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		unitSel, scaleEntry, calibEntry,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Selection", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		actions, textEntry,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Measurements", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		valueForm,
	))
	center := container.NewStack(canvasWidget, labelLayer)
	split := container.NewHSplit(center, side)
	split.Offset = 0.72
	w.SetContent(container.NewBorder(top, status, nil, nil, split))

	// Window-level keys go to the overlay unless a text input owns focus.
	w.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		_, textFocused := w.Canvas().Focused().(*widget.Entry)
		if ov.KeyDown(overlayKey(ev.Name), textFocused) {
			syncTools()
			refresh()
		}
	})
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) { doUndo() })
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyY, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) { doRedo() })
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) { doSave() })

	canvasWidget.OnToolUsed = syncTools
	syncTools()

	w.SetCloseIntercept(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		if !sess.Dirty() {
			w.Close()
			return
		}
		dialog.ShowConfirm("Unsaved changes", "Save before closing?", func(save bool) {
			if save {
				doSave()
			}
			w.Close()
		}, w)
	})

	w.ShowAndRun()
	l.Info("UI closed")
	return nil
}

func toolTitle(t overlay.Tool) string {
	switch t {
	case overlay.ToolDim:
		return "Dimension"
	case overlay.ToolCircle:
		return "Circle"
	case overlay.ToolArrow:
		return "Arrow"
	case overlay.ToolAngle:
		return "Angle"
	case overlay.ToolNote:
		return "Note"
	}
	return string(t)
}

// overlayKey maps fyne key names onto the overlay's key names.
func overlayKey(k fyne.KeyName) string {
	switch k {
	case fyne.KeyEscape:
		return overlay.KeyEscape
	case fyne.KeyDelete:
		return overlay.KeyDelete
	case fyne.KeyBackspace:
		return overlay.KeyBackspace
	}
	return string(k)
}
