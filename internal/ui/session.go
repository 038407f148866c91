/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync/atomic"
	"time"

	"tailormark/internal/config"
	"tailormark/internal/domain"
	"tailormark/internal/export"
	"tailormark/internal/imageload"
	applog "tailormark/internal/log"
	"tailormark/internal/overlay"
	"tailormark/internal/storage"
	"tailormark/internal/undo"
)

// KeepSnapshots bounds the autosave history per sheet.
const KeepSnapshots = 20

// Session binds one open sheet to its workspace, its overlay and the loaded
// diagram image. It holds no toolkit state so it also drives headless use.
type Session struct {
	WS      *storage.Workspace
	Cfg     config.AppConfig
	Store   *overlay.Store
	Overlay *overlay.Overlay

	image     image.Image
	imageInfo imageload.Info

	dirty     atomic.Bool // unsaved to the sheet file
	unsnapped atomic.Bool // changed since the last autosave snapshot
	cancel    func()
	log       *slog.Logger
}

// OpenSession loads a sheet and builds its overlay. The diagram image is
// not loaded yet; call LoadImage.
func OpenSession(ws *storage.Workspace, id string, cfg config.AppConfig) (*Session, error) {
	if ws == nil {
		return nil, errors.New("nil Workspace")
	}
	sheet, err := ws.LoadSheet(id)
	if err != nil {
		return nil, err
	}
	depth := cfg.Overlay.UndoDepth
	if depth <= 0 {
		depth = config.Defaults().Overlay.UndoDepth
	}
	hist := undo.NewManager(undo.Config{
		MaxBytes:    32 * 1024 * 1024,
		MaxPerKey:   depth,
		MinInterval: 300 * time.Millisecond,
	})
	store := overlay.NewStore(sheet, hist)
	s := &Session{
		WS:    ws,
		Cfg:   cfg,
		Store: store,
		log:   applog.WithComponent("ui").With(slog.String("sheet", id)),
	}
	s.Overlay = overlay.New(store, overlay.Props{
		Unit:        sheet.Unit,
		Placement:   cfg.Overlay.Placement(),
		MinCircleR:  cfg.Overlay.MinCircleRPct,
		LayerPreset: overlay.ParsePreset(cfg.Overlay.LayerPreset),
	})
	s.cancel = store.Subscribe(func(domain.Sheet) {
		s.dirty.Store(true)
		s.unsnapped.Store(true)
	})
	return s, nil
}

// Sheet returns the current sheet.
func (s *Session) Sheet() domain.Sheet { return s.Store.Get() }

// Dirty reports unsaved changes.
func (s *Session) Dirty() bool { return s.dirty.Load() }

// Image returns the decoded diagram, nil until loaded or after failure.
func (s *Session) Image() (image.Image, imageload.Info) { return s.image, s.imageInfo }

// LoadImage walks the sheet's image and fallbacks. Failure leaves the
// overlay in the failed state and is not returned as an error: the sheet
// stays usable for values and export without a background.
func (s *Session) LoadImage(ctx context.Context, loader *imageload.Loader) {
	sheet := s.Sheet()
	candidates := append([]string{sheet.ImageURL}, sheet.FallbackURLs...)
	img, info, err := loader.Load(ctx, candidates)
	if err != nil {
		s.log.Warn("diagram image not found", slog.Any("err", err))
		s.image, s.imageInfo = nil, imageload.Info{}
		s.Overlay.ImageFailed()
		return
	}
	s.image, s.imageInfo = img, info
	s.Overlay.SetNaturalSize(float64(info.Width), float64(info.Height))
}

// Save writes the sheet through the workspace.
func (s *Session) Save(ctx context.Context) error {
	sheet := s.Sheet()
	if err := s.WS.SaveSheet(ctx, &sheet); err != nil {
		return fmt.Errorf("save sheet: %w", err)
	}
	s.dirty.Store(false)
	applog.WithOperation(s.log, "save").Info("sheet saved")
	return nil
}

// Autosave stores a snapshot when the sheet changed since the previous
// one. It reports whether a snapshot was written.
func (s *Session) Autosave(ctx context.Context, now time.Time) (bool, error) {
	if !s.unsnapped.Swap(false) {
		return false, nil
	}
	sheet := s.Sheet()
	if err := storage.SaveSnapshot(ctx, s.WS, sheet, storage.ReasonAutosave, now); err != nil {
		s.unsnapped.Store(true)
		return false, fmt.Errorf("autosave: %w", err)
	}
	if _, err := storage.PruneOldSnapshots(ctx, s.WS, sheet.ID, KeepSnapshots); err != nil {
		s.log.Warn("prune snapshots failed", slog.Any("err", err))
	}
	return true, nil
}

// RunAutosave snapshots every interval until ctx is done.
func (s *Session) RunAutosave(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if _, err := s.Autosave(ctx, now); err != nil {
				s.log.Error("autosave failed", slog.Any("err", err))
			}
		}
	}
}

// Export renders the sheet with the currently visible layers into the
// workspace exports folder and returns the written path.
func (s *Session) Export(format export.Format) (string, error) {
	sheet := s.Sheet()
	path := s.WS.ExportPath(sheet.ID, string(format))
	opt := export.Options{Format: format, Background: s.image, Layers: s.Overlay.LayerFlags()}
	if err := export.ToFile(path, sheet, opt); err != nil {
		return "", err
	}
	return path, nil
}

// Close detaches the session from its store.
func (s *Session) Close() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
