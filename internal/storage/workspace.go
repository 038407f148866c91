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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"tailormark/internal/domain"
	applog "tailormark/internal/log"
	"tailormark/internal/units"
)

const (
	SheetsDirName  = "sheets"
	BackupsDirName = "backups"
	ExportsDirName = "exports"
	SheetExt       = ".json"

	// MaxBackupsPerSheet bounds the timestamped backups kept per sheet.
	MaxBackupsPerSheet = 20
)

var standardSubDirs = []string{SheetsDirName, BackupsDirName, ExportsDirName}

var (
	ErrNoWorkspace  = errors.New("not a tailormark workspace")
	ErrSheetExists  = errors.New("sheet already exists")
	ErrSheetMissing = errors.New("sheet not found")
	ErrBadSheetID   = errors.New("invalid sheet id")
)

// Workspace is a directory of sheets with backups, exports and an
// embedded index under .tmk.
type Workspace struct {
	Root string
	// NoIndex skips the SQLite index on save.
	NoIndex bool
}

// InitWorkspace creates root and the standard subfolders. It is safe to call
// on an existing workspace.
func InitWorkspace(root string) (*Workspace, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("root path is required")
	}
	for _, d := range standardSubDirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return nil, fmt.Errorf("create subdir %s: %w", d, err)
		}
	}
	return &Workspace{Root: root}, nil
}

// OpenWorkspace opens an existing workspace.
func OpenWorkspace(root string) (*Workspace, error) {
	st, err := os.Stat(filepath.Join(root, SheetsDirName))
	if err != nil || !st.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNoWorkspace, root)
	}
	return &Workspace{Root: root}, nil
}

func checkID(id string) error {
	if id == "" || id != filepath.Base(id) || strings.ContainsAny(id, `/\`) || strings.HasPrefix(id, ".") {
		return fmt.Errorf("%w: %q", ErrBadSheetID, id)
	}
	return nil
}

// SheetPath returns the file path of a sheet.
func (w *Workspace) SheetPath(id string) string {
	return filepath.Join(w.Root, SheetsDirName, id+SheetExt)
}

// ExportPath returns a path under exports/ for a sheet and extension.
func (w *Workspace) ExportPath(id, ext string) string {
	return filepath.Join(w.Root, ExportsDirName, id+"."+strings.TrimPrefix(ext, "."))
}

// CreateSheet writes a new sheet and fails if the id is taken.
func (w *Workspace) CreateSheet(ctx context.Context, s *domain.Sheet) error {
	if err := checkID(s.ID); err != nil {
		return err
	}
	if _, err := os.Stat(w.SheetPath(s.ID)); err == nil {
		return fmt.Errorf("%w: %s", ErrSheetExists, s.ID)
	}
	return w.SaveSheet(ctx, s)
}

// SaveSheet stamps, validates and writes a sheet. The previous file is
// copied to a timestamped backup first and the write goes through a temp
// file renamed over the target.
func (w *Workspace) SaveSheet(ctx context.Context, s *domain.Sheet) error {
	if s == nil {
		return errors.New("nil sheet")
	}
	if err := checkID(s.ID); err != nil {
		return err
	}
	l := applog.WithOperation(applog.WithComponent("storage"), "save_sheet").With(slog.String("sheet", s.ID))
	now := time.Now().UTC()
	if s.SchemaVersion == 0 {
		s.SchemaVersion = domain.SheetSchemaVersion
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	if s.Unit == "" {
		s.Unit = units.CM
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sheet: %w", err)
	}
	if err := ValidateSheetJSON(data); err != nil {
		l.Warn("refusing to save invalid sheet", slog.Any("err", err))
		return err
	}
	data = append(data, '\n')

	path := w.SheetPath(s.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure sheets dir: %w", err)
	}
	if _, statErr := os.Stat(path); statErr == nil {
		if err := w.backup(s.ID); err != nil {
			return fmt.Errorf("backup current sheet: %w", err)
		}
	}
	if err := writeAtomic(path, data); err != nil {
		return err
	}
	l.Debug("sheet saved", slog.Int("bytes", len(data)))

	if !w.NoIndex {
		if err := IndexSheet(ctx, w.Root, *s); err != nil {
			// the JSON file is the source of truth; the index can be rebuilt
			l.Warn("index update failed", slog.Any("err", err))
		}
	}
	return nil
}

// LoadSheet reads a sheet. A missing, unparsable or invalid file falls back
// to the newest backup.
func (w *Workspace) LoadSheet(id string) (domain.Sheet, error) {
	if err := checkID(id); err != nil {
		return domain.Sheet{}, err
	}
	s, err := ReadSheetFile(w.SheetPath(id))
	if err == nil {
		return s, nil
	}
	bs, berr := w.latestBackup(id)
	if berr != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Sheet{}, fmt.Errorf("%w: %s", ErrSheetMissing, id)
		}
		return domain.Sheet{}, fmt.Errorf("open sheet: %w; backup attempt: %v", err, berr)
	}
	applog.WithComponent("storage").Warn("sheet restored from backup", slog.String("sheet", id), slog.Any("err", err))
	return bs, nil
}

// ReadSheetFile parses and validates a sheet file anywhere on disk.
func ReadSheetFile(path string) (domain.Sheet, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return domain.Sheet{}, err
	}
	return ParseSheet(b)
}

// ParseSheet decodes and validates a serialized sheet.
func ParseSheet(b []byte) (domain.Sheet, error) {
	var s domain.Sheet
	if err := json.Unmarshal(b, &s); err != nil {
		return domain.Sheet{}, fmt.Errorf("parse sheet: %w", err)
	}
	if err := ValidateSheetJSON(b); err != nil {
		return domain.Sheet{}, err
	}
	return s, nil
}

// ListSheets returns the ids of all sheets, sorted.
func (w *Workspace) ListSheets() ([]string, error) {
	ents, err := os.ReadDir(filepath.Join(w.Root, SheetsDirName))
	if err != nil {
		return nil, fmt.Errorf("read sheets dir: %w", err)
	}
	var ids []string
	for _, e := range ents {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, SheetExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, SheetExt))
	}
	sort.Strings(ids)
	return ids, nil
}

// DeleteSheet backs the sheet up and removes it.
func (w *Workspace) DeleteSheet(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	path := w.SheetPath(id)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %s", ErrSheetMissing, id)
	}
	if err := w.backup(id); err != nil {
		return fmt.Errorf("backup before delete: %w", err)
	}
	if err := os.Remove(path); err != nil {
		return err
	}
	if !w.NoIndex {
		_ = UnindexSheet(ctx, w.Root, id)
	}
	return nil
}

func (w *Workspace) backupPrefix(id string) string { return id + SheetExt + "." }

func (w *Workspace) backup(id string) error {
	bdir := filepath.Join(w.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return err
	}
	stamp := time.Now().UTC().Format("20060102-150405.000000")
	bpath := filepath.Join(bdir, w.backupPrefix(id)+stamp+".bak")
	if err := copyFile(w.SheetPath(id), bpath); err != nil {
		return err
	}
	w.pruneBackups(id)
	return nil
}

// Backups lists the backup files of a sheet, oldest first.
func (w *Workspace) Backups(id string) ([]string, error) {
	bdir := filepath.Join(w.Root, BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	var out []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, w.backupPrefix(id)) && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(bdir, name))
		}
	}
	sort.Strings(out) // timestamp in name yields lexicographic order
	return out, nil
}

func (w *Workspace) pruneBackups(id string) {
	list, err := w.Backups(id)
	if err != nil || len(list) <= MaxBackupsPerSheet {
		return
	}
	for _, p := range list[:len(list)-MaxBackupsPerSheet] {
		_ = os.Remove(p)
	}
}

// latestBackup returns the newest backup that still parses.
func (w *Workspace) latestBackup(id string) (domain.Sheet, error) {
	list, err := w.Backups(id)
	if err != nil {
		return domain.Sheet{}, err
	}
	if len(list) == 0 {
		return domain.Sheet{}, errors.New("no backups found")
	}
	var lastErr error
	for i := len(list) - 1; i >= 0; i-- {
		s, err := ReadSheetFile(list[i])
		if err == nil {
			return s, nil
		}
		lastErr = err
	}
	return domain.Sheet{}, fmt.Errorf("no readable backup: %w", lastErr)
}

// writeAtomic writes to a temp file in the target directory and renames it
// over path.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(path), os.Getpid(), rand.Int()))
	if err := writeFileSync(temp, data); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("write temp file: %w", err)
	}
	// Windows cannot rename over an existing file
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
	if err := os.Rename(temp, path); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeFileSync writes data to a file and flushes it to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies src to dst, overwriting dst.
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}
