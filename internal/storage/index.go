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
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tailormark/internal/domain"
	applog "tailormark/internal/log"
	"tailormark/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	IndexDirName  = ".tmk"
	IndexFileName = "index.sqlite"

	// schemaVersion tracks the index schema. New databases start at 1 and
	// run every migration.
	schemaVersion = 2
)

// IndexPath returns the index database path of a workspace.
func IndexPath(root string) string {
	return filepath.Join(root, IndexDirName, IndexFileName)
}

// InitOrOpenIndex opens the workspace index, creating it if needed, with WAL
// enabled and the schema migrated to the current version.
func InitOrOpenIndex(root string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_init").With(slog.String("root", root))
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("workspace root is required")
	}
	if err := os.MkdirAll(filepath.Join(root, IndexDirName), 0o755); err != nil {
		l.Error("create index dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create %s dir: %w", IndexDirName, err)
	}
	path := IndexPath(root)
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("index ready", slog.String("path", path))
	return db, nil
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, 1, ?, ?, ?)`, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// ensureIndexSchema creates the version 1 tables.
func ensureIndexSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS sheets (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL DEFAULT '',
			diagram     TEXT NOT NULL DEFAULT '',
			unit        TEXT NOT NULL DEFAULT '',
			points      INTEGER NOT NULL DEFAULT 0,
			dims        INTEGER NOT NULL DEFAULT 0,
			circles     INTEGER NOT NULL DEFAULT 0,
			arrows      INTEGER NOT NULL DEFAULT 0,
			angles      INTEGER NOT NULL DEFAULT 0,
			notes       INTEGER NOT NULL DEFAULT 0,
			updated_at  TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sheets_diagram ON sheets(diagram);`,
		// labels, values and note text for search
		`CREATE VIRTUAL TABLE IF NOT EXISTS fts_sheets USING fts5(
			sheet_id UNINDEXED,
			text,
			tokenize = 'unicode61'
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			id        INTEGER PRIMARY KEY,
			sheet_id  TEXT NOT NULL,
			ts        TEXT NOT NULL,
			blob      BLOB NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure index schema: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			// snapshot reasons (autosave, crash, manual) and lookup by sheet
			stmts = []string{
				`ALTER TABLE snapshots ADD COLUMN reason TEXT NOT NULL DEFAULT '';`,
				`CREATE INDEX IF NOT EXISTS idx_snapshots_sheet_ts ON snapshots(sheet_id, ts);`,
			}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}

// SheetSummary is one row of the sheets table.
type SheetSummary struct {
	ID        string
	Title     string
	Diagram   string
	Unit      string
	Points    int
	Dims      int
	Circles   int
	Arrows    int
	Angles    int
	Notes     int
	UpdatedAt time.Time
}

// searchText collects the words a sheet can be found by.
func searchText(s domain.Sheet) string {
	parts := []string{s.Title, s.Diagram}
	for _, p := range s.Points {
		parts = append(parts, p.Label, p.Value)
	}
	for _, v := range s.Values {
		parts = append(parts, v)
	}
	for _, n := range s.Annotations.Notes {
		parts = append(parts, n.Text)
	}
	for _, a := range s.Annotations.Arrows {
		parts = append(parts, a.Text)
	}
	for _, c := range s.Annotations.Circles {
		parts = append(parts, c.Note)
	}
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

// IndexSheet upserts the summary and search text of one sheet.
func IndexSheet(ctx context.Context, root string, s domain.Sheet) error {
	db, err := InitOrOpenIndex(root)
	if err != nil {
		return err
	}
	defer db.Close()
	return indexSheetTx(ctx, db, s)
}

func indexSheetTx(ctx context.Context, db *sql.DB, s domain.Sheet) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	b := s.Annotations
	_, err = tx.ExecContext(ctx, `INSERT INTO sheets(id, title, diagram, unit, points, dims, circles, arrows, angles, notes, updated_at)
		VALUES(?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET title=excluded.title, diagram=excluded.diagram, unit=excluded.unit,
			points=excluded.points, dims=excluded.dims, circles=excluded.circles, arrows=excluded.arrows,
			angles=excluded.angles, notes=excluded.notes, updated_at=excluded.updated_at`,
		s.ID, s.Title, s.Diagram, s.Unit, len(s.Points), len(b.Dims), len(b.Circles), len(b.Arrows), len(b.Angles), len(b.Notes),
		s.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("upsert sheet: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM fts_sheets WHERE sheet_id = ?`, s.ID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear search text: %w", err)
	}
	if txt := searchText(s); txt != "" {
		if _, err := tx.ExecContext(ctx, `INSERT INTO fts_sheets(sheet_id, text) VALUES(?, ?)`, s.ID, txt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert search text: %w", err)
		}
	}
	return tx.Commit()
}

// UnindexSheet removes a sheet from the index. Snapshots are kept.
func UnindexSheet(ctx context.Context, root, id string) error {
	db, err := InitOrOpenIndex(root)
	if err != nil {
		return err
	}
	defer db.Close()
	if _, err := db.ExecContext(ctx, `DELETE FROM sheets WHERE id = ?`, id); err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `DELETE FROM fts_sheets WHERE sheet_id = ?`, id)
	return err
}

// ListIndexed returns all indexed sheets, most recently updated first.
func ListIndexed(ctx context.Context, root string) ([]SheetSummary, error) {
	db, err := InitOrOpenIndex(root)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	rows, err := db.QueryContext(ctx, `SELECT id, title, diagram, unit, points, dims, circles, arrows, angles, notes, updated_at
		FROM sheets ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SheetSummary
	for rows.Next() {
		var s SheetSummary
		var ts string
		if err := rows.Scan(&s.ID, &s.Title, &s.Diagram, &s.Unit, &s.Points, &s.Dims, &s.Circles, &s.Arrows, &s.Angles, &s.Notes, &ts); err != nil {
			return nil, err
		}
		s.UpdatedAt, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Search returns ids of sheets whose labels, values or notes match query.
// Each whitespace-separated term is matched as a prefix.
func Search(ctx context.Context, root, query string) ([]string, error) {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return nil, nil
	}
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"*`
	}
	db, err := InitOrOpenIndex(root)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	rows, err := db.QueryContext(ctx, `SELECT sheet_id FROM fts_sheets WHERE fts_sheets MATCH ? ORDER BY rank`, strings.Join(terms, " "))
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RebuildIndex clears the sheets tables and re-indexes every sheet file.
// Snapshots survive a rebuild.
func RebuildIndex(ctx context.Context, w *Workspace) (int, error) {
	db, err := InitOrOpenIndex(w.Root)
	if err != nil {
		return 0, err
	}
	defer db.Close()
	for _, q := range []string{`DELETE FROM sheets;`, `DELETE FROM fts_sheets;`} {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return 0, fmt.Errorf("clear index: %w", err)
		}
	}
	ids, err := w.ListSheets()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, id := range ids {
		s, err := ReadSheetFile(w.SheetPath(id))
		if err != nil {
			applog.WithComponent("storage").Warn("skip unreadable sheet", slog.String("sheet", id), slog.Any("err", err))
			continue
		}
		if err := indexSheetTx(ctx, db, s); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// DetectAndRebuildIndex replaces an unreadable index with a fresh one. It
// returns true when a rebuild happened.
func DetectAndRebuildIndex(ctx context.Context, w *Workspace) (bool, error) {
	path := IndexPath(w.Root)
	db, err := InitOrOpenIndex(w.Root)
	if err == nil {
		var chk string
		qerr := db.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&chk)
		_ = db.Close()
		if qerr == nil && strings.Contains(strings.ToLower(chk), "ok") {
			return false, nil
		}
	}
	backupIndexFile(path)
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		_ = os.Remove(p)
	}
	if _, err := RebuildIndex(ctx, w); err != nil {
		return false, err
	}
	return true, nil
}

// backupIndexFile copies the index into .tmk/backups with a timestamp.
func backupIndexFile(indexPath string) {
	bdir := filepath.Join(filepath.Dir(indexPath), "backups")
	_ = os.MkdirAll(bdir, 0o755)
	stamp := time.Now().Format("20060102-150405")
	bak := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(indexPath), stamp))
	if data, err := os.ReadFile(indexPath); err == nil {
		_ = os.WriteFile(bak, data, 0o644)
	}
}
